package conversation

import (
	"sync"

	"github.com/erg0nix/gnomegpt/internal/core"
)

// DefaultCapacity is the number of messages kept before the oldest is evicted.
const DefaultCapacity = 20

// History is the bounded message log of one conversation. The oldest message
// is evicted first once the capacity is exceeded.
type History struct {
	mu       sync.Mutex
	messages []core.Message
	capacity int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{capacity: capacity}
}

func (h *History) Append(msg core.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, msg)

	if overflow := len(h.messages) - h.capacity; overflow > 0 {
		h.messages = append([]core.Message(nil), h.messages[overflow:]...)
	}
}

// Messages returns a copy of the history, oldest first.
func (h *History) Messages() []core.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]core.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = nil
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.messages)
}

func (h *History) Capacity() int {
	return h.capacity
}

// Snapshot captures the history for display outside the conversation owner.
type Snapshot struct {
	Capacity int            `json:"capacity"`
	Messages []core.Message `json:"messages"`
}

func (h *History) Snapshot() Snapshot {
	return Snapshot{Capacity: h.capacity, Messages: h.Messages()}
}
