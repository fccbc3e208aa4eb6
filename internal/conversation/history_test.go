package conversation

import (
	"fmt"
	"testing"

	"github.com/erg0nix/gnomegpt/internal/core"
)

func TestHistoryEvictsOldestFirst(t *testing.T) {
	h := NewHistory(DefaultCapacity)

	for i := 1; i <= 25; i++ {
		h.Append(core.NewMessage(core.RoleUser, fmt.Sprintf("msg %d", i)))
	}

	msgs := h.Messages()
	if len(msgs) != 20 {
		t.Fatalf("len = %d, want 20", len(msgs))
	}
	if msgs[0].Content != "msg 6" {
		t.Errorf("oldest = %q, want %q", msgs[0].Content, "msg 6")
	}
	if msgs[19].Content != "msg 25" {
		t.Errorf("newest = %q, want %q", msgs[19].Content, "msg 25")
	}
}

func TestHistoryNeverExceedsCapacity(t *testing.T) {
	h := NewHistory(3)

	for i := 0; i < 10; i++ {
		h.Append(core.NewMessage(core.RoleAssistant, "x"))
		if h.Len() > 3 {
			t.Fatalf("len = %d after append %d, want <= 3", h.Len(), i)
		}
	}
}

func TestHistoryMessagesIsCopy(t *testing.T) {
	h := NewHistory(0)
	h.Append(core.NewMessage(core.RoleUser, "original"))

	msgs := h.Messages()
	msgs[0].Content = "changed"

	if got := h.Messages()[0].Content; got != "original" {
		t.Errorf("history mutated through copy: %q", got)
	}
	if h.Capacity() != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", h.Capacity(), DefaultCapacity)
	}
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(0)
	h.Append(core.NewMessage(core.RoleUser, "hi"))
	h.Clear()

	if h.Len() != 0 {
		t.Errorf("len = %d after clear, want 0", h.Len())
	}
}
