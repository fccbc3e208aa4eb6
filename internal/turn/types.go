package turn

import (
	"strings"

	"github.com/erg0nix/gnomegpt/internal/core"
	"github.com/erg0nix/gnomegpt/internal/markup"
)

type EventType string

const (
	EvtCommandReply   EventType = "command_reply"
	EvtHistoryCleared EventType = "history_cleared"
	EvtTurnQueued     EventType = "turn_queued"
	EvtTurnStarted    EventType = "turn_started"
	EvtTokenDelta     EventType = "token_delta"
	EvtTurnCompleted  EventType = "turn_completed"
	EvtTurnFailed     EventType = "turn_failed"
)

// Terminal reports whether no further events follow this one.
func (t EventType) Terminal() bool {
	switch t {
	case EvtCommandReply, EvtHistoryCleared, EvtTurnCompleted, EvtTurnFailed:
		return true
	default:
		return false
	}
}

// Event is one step of a submitted utterance. Token is set on deltas; Text and
// Segments hold the live buffer on deltas and the full reply on terminal events.
type Event struct {
	Type     EventType
	TurnID   core.TurnID
	Token    string
	Text     string
	Segments []markup.Segment
	Reply    ReplyKind
}

type ReplyKind string

const (
	ReplyOK         ReplyKind = "ok"
	ReplyError      ReplyKind = "error"
	ReplyUnexpected ReplyKind = "unexpected"
)

const (
	ErrorPrefix      = "Error: "
	UnexpectedPrefix = "Something went wrong: "
)

// ClassifyReply tells error replies apart from ordinary ones by their prefix.
func ClassifyReply(text string) ReplyKind {
	switch {
	case strings.HasPrefix(text, ErrorPrefix):
		return ReplyError
	case strings.HasPrefix(text, UnexpectedPrefix):
		return ReplyUnexpected
	default:
		return ReplyOK
	}
}
