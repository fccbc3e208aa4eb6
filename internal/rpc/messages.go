package rpc

import (
	"github.com/erg0nix/gnomegpt/internal/core"
	"github.com/erg0nix/gnomegpt/internal/markup"
	"github.com/erg0nix/gnomegpt/internal/turn"
)

type SendRequest struct {
	Utterance string `json:"utterance"`
}

// TurnEvent is the wire form of turn.Event.
type TurnEvent struct {
	Type     turn.EventType   `json:"type"`
	TurnID   core.TurnID      `json:"turn_id,omitempty"`
	Token    string           `json:"token,omitempty"`
	Text     string           `json:"text,omitempty"`
	Segments []markup.Segment `json:"segments,omitempty"`
	Reply    turn.ReplyKind   `json:"reply,omitempty"`
}

func fromEvent(e turn.Event) *TurnEvent {
	return &TurnEvent{
		Type:     e.Type,
		TurnID:   e.TurnID,
		Token:    e.Token,
		Text:     e.Text,
		Segments: e.Segments,
		Reply:    e.Reply,
	}
}

// Event converts the wire form back into a turn.Event.
func (e *TurnEvent) Event() turn.Event {
	return turn.Event{
		Type:     e.Type,
		TurnID:   e.TurnID,
		Token:    e.Token,
		Text:     e.Text,
		Segments: e.Segments,
		Reply:    e.Reply,
	}
}

type HistoryRequest struct{}

type HistoryResponse struct {
	Capacity int            `json:"capacity"`
	Messages []core.Message `json:"messages"`
}

type StatusRequest struct{}

type StatusResponse struct {
	Bind          string `json:"bind"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	Personality   string `json:"personality"`
	DataDir       string `json:"data_dir"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	StartedAt     string `json:"started_at"`
}

type ShutdownRequest struct{}

type ShutdownResponse struct {
	Message string `json:"message"`
}
