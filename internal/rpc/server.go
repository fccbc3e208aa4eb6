package rpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/metadata"

	"github.com/erg0nix/gnomegpt/internal/conversation"
	"github.com/erg0nix/gnomegpt/internal/turn"
)

// ClientIDKey is the metadata key carrying the caller's client id.
const ClientIDKey = "gnomegpt-client-id"

type Scheduler interface {
	Submit(utterance string) <-chan turn.Event
	History() conversation.Snapshot
}

// StatusFunc fills in the parts of the status that follow configuration.
type StatusFunc func() StatusResponse

// ChatHandler serves the Chat service from a single scheduler shared by all clients.
type ChatHandler struct {
	Scheduler Scheduler
	StatusFn  StatusFunc
	StartTime time.Time
	StopFunc  func()
}

func (h *ChatHandler) Send(req *SendRequest, stream ChatSendServer) error {
	events := h.Scheduler.Submit(req.Utterance)
	slog.Debug("utterance received", "client_id", clientID(stream.Context()))

	for event := range events {
		if err := stream.Send(fromEvent(event)); err != nil {
			go drain(events)
			return err
		}
	}
	return nil
}

// drain consumes the rest of a turn whose client went away so the worker
// never blocks on a full event buffer.
func drain(events <-chan turn.Event) {
	for range events {
	}
}

func (h *ChatHandler) History(context.Context, *HistoryRequest) (*HistoryResponse, error) {
	snapshot := h.Scheduler.History()
	return &HistoryResponse{Capacity: snapshot.Capacity, Messages: snapshot.Messages}, nil
}

func (h *ChatHandler) Status(context.Context, *StatusRequest) (*StatusResponse, error) {
	var resp StatusResponse
	if h.StatusFn != nil {
		resp = h.StatusFn()
	}

	if !h.StartTime.IsZero() {
		resp.UptimeSeconds = int64(time.Since(h.StartTime).Seconds())
		resp.StartedAt = h.StartTime.Format(time.RFC3339)
	}
	return &resp, nil
}

func (h *ChatHandler) Shutdown(ctx context.Context, _ *ShutdownRequest) (*ShutdownResponse, error) {
	slog.Info("shutdown requested", "client_id", clientID(ctx))
	if h.StopFunc != nil {
		go h.StopFunc()
	}

	return &ShutdownResponse{Message: "shutting down"}, nil
}

func clientID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(ClientIDKey); len(values) > 0 {
		return values[0]
	}
	return ""
}
