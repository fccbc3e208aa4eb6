package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

	"github.com/erg0nix/gnomegpt/internal/turn"
)

// Client talks to a running daemon.
type Client struct {
	conn *grpc.ClientConn
	id   string
}

func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial daemon at %s: %w", addr, err)
	}
	return &Client{conn: conn, id: uuid.NewString()}, nil
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx, ClientIDKey, c.id)
}

// Send submits an utterance and calls onEvent for every event of its turn.
func (c *Client) Send(ctx context.Context, utterance string, onEvent func(turn.Event)) error {
	stream, err := c.conn.NewStream(c.outgoing(ctx), &chatServiceDesc.Streams[0], sendMethod, grpc.CallContentSubtype(CodecName))
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if err := stream.SendMsg(&SendRequest{Utterance: utterance}); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for {
		event := new(TurnEvent)
		err := stream.RecvMsg(event)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("send: %w", err)
		}
		onEvent(event.Event())
	}
}

func (c *Client) History(ctx context.Context) (*HistoryResponse, error) {
	out := new(HistoryResponse)
	if err := c.conn.Invoke(c.outgoing(ctx), historyMethod, &HistoryRequest{}, out, grpc.CallContentSubtype(CodecName)); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return out, nil
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	out := new(StatusResponse)
	if err := c.conn.Invoke(c.outgoing(ctx), statusMethod, &StatusRequest{}, out, grpc.CallContentSubtype(CodecName)); err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	return out, nil
}

func (c *Client) Shutdown(ctx context.Context) (*ShutdownResponse, error) {
	out := new(ShutdownResponse)
	if err := c.conn.Invoke(c.outgoing(ctx), shutdownMethod, &ShutdownRequest{}, out, grpc.CallContentSubtype(CodecName)); err != nil {
		return nil, fmt.Errorf("shutdown: %w", err)
	}
	return out, nil
}

// Health reports the serving status of service ("" for the daemon itself).
func (c *Client) Health(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("health: %w", err)
	}
	return resp.GetStatus(), nil
}
