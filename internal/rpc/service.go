// Package rpc exposes the turn scheduler over gRPC. Messages are plain Go
// structs carried by a JSON codec, so the service descriptor is written by hand.
package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName = "gnomegpt.Chat"

	sendMethod     = "/gnomegpt.Chat/Send"
	historyMethod  = "/gnomegpt.Chat/History"
	statusMethod   = "/gnomegpt.Chat/Status"
	shutdownMethod = "/gnomegpt.Chat/Shutdown"
)

// ChatServer is implemented by the daemon.
type ChatServer interface {
	Send(*SendRequest, ChatSendServer) error
	History(context.Context, *HistoryRequest) (*HistoryResponse, error)
	Status(context.Context, *StatusRequest) (*StatusResponse, error)
	Shutdown(context.Context, *ShutdownRequest) (*ShutdownResponse, error)
}

type ChatSendServer interface {
	Send(*TurnEvent) error
	grpc.ServerStream
}

type chatSendServer struct {
	grpc.ServerStream
}

func (s *chatSendServer) Send(e *TurnEvent) error {
	return s.ServerStream.SendMsg(e)
}

func RegisterChatServer(s grpc.ServiceRegistrar, srv ChatServer) {
	s.RegisterService(&chatServiceDesc, srv)
}

var chatServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "History", Handler: historyHandler},
		{MethodName: "Status", Handler: statusHandler},
		{MethodName: "Shutdown", Handler: shutdownHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Send", Handler: sendHandler, ServerStreams: true},
	},
	Metadata: "gnomegpt/chat",
}

func sendHandler(srv any, stream grpc.ServerStream) error {
	in := new(SendRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ChatServer).Send(in, &chatSendServer{stream})
}

func historyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(HistoryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChatServer).History(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: historyMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ChatServer).History(ctx, req.(*HistoryRequest))
	})
}

func statusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChatServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: statusMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ChatServer).Status(ctx, req.(*StatusRequest))
	})
}

func shutdownHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ShutdownRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChatServer).Shutdown(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: shutdownMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ChatServer).Shutdown(ctx, req.(*ShutdownRequest))
	})
}
