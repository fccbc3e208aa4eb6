package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/erg0nix/gnomegpt/internal/config"
	"github.com/erg0nix/gnomegpt/internal/rpc"
)

// PIDFile is the daemon's PID file inside the data dir.
const PIDFile = "server.pid"

// RunServer serves the Chat and health services until a signal or a Shutdown
// request arrives, then lets queued turns finish. When configPath is set, edits
// to it are applied to later turns.
func RunServer(cfg config.Config, configPath string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	services, err := NewServices(cfg)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	defer services.Close()

	listener, err := net.Listen("tcp", cfg.Bind)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", cfg.Bind, err)
	}

	pidFile := filepath.Join(cfg.DataDir, PIDFile)
	if err := writePIDFile(pidFile); err != nil {
		slog.Warn("failed to write PID file", "error", err)
	}
	defer os.Remove(pidFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()

	rpc.RegisterChatServer(grpcServer, &rpc.ChatHandler{
		Scheduler: services.Scheduler,
		StatusFn: func() rpc.StatusResponse {
			provider, model := services.Router.Active()
			return rpc.StatusResponse{
				Bind:        cfg.Bind,
				Provider:    string(provider.Name()),
				Model:       model,
				Personality: cfg.Personality,
				DataDir:     cfg.DataDir,
			}
		},
		StartTime: time.Now(),
		StopFunc:  stop,
	})
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	go rpc.ReportAvailability(ctx, healthServer, rpc.DefaultHealthInterval, services.Available)

	if configPath != "" {
		if err := config.Watch(ctx, configPath, services.Apply); err != nil {
			slog.Warn("config watch disabled", "path", configPath, "error", err)
		}
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- grpcServer.Serve(listener) }()

	slog.Info("server listening", "address", cfg.Bind, "provider", cfg.Provider)

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		return fmt.Errorf("server: serve: %w", err)
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		slog.Warn("drain timeout, forcing shutdown")
		grpcServer.Stop()
	}

	return nil
}
