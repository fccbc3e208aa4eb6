package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const DefaultHealthInterval = 30 * time.Second

// ReportAvailability sets the Chat service health from available until ctx is
// done. The empty service name stays SERVING while the daemon is up.
func ReportAvailability(ctx context.Context, server *health.Server, interval time.Duration, available func(context.Context) bool) {
	server.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	update := func() {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		status := healthpb.HealthCheckResponse_NOT_SERVING
		if available(checkCtx) {
			status = healthpb.HealthCheckResponse_SERVING
		}
		server.SetServingStatus(ServiceName, status)
	}

	update()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			server.Shutdown()
			return
		case <-ticker.C:
			update()
		}
	}
}
