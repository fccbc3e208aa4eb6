package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/erg0nix/gnomegpt/internal/app"
	"github.com/erg0nix/gnomegpt/internal/rpc"
)

func newPsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ps",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			t := newTable("NAME", "STATUS", "PID", "ADDRESS", "PROVIDER", "UPTIME")
			addServerRow(cmd.Context(), t, a.Config.DataDir, a.ServerAddr)

			fmt.Println(t.Render())
			return nil
		},
	}
}

func addServerRow(ctx context.Context, t *table.Table, dataDir string, serverAddr string) {
	pid := app.ReadPID(filepath.Join(dataDir, app.PIDFile))
	if pid == 0 {
		t.Row("gnomegpt", styleError.Render("stopped"), "-", serverAddr, "-", "-")
		return
	}

	status := styleWarning.Render("starting")
	provider, uptime := "-", "-"

	client, err := rpc.Dial(serverAddr)
	if err == nil {
		defer client.Close()

		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if resp, err := client.Status(ctx); err == nil {
			provider = resp.Provider + "/" + resp.Model
			uptime = formatUptime(resp.UptimeSeconds)
		}

		switch health, err := client.Health(ctx, rpc.ServiceName); {
		case err != nil:
		case health == healthpb.HealthCheckResponse_SERVING:
			status = styleSuccess.Render("running")
		default:
			status = styleWarning.Render("backend unavailable")
		}
	}

	t.Row("gnomegpt", status, fmt.Sprintf("%d", pid), serverAddr, provider, uptime)
}

func formatUptime(seconds int64) string {
	if seconds <= 0 {
		return "0s"
	}

	uptime := time.Duration(seconds) * time.Second
	hours := int(uptime.Hours())
	minutes := int(uptime.Minutes()) % 60
	secondsRemainder := int(uptime.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, secondsRemainder)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, secondsRemainder)
	}
	return fmt.Sprintf("%ds", secondsRemainder)
}
