package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/erg0nix/gnomegpt/internal/rpc"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the gnomegpt daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			stopServer(cmd.Context(), a.ServerAddr)
			return nil
		},
	}
}

func stopServer(ctx context.Context, serverAddr string) {
	client, err := rpc.Dial(serverAddr)
	if err != nil {
		fmt.Println(styleDim.Render("gnomegpt server not running"))
		return
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := client.Shutdown(ctx); err != nil {
		fmt.Println(styleError.Render("gnomegpt server: " + err.Error()))
		return
	}

	fmt.Println(styleSuccess.Render("stopped gnomegpt server"))
}
