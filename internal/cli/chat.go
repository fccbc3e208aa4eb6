package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erg0nix/gnomegpt/internal/config"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat",
		RunE:  runChatCmd,
	}
}

func runChatCmd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	conv, services, err := a.openConversation()
	if err != nil {
		return err
	}
	defer conv.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if services != nil {
		if err := config.Watch(ctx, a.ConfigPath, services.Apply); err != nil {
			slog.Warn("config watch disabled", "path", a.ConfigPath, "error", err)
		}
	}

	interactive := isTerminal(os.Stdout)
	writer := newLiveWriter(os.Stdout, interactive)

	fmt.Println(styleDim.Render("Ask me anything about Old School RuneScape. /help for commands, exit to quit."))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(stylePrompt.Render("> "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		if err := conv.Send(ctx, line, writer.Handle); err != nil {
			fmt.Println(styledError("send failed", err.Error()))
		}
	}
}
