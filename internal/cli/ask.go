package cli

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erg0nix/gnomegpt/internal/turn"
)

func runAskCmd(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return cmd.Help()
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	conv, _, err := a.openConversation()
	if err != nil {
		return err
	}
	defer conv.Close()

	writer := newLiveWriter(os.Stdout, isTerminal(os.Stdout))
	failed := false

	err = conv.Send(cmd.Context(), question, func(event turn.Event) {
		writer.Handle(event)
		if event.Type == turn.EvtTurnFailed {
			failed = true
		}
	})
	if err != nil {
		return err
	}
	if failed {
		return errors.New("turn failed")
	}
	return nil
}
