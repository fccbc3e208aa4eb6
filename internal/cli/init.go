package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erg0nix/gnomegpt/internal/config"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE:  runInitCmd,
	}

	cmd.Flags().Bool("force", false, "overwrite an existing config")
	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	if path == "" {
		path = config.DefaultPath()
	}

	if _, err := os.Stat(path); err == nil && !force {
		fmt.Println(styleDim.Render("config already exists at " + path))
		return nil
	}

	if err := config.Save(path, config.Default()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Println(styleSuccess.Render("wrote " + path))
	fmt.Println("set " + styleCommand.Render("api_key") + " there, or export OPENAI_API_KEY / ANTHROPIC_API_KEY")
	return nil
}
