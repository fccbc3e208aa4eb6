package cli

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/erg0nix/gnomegpt/internal/config"
	"github.com/erg0nix/gnomegpt/internal/providers"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective config with the API key redacted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			out, err := redactedTOML(a.Config)
			if err != nil {
				return err
			}
			fmt.Println(styleDim.Render("# " + a.ConfigPath))
			fmt.Print(out)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.DefaultPath()
			}
			fmt.Println(path)
			return nil
		},
	})

	return cmd
}

func redactedTOML(cfg config.Config) (string, error) {
	if cfg.APIKey != "" {
		cfg.APIKey = providers.Redact(cfg.APIKey)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
