package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erg0nix/gnomegpt/internal/app"
	"github.com/erg0nix/gnomegpt/internal/config"
	"github.com/erg0nix/gnomegpt/internal/rpc"
	"github.com/erg0nix/gnomegpt/internal/turn"
)

type App struct {
	Config     config.Config
	ConfigPath string
	ServerAddr string
	Remote     bool
}

func newApp(cmd *cobra.Command) (*App, error) {
	configPath, _ := cmd.Flags().GetString("config")
	serverOverride, _ := cmd.Flags().GetString("server")

	if configPath == "" {
		configPath = config.DefaultPath()
	}

	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return &App{
		Config:     cfg,
		ConfigPath: configPath,
		ServerAddr: resolveServer(serverOverride, cfg),
		Remote:     serverOverride != "",
	}, nil
}

// conversation is where utterances go: an in-process scheduler or a daemon.
type conversation interface {
	Send(ctx context.Context, utterance string, onEvent func(turn.Event)) error
	Close() error
}

type localConversation struct {
	services *app.Services
}

func (c *localConversation) Send(_ context.Context, utterance string, onEvent func(turn.Event)) error {
	for event := range c.services.Scheduler.Submit(utterance) {
		onEvent(event)
	}
	return nil
}

func (c *localConversation) Close() error {
	c.services.Close()
	return nil
}

func (a *App) openConversation() (conversation, *app.Services, error) {
	if a.Remote {
		client, err := rpc.Dial(a.ServerAddr)
		if err != nil {
			printServerNotRunning(a.ServerAddr, err)
			return nil, nil, err
		}
		return client, nil, nil
	}

	services, err := app.NewServices(a.Config)
	if err != nil {
		return nil, nil, err
	}
	return &localConversation{services: services}, services, nil
}
