package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/erg0nix/gnomegpt/internal/assembler"
	"github.com/erg0nix/gnomegpt/internal/calc"
	"github.com/erg0nix/gnomegpt/internal/commands"
	"github.com/erg0nix/gnomegpt/internal/config"
	"github.com/erg0nix/gnomegpt/internal/config/persona"
	"github.com/erg0nix/gnomegpt/internal/conversation"
	"github.com/erg0nix/gnomegpt/internal/guide"
	"github.com/erg0nix/gnomegpt/internal/markup"
	"github.com/erg0nix/gnomegpt/internal/money"
	"github.com/erg0nix/gnomegpt/internal/osrs"
	"github.com/erg0nix/gnomegpt/internal/providers"
	"github.com/erg0nix/gnomegpt/internal/turn"
)

// GuideProgressFile is the name of the guide tracker's progress file inside the data dir.
const GuideProgressFile = "guide_progress.json"

// Services is everything a conversation needs, wired from one config.
type Services struct {
	Router    *providers.Router
	Scheduler *turn.Scheduler
	Segmenter *markup.Segmenter
	Commands  *commands.Registry
	Wiki      *osrs.WikiClient
	Prices    *osrs.PriceClient
	Hiscores  *osrs.HiscoresClient
}

// NewServices builds the collaborators and starts the scheduler. The guide and
// calculator are optional: when they fail to load, their commands say so.
func NewServices(cfg config.Config) (*Services, error) {
	router := providers.NewRouter(cfg)

	wiki := osrs.NewWikiClient(cfg.Wiki.BaseURL, cfg.UserAgent)
	prices := osrs.NewPriceClient(cfg.Prices.BaseURL, cfg.Wiki.BaseURL, cfg.UserAgent, time.Duration(cfg.Prices.MappingTTLSeconds)*time.Second)
	hiscores := osrs.NewHiscoresClient(cfg.Hiscores.BaseURL, cfg.UserAgent, time.Duration(cfg.Hiscores.CacheTTLSeconds)*time.Second)

	moneyGuide, err := money.Load()
	if err != nil {
		return nil, fmt.Errorf("load money making guide: %w", err)
	}

	deps := commands.Deps{Wiki: wiki, Prices: prices, WikiBase: cfg.Wiki.BaseURL}
	asmDeps := assembler.Deps{Wiki: wiki, Hiscores: hiscores, Money: moneyGuide}

	calculator, err := calc.New(prices)
	if err != nil {
		slog.Warn("skill calculator unavailable", "error", err)
	} else {
		deps.Calc = calculator
		asmDeps.Calc = calculator
	}

	tracker, err := guide.Open(filepath.Join(cfg.DataDir, GuideProgressFile))
	if err != nil {
		slog.Warn("guide tracker unavailable", "error", err)
	} else {
		deps.Guide = tracker
	}

	registry := commands.NewDefault(deps)
	segmenter := markup.NewSegmenter(cfg.Wiki.BaseURL)

	scheduler := turn.New(turn.Config{
		Gateway:   router,
		Assembler: assembler.New(asmDeps),
		Commands:  registry,
		Segmenter: segmenter,
		History:   conversation.NewHistory(conversation.DefaultCapacity),
		Settings:  SettingsFor(cfg),
	})

	return &Services{
		Router:    router,
		Scheduler: scheduler,
		Segmenter: segmenter,
		Commands:  registry,
		Wiki:      wiki,
		Prices:    prices,
		Hiscores:  hiscores,
	}, nil
}

// SettingsFor derives the per-turn scheduler settings from cfg.
func SettingsFor(cfg config.Config) turn.Settings {
	return turn.Settings{
		SystemPrompt: persona.SystemPrompt(cfg.Personality, cfg.SystemPrompt),
		Context: assembler.Options{
			WikiLookup: cfg.Wiki.Lookup,
			MaxResults: cfg.Wiki.MaxResults,
			RSN:        cfg.RSN,
		},
	}
}

// Apply switches provider, credentials, persona and context options for the
// next turn. Collaborator endpoints keep the values they started with.
func (s *Services) Apply(cfg config.Config) {
	s.Router.Reconfigure(cfg)
	s.Scheduler.SetSettings(SettingsFor(cfg))
	slog.Info("configuration applied", "provider", cfg.Provider, "personality", cfg.Personality)
}

// Available reports whether the active backend can take a turn.
func (s *Services) Available(ctx context.Context) bool {
	return s.Router.Check(ctx) == nil
}

func (s *Services) Close() {
	s.Scheduler.Close()
}
