package app

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/erg0nix/gnomegpt/internal/config"
)

func TestReadPID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, PIDFile)

	if got := ReadPID(path); got != 0 {
		t.Errorf("ReadPID(missing) = %d, want 0", got)
	}

	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	if got := ReadPID(path); got != os.Getpid() {
		t.Errorf("ReadPID = %d, want %d", got, os.Getpid())
	}

	if err := os.WriteFile(path, []byte("not-a-pid"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := ReadPID(path); got != 0 {
		t.Errorf("ReadPID(garbage) = %d, want 0", got)
	}
}

func TestWritePIDFileCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", PIDFile)
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != strconv.Itoa(os.Getpid()) {
		t.Errorf("pid file = %q", data)
	}
}

func TestSettingsFor(t *testing.T) {
	cfg := config.Default()
	cfg.RSN = "Zezima"
	cfg.Wiki.MaxResults = 2

	settings := SettingsFor(cfg)
	if settings.Context.RSN != "Zezima" || settings.Context.MaxResults != 2 || !settings.Context.WikiLookup {
		t.Errorf("context options = %+v", settings.Context)
	}
	if settings.SystemPrompt == "" {
		t.Error("system prompt is empty")
	}

	cfg.SystemPrompt = "You are Bob the cat."
	if got := SettingsFor(cfg).SystemPrompt; got != "You are Bob the cat." {
		t.Errorf("override prompt = %q", got)
	}
}

func TestServicesApply(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Provider = "openai"

	services, err := NewServices(cfg)
	if err != nil {
		t.Fatalf("NewServices: %v", err)
	}
	defer services.Close()

	cfg.Provider = "ollama"
	cfg.Model = "llama3.1"
	cfg.Personality = "hans"
	services.Apply(cfg)

	provider, model := services.Router.Active()
	if provider.Name() != "ollama" || model != "llama3.1" {
		t.Errorf("active = %s/%s, want ollama/llama3.1", provider.Name(), model)
	}
	if services.Scheduler.Settings().SystemPrompt == SettingsFor(config.Default()).SystemPrompt {
		t.Error("system prompt did not follow personality change")
	}
}
