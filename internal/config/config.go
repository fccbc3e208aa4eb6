package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type WikiConfig struct {
	Lookup     bool   `toml:"lookup"`
	MaxResults int    `toml:"max_results"`
	BaseURL    string `toml:"base_url"`
}

type PricesConfig struct {
	BaseURL           string `toml:"base_url"`
	MappingTTLSeconds int    `toml:"mapping_ttl_seconds"`
}

type HiscoresConfig struct {
	BaseURL         string `toml:"base_url"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
}

type EndpointsConfig struct {
	OpenAI    string `toml:"openai"`
	Anthropic string `toml:"anthropic"`
}

type DebugConfig struct {
	LogRequests  bool   `toml:"log_requests"`
	LogResponses bool   `toml:"log_responses"`
	LogDirectory string `toml:"log_directory"`
}

type Config struct {
	Provider     string          `toml:"provider"`
	APIKey       string          `toml:"api_key"`
	Model        string          `toml:"model"`
	OllamaURL    string          `toml:"ollama_url"`
	Personality  string          `toml:"personality"`
	SystemPrompt string          `toml:"system_prompt"`
	RSN          string          `toml:"rsn"`
	UserAgent    string          `toml:"user_agent"`
	DataDir      string          `toml:"data_dir"`
	Bind         string          `toml:"bind"`
	Wiki         WikiConfig      `toml:"wiki"`
	Prices       PricesConfig    `toml:"prices"`
	Hiscores     HiscoresConfig  `toml:"hiscores"`
	Endpoints    EndpointsConfig `toml:"endpoints"`
	Debug        DebugConfig     `toml:"debug"`
}

const (
	DefaultBind      = "127.0.0.1:50061"
	defaultUserAgent = "GnomeGPT/1.0 (OSRS assistant; https://github.com/erg0nix/gnomegpt)"
)

var validProviders = map[string]bool{"openai": true, "anthropic": true, "ollama": true}

func Default() Config {
	defaultDataDir := defaultDataDir()
	return Config{
		Provider:    "openai",
		OllamaURL:   "http://localhost:11434",
		Personality: "gnome_child",
		UserAgent:   defaultUserAgent,
		DataDir:     defaultDataDir,
		Bind:        DefaultBind,
		Wiki: WikiConfig{
			Lookup:     true,
			MaxResults: 3,
			BaseURL:    "https://oldschool.runescape.wiki",
		},
		Prices: PricesConfig{
			BaseURL:           "https://prices.runescape.wiki/api/v1/osrs",
			MappingTTLSeconds: 3600,
		},
		Hiscores: HiscoresConfig{
			BaseURL:         "https://secure.runescape.com/m=hiscore_oldschool",
			CacheTTLSeconds: 300,
		},
		Debug: DebugConfig{
			LogDirectory: filepath.Join(defaultDataDir, "debug"),
		},
	}
}

// DefaultPath is where the config lives when no --config flag is given.
func DefaultPath() string {
	return filepath.Join(Default().DataDir, "config.toml")
}

func LoadOrCreate(path string) (Config, error) {
	config := Default()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			if err := Save(path, config); err != nil {
				return config, err
			}
			config = ApplyEnv(config)
			return config, config.normalize()
		}

		return config, err
	}

	return Load(path)
}

// Load reads path over the defaults, then applies environment overrides.
func Load(path string) (Config, error) {
	config := Default()

	configData, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	if err := toml.Unmarshal(configData, &config); err != nil {
		return config, fmt.Errorf("parse %s: %w", path, err)
	}

	config = ApplyEnv(config)
	return config, config.normalize()
}

func Save(path string, config Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	configData, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, configData, 0o600)
}

func (c *Config) normalize() error {
	c.DataDir = expandPath(c.DataDir)
	c.Debug.LogDirectory = expandPath(c.Debug.LogDirectory)
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.Model = strings.TrimSpace(c.Model)
	c.Bind = strings.TrimSpace(c.Bind)
	c.RSN = strings.TrimSpace(c.RSN)

	if c.Provider == "" {
		c.Provider = "openai"
	}
	if !validProviders[c.Provider] {
		return errors.New("provider must be one of openai, anthropic, ollama; got " + c.Provider)
	}

	if c.Bind == "" {
		c.Bind = DefaultBind
	}

	c.Wiki.MaxResults = max(1, min(5, c.Wiki.MaxResults))

	if c.Hiscores.CacheTTLSeconds <= 0 {
		c.Hiscores.CacheTTLSeconds = 300
	}
	if c.Prices.MappingTTLSeconds <= 0 {
		c.Prices.MappingTTLSeconds = 3600
	}

	return nil
}

func defaultDataDir() string {
	homeDir, _ := os.UserHomeDir()

	if homeDir == "" {
		return ".gnomegpt"
	}

	return filepath.Join(homeDir, ".gnomegpt")
}

func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		homeDir, _ := os.UserHomeDir()

		if homeDir != "" {
			trimmed := strings.TrimPrefix(path, "~")
			trimmed = strings.TrimPrefix(trimmed, string(os.PathSeparator))

			return filepath.Join(homeDir, trimmed)
		}
	}

	return path
}
