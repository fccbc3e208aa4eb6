package config

import (
	"os"
	"strings"
)

func LoadDebugConfigFromEnv(cfg DebugConfig) DebugConfig {
	if os.Getenv("GNOMEGPT_DEBUG_LOG_REQUESTS") == "1" {
		cfg.LogRequests = true
	}
	if os.Getenv("GNOMEGPT_DEBUG_LOG_RESPONSES") == "1" {
		cfg.LogResponses = true
	}
	if dir := os.Getenv("GNOMEGPT_DEBUG_LOG_DIR"); dir != "" {
		cfg.LogDirectory = dir
	}
	return cfg
}

// ApplyEnv overlays environment settings. A key in the file wins over the
// provider-specific variables but not over GNOMEGPT_API_KEY.
func ApplyEnv(cfg Config) Config {
	if v := os.Getenv("GNOMEGPT_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("GNOMEGPT_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("GNOMEGPT_RSN"); v != "" {
		cfg.RSN = v
	}

	if v := os.Getenv("GNOMEGPT_API_KEY"); v != "" {
		cfg.APIKey = v
	} else if cfg.APIKey == "" {
		switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
		case "openai":
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	cfg.Debug = LoadDebugConfigFromEnv(cfg.Debug)
	return cfg
}
