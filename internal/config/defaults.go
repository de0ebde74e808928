package config

import (
	"path/filepath"

	"github.com/ziadkadry99/mindmap/internal/canvas"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".mindmap.yml"

// defaultModels maps each provider to the model used when none is set.
var defaultModels = map[ProviderType]string{
	ProviderAnthropic: "claude-sonnet-4-5-20250929",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderOllama:    "llama3",
}

// DefaultModel returns the default model for the given provider.
// Returns the Anthropic default if the provider is unknown.
func DefaultModel(provider ProviderType) string {
	if m, ok := defaultModels[provider]; ok {
		return m
	}
	return defaultModels[ProviderAnthropic]
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderAnthropic,
		Model:          DefaultModel(ProviderAnthropic),
		Environment:    "development",
		LogLevel:       "info",
		DataDir:        ".mindmap",
		MaxConcurrency: 4,
		RateLimitRPM:   60,
		DefaultDepth:   2,
		DefaultColor:   canvas.DefaultColor,
		Server: ServerConfig{
			Port:           8080,
			TimeoutSeconds: 120,
		},
		Export: ExportConfig{
			JPEGQuality: 92,
		},
	}
}

// DatabasePath is where saved maps and preferences live.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "mindmap.db")
}
