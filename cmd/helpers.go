package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/mindmap/internal/config"
	"github.com/ziadkadry99/mindmap/internal/db"
	"github.com/ziadkadry99/mindmap/internal/invoke"
	"github.com/ziadkadry99/mindmap/internal/llm"
	"github.com/ziadkadry99/mindmap/internal/logging"
	"github.com/ziadkadry99/mindmap/internal/tree"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `mindmap init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger; --verbose forces debug level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logging.New(cfg.Environment, level)
}

// newGenerator wires the configured LLM provider behind a rate limiter and
// a circuit breaker, reports every call to observers, and returns a topic
// generator on top of it.
func newGenerator(cfg *config.Config, logger *zap.Logger, observers ...llm.Observer) (tree.Generator, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if cfg.RateLimitRPM > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RateLimitRPM)
	}
	provider = llm.NewBreakerProvider(provider, llm.DefaultBreakerSettings(), logger)
	for _, o := range observers {
		provider = llm.WithObserver(provider, o)
	}
	return tree.NewInvokeGenerator(invoke.NewLLMInvoker(provider, cfg.Model, logger)), nil
}

// openDatabase opens the map database under the configured data directory.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return database, nil
}

func workers(cfg *config.Config) int {
	if cfg.MaxConcurrency <= 0 {
		return 1
	}
	return cfg.MaxConcurrency
}
