package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/hazyhaar/memegen/memeserver"
	"github.com/hazyhaar/memegen/quotepipe"
)

// defaultConfigFile is read when --config is not given and the file exists.
const defaultConfigFile = "memegen.yaml"

// current is the configuration resolved by the root command.
var current *memeserver.Config

// loadConfig reads path (or defaultConfigFile when present) over the
// defaults, then applies MEMEGEN_* environment overrides.
func loadConfig(path string) (*memeserver.Config, error) {
	cfg := memeserver.DefaultConfig()
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if path != "" {
		var err error
		if cfg, err = memeserver.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	cfg.Listen = env("MEMEGEN_LISTEN", cfg.Listen)
	cfg.DBPath = env("MEMEGEN_DB", cfg.DBPath)
	cfg.LogLevel = env("MEMEGEN_LOG_LEVEL", cfg.LogLevel)
	return cfg, cfg.Validate()
}

// setupLogger installs a JSON logger on stderr; stdout carries command output.
func setupLogger(level string) error {
	lvl, err := memeserver.ParseLevel(level)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

func newPipeline(cfg *memeserver.Config) (*quotepipe.Pipeline, error) {
	pc, err := cfg.PipelineConfig(slog.Default())
	if err != nil {
		return nil, err
	}
	return quotepipe.New(pc), nil
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
