package memeserver

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/memegen/quotepipe"
	"github.com/hazyhaar/memegen/shield"
)

// Config holds the full memegen configuration.
type Config struct {
	Listen    string `yaml:"listen"`
	DBPath    string `yaml:"db_path"`
	ImagesDir string `yaml:"images_dir"`
	OutputDir string `yaml:"output_dir"`

	// QuoteSources are ingested in order at startup.
	QuoteSources []string `yaml:"quote_sources"`

	MemeWidth  int `yaml:"meme_width"`
	MaxImageMB int `yaml:"max_image_mb"`
	MaxFileMB  int `yaml:"max_file_mb"`

	Unsupported   string `yaml:"unsupported"` // strict | lenient
	Malformed     string `yaml:"malformed"`   // fail | skip
	KeepNonASCII  bool   `yaml:"keep_non_ascii"`
	IngestWorkers int    `yaml:"ingest_workers"`

	// ReloadSeconds is the quote_sources poll interval; 0 disables reloads.
	ReloadSeconds int `yaml:"reload_seconds"`

	LogLevel string `yaml:"log_level"` // debug | info | warn | error

	// RateLimits are keyed by "METHOD /path".
	RateLimits map[string]shield.RateLimitConfig `yaml:"rate_limits"`

	// TrustedProxies lists the addresses or CIDRs whose X-Forwarded-For
	// header is believed. Empty means the peer address is the client.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:    ":8080",
		DBPath:    "data/memegen.db",
		ImagesDir: "_data/photos",
		OutputDir: "static",
		QuoteSources: []string{
			"_data/quotes/quotes.txt",
			"_data/quotes/quotes.docx",
			"_data/quotes/quotes.pdf",
			"_data/quotes/quotes.csv",
		},
		MemeWidth:     500,
		MaxImageMB:    10,
		MaxFileMB:     100,
		Unsupported:   "strict",
		Malformed:     "fail",
		IngestWorkers: 4,
		ReloadSeconds: 5,
		LogLevel:      "info",
		RateLimits: map[string]shield.RateLimitConfig{
			"POST /create": {MaxRequests: 10, WindowSeconds: 60},
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.MemeWidth <= 0 {
		return fmt.Errorf("meme_width must be > 0")
	}
	if c.MaxImageMB <= 0 {
		return fmt.Errorf("max_image_mb must be > 0")
	}
	if c.MaxFileMB <= 0 {
		return fmt.Errorf("max_file_mb must be > 0")
	}
	if c.IngestWorkers < 0 {
		return fmt.Errorf("ingest_workers must be >= 0")
	}
	if c.ReloadSeconds < 0 {
		return fmt.Errorf("reload_seconds must be >= 0")
	}
	if _, err := shield.ParseTrustedProxies(c.TrustedProxies); err != nil {
		return err
	}
	if _, err := quotepipe.ParseUnsupportedMode(c.Unsupported); err != nil {
		return err
	}
	if _, err := quotepipe.ParseMalformedPolicy(c.Malformed); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for endpoint, rl := range c.RateLimits {
		if method, path, ok := strings.Cut(endpoint, " "); !ok || method == "" || !strings.HasPrefix(path, "/") {
			return fmt.Errorf("rate_limits: key %q must be \"METHOD /path\"", endpoint)
		}
		if rl.MaxRequests < 0 || rl.WindowSeconds < 0 {
			return fmt.Errorf("rate_limits[%s]: values must be >= 0", endpoint)
		}
	}
	return nil
}

// MaxImageBytes returns the download cap in bytes.
func (c *Config) MaxImageBytes() int64 { return int64(c.MaxImageMB) * 1024 * 1024 }

// MaxFileBytes returns the quote file size cap in bytes.
func (c *Config) MaxFileBytes() int64 { return int64(c.MaxFileMB) * 1024 * 1024 }

// PipelineConfig translates the ingestion settings into a quotepipe.Config.
func (c *Config) PipelineConfig(logger *slog.Logger) (quotepipe.Config, error) {
	mode, err := quotepipe.ParseUnsupportedMode(c.Unsupported)
	if err != nil {
		return quotepipe.Config{}, err
	}
	policy, err := quotepipe.ParseMalformedPolicy(c.Malformed)
	if err != nil {
		return quotepipe.Config{}, err
	}
	return quotepipe.Config{
		MaxFileSize: c.MaxFileBytes(),
		Unsupported: mode,
		Parse: quotepipe.ParseOptions{
			Malformed:    policy,
			KeepNonASCII: c.KeepNonASCII,
			Logger:       logger,
		},
		Logger: logger,
	}, nil
}

// ParseLevel maps debug|info|warn|error to a slog.Level ("" is info).
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log_level %q (use debug, info, warn or error)", s)
	}
}
