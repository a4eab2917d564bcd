package quotepipe

import (
	"fmt"
	"log/slog"
)

// UnsupportedMode selects what the dispatcher does with an extension that has
// no registered parser.
type UnsupportedMode int

const (
	// UnsupportedStrict fails with *UnsupportedFormatError.
	UnsupportedStrict UnsupportedMode = iota
	// UnsupportedLenient returns an empty result and logs a warning.
	UnsupportedLenient
)

// ParseUnsupportedMode maps "strict" / "lenient" to an UnsupportedMode.
func ParseUnsupportedMode(s string) (UnsupportedMode, error) {
	switch s {
	case "", "strict":
		return UnsupportedStrict, nil
	case "lenient":
		return UnsupportedLenient, nil
	default:
		return 0, fmt.Errorf("unknown unsupported mode %q (use strict or lenient)", s)
	}
}

// MalformedPolicy selects what line-based parsers do with a non-empty line that
// has no delimiter.
type MalformedPolicy int

const (
	// MalformedFail fails the whole file.
	MalformedFail MalformedPolicy = iota
	// MalformedSkip drops the line and logs it.
	MalformedSkip
)

// ParseMalformedPolicy maps "fail" / "skip" to a MalformedPolicy.
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch s {
	case "", "fail":
		return MalformedFail, nil
	case "skip":
		return MalformedSkip, nil
	default:
		return 0, fmt.Errorf("unknown malformed policy %q (use fail or skip)", s)
	}
}

// ParseOptions is shared by the built-in parsers.
type ParseOptions struct {
	Malformed MalformedPolicy

	// KeepNonASCII disables the strict printable-ASCII filter of the text parser.
	KeepNonASCII bool

	Logger *slog.Logger
}

func (o *ParseOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Config configures the quote pipeline.
type Config struct {
	// MaxFileSize is the maximum file size to parse (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	Unsupported UnsupportedMode `json:"-" yaml:"-"`

	Parse ParseOptions `json:"-" yaml:"-"`

	// Registry overrides DefaultRegistry(Parse).
	Registry *Registry `json:"-" yaml:"-"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Parse.Logger == nil {
		c.Parse.Logger = c.Logger
	}
	if c.Registry == nil {
		c.Registry = DefaultRegistry(c.Parse)
	}
}
