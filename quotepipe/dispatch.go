package quotepipe

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Dispatcher selects and runs the parser for a path.
type Dispatcher struct {
	registry    *Registry
	mode        UnsupportedMode
	maxFileSize int64
	logger      *slog.Logger
}

// NewDispatcher returns a Dispatcher over registry. A nil logger means
// slog.Default(); maxFileSize <= 0 disables the size guard.
func NewDispatcher(registry *Registry, mode UnsupportedMode, maxFileSize int64, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry:    registry,
		mode:        mode,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Parse resolves the parser from the extension of path, re-confirms it with
// the parser's own CanIngest and runs it. Failures are reported as
// *UnsupportedFormatError or *FormatParseError.
func (d *Dispatcher) Parse(path string) ([]Quote, error) {
	ext := filepath.Ext(path)
	parser, ok := d.registry.Lookup(ext)
	if !ok {
		if d.mode == UnsupportedLenient {
			d.logger.Warn("no parser for extension, skipping", "path", path, "ext", ext)
			return nil, nil
		}
		return nil, &UnsupportedFormatError{Path: path, Ext: ext}
	}

	if !parser.CanIngest(path) {
		return nil, &FormatParseError{Path: path, Ext: ext, Err: ErrNotApplicable}
	}

	if d.maxFileSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, &FormatParseError{Path: path, Ext: ext, Err: err}
		}
		if info.Size() > d.maxFileSize {
			return nil, &FormatParseError{Path: path, Ext: ext,
				Err: fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, info.Size(), d.maxFileSize)}
		}
	}

	d.logger.Debug("parsing quotes", "path", path, "ext", ext)

	quotes, err := parser.Parse(path)
	if err != nil {
		return nil, &FormatParseError{Path: path, Ext: ext, Err: err}
	}
	return quotes, nil
}
