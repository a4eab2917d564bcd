package quotepipe

import (
	"errors"
	"fmt"
)

var (
	// ErrNotApplicable is wrapped when a parser's CanIngest rejects a path the
	// registry routed to it.
	ErrNotApplicable = errors.New("parser rejected path")

	ErrFileTooLarge     = errors.New("file too large")
	ErrMissingDelimiter = errors.New("missing quote/author delimiter")
	ErrMissingColumn    = errors.New("missing required column")
	ErrXMLDepth         = errors.New("xml nesting depth exceeded")
	ErrNoText           = errors.New("no text content found")
)

// UnsupportedFormatError reports a path whose extension has no registered parser.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q: %s", e.Ext, e.Path)
}

// FormatParseError reports a failed parse. The underlying cause is kept and
// reachable through errors.Is / errors.As.
type FormatParseError struct {
	Path string
	Ext  string
	Err  error
}

func (e *FormatParseError) Error() string {
	return fmt.Sprintf("parse %s (%s): %v", e.Path, e.Ext, e.Err)
}

func (e *FormatParseError) Unwrap() error { return e.Err }

// IsUnsupported reports whether err is, or wraps, an UnsupportedFormatError.
func IsUnsupported(err error) bool {
	var ue *UnsupportedFormatError
	return errors.As(err, &ue)
}

// IsParseError reports whether err is, or wraps, a FormatParseError.
func IsParseError(err error) bool {
	var pe *FormatParseError
	return errors.As(err, &pe)
}
