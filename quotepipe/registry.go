package quotepipe

import (
	"path/filepath"
	"slices"
)

// Parser extracts quotes from one document format.
type Parser interface {
	// CanIngest reports whether the parser accepts path. It looks at the path
	// only and never opens the file.
	CanIngest(path string) bool

	// Parse reads the whole file and returns its quotes in document order.
	Parse(path string) ([]Quote, error)
}

// Registry maps an extension (with its leading dot, e.g. ".csv") to the parser
// responsible for it. It is immutable once built and safe for concurrent use.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry builds a Registry from a copy of entries.
func NewRegistry(entries map[string]Parser) *Registry {
	parsers := make(map[string]Parser, len(entries))
	for ext, p := range entries {
		parsers[ext] = p
	}
	return &Registry{parsers: parsers}
}

// DefaultRegistry returns the registry of built-in parsers.
func DefaultRegistry(opts ParseOptions) *Registry {
	return NewRegistry(map[string]Parser{
		string(FormatTXT):  &TextParser{Options: opts},
		string(FormatCSV):  &CSVParser{},
		string(FormatDocx): &DocxParser{Options: opts},
		string(FormatPDF):  &PDFParser{Options: opts},
		string(FormatODT):  &ODTParser{Options: opts},
		string(FormatHTML): NewHTMLParser(opts),
	})
}

// Lookup returns the parser registered for ext.
func (r *Registry) Lookup(ext string) (Parser, bool) {
	p, ok := r.parsers[ext]
	return p, ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// hasExt is the CanIngest check shared by the built-in parsers.
func hasExt(path string, f Format) bool {
	return filepath.Ext(path) == string(f)
}
