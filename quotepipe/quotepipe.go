// Package quotepipe extracts attributed quotations from document files.
//
// Supported formats (extension is the only selector, matched case-sensitively):
//   - .txt: one "body - author" per line, printable ASCII only
//   - .csv: header row naming the body and author columns
//   - .docx: one quote per paragraph (archive/zip → word/document.xml)
//   - .pdf: one quote per text line (pdfcpu content streams)
//   - .odt: one quote per paragraph (archive/zip → content.xml)
//   - .html: one quote per block, via markdown conversion
//
// Usage:
//
//	pipe := quotepipe.New(quotepipe.Config{})
//	quotes, err := pipe.Ingest(ctx, []string{"quotes.txt", "quotes.csv"})
package quotepipe

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Pipeline is the ingestion entry point: it runs the dispatcher over a batch
// of files and assembles the corpus.
type Pipeline struct {
	cfg      Config
	logger   *slog.Logger
	dispatch *Dispatcher
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:      cfg,
		logger:   cfg.Logger,
		dispatch: NewDispatcher(cfg.Registry, cfg.Unsupported, cfg.MaxFileSize, cfg.Logger),
	}
}

// Detect returns the format registered for the extension of path.
func (p *Pipeline) Detect(path string) (Format, error) {
	ext := filepath.Ext(path)
	if _, ok := p.cfg.Registry.Lookup(ext); !ok {
		return "", &UnsupportedFormatError{Path: path, Ext: ext}
	}
	return Format(ext), nil
}

// SupportedFormats returns all registered extensions.
func (p *Pipeline) SupportedFormats() []string {
	return p.cfg.Registry.Extensions()
}

// Parse extracts the quotes of a single file.
func (p *Pipeline) Parse(ctx context.Context, path string) ([]Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.dispatch.Parse(path)
}

// Ingest parses paths in order and concatenates their quotes. The first
// failing file aborts the batch.
func (p *Pipeline) Ingest(ctx context.Context, paths []string) ([]Quote, error) {
	var corpus []Quote
	for _, path := range paths {
		quotes, err := p.Parse(ctx, path)
		if err != nil {
			return nil, err
		}
		corpus = append(corpus, quotes...)
	}
	p.logger.Info("quotes ingested", "files", len(paths), "quotes", len(corpus))
	return corpus, nil
}

// IngestEach parses every path and reports per-file results without aborting.
func (p *Pipeline) IngestEach(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, 0, len(paths))
	for _, path := range paths {
		quotes, err := p.Parse(ctx, path)
		if err != nil {
			p.logger.Warn("quote file skipped", "path", path, "error", err)
		}
		results = append(results, FileResult{Path: path, Quotes: quotes, Err: err})
	}
	return results
}

// IngestParallel parses up to limit files concurrently (limit <= 0 means one
// per file). The corpus keeps input order, and on failure the error is the one
// Ingest would have returned: that of the first failing file in input order.
// A failure does not stop files already queued.
func (p *Pipeline) IngestParallel(ctx context.Context, paths []string, limit int) ([]Quote, error) {
	perFile := make([][]Quote, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, path := range paths {
		g.Go(func() error {
			perFile[i], errs[i] = p.Parse(ctx, path)
			return nil
		})
	}
	g.Wait()

	var corpus []Quote
	for i, quotes := range perFile {
		if errs[i] != nil {
			return nil, errs[i]
		}
		corpus = append(corpus, quotes...)
	}
	p.logger.Info("quotes ingested", "files", len(paths), "quotes", len(corpus), "parallel", limit)
	return corpus, nil
}

// Summary is a short human-readable description of a FileResult.
func (r FileResult) Summary() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: error: %v", r.Path, r.Err)
	}
	return fmt.Sprintf("%s: %d quotes", r.Path, len(r.Quotes))
}
