package memeserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/memegen/quotepipe"
	"github.com/hazyhaar/memegen/store"
	"github.com/hazyhaar/memegen/watch"
)

// reloadDebounce lets editors finish writing before a reload.
const reloadDebounce = 500 * time.Millisecond

// LoadCorpus ingests sources with pipe and replaces the stored corpus with
// the result. workers > 1 parses files concurrently; the corpus keeps source
// order either way. Nothing is stored when ingestion fails.
func LoadCorpus(ctx context.Context, pipe *quotepipe.Pipeline, st *store.Store, sources []string, workers int) (int, error) {
	var quotes []quotepipe.Quote
	var err error
	if workers > 1 {
		quotes, err = pipe.IngestParallel(ctx, sources, workers)
	} else {
		quotes, err = pipe.Ingest(ctx, sources)
	}
	if err != nil {
		return 0, fmt.Errorf("ingest quotes: %w", err)
	}
	if err := st.ReplaceCorpus(ctx, quotes); err != nil {
		return 0, fmt.Errorf("store quotes: %w", err)
	}
	slog.Info("quote corpus loaded", "sources", len(sources), "quotes", len(quotes))
	return len(quotes), nil
}

// WatchCorpus reloads the corpus whenever one of sources changes on disk,
// until ctx is cancelled. A failed reload keeps the previous corpus and is
// retried on the next poll.
func WatchCorpus(ctx context.Context, pipe *quotepipe.Pipeline, st *store.Store, sources []string, workers int, interval time.Duration) *watch.Watcher {
	w := watch.New(watch.Options{
		Interval: interval,
		Debounce: reloadDebounce,
		Detector: watch.FileVersion(sources),
	})
	go w.OnChange(ctx, func() error {
		_, err := LoadCorpus(ctx, pipe, st, sources, workers)
		return err
	})
	return w
}
