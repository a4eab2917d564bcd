package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/memegen/meme"
	"github.com/hazyhaar/memegen/memeserver"
	"github.com/hazyhaar/memegen/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the quote corpus and serve the meme web front",
	Long: `Ingests every quote_sources file into the database, then serves:

  GET  /            random meme
  GET  /create      meme form
  POST /create      meme from image_url, body, author
  GET  /static/*    generated memes
  GET  /health      liveness and corpus size
  GET  /api/quote   random quote (JSON)
  GET  /api/memes   recent memes (JSON)`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := current
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	pipe, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	if len(cfg.QuoteSources) > 0 {
		if _, err := memeserver.LoadCorpus(ctx, pipe, st, cfg.QuoteSources, cfg.IngestWorkers); err != nil {
			return err
		}
		if cfg.ReloadSeconds > 0 {
			memeserver.WatchCorpus(ctx, pipe, st, cfg.QuoteSources, cfg.IngestWorkers, time.Duration(cfg.ReloadSeconds)*time.Second)
		}
	} else {
		slog.Warn("no quote_sources configured, serving the stored corpus")
	}

	engine, err := meme.New(cfg.OutputDir)
	if err != nil {
		return err
	}
	srv, err := memeserver.New(cfg, st, engine)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}
	return srv.ListenAndServe(ctx)
}
