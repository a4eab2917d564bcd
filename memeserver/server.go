// Package memeserver is the web front of memegen: random memes built from the
// stored quote corpus and local images, and user memes composited from a
// remote image URL.
package memeserver

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/memegen/meme"
	"github.com/hazyhaar/memegen/safefetch"
	"github.com/hazyhaar/memegen/shield"
	"github.com/hazyhaar/memegen/store"
)

//go:embed templates
var templateFS embed.FS

// Defaults for the create form.
const (
	DefaultBody   = "Inspirational Quote"
	DefaultAuthor = "Unknown Author"
)

// maxTextRunes caps user-supplied body and author.
const maxTextRunes = 280

// Server serves the meme pages.
type Server struct {
	cfg     *Config
	store   *store.Store
	engine  *meme.Engine
	fetcher *safefetch.Fetcher
	limiter *shield.RateLimiter
	images  []string
	policy  *bluemonday.Policy
	pages   map[string]*template.Template
	pick    func(n int) int
	logger  *slog.Logger
}

// Option customises a Server.
type Option func(*Server)

// WithFetcher replaces the image fetcher.
func WithFetcher(f *safefetch.Fetcher) Option { return func(s *Server) { s.fetcher = f } }

// WithPicker sets the function choosing a random image index in [0,n).
func WithPicker(pick func(n int) int) Option { return func(s *Server) { s.pick = pick } }

// WithLogger sets the server logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// New builds a Server. Images are scanned from cfg.ImagesDir once.
func New(cfg *Config, st *store.Store, engine *meme.Engine, opts ...Option) (*Server, error) {
	images, err := ScanImages(cfg.ImagesDir)
	if err != nil {
		return nil, fmt.Errorf("scan images: %w", err)
	}
	pages, err := parsePages("meme.html", "meme_form.html", "error.html")
	if err != nil {
		return nil, err
	}

	trusted, err := shield.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	limiter := shield.NewRateLimiter(cfg.RateLimits)
	limiter.TrustProxies(trusted)

	s := &Server{
		cfg:     cfg,
		store:   st,
		engine:  engine,
		limiter: limiter,
		images:  images,
		policy:  bluemonday.StrictPolicy(),
		pages:   pages,
		pick:    rand.IntN,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.fetcher == nil {
		s.fetcher = &safefetch.Fetcher{MaxBytes: cfg.MaxImageBytes(), Logger: s.logger}
	}
	s.logger.Info("memeserver ready", "images", len(images), "output_dir", engine.Dir())
	return s, nil
}

func parsePages(names ...string) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := template.New(name).ParseFS(templateFS, "templates/base.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// Handler returns the chi router with the shield middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(s.limiter) {
		r.Use(mw)
	}

	r.Get("/", s.handleRandom)
	r.Get("/create", s.handleForm)
	r.Post("/create", s.handleCreate)
	r.Get("/static/*", s.handleStatic)

	r.Get("/health", s.handleHealth)
	r.Get("/api/quote", s.handleAPIQuote)
	r.Get("/api/memes", s.handleAPIMemes)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	s.limiter.StartGC(done)

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("memeserver listening", "addr", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("memeserver stopped")
	return nil
}
