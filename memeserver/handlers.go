package memeserver

import (
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/memegen/meme"
	"github.com/hazyhaar/memegen/safefetch"
	"github.com/hazyhaar/memegen/shield"
	"github.com/hazyhaar/memegen/store"
)

// pageData feeds every HTML template.
type pageData struct {
	Title    string
	Path     string
	Body     string
	Author   string
	ImageURL string
	Error    string
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := shield.GetLogger(ctx)

	if len(s.images) == 0 {
		s.renderError(w, http.StatusServiceUnavailable, "No images available.")
		return
	}
	q, err := s.store.RandomQuote(ctx)
	if errors.Is(err, store.ErrNoQuotes) {
		s.renderError(w, http.StatusServiceUnavailable, "No quotes available.")
		return
	}
	if err != nil {
		logger.Error("random quote", "error", err)
		s.renderError(w, http.StatusInternalServerError, "Internal error.")
		return
	}

	body := orDefault(q.Body, DefaultBody)
	author := orDefault(q.Author, DefaultAuthor)
	img := s.images[s.pick(len(s.images))]

	out, err := s.engine.Make(img, body, author, s.cfg.MemeWidth)
	if err != nil {
		logger.Error("make meme", "image", img, "error", err)
		s.renderError(w, http.StatusInternalServerError, "Could not generate a meme.")
		return
	}
	s.record(r, store.Meme{Image: img, Body: body, Author: author, Path: out})
	s.render(w, http.StatusOK, "meme.html", pageData{
		Title: "Random meme", Path: staticURL(out), Body: body, Author: author,
	})
}

func (s *Server) handleForm(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "meme_form.html", pageData{Title: "Create a meme"})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := shield.GetLogger(ctx)

	if err := r.ParseForm(); err != nil {
		code := http.StatusBadRequest
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			code = http.StatusRequestEntityTooLarge
		}
		s.render(w, code, "meme_form.html", pageData{Title: "Create a meme", Error: "Invalid form."})
		return
	}

	form := pageData{
		Title:    "Create a meme",
		ImageURL: strings.TrimSpace(r.PostForm.Get("image_url")),
		Body:     s.cleanText(r.PostForm.Get("body"), DefaultBody),
		Author:   s.cleanText(r.PostForm.Get("author"), DefaultAuthor),
	}
	if form.ImageURL == "" {
		form.Error = "An image URL is required."
		s.render(w, http.StatusBadRequest, "meme_form.html", form)
		return
	}

	tmp, err := s.fetcher.FetchImage(ctx, form.ImageURL)
	if err != nil {
		logger.Warn("fetch image", "url", form.ImageURL, "error", err)
		form.Error = fetchErrorMessage(err)
		s.render(w, http.StatusBadRequest, "meme_form.html", form)
		return
	}
	defer os.Remove(tmp)

	out, err := s.engine.Make(tmp, form.Body, form.Author, s.cfg.MemeWidth)
	if err != nil {
		if errors.Is(err, meme.ErrUnsupportedImage) {
			form.Error = "The URL does not point to a supported image."
			s.render(w, http.StatusBadRequest, "meme_form.html", form)
			return
		}
		logger.Error("make meme", "url", form.ImageURL, "error", err)
		s.renderError(w, http.StatusInternalServerError, "Could not generate a meme.")
		return
	}

	s.record(r, store.Meme{Image: form.ImageURL, Body: form.Body, Author: form.Author, Path: out})
	s.render(w, http.StatusOK, "meme.html", pageData{
		Title: "Your meme", Path: staticURL(out), Body: form.Body, Author: form.Author,
	})
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	file, err := safefetch.SafePath(s.engine.Dir(), name)
	if err != nil || name == "" {
		http.NotFound(w, r)
		return
	}
	info, err := os.Stat(file)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, file)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.CountQuotes(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "quotes": n, "images": len(s.images)})
}

func (s *Server) handleAPIQuote(w http.ResponseWriter, r *http.Request) {
	q, err := s.store.RandomQuote(r.Context())
	if errors.Is(err, store.ErrNoQuotes) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleAPIMemes(w http.ResponseWriter, r *http.Request) {
	memes, err := s.store.ListMemes(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if memes == nil {
		memes = []store.Meme{}
	}
	writeJSON(w, http.StatusOK, memes)
}

// record logs the meme; a failure does not fail the request.
func (s *Server) record(r *http.Request, m store.Meme) {
	if _, err := s.store.RecordMeme(r.Context(), m); err != nil {
		shield.GetLogger(r.Context()).Warn("record meme", "path", m.Path, "error", err)
	}
}

// cleanText strips markup, collapses whitespace and caps the length of a
// user-supplied caption. An empty result falls back to def.
func (s *Server) cleanText(raw, def string) string {
	text := html.UnescapeString(s.policy.Sanitize(raw))
	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > maxTextRunes {
		text = string(runes[:maxTextRunes])
	}
	return orDefault(text, def)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func fetchErrorMessage(err error) string {
	switch {
	case errors.Is(err, safefetch.ErrUnsafeScheme):
		return "Only http and https image URLs are accepted."
	case errors.Is(err, safefetch.ErrSSRF):
		return "That address is not reachable from here."
	case errors.Is(err, safefetch.ErrTooLarge):
		return "The image is too large."
	default:
		return "The image could not be downloaded."
	}
}

func staticURL(file string) string {
	return "/static/" + path.Base(strings.ReplaceAll(file, "\\", "/"))
}

func (s *Server) render(w http.ResponseWriter, code int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := s.pages[name].ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("render template", "template", name, "error", err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, code int, msg string) {
	s.render(w, code, "error.html", pageData{Title: http.StatusText(code), Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
