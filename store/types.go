package store

import "errors"

// ErrNoQuotes is returned by RandomQuote when the corpus is empty.
var ErrNoQuotes = errors.New("store: quote corpus is empty")

// Meme is one generated meme.
type Meme struct {
	ID        string `json:"id"`
	Image     string `json:"image"` // source image path or URL
	Body      string `json:"body"`
	Author    string `json:"author"`
	Path      string `json:"path"` // output file
	CreatedAt int64  `json:"created_at"` // unix milliseconds
}
