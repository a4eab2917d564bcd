// Package store persists the quote corpus and the log of generated memes in
// SQLite.
package store

import (
	"database/sql"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hazyhaar/memegen/dbopen"
	"github.com/hazyhaar/memegen/idgen"
)

// Store wraps the memegen database.
type Store struct {
	DB *sql.DB

	newID idgen.Generator
	now   func() time.Time
	pick  func(n int) int
}

// Option customises a Store.
type Option func(*Store)

// WithIDGenerator sets the generator for meme IDs (default "meme_" + UUIDv7).
func WithIDGenerator(gen idgen.Generator) Option { return func(s *Store) { s.newID = gen } }

// WithClock sets the time source for created_at.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithPicker sets the function RandomQuote uses to choose an index in [0,n).
func WithPicker(pick func(n int) int) Option { return func(s *Store) { s.pick = pick } }

// NewStore wraps an opened database on which Schema has been applied.
func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		DB:    db,
		newID: idgen.Prefixed("meme_", idgen.UUIDv7()),
		now:   time.Now,
		pick:  rand.IntN,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return NewStore(db, opts...), nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}
