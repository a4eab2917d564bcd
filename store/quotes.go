package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hazyhaar/memegen/dbopen"
	"github.com/hazyhaar/memegen/quotepipe"
)

// ReplaceCorpus swaps the stored corpus for quotes in one transaction. Quote
// order is kept in the position column.
func (s *Store) ReplaceCorpus(ctx context.Context, quotes []quotepipe.Quote) error {
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM quotes`); err != nil {
			return fmt.Errorf("clear quotes: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO quotes (position, body, author) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, q := range quotes {
			if _, err := stmt.ExecContext(ctx, i, q.Body, q.Author); err != nil {
				return fmt.Errorf("insert quote %d: %w", i, err)
			}
		}
		return nil
	})
}

// CountQuotes returns the corpus size.
func (s *Store) CountQuotes(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes`).Scan(&n)
	return n, err
}

// Quotes returns the whole corpus in ingestion order.
func (s *Store) Quotes(ctx context.Context) ([]quotepipe.Quote, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT body, author FROM quotes ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []quotepipe.Quote
	for rows.Next() {
		var q quotepipe.Quote
		if err := rows.Scan(&q.Body, &q.Author); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		result = append(result, q)
	}
	return result, rows.Err()
}

// RandomQuote returns a uniformly chosen quote, or ErrNoQuotes.
func (s *Store) RandomQuote(ctx context.Context) (quotepipe.Quote, error) {
	n, err := s.CountQuotes(ctx)
	if err != nil {
		return quotepipe.Quote{}, err
	}
	if n == 0 {
		return quotepipe.Quote{}, ErrNoQuotes
	}

	var q quotepipe.Quote
	err = s.DB.QueryRowContext(ctx,
		`SELECT body, author FROM quotes ORDER BY position LIMIT 1 OFFSET ?`, s.pick(n),
	).Scan(&q.Body, &q.Author)
	if errors.Is(err, sql.ErrNoRows) {
		// Corpus replaced between the count and the read.
		return quotepipe.Quote{}, ErrNoQuotes
	}
	return q, err
}
