package store

import (
	"context"
	"fmt"
)

// RecordMeme stores m, filling in ID and CreatedAt when they are empty.
func (s *Store) RecordMeme(ctx context.Context, m Meme) (Meme, error) {
	if m.ID == "" {
		m.ID = s.newID()
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = s.now().UnixMilli()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO memes (id, image, body, author, path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Image, m.Body, m.Author, m.Path, m.CreatedAt,
	)
	if err != nil {
		return Meme{}, fmt.Errorf("insert meme: %w", err)
	}
	return m, nil
}

// ListMemes returns up to limit memes, newest first (default 50).
func (s *Store) ListMemes(ctx context.Context, limit int) ([]Meme, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, image, body, author, path, created_at
		FROM memes ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Meme
	for rows.Next() {
		var m Meme
		if err := rows.Scan(&m.ID, &m.Image, &m.Body, &m.Author, &m.Path, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan meme: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
