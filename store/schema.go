package store

// Schema creates the store tables. Every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS quotes (
    position INTEGER PRIMARY KEY,
    body     TEXT NOT NULL,
    author   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS memes (
    id         TEXT PRIMARY KEY,
    image      TEXT NOT NULL,
    body       TEXT NOT NULL,
    author     TEXT NOT NULL,
    path       TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_memes_created ON memes(created_at DESC);
`
