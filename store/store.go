// Package store persists extracted development applications in SQLite,
// keyed by council reference so a register can be re-scraped without
// duplicating records.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// Record is one row of scraped data.
type Record struct {
	CouncilReference string
	Address          string
	Description      string
	InfoURL          string
	CommentURL       string
	DateScraped      string
	DateReceived     string
}

const schema = `
CREATE TABLE IF NOT EXISTS data (
	council_reference TEXT NOT NULL PRIMARY KEY,
	address           TEXT NOT NULL,
	description       TEXT NOT NULL,
	info_url          TEXT NOT NULL,
	comment_url       TEXT NOT NULL,
	date_scraped      TEXT NOT NULL,
	date_received     TEXT NOT NULL
)`

const upsert = `
INSERT INTO data (council_reference, address, description, info_url, comment_url, date_scraped, date_received)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (council_reference) DO UPDATE SET
	address       = excluded.address,
	description   = excluded.description,
	info_url      = excluded.info_url,
	comment_url   = excluded.comment_url,
	date_scraped  = excluded.date_scraped,
	date_received = excluded.date_received`

// Store wraps the SQLite database holding scraped records.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the database at path and ensures the schema
// exists.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	logger.Info("database ready", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Upsert inserts the record, or replaces the existing row with the same
// council reference.
func (s *Store) Upsert(ctx context.Context, rec Record) error {
	if rec.CouncilReference == "" {
		return fmt.Errorf("record has no council reference")
	}
	_, err := s.db.ExecContext(ctx, upsert,
		rec.CouncilReference,
		rec.Address,
		rec.Description,
		rec.InfoURL,
		rec.CommentURL,
		rec.DateScraped,
		rec.DateReceived,
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", rec.CouncilReference, err)
	}
	s.logger.Debug("record saved", "council_reference", rec.CouncilReference)
	return nil
}

// Get fetches the record with the given council reference.
func (s *Store) Get(ctx context.Context, councilReference string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT council_reference, address, description, info_url, comment_url, date_scraped, date_received
		 FROM data WHERE council_reference = ?`, councilReference)

	var rec Record
	err := row.Scan(
		&rec.CouncilReference,
		&rec.Address,
		&rec.Description,
		&rec.InfoURL,
		&rec.CommentURL,
		&rec.DateScraped,
		&rec.DateReceived,
	)
	if err != nil {
		return Record{}, fmt.Errorf("get %s: %w", councilReference, err)
	}
	return rec, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM data`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
