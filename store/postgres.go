// Package store PostgreSQL backend. Use: go get github.com/lib/pq and import
// _ "github.com/lib/pq" in the program wiring the store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// OpenPostgres opens a lib/pq connection and verifies it with a ping.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}
	return db, nil
}

// isDuplicateKey reports whether err is a unique-constraint violation, which
// means the run id was already recorded.
func isDuplicateKey(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// PostgresStore records runs in a single table, one row per request and per
// response, keyed by (run_id, kind).
type PostgresStore struct {
	db    *sql.DB
	table string
}

// NewPostgresStore wraps db. table defaults to "runs"; when createTable is
// true the table is created if absent.
func NewPostgresStore(db *sql.DB, table string, createTable bool) (*PostgresStore, error) {
	if table == "" {
		table = "runs"
	}
	s := &PostgresStore{db: db, table: table}
	if createTable {
		if err := s.createTable(context.Background()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *PostgresStore) createTable(ctx context.Context) error {
	q := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		run_id VARCHAR(64) NOT NULL,
		kind VARCHAR(16) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		provider VARCHAR(64) NOT NULL,
		model VARCHAR(255) NOT NULL,
		puzzle_name VARCHAR(255) NOT NULL,
		puzzle_version VARCHAR(64),
		special_settings VARCHAR(255),
		request JSONB,
		response JSONB,
		derived JSONB,
		input_text TEXT,
		output_text TEXT,
		transcript TEXT,
		PRIMARY KEY (run_id, kind)
	)`
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_`+s.table+`_provider_model ON `+s.table+`(provider, model)`)
	return err
}

// RecordRequest implements [Store].
func (s *PostgresStore) RecordRequest(ctx context.Context, meta RunMeta, requestPayload json.RawMessage) error {
	q := `INSERT INTO ` + s.table + ` (run_id, kind, created_at, provider, model, puzzle_name, puzzle_version, special_settings, request)
		VALUES ($1, 'request', $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.ExecContext(ctx, q,
		meta.RunID, meta.CreatedAt, meta.Provider, meta.Model,
		meta.PuzzleName, meta.PuzzleVersion, meta.SpecialSettings,
		[]byte(requestPayload))
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("postgres store: run %s already has a recorded request", meta.RunID)
		}
		return fmt.Errorf("postgres store: recording request: %w", err)
	}
	return nil
}

// RecordResponse implements [Store].
func (s *PostgresStore) RecordResponse(ctx context.Context, meta RunMeta, rec ResponseRecord) (*StoredText, error) {
	derived, err := json.Marshal(rec.Derived)
	if err != nil {
		return nil, fmt.Errorf("postgres store: encoding derived: %w", err)
	}
	body := RenderTranscript(meta, rec)

	q := `INSERT INTO ` + s.table + ` (run_id, kind, created_at, provider, model, puzzle_name, puzzle_version, special_settings, request, response, derived, input_text, output_text, transcript)
		VALUES ($1, 'response', $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = s.db.ExecContext(ctx, q,
		meta.RunID, meta.CreatedAt, meta.Provider, meta.Model,
		meta.PuzzleName, meta.PuzzleVersion, meta.SpecialSettings,
		[]byte(rec.Request), []byte(rec.Response), derived,
		rec.InputText, rec.OutputText, body)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("postgres store: run %s already has a recorded response", meta.RunID)
		}
		return nil, fmt.Errorf("postgres store: recording response: %w", err)
	}

	return &StoredText{Path: "postgres://" + s.table + "/" + meta.RunID, Text: body}, nil
}
