package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan/resume-enhancer/internal/schema"
)

// PGStore persists resumes in a PostgreSQL table:
//
//	CREATE TABLE resumes (
//	    id       UUID PRIMARY KEY,
//	    content  JSONB NOT NULL,
//	    saved_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore establishes a connection pool to the database.
func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PGStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Save inserts a resume snapshot and returns its storage record.
func (s *PGStore) Save(ctx context.Context, resume *schema.Resume) (*SavedResume, error) {
	raw, err := resume.Marshal()
	if err != nil {
		return nil, &SaveError{Cause: err}
	}

	id := uuid.New()
	var savedAt time.Time
	err = s.pool.QueryRow(ctx,
		`INSERT INTO resumes (id, content) VALUES ($1, $2) RETURNING saved_at`,
		id, raw,
	).Scan(&savedAt)
	if err != nil {
		return nil, &SaveError{Cause: err}
	}

	return &SavedResume{ID: id, SavedAt: savedAt, Resume: resume.Clone()}, nil
}

// Get retrieves a saved resume by ID, validating the stored content
// against the resume schema on the way out.
func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*SavedResume, error) {
	var raw []byte
	var savedAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT content, saved_at FROM resumes WHERE id = $1`,
		id,
	).Scan(&raw, &savedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query resume %s: %w", id, err)
	}

	resume, err := schema.Validate(raw)
	if err != nil {
		return nil, fmt.Errorf("stored resume %s is invalid: %w", id, err)
	}

	return &SavedResume{ID: id, SavedAt: savedAt, Resume: resume}, nil
}

// List returns metadata for every saved resume, most recent first.
func (s *PGStore) List(ctx context.Context) ([]SavedResume, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, saved_at FROM resumes ORDER BY saved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	var records []SavedResume
	for rows.Next() {
		var record SavedResume
		if err := rows.Scan(&record.ID, &record.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resume row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resume rows: %w", err)
	}
	return records, nil
}
