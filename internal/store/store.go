// Package store persists structured resume records. The pipeline treats
// persistence as a fire-and-forget collaborator with a reported outcome:
// no retries, no queuing.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-enhancer/internal/schema"
)

// SavedResume is a persisted resume record with its storage metadata.
type SavedResume struct {
	ID      uuid.UUID      `json:"id"`
	SavedAt time.Time      `json:"saved_at"`
	Resume  *schema.Resume `json:"resume"`
}

// Store is the persistence collaborator contract. Implementations receive
// the resume by value (a snapshot), never a live reference.
type Store interface {
	// Save persists a resume snapshot and returns its storage record
	Save(ctx context.Context, resume *schema.Resume) (*SavedResume, error)
	// Get retrieves a saved resume by ID
	Get(ctx context.Context, id uuid.UUID) (*SavedResume, error)
	// List returns all saved records, most recent first, without contents
	List(ctx context.Context) ([]SavedResume, error)
}

// SaveError indicates the persistence collaborator failed. The editing
// session is unaffected by it.
type SaveError struct {
	Cause error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save resume: %v", e.Cause)
}

func (e *SaveError) Unwrap() error {
	return e.Cause
}

// NotFoundError indicates no saved resume exists for the requested ID.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resume not found: %s", e.ID)
}
