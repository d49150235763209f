package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-enhancer/internal/schema"
)

// FileStore persists resumes as JSON files in a data directory, one file
// per record named resume_<id>.json.
type FileStore struct {
	dir string
}

// fileRecord is the on-disk envelope. The resume body is kept as raw JSON
// so the read path can run it through schema validation before decoding.
type fileRecord struct {
	ID      uuid.UUID       `json:"id"`
	SavedAt time.Time       `json:"saved_at"`
	Resume  json.RawMessage `json:"resume"`
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the resume snapshot to a new file and returns its record.
func (s *FileStore) Save(_ context.Context, resume *schema.Resume) (*SavedResume, error) {
	raw, err := resume.Marshal()
	if err != nil {
		return nil, &SaveError{Cause: err}
	}

	record := fileRecord{
		ID:      uuid.New(),
		SavedAt: time.Now().UTC(),
		Resume:  raw,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, &SaveError{Cause: err}
	}

	path := filepath.Join(s.dir, fmt.Sprintf("resume_%s.json", record.ID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, &SaveError{Cause: err}
	}

	return &SavedResume{ID: record.ID, SavedAt: record.SavedAt, Resume: resume.Clone()}, nil
}

// Get reads a saved resume by ID. The stored body is validated against the
// resume schema before it is returned; a corrupted file is an error, not a
// partial document.
func (s *FileStore) Get(_ context.Context, id uuid.UUID) (*SavedResume, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("resume_%s.json", id))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to read resume %s: %w", id, err)
	}

	var record fileRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode resume record %s: %w", id, err)
	}

	resume, err := schema.Validate(record.Resume)
	if err != nil {
		return nil, fmt.Errorf("stored resume %s is invalid: %w", id, err)
	}

	return &SavedResume{ID: record.ID, SavedAt: record.SavedAt, Resume: resume}, nil
}

// List returns metadata for every saved resume, most recent first.
func (s *FileStore) List(_ context.Context) ([]SavedResume, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	records := make([]SavedResume, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "resume_") || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		var record fileRecord
		if err := json.Unmarshal(data, &record); err != nil {
			// Skip files that are not resume records
			continue
		}
		records = append(records, SavedResume{ID: record.ID, SavedAt: record.SavedAt})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].SavedAt.After(records[j].SavedAt)
	})
	return records, nil
}
