// Package session implements the resume pipeline's user-visible lifecycle:
// idle → processing → editing ⇄ error. A session owns exactly one document
// at a time, runs at most one model-backed operation at a time, and
// converts every failure into a user-visible notice instead of letting it
// escape.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/resume-enhancer/internal/ingest"
	"github.com/jonathan/resume-enhancer/internal/schema"
	"github.com/jonathan/resume-enhancer/internal/store"
	"go.uber.org/zap"
)

// Status is the session lifecycle state.
type Status string

// Session lifecycle states.
const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusEditing    Status = "editing"
	StatusError      Status = "error"
)

// Notice is a user-visible notification side effect: file rejections,
// failed operations, completed saves.
type Notice struct {
	Title       string
	Description string
	Error       bool
}

// Extractor converts a file payload into a structured resume.
type Extractor interface {
	Extract(ctx context.Context, dataURI string) (*schema.Resume, error)
}

// Enhancer rewrites resume content without changing its shape.
type Enhancer interface {
	EnhanceResume(ctx context.Context, resume *schema.Resume) (*schema.Resume, error)
	EnhanceExperience(ctx context.Context, entry schema.ExperienceEntry) (schema.ExperienceEntry, error)
	EnhanceSection(ctx context.Context, section, text string) (string, error)
}

// opToken identifies the single operation allowed in flight: either the
// whole-document enhancement or one entry-level enhancement. While the
// token is set every new enhancement request is refused. The token also
// records which document generation it was issued against, so a result
// landing after the document is discarded can be recognized and dropped.
type opToken struct {
	scope string // "document", "entry", "section"
	entry int
	gen   uint64
}

func (t *opToken) String() string {
	if t.scope == "entry" {
		return fmt.Sprintf("entry %d enhancement", t.entry)
	}
	return t.scope + " enhancement"
}

// Config wires a Session's collaborators. Extractor and Enhancer are
// required; Store may be nil for sessions that only export.
type Config struct {
	Extractor Extractor
	Enhancer  Enhancer
	Store     store.Store
	Logger    *zap.Logger
	// Notify receives user-visible notices. Optional.
	Notify func(Notice)

	// TickInterval drives the cosmetic progress counter (default 500ms).
	TickInterval time.Duration
	// SettleDelay is the fixed pause between extraction completing and the
	// transition to editing (default 300ms).
	SettleDelay time.Duration
}

// Session is the pipeline state machine. One Session exists per user
// interaction context; its document is never shared with another session.
type Session struct {
	mu       sync.Mutex
	status   Status
	resume   *schema.Resume
	progress int
	inflight *opToken
	// generation increments every time the held document is discarded or
	// replaced wholesale (Reset, Submit). Enhancement results carrying a
	// stale generation are dropped instead of spliced.
	generation uint64

	extractor Extractor
	enhancer  Enhancer
	store     store.Store
	log       *zap.Logger
	notify    func(Notice)

	tickInterval time.Duration
	settleDelay  time.Duration
}

// New creates an idle Session.
func New(cfg Config) *Session {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	notify := cfg.Notify
	if notify == nil {
		notify = func(Notice) {}
	}
	tick := cfg.TickInterval
	if tick == 0 {
		tick = 500 * time.Millisecond
	}
	settle := cfg.SettleDelay
	if settle == 0 {
		settle = 300 * time.Millisecond
	}

	return &Session{
		status:       StatusIdle,
		extractor:    cfg.Extractor,
		enhancer:     cfg.Enhancer,
		store:        cfg.Store,
		log:          log,
		notify:       notify,
		tickInterval: tick,
		settleDelay:  settle,
	}
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Progress returns the cosmetic progress value (0-100). It carries no
// correctness meaning and must never gate other logic.
func (s *Session) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Document returns a snapshot of the held document, or nil when none is
// held. Callers never see the live instance.
func (s *Session) Document() *schema.Resume {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resume == nil {
		return nil
	}
	return s.resume.Clone()
}

// Submit runs the full ingestion path for one file: admission check,
// idle → processing, extraction, then editing on success or error on
// failure. It blocks until the transition completes. A rejected file type
// leaves the session idle and never reaches the model.
func (s *Session) Submit(ctx context.Context, dataURI string) error {
	payload, err := ingest.ParsePayload(dataURI)
	if err != nil {
		s.notify(Notice{Title: "Invalid File", Description: "The uploaded file could not be read.", Error: true})
		return err
	}

	s.mu.Lock()
	if s.status != StatusIdle {
		defer s.mu.Unlock()
		return &InvalidStateError{Op: "submit a file", Status: s.status}
	}
	if !ingest.Admitted(payload.MIMEType) {
		s.mu.Unlock()
		err := &ingest.InvalidFileTypeError{MIMEType: payload.MIMEType}
		s.notify(Notice{Title: "Invalid File Type", Description: "Please upload a PDF or DOCX file.", Error: true})
		return err
	}

	s.status = StatusProcessing
	s.resume = nil
	s.generation++
	s.progress = 10
	s.mu.Unlock()

	s.log.Info("extraction started", zap.String("mime_type", payload.MIMEType), zap.Int("bytes", len(payload.Data)))

	stop := make(chan struct{})
	go s.runProgress(stop)

	resume, err := s.extractor.Extract(ctx, dataURI)
	close(stop)

	if err != nil {
		s.mu.Lock()
		s.status = StatusError
		s.progress = 0
		s.mu.Unlock()
		s.log.Warn("extraction failed", zap.Error(err))
		s.notify(Notice{Title: "Parsing Failed", Description: "There was an error parsing your resume. Please try again.", Error: true})
		return err
	}

	s.mu.Lock()
	s.progress = 100
	s.mu.Unlock()

	// Short settle so the completed progress state is observable before
	// the editor takes over.
	time.Sleep(s.settleDelay)

	s.mu.Lock()
	s.status = StatusEditing
	s.resume = resume
	s.mu.Unlock()

	s.log.Info("extraction succeeded",
		zap.Int("experience", len(resume.Experience)),
		zap.Int("education", len(resume.Education)),
		zap.Int("skills", len(resume.Skills)))
	return nil
}

// runProgress advances the cosmetic progress counter toward, but never
// past, 95 until the real result lands. It carries no information about
// the actual operation.
func (s *Session) runProgress(stop chan struct{}) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.status == StatusProcessing && s.progress < 95 {
				s.progress += 5
			}
			s.mu.Unlock()
		}
	}
}

// Reset discards the held document and returns the session to idle. It is
// the recovery path out of the error state. A processing session cannot be
// reset: there is no way to abort an issued extraction.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusProcessing {
		return &InvalidStateError{Op: "reset", Status: s.status}
	}

	s.status = StatusIdle
	s.resume = nil
	s.generation++
	s.progress = 0
	s.inflight = nil
	return nil
}

// Save hands a snapshot of the document to the persistence collaborator.
// A failure is reported and leaves the session editing with the document
// intact; there is no retry.
func (s *Session) Save(ctx context.Context) (*store.SavedResume, error) {
	s.mu.Lock()
	if s.status != StatusEditing {
		defer s.mu.Unlock()
		return nil, &InvalidStateError{Op: "save", Status: s.status}
	}
	if s.store == nil {
		defer s.mu.Unlock()
		return nil, &store.SaveError{Cause: fmt.Errorf("no store configured")}
	}
	snapshot := s.resume.Clone()
	s.mu.Unlock()

	saved, err := s.store.Save(ctx, snapshot)
	if err != nil {
		s.log.Warn("save failed", zap.Error(err))
		s.notify(Notice{Title: "Save Failed", Description: "Could not save your resume. Please try again.", Error: true})
		return nil, err
	}

	s.log.Info("resume saved", zap.String("id", saved.ID.String()))
	s.notify(Notice{Title: "Resume Saved", Description: "Your resume has been saved."})
	return saved, nil
}

// ExportFilename is the name offered for the downloadable JSON artifact.
const ExportFilename = "resume.json"

// Export serializes the current document to a UTF-8 JSON blob with the
// canonical field names and nesting.
func (s *Session) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusEditing {
		return nil, &InvalidStateError{Op: "export", Status: s.status}
	}
	return s.resume.Marshal()
}
