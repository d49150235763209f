package session

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/resume-enhancer/internal/enhance"
	"github.com/jonathan/resume-enhancer/internal/extract"
	"github.com/jonathan/resume-enhancer/internal/gateway"
	"github.com/jonathan/resume-enhancer/internal/ingest"
	"github.com/jonathan/resume-enhancer/internal/schema"
	"github.com/jonathan/resume-enhancer/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockExtractor implements Extractor for testing
type mockExtractor struct {
	ExtractFunc func(ctx context.Context, dataURI string) (*schema.Resume, error)
	calls       int
}

func (m *mockExtractor) Extract(ctx context.Context, dataURI string) (*schema.Resume, error) {
	m.calls++
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, dataURI)
	}
	r := &schema.Resume{Name: "Jane Doe", Email: "jane@example.com", Phone: "555-0100"}
	r.Normalize()
	return r, nil
}

// mockEnhancer implements Enhancer for testing
type mockEnhancer struct {
	EnhanceResumeFunc     func(ctx context.Context, resume *schema.Resume) (*schema.Resume, error)
	EnhanceExperienceFunc func(ctx context.Context, entry schema.ExperienceEntry) (schema.ExperienceEntry, error)
	EnhanceSectionFunc    func(ctx context.Context, section, text string) (string, error)
}

func (m *mockEnhancer) EnhanceResume(ctx context.Context, resume *schema.Resume) (*schema.Resume, error) {
	if m.EnhanceResumeFunc != nil {
		return m.EnhanceResumeFunc(ctx, resume)
	}
	out := resume.Clone()
	out.Name = "Enhanced " + out.Name
	return out, nil
}

func (m *mockEnhancer) EnhanceExperience(ctx context.Context, entry schema.ExperienceEntry) (schema.ExperienceEntry, error) {
	if m.EnhanceExperienceFunc != nil {
		return m.EnhanceExperienceFunc(ctx, entry)
	}
	entry.Description = "Enhanced: " + entry.Description
	return entry, nil
}

func (m *mockEnhancer) EnhanceSection(ctx context.Context, section, text string) (string, error) {
	if m.EnhanceSectionFunc != nil {
		return m.EnhanceSectionFunc(ctx, section, text)
	}
	return "Enhanced: " + text, nil
}

// noticeRecorder captures notices thread-safely
type noticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *noticeRecorder) record(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *noticeRecorder) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	titles := make([]string, len(n.notices))
	for i, notice := range n.notices {
		titles[i] = notice.Title
	}
	return titles
}

func newTestSession(t *testing.T, ext *mockExtractor, enh *mockEnhancer, st store.Store) (*Session, *noticeRecorder) {
	t.Helper()
	recorder := &noticeRecorder{}
	if ext == nil {
		ext = &mockExtractor{}
	}
	if enh == nil {
		enh = &mockEnhancer{}
	}
	return New(Config{
		Extractor:    ext,
		Enhancer:     enh,
		Store:        st,
		Notify:       recorder.record,
		TickInterval: 2 * time.Millisecond,
		SettleDelay:  time.Millisecond,
	}), recorder
}

func pdfURI() string {
	return "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4"))
}

func textURI() string {
	return "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))
}

func editingSession(t *testing.T, ext *mockExtractor, enh *mockEnhancer, st store.Store) (*Session, *noticeRecorder) {
	t.Helper()
	s, recorder := newTestSession(t, ext, enh, st)
	require.NoError(t, s.Submit(context.Background(), pdfURI()))
	require.Equal(t, StatusEditing, s.Status())
	return s, recorder
}

func TestSubmit_Success(t *testing.T) {
	s, _ := newTestSession(t, nil, nil, nil)

	err := s.Submit(context.Background(), pdfURI())

	require.NoError(t, err)
	assert.Equal(t, StatusEditing, s.Status())
	assert.Equal(t, 100, s.Progress())

	doc := s.Document()
	require.NotNil(t, doc)
	assert.Equal(t, "Jane Doe", doc.Name)
}

func TestSubmit_EmptyButValidDocument(t *testing.T) {
	ext := &mockExtractor{
		ExtractFunc: func(_ context.Context, _ string) (*schema.Resume, error) {
			r := &schema.Resume{}
			r.Normalize()
			return r, nil
		},
	}
	s, _ := newTestSession(t, ext, nil, nil)

	err := s.Submit(context.Background(), pdfURI())

	require.NoError(t, err, "an empty-but-valid document is a success")
	assert.Equal(t, StatusEditing, s.Status())
	doc := s.Document()
	assert.Equal(t, "", doc.Name)
	assert.Empty(t, doc.Experience)
}

func TestSubmit_RejectsUnsupportedType(t *testing.T) {
	ext := &mockExtractor{}
	s, recorder := newTestSession(t, ext, nil, nil)

	err := s.Submit(context.Background(), textURI())

	var ifte *ingest.InvalidFileTypeError
	require.ErrorAs(t, err, &ifte)
	assert.Equal(t, StatusIdle, s.Status(), "rejection happens before any transition")
	assert.Equal(t, 0, ext.calls, "extraction never starts for a rejected file")
	assert.Contains(t, recorder.titles(), "Invalid File Type")
}

func TestSubmit_ExtractionFailure(t *testing.T) {
	ext := &mockExtractor{
		ExtractFunc: func(_ context.Context, _ string) (*schema.Resume, error) {
			return nil, &extract.ExtractionError{Cause: errors.New("model unavailable")}
		},
	}
	s, recorder := newTestSession(t, ext, nil, nil)

	err := s.Submit(context.Background(), pdfURI())

	var ee *extract.ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, StatusError, s.Status())
	assert.Nil(t, s.Document(), "no partial document after a failed extraction")
	assert.Contains(t, recorder.titles(), "Parsing Failed")

	// error is recoverable
	require.NoError(t, s.Reset())
	assert.Equal(t, StatusIdle, s.Status())
}

func TestSubmit_RefusedWhileNotIdle(t *testing.T) {
	s, _ := editingSession(t, nil, nil, nil)

	err := s.Submit(context.Background(), pdfURI())

	var ise *InvalidStateError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, StatusEditing, s.Status())
}

func TestProgress_TicksTowardCapThenForcedComplete(t *testing.T) {
	release := make(chan struct{})
	ext := &mockExtractor{
		ExtractFunc: func(_ context.Context, _ string) (*schema.Resume, error) {
			<-release
			r := &schema.Resume{}
			r.Normalize()
			return r, nil
		},
	}
	s, _ := newTestSession(t, ext, nil, nil)

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background(), pdfURI()) }()

	// Let the cosmetic ticker run well past what 95 would need
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, StatusProcessing, s.Status())
	p := s.Progress()
	assert.GreaterOrEqual(t, p, 10)
	assert.LessOrEqual(t, p, 95, "cosmetic progress never reaches 100 on its own")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 100, s.Progress())
	assert.Equal(t, StatusEditing, s.Status())
}

func TestEnhanceResume_ReplacesDocumentAtomically(t *testing.T) {
	s, _ := editingSession(t, nil, nil, nil)

	require.NoError(t, s.EnhanceResume(context.Background()))

	assert.Equal(t, "Enhanced Jane Doe", s.Document().Name)
	assert.Equal(t, StatusEditing, s.Status())
}

func TestEnhanceResume_FailureLeavesDocumentUnchanged(t *testing.T) {
	enh := &mockEnhancer{
		EnhanceResumeFunc: func(_ context.Context, _ *schema.Resume) (*schema.Resume, error) {
			return nil, &enhance.EnhancementError{Op: "resume", Cause: &gateway.SchemaViolation{Message: "bad output"}}
		},
	}
	s, recorder := editingSession(t, nil, enh, nil)
	before := s.Document()

	err := s.EnhanceResume(context.Background())

	require.Error(t, err)
	assert.Equal(t, StatusEditing, s.Status(), "enhancement failure keeps the session editing")
	assert.Equal(t, before, s.Document())
	assert.Contains(t, recorder.titles(), "Enhancement Failed")
}

func TestEnhanceEntry_SplicesSingleEntry(t *testing.T) {
	ext := &mockExtractor{
		ExtractFunc: func(_ context.Context, _ string) (*schema.Resume, error) {
			r := &schema.Resume{
				Experience: []schema.ExperienceEntry{
					{Title: "A", Company: "Acme", Dates: "2020", Description: "first"},
					{Title: "B", Company: "Beta", Dates: "2021", Description: "second"},
				},
			}
			r.Normalize()
			return r, nil
		},
	}
	s, _ := editingSession(t, ext, nil, nil)

	require.NoError(t, s.EnhanceEntry(context.Background(), 1))

	doc := s.Document()
	assert.Equal(t, "first", doc.Experience[0].Description)
	assert.Equal(t, "Enhanced: second", doc.Experience[1].Description)
}

func TestEnhanceEntry_IndexOutOfRange(t *testing.T) {
	s, _ := editingSession(t, nil, nil, nil)

	err := s.EnhanceEntry(context.Background(), 0)

	var ie *IndexError
	require.ErrorAs(t, err, &ie)
}

func TestEnhance_MutualExclusion(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	enh := &mockEnhancer{
		EnhanceResumeFunc: func(_ context.Context, r *schema.Resume) (*schema.Resume, error) {
			close(started)
			<-release
			return r.Clone(), nil
		},
	}
	ext := &mockExtractor{
		ExtractFunc: func(_ context.Context, _ string) (*schema.Resume, error) {
			r := &schema.Resume{Experience: []schema.ExperienceEntry{{Title: "A"}}}
			r.Normalize()
			return r, nil
		},
	}
	s, _ := editingSession(t, ext, enh, nil)

	done := make(chan error, 1)
	go func() { done <- s.EnhanceResume(context.Background()) }()
	<-started

	// Back-to-back requests against the same session must be refused, not
	// run concurrently.
	var oif *OperationInFlightError
	require.ErrorAs(t, s.EnhanceEntry(context.Background(), 0), &oif)
	require.ErrorAs(t, s.EnhanceResume(context.Background()), &oif)
	_, err := s.EnhanceSection(context.Background(), "Summary", "text")
	require.ErrorAs(t, err, &oif)

	close(release)
	require.NoError(t, <-done)

	// Token released: a new enhancement is accepted again
	assert.NoError(t, s.EnhanceEntry(context.Background(), 0))
}

func TestEnhanceResume_ResultAfterResetIsDropped(t *testing.T) {
	// Each enhancement invocation registers its own release channel so the
	// test can finish them out of order.
	starts := make(chan chan struct{}, 2)
	enh := &mockEnhancer{
		EnhanceResumeFunc: func(_ context.Context, r *schema.Resume) (*schema.Resume, error) {
			release := make(chan struct{})
			starts <- release
			<-release
			out := r.Clone()
			out.Name = "Enhanced " + out.Name
			return out, nil
		},
	}
	submissions := 0
	ext := &mockExtractor{
		ExtractFunc: func(_ context.Context, _ string) (*schema.Resume, error) {
			submissions++
			name := "First"
			if submissions > 1 {
				name = "Second"
			}
			r := &schema.Resume{Name: name, Experience: []schema.ExperienceEntry{{Title: "A"}}}
			r.Normalize()
			return r, nil
		},
	}
	s, recorder := editingSession(t, ext, enh, nil)

	done1 := make(chan error, 1)
	go func() { done1 <- s.EnhanceResume(context.Background()) }()
	release1 := <-starts

	// The first document is discarded and replaced while its enhancement
	// is still running.
	require.NoError(t, s.Reset())
	require.NoError(t, s.Submit(context.Background(), pdfURI()))
	require.Equal(t, "Second", s.Document().Name)

	done2 := make(chan error, 1)
	go func() { done2 <- s.EnhanceResume(context.Background()) }()
	release2 := <-starts

	// The first enhancement completes against the old document. Its result
	// must not touch the new one.
	close(release1)
	require.NoError(t, <-done1)
	assert.Equal(t, "Second", s.Document().Name, "a rewrite of a discarded document must not replace the new one")

	// Its release must not free the token the second enhancement holds.
	var oif *OperationInFlightError
	require.ErrorAs(t, s.EnhanceEntry(context.Background(), 0), &oif)
	require.ErrorAs(t, s.EnhanceResume(context.Background()), &oif)

	close(release2)
	require.NoError(t, <-done2)
	assert.Equal(t, "Enhanced Second", s.Document().Name)

	// Only the accepted result announces success.
	enhancedNotices := 0
	for _, title := range recorder.titles() {
		if title == "Resume Enhanced" {
			enhancedNotices++
		}
	}
	assert.Equal(t, 1, enhancedNotices)
}

func TestEnhanceSection_FailurePreservesOriginalText(t *testing.T) {
	enh := &mockEnhancer{
		EnhanceSectionFunc: func(_ context.Context, _, _ string) (string, error) {
			return "", &enhance.EnhancementError{Op: "section", Cause: &gateway.SchemaViolation{Message: "malformed JSON"}}
		},
	}
	s, _ := editingSession(t, nil, enh, nil)

	enhanced, err := s.EnhanceSection(context.Background(), "Summary", "original text")

	require.Error(t, err)
	var sv *gateway.SchemaViolation
	assert.ErrorAs(t, err, &sv)
	assert.Empty(t, enhanced, "caller keeps displaying the original text")
	assert.Equal(t, StatusEditing, s.Status())
}

func TestEnhance_RequiresEditingState(t *testing.T) {
	s, _ := newTestSession(t, nil, nil, nil)

	var ise *InvalidStateError
	require.ErrorAs(t, s.EnhanceResume(context.Background()), &ise)
	require.ErrorAs(t, s.EnhanceEntry(context.Background(), 0), &ise)
	_, err := s.EnhanceSection(context.Background(), "Summary", "text")
	require.ErrorAs(t, err, &ise)
}

func TestReset_DiscardsDocument(t *testing.T) {
	s, _ := editingSession(t, nil, nil, nil)
	require.NotNil(t, s.Document())

	require.NoError(t, s.Reset())

	assert.Equal(t, StatusIdle, s.Status())
	assert.Nil(t, s.Document())
	assert.Equal(t, 0, s.Progress())
}
