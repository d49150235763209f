package session

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/resume-enhancer/internal/schema"
	"github.com/jonathan/resume-enhancer/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdit_SetContactAndSkills(t *testing.T) {
	s, _ := editingSession(t, nil, nil, nil)

	require.NoError(t, s.SetContact("New Name", "new@example.com", "555-0199"))
	require.NoError(t, s.SetSkills([]string{"Go", "", "SQL", ""}))

	doc := s.Document()
	assert.Equal(t, "New Name", doc.Name)
	assert.Equal(t, "new@example.com", doc.Email)
	assert.Equal(t, []string{"Go", "SQL"}, doc.Skills, "empty skills are filtered on edit")
}

func TestEdit_AppendAndRemoveAtIndex(t *testing.T) {
	s, _ := editingSession(t, nil, nil, nil)

	require.NoError(t, s.AppendExperience(schema.ExperienceEntry{Title: "A"}))
	require.NoError(t, s.AppendExperience(schema.ExperienceEntry{Title: "B"}))
	require.NoError(t, s.AppendExperience(schema.ExperienceEntry{Title: "C"}))
	require.NoError(t, s.RemoveExperience(1))

	doc := s.Document()
	require.Len(t, doc.Experience, 2)
	assert.Equal(t, "A", doc.Experience[0].Title)
	assert.Equal(t, "C", doc.Experience[1].Title)

	var ie *IndexError
	require.ErrorAs(t, s.RemoveExperience(5), &ie)
	require.ErrorAs(t, s.UpdateExperience(-1, schema.ExperienceEntry{}), &ie)
}

func TestEdit_EducationAndProjects(t *testing.T) {
	s, _ := editingSession(t, nil, nil, nil)

	require.NoError(t, s.AppendEducation(schema.EducationEntry{Degree: "BSc", School: "State U"}))
	require.NoError(t, s.UpdateEducation(0, schema.EducationEntry{Degree: "MSc", School: "State U"}))
	require.NoError(t, s.AppendProject(schema.ProjectEntry{Name: "tool", Description: "a tool"}))
	require.NoError(t, s.UpdateProject(0, schema.ProjectEntry{Name: "tool", Description: "a better tool"}))

	doc := s.Document()
	assert.Equal(t, "MSc", doc.Education[0].Degree)
	assert.Equal(t, "a better tool", doc.Projects[0].Description)

	require.NoError(t, s.RemoveProject(0))
	require.NoError(t, s.RemoveEducation(0))
	doc = s.Document()
	assert.Empty(t, doc.Projects)
	assert.Empty(t, doc.Education)
}

func TestEdit_RequiresEditingState(t *testing.T) {
	s, _ := newTestSession(t, nil, nil, nil)

	var ise *InvalidStateError
	require.ErrorAs(t, s.SetContact("x", "y", "z"), &ise)
	require.ErrorAs(t, s.AppendExperience(schema.ExperienceEntry{}), &ise)
	require.ErrorAs(t, s.SetSkills(nil), &ise)
}

func TestEdit_DocumentSnapshotIsDetached(t *testing.T) {
	s, _ := editingSession(t, nil, nil, nil)
	require.NoError(t, s.AppendExperience(schema.ExperienceEntry{Title: "A", Company: "Acme"}))

	snapshot := s.Document()
	snapshot.Experience[0].Company = "mutated"

	assert.Equal(t, "Acme", s.Document().Experience[0].Company)
}

func TestSaveAndExport(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	s, recorder := editingSession(t, nil, nil, fs)

	saved, err := s.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", saved.Resume.Name)
	assert.Contains(t, recorder.titles(), "Resume Saved")

	blob, err := s.Export()
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"name":"Jane Doe"`)
	assert.Equal(t, "resume.json", ExportFilename)
}

// failingStore implements store.Store and always fails
type failingStore struct{}

func (failingStore) Save(context.Context, *schema.Resume) (*store.SavedResume, error) {
	return nil, &store.SaveError{Cause: assert.AnError}
}

func (failingStore) Get(context.Context, uuid.UUID) (*store.SavedResume, error) {
	return nil, assert.AnError
}

func (failingStore) List(context.Context) ([]store.SavedResume, error) {
	return nil, assert.AnError
}

func TestSave_FailureKeepsEditing(t *testing.T) {
	s, recorder := editingSession(t, nil, nil, failingStore{})
	before := s.Document()

	saved, err := s.Save(context.Background())

	assert.Nil(t, saved)
	var se *store.SaveError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StatusEditing, s.Status(), "save failure never leaves editing")
	assert.Equal(t, before, s.Document())
	assert.Contains(t, recorder.titles(), "Save Failed")
}

func TestExport_RequiresEditingState(t *testing.T) {
	s, _ := newTestSession(t, nil, nil, nil)

	blob, err := s.Export()

	assert.Nil(t, blob)
	var ise *InvalidStateError
	require.ErrorAs(t, err, &ise)
}
