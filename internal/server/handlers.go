package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/resume-enhancer/internal/ingest"
	"github.com/jonathan/resume-enhancer/internal/schema"
	"github.com/jonathan/resume-enhancer/internal/session"
	"go.uber.org/zap"
)

// ExtractRequest represents the request body for /extract.
type ExtractRequest struct {
	ResumeDataURI string `json:"resume_data_uri" validate:"required"`
}

// Validate validates the ExtractRequest using the validator.
func (r *ExtractRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// SectionRequest represents the request body for /enhance/section.
type SectionRequest struct {
	Section string `json:"section" validate:"required"`
	Text    string `json:"text" validate:"required"`
}

// Validate validates the SectionRequest using the validator.
func (r *SectionRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// SectionResponse represents the response for /enhance/section.
type SectionResponse struct {
	EnhancedText string `json:"enhanced_text"`
}

// SaveResponse represents the response for POST /resumes. It reports the
// persistence outcome; there is no retry behind it.
type SaveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
	SavedAt string `json:"saved_at,omitempty"`
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleExtract converts an uploaded resume file into a structured record
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "resume_data_uri is required")
		return
	}

	// Admission check before anything expensive: only declared PDF/DOCX
	// payloads ever reach the model.
	payload, err := ingest.ParsePayload(req.ResumeDataURI)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ingest.Admitted(payload.MIMEType) {
		err := &ingest.InvalidFileTypeError{MIMEType: payload.MIMEType}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	resume, err := s.extractor.Extract(r.Context(), req.ResumeDataURI)
	if err != nil {
		s.log.Warn("extraction failed", zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, resume)
}

// decodeResume reads and validates a resume body, enforcing the schema
// before any operation touches it.
func (s *Server) decodeResume(w http.ResponseWriter, r *http.Request) *schema.Resume {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "failed to read request body")
		return nil
	}

	resume, err := schema.Validate(body)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return nil
	}
	return resume
}

// handleEnhanceResume rewrites a whole document
func (s *Server) handleEnhanceResume(w http.ResponseWriter, r *http.Request) {
	resume := s.decodeResume(w, r)
	if resume == nil {
		return
	}

	enhanced, err := s.enhancer.EnhanceResume(r.Context(), resume)
	if err != nil {
		s.log.Warn("resume enhancement failed", zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, enhanced)
}

// handleEnhanceExperience rewrites a single experience entry
func (s *Server) handleEnhanceExperience(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if err := schema.ValidateDocument(schema.ExperienceEntrySchema, body); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	var entry schema.ExperienceEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	enhanced, err := s.enhancer.EnhanceExperience(r.Context(), entry)
	if err != nil {
		s.log.Warn("experience enhancement failed", zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, enhanced)
}

// handleEnhanceSection rewrites a free-text section
func (s *Server) handleEnhanceSection(w http.ResponseWriter, r *http.Request) {
	var req SectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "section and text are required")
		return
	}

	enhanced, err := s.enhancer.EnhanceSection(r.Context(), req.Section, req.Text)
	if err != nil {
		s.log.Warn("section enhancement failed", zap.String("section", req.Section), zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, SectionResponse{EnhancedText: enhanced})
}

// handleSaveResume persists a resume snapshot
func (s *Server) handleSaveResume(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "no store configured")
		return
	}

	resume := s.decodeResume(w, r)
	if resume == nil {
		return
	}

	saved, err := s.store.Save(r.Context(), resume)
	if err != nil {
		s.log.Warn("save failed", zap.Error(err))
		s.jsonResponse(w, HTTPStatus(err), SaveResponse{
			Success: false,
			Message: "Failed to save resume.",
		})
		return
	}

	s.jsonResponse(w, http.StatusCreated, SaveResponse{
		Success: true,
		Message: "Resume saved successfully.",
		ID:      saved.ID.String(),
		SavedAt: saved.SavedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// handleListResumes lists saved resume metadata
func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "no store configured")
		return
	}

	records, err := s.store.List(r.Context())
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, records)
}

// resumeByID loads a saved resume from the {id} path value
func (s *Server) resumeByID(w http.ResponseWriter, r *http.Request) (*schema.Resume, bool) {
	if s.store == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "no store configured")
		return nil, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid resume ID")
		return nil, false
	}

	record, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return nil, false
	}
	return record.Resume, true
}

// handleGetResume returns a saved resume
func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	resume, ok := s.resumeByID(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, resume)
}

// handleExportResume serves a saved resume as a downloadable resume.json
func (s *Server) handleExportResume(w http.ResponseWriter, r *http.Request) {
	resume, ok := s.resumeByID(w, r)
	if !ok {
		return
	}

	blob, err := resume.Marshal()
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", session.ExportFilename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob)
}
