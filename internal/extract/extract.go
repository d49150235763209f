// Package extract converts an uploaded resume file into a structured
// resume record via a single model call. The binary format is never parsed
// here; the file rides along with the prompt and interpretation is
// entirely the model's job.
package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/resume-enhancer/internal/gateway"
	"github.com/jonathan/resume-enhancer/internal/ingest"
	"github.com/jonathan/resume-enhancer/internal/llm"
	"github.com/jonathan/resume-enhancer/internal/schema"
)

// ExtractionError indicates resume extraction failed. No partial document
// ever accompanies it: extraction is all-or-nothing.
type ExtractionError struct {
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("resume extraction failed: %v", e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// extractionPrompt instructs the model to parse the attached resume. The
// field-population rules matter: required fields fall back to empty
// strings, sections fall back to empty arrays, and text is copied
// verbatim. Rewriting is the enhancement operations' job, never this one's.
const extractionPrompt = `**CRITICAL INSTRUCTIONS: AI RESUME PARSER**

You are a high-precision AI resume parser. Your goal is to extract structured data from the attached resume document. Adhere to these rules:
1. **JSON ONLY:** Your output must be ONLY a valid JSON object matching the schema below. No extra text or markdown.
2. **ACCURACY FIRST:** Never invent data. If a field is missing, follow the rules below. It is better to leave a field empty than to fill it with incorrect information.
3. **PRESERVE CONTENT:** Extract text exactly as it is written. Do not correct or rephrase.

**FIELD-SPECIFIC INSTRUCTIONS:**

- "name" (string, REQUIRED): the candidate's full name, usually at the top of the resume. If not found, return "".
- "email" (string, REQUIRED): the candidate's email address; it must contain an "@" symbol. If not found, return "".
- "phone" (string, REQUIRED): the candidate's phone number, exactly as written. If not found, return "".
- "experience" (array, optional): look for sections titled "Experience", "Work History", or "Employment". For each job extract "title", "company", "dates", and "description". If the section is missing, return [].
- "education" (array, optional): look for sections titled "Education", "Academic Background", or "Qualifications". For each entry extract "degree", "school", and "dates". Search for this section carefully. If missing, return [].
- "skills" (array, optional): look for a section titled "Skills" or "Technical Skills" and extract the list as written. If missing, return [].
- "projects" (array, optional): look for sections titled "Projects", "Personal Projects", or "Portfolio". For each project extract "name", "description", and "link" (if available). If missing, return [].`

// Extractor performs one-shot structured extraction through the gateway.
type Extractor struct {
	gw gateway.Invoker
}

// New creates an Extractor.
func New(gw gateway.Invoker) *Extractor {
	return &Extractor{gw: gw}
}

// Extract converts a resume file, given as a data URI, into a validated
// structured resume. Any failure, from a malformed payload to a gateway
// error, surfaces as *ExtractionError with no document attached.
func (e *Extractor) Extract(ctx context.Context, dataURI string) (*schema.Resume, error) {
	payload, err := ingest.ParsePayload(dataURI)
	if err != nil {
		return nil, &ExtractionError{Cause: err}
	}
	return e.ExtractPayload(ctx, payload)
}

// ExtractPayload is Extract for an already-decoded payload.
func (e *Extractor) ExtractPayload(ctx context.Context, payload *ingest.Payload) (*schema.Resume, error) {
	raw, err := e.gw.Invoke(ctx, gateway.Request{
		Prompt:     extractionPrompt,
		Attachment: payload,
		Schema:     schema.ResumeSchema,
		Tier:       llm.TierStandard,
	})
	if err != nil {
		return nil, &ExtractionError{Cause: err}
	}

	var resume schema.Resume
	if err := json.Unmarshal(raw, &resume); err != nil {
		return nil, &ExtractionError{Cause: err}
	}
	resume.Normalize()
	return &resume, nil
}
