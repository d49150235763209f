// Package enhance rewrites existing resume content for quality without
// changing its structural shape. Every operation passes an immutable
// snapshot through the gateway and verifies the structural invariants of
// the result before handing it back; the caller's document is never
// touched on failure.
package enhance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/resume-enhancer/internal/gateway"
	"github.com/jonathan/resume-enhancer/internal/llm"
	"github.com/jonathan/resume-enhancer/internal/schema"
)

// EnhancementError indicates an enhancement operation failed. The input
// document is guaranteed untouched.
type EnhancementError struct {
	Op    string
	Cause error
}

func (e *EnhancementError) Error() string {
	return fmt.Sprintf("enhancement %s failed: %v", e.Op, e.Cause)
}

func (e *EnhancementError) Unwrap() error {
	return e.Cause
}

// Enhancer runs content-rewriting operations through the gateway.
type Enhancer struct {
	gw gateway.Invoker
}

// New creates an Enhancer.
func New(gw gateway.Invoker) *Enhancer {
	return &Enhancer{gw: gw}
}

const resumePromptHeader = `You are an AI resume enhancement expert. Your task is to review and improve resume data provided in JSON format. Rewrite the data with enhanced phrasing, polished grammar, and strong keyword optimization tailored for Applicant Tracking Systems (ATS). Follow these guidelines:

- Action-oriented language: begin descriptions with strong, industry-relevant action verbs (e.g. "Developed", "Led", "Optimized", "Engineered", "Streamlined").
- Quantify achievements: where plausible, add or sharpen numerical metrics (e.g. "Increased load time efficiency by 35%", "Served over 1,000 users") to highlight measurable impact.
- Clarity and grammar: every field must be grammatically correct and clearly convey contributions and outcomes.
- Keyword optimization: weave relevant technical and soft skills naturally into descriptions; use role-specific terminology; never stuff keywords.
- Preserve data structure: do not remove or rename any fields. Keep every array the same length and in the same order. If a field has no content, return it unchanged; never invent content for it.
- Output: ONLY the updated JSON object. No code blocks, markdown, or commentary.

Original resume data:
`

// EnhanceResume rewrites the entire document: titles, companies,
// descriptions, durations. The output must carry the same entities in the
// same order as the input; a model response that grows or shrinks any
// sequence is rejected as a schema violation.
func (e *Enhancer) EnhanceResume(ctx context.Context, resume *schema.Resume) (*schema.Resume, error) {
	snapshot, err := json.MarshalIndent(resume, "", "  ")
	if err != nil {
		return nil, &EnhancementError{Op: "resume", Cause: err}
	}

	raw, err := e.gw.Invoke(ctx, gateway.Request{
		Prompt: resumePromptHeader + string(snapshot),
		Schema: schema.ResumeSchema,
		Tier:   llm.TierAdvanced,
	})
	if err != nil {
		return nil, &EnhancementError{Op: "resume", Cause: err}
	}

	var enhanced schema.Resume
	if err := json.Unmarshal(raw, &enhanced); err != nil {
		return nil, &EnhancementError{Op: "resume", Cause: err}
	}
	enhanced.Normalize()

	if err := checkShape(resume, &enhanced); err != nil {
		return nil, &EnhancementError{Op: "resume", Cause: err}
	}
	return &enhanced, nil
}

// checkShape verifies the enhanced document carries exactly the same
// sequence lengths as the input.
func checkShape(before, after *schema.Resume) error {
	if len(after.Experience) != len(before.Experience) {
		return &gateway.SchemaViolation{Message: fmt.Sprintf("experience entries changed from %d to %d", len(before.Experience), len(after.Experience))}
	}
	if len(after.Education) != len(before.Education) {
		return &gateway.SchemaViolation{Message: fmt.Sprintf("education entries changed from %d to %d", len(before.Education), len(after.Education))}
	}
	if len(after.Projects) != len(before.Projects) {
		return &gateway.SchemaViolation{Message: fmt.Sprintf("project entries changed from %d to %d", len(before.Projects), len(after.Projects))}
	}
	if len(after.Skills) != len(before.Skills) {
		return &gateway.SchemaViolation{Message: fmt.Sprintf("skills changed from %d to %d", len(before.Skills), len(after.Skills))}
	}
	return nil
}

const experiencePrompt = `You are a professional resume writing assistant. Your task is to enhance a single work experience entry provided in JSON format.
Rewrite the "description" to be more impactful by using strong action verbs and quantifying achievements where possible. Make it sound professional and ATS-friendly.
You may subtly polish the "title" for clarity, but keep it aligned with the original role.
The "company" and "dates" fields MUST remain unchanged.
Your entire output must be ONLY the updated JSON object. Do not include any extra text, markdown, or commentary.

Original experience entry:
`

// EnhanceExperience rewrites a single experience entry's title and
// description. Company and dates are pass-through invariants: the prompt
// states it and this function verifies it, rejecting any drift as a schema
// violation.
func (e *Enhancer) EnhanceExperience(ctx context.Context, entry schema.ExperienceEntry) (schema.ExperienceEntry, error) {
	snapshot, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return schema.ExperienceEntry{}, &EnhancementError{Op: "experience", Cause: err}
	}

	raw, err := e.gw.Invoke(ctx, gateway.Request{
		Prompt: experiencePrompt + string(snapshot),
		Schema: schema.ExperienceEntrySchema,
		Tier:   llm.TierStandard,
	})
	if err != nil {
		return schema.ExperienceEntry{}, &EnhancementError{Op: "experience", Cause: err}
	}

	var enhanced schema.ExperienceEntry
	if err := json.Unmarshal(raw, &enhanced); err != nil {
		return schema.ExperienceEntry{}, &EnhancementError{Op: "experience", Cause: err}
	}

	if enhanced.Company != entry.Company {
		return schema.ExperienceEntry{}, &EnhancementError{
			Op:    "experience",
			Cause: &gateway.SchemaViolation{Message: fmt.Sprintf("company changed from %q to %q", entry.Company, enhanced.Company)},
		}
	}
	if enhanced.Dates != entry.Dates {
		return schema.ExperienceEntry{}, &EnhancementError{
			Op:    "experience",
			Cause: &gateway.SchemaViolation{Message: fmt.Sprintf("dates changed from %q to %q", entry.Dates, enhanced.Dates)},
		}
	}
	return enhanced, nil
}

// EnhanceSection rewrites one opaque block of free text. The section label
// only biases tone (a "Summary" reads differently than a "Skills" blurb);
// there is no structural constraint beyond non-empty input.
func (e *Enhancer) EnhanceSection(ctx context.Context, section, text string) (string, error) {
	if text == "" {
		return "", &EnhancementError{Op: "section", Cause: fmt.Errorf("section text is empty")}
	}

	prompt := fmt.Sprintf(`You are an AI resume enhancement expert. Your task is to rewrite and improve the provided resume section.
Focus on action verbs, quantifiable results, and keyword optimization relevant to the section.

Resume section to improve: %q

Original text:
%q

Return ONLY a JSON object of the form {"enhanced_text": "..."} with the improved text. Do not add any extra commentary.`, section, text)

	raw, err := e.gw.Invoke(ctx, gateway.Request{
		Prompt: prompt,
		Schema: schema.SectionTextSchema,
		Tier:   llm.TierLite,
	})
	if err != nil {
		return "", &EnhancementError{Op: "section", Cause: err}
	}

	var out struct {
		EnhancedText string `json:"enhanced_text"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &EnhancementError{Op: "section", Cause: err}
	}
	return out.EnhancedText, nil
}
