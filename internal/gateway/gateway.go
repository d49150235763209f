// Package gateway is the single boundary between the pipeline and the
// generative model. Every AI-backed feature is the same shape: send
// structured instructions plus an expected output schema, get back a value
// of that shape or an explicit failure. Centralizing that contract here
// keeps ad hoc JSON-repair logic out of the features.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/resume-enhancer/internal/ingest"
	"github.com/jonathan/resume-enhancer/internal/llm"
	"github.com/jonathan/resume-enhancer/internal/schema"
)

// Request describes one model invocation: the prompt, an optional binary
// attachment the model should read, the JSON Schema the output must
// satisfy, and the model tier to use.
type Request struct {
	Prompt     string
	Attachment *ingest.Payload
	Schema     string
	Tier       llm.ModelTier
}

// Invoker is the consumer-side view of the Gateway. Operations depend on
// this interface so tests can substitute a scripted gateway.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (json.RawMessage, error)
}

// Gateway validates model output against the caller's schema before
// admitting it. It performs no retries; retry policy belongs to callers.
type Gateway struct {
	client llm.Client
}

// New creates a Gateway on top of an LLM client.
func New(client llm.Client) *Gateway {
	return &Gateway{client: client}
}

// Invoke sends the request to the model and returns its raw JSON output
// only after it has passed schema validation. Transport failures surface
// as *ModelError, malformed or non-conforming output as *SchemaViolation.
// The request's attachment is never modified.
func (g *Gateway) Invoke(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	if req.Schema == "" {
		return nil, fmt.Errorf("output schema is required")
	}

	var (
		text string
		err  error
	)
	if req.Attachment != nil {
		text, err = g.client.GenerateJSONWithFile(ctx, req.Prompt, req.Attachment.MIMEType, req.Attachment.Data, req.Tier)
	} else {
		text, err = g.client.GenerateJSON(ctx, req.Prompt, req.Tier)
	}
	if err != nil {
		return nil, &ModelError{Message: "generate content", Cause: err}
	}

	raw := []byte(llm.CleanJSONBlock(text))
	if !json.Valid(raw) {
		return nil, &SchemaViolation{Message: "response is not valid JSON"}
	}

	if err := schema.ValidateDocument(req.Schema, raw); err != nil {
		return nil, &SchemaViolation{Message: "response does not match expected shape", Cause: err}
	}

	return raw, nil
}
