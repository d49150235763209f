// Package ingest handles file payload intake: decoding self-describing
// data URIs and admitting only supported document types.
package ingest

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Accepted document MIME types.
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Payload is a decoded file payload with its declared content type.
type Payload struct {
	MIMEType string
	Data     []byte
}

// InvalidFileTypeError indicates a payload whose declared content type is
// not an accepted document format. It is raised before any state change or
// model call.
type InvalidFileTypeError struct {
	MIMEType string
}

func (e *InvalidFileTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q: please upload a PDF or DOCX file", e.MIMEType)
}

// Admitted reports whether the declared MIME type is an accepted document
// format.
func Admitted(mimeType string) bool {
	return mimeType == MIMETypePDF || mimeType == MIMETypeDOCX
}

// ParsePayload decodes a data URI of the form
// "data:<mimetype>;base64,<encoded_data>" into a Payload. The MIME type is
// taken from the URI as declared; no content sniffing is performed.
func ParsePayload(dataURI string) (*Payload, error) {
	rest, ok := strings.CutPrefix(dataURI, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data URI: missing data: prefix")
	}

	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URI: missing comma separator")
	}

	mimeType, found := strings.CutSuffix(meta, ";base64")
	if !found {
		return nil, fmt.Errorf("malformed data URI: only base64 encoding is supported")
	}
	if mimeType == "" {
		return nil, fmt.Errorf("malformed data URI: missing MIME type")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	return &Payload{MIMEType: mimeType, Data: data}, nil
}

// Encode serializes the payload back to a data URI.
func (p *Payload) Encode() string {
	return "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// extensionMIMETypes maps file extensions to declared MIME types for local
// file ingestion.
var extensionMIMETypes = map[string]string{
	".pdf":  MIMETypePDF,
	".docx": MIMETypeDOCX,
}

// FromFile reads a local file into a Payload, deriving the declared MIME
// type from the file extension. Unknown extensions produce an
// InvalidFileTypeError so the admission check fires before anything else.
func FromFile(path string) (*Payload, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mimeType, ok := extensionMIMETypes[ext]
	if !ok {
		return nil, &InvalidFileTypeError{MIMEType: ext}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return &Payload{MIMEType: mimeType, Data: data}, nil
}
