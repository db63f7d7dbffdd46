package engine

import (
	"context"
	"strings"
)

type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// MimeType is the response mime hint for providers that take one.
func (f Format) MimeType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/plain"
}

type Request struct {
	Model       string
	Prompt      string
	Format      Format
	Temperature float64
}

// Engine performs a single upstream request with the given credential.
// Non-2xx statuses, transport failures and empty completions are errors.
type Engine interface {
	Generate(ctx context.Context, credential string, req Request) (string, error)
}

// CleanJSON removes markdown code fences around a JSON payload.
func CleanJSON(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
