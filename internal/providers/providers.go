package providers

import (
	"context"
	"fmt"
)

// Blob is inline binary data with its MIME type.
type Blob struct {
	MIMEType string
	Data     []byte
}

// Request is a single image edit: the source image followed by the instruction.
type Request struct {
	Model       string
	Image       Blob
	Instruction string
}

// Part is one fragment of a model's answer. Either field may be empty.
type Part struct {
	InlineData *Blob
	Text       string
}

// Candidate is one model output with its parts in the order the model produced them.
type Candidate struct {
	Parts        []Part
	FinishReason string
}

// Response is the provider-neutral shape of a generateContent-style answer.
type Response struct {
	Candidates []Candidate
}

// Provider defines the interface for an image edit backend
type Provider interface {
	EditImage(ctx context.Context, req Request) (*Response, error)
}

// APIError is a failure reported by the remote API with an HTTP status code.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("API returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Truncate shortens s to maxLen bytes for log and error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
