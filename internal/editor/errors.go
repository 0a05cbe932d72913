package editor

import (
	"errors"
	"strings"

	"github.com/fitminute/photoedit/internal/providers"
)

var (
	// ErrEmptyInstruction is returned when the instruction is blank after trimming.
	ErrEmptyInstruction = errors.New("instruction must not be empty")
	// ErrInvalidPayload is returned when the image payload is not valid base64.
	ErrInvalidPayload = errors.New("image payload is not valid base64")
)

// Reason says why a remote call failed. It is informational only; callers
// never retry based on it.
type Reason string

const (
	ReasonTransport      Reason = "transport"
	ReasonAuthentication Reason = "authentication"
	ReasonQuota          Reason = "quota"
)

// RequestFailedError wraps any transport, authentication or quota failure of
// the single remote call.
type RequestFailedError struct {
	Reason Reason
	Err    error
}

func (e *RequestFailedError) Error() string {
	return "Failed to edit image: " + e.Err.Error()
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

// AuthenticationError means the remote side rejected the credential. It is
// always delivered inside a RequestFailedError.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return "credential rejected: " + e.Err.Error()
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ModelRefusedError means the model answered with text instead of an image.
type ModelRefusedError struct {
	Text string
}

func (e *ModelRefusedError) Error() string {
	return "Model returned text instead of image: " + e.Text
}

// EmptyResponseError means the model returned neither an image nor text.
type EmptyResponseError struct {
	FinishReason string
}

func (e *EmptyResponseError) Error() string {
	return "no image returned"
}

// newRequestFailed classifies err and wraps it.
func newRequestFailed(err error) *RequestFailedError {
	reason := classify(err)
	if reason == ReasonAuthentication {
		return &RequestFailedError{Reason: reason, Err: &AuthenticationError{Err: err}}
	}
	return &RequestFailedError{Reason: reason, Err: err}
}

func classify(err error) Reason {
	var apiErr *providers.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401, 403:
			return ReasonAuthentication
		case 429:
			return ReasonQuota
		}
	}

	errLower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errLower, "api key not valid") ||
		strings.Contains(errLower, "invalid api key") ||
		strings.Contains(errLower, "api_key_invalid") ||
		strings.Contains(errLower, "unauthenticated") ||
		strings.Contains(errLower, "permission denied") ||
		strings.Contains(errLower, "permissiondenied"):
		return ReasonAuthentication
	case strings.Contains(errLower, "quota") ||
		strings.Contains(errLower, "resource exhausted") ||
		strings.Contains(errLower, "resourceexhausted") ||
		strings.Contains(errLower, "rate limit"):
		return ReasonQuota
	default:
		return ReasonTransport
	}
}
