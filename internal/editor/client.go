package editor

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fitminute/photoedit/internal/imagecodec"
	"github.com/fitminute/photoedit/internal/providers"
)

// Result is an edited image.
type Result struct {
	Payload  string `json:"-"` // base64, no data URI prefix
	MIMEType string `json:"mime_type"`
	Text     string `json:"text,omitempty"` // model commentary that came with the image
}

// URL returns the renderable data URI for the result.
func (r *Result) URL() string {
	return imagecodec.DataURI(r.MIMEType, r.Payload)
}

// Options configures a Client.
type Options struct {
	// Provider is the provider name, used only for logging.
	Provider string
	Model    string
	// Timeout bounds the remote call. Zero means no local deadline.
	Timeout time.Duration
}

// Client submits edits to a provider. It keeps no state between calls.
type Client struct {
	provider providers.Provider
	opts     Options
}

// NewClient returns a client that edits through p.
func NewClient(p providers.Provider, opts Options) *Client {
	return &Client{provider: p, opts: opts}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.opts.Model
}

// SubmitEdit sends one image and instruction to the model and returns the
// first image in its answer. Every call is a fresh, single-attempt request.
func (c *Client) SubmitEdit(ctx context.Context, payload, mimeType, instruction string) (*Result, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, ErrEmptyInstruction
	}
	if !imagecodec.IsSupported(mimeType) {
		return nil, &imagecodec.UnsupportedTypeError{Type: mimeType}
	}

	data, err := base64.StdEncoding.DecodeString(imagecodec.StripDataURIPrefix(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(data) == 0 {
		return nil, ErrInvalidPayload
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	req := providers.Request{
		Model:       c.opts.Model,
		Image:       providers.Blob{MIMEType: mimeType, Data: data},
		Instruction: instruction,
	}

	start := time.Now()
	slog.Info("Submitting image edit",
		"provider", c.opts.Provider,
		"model", c.opts.Model,
		"image_bytes", len(data),
		"image_mime", mimeType,
		"instruction_length", len(instruction))

	resp, err := c.provider.EditImage(ctx, req)
	if err != nil {
		failed := newRequestFailed(err)
		slog.Error("Image edit request failed", "reason", failed.Reason, "err", err, "duration", time.Since(start))
		return nil, failed
	}

	blob, text, err := ExtractImage(resp)
	if err != nil {
		slog.Warn("No image data found in response", "err", err, "duration", time.Since(start))
		return nil, err
	}

	result := &Result{
		Payload:  base64.StdEncoding.EncodeToString(blob.Data),
		MIMEType: resultMIMEType(blob),
		Text:     text,
	}

	slog.Info("Image edit complete",
		"output_bytes", len(blob.Data),
		"output_mime", result.MIMEType,
		"duration", time.Since(start))

	return result, nil
}

// resultMIMEType trusts the declared type when it is a supported image type,
// then falls back to probing the bytes, then to PNG.
func resultMIMEType(blob *providers.Blob) string {
	if imagecodec.IsSupported(blob.MIMEType) {
		return imagecodec.Normalize(blob.MIMEType)
	}
	if detected, err := imagecodec.DetectMIMEType(blob.Data); err == nil {
		return detected
	}
	return "image/png"
}
