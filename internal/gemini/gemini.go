package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fitminute/photoedit/internal/providers"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini image model used when none is configured.
const DefaultModel = "gemini-2.5-flash-image"

// Config selects the Gemini backend and credentials.
type Config struct {
	APIKey   string
	Backend  string // "gemini" (API key) or "vertex"
	Project  string
	Location string
	BaseURL  string // overrides the service endpoint when set
}

// Gemini is a provider for Google Gemini through the genai SDK
type Gemini struct {
	models *genai.Models
}

// New returns a new Gemini provider
func New(ctx context.Context, cfg Config) (*Gemini, error) {
	cc := &genai.ClientConfig{}
	switch cfg.Backend {
	case "", "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	case "vertex":
		if cfg.Project == "" || cfg.Location == "" {
			return nil, fmt.Errorf("vertex backend requires a project and location")
		}
		cc.Project = cfg.Project
		cc.Location = cfg.Location
		cc.Backend = genai.BackendVertexAI
	default:
		return nil, fmt.Errorf("unsupported gemini backend: %s", cfg.Backend)
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}

	return &Gemini{models: client.Models}, nil
}

// EditImage sends the image and instruction as one user turn and returns every
// candidate part in order.
func (g *Gemini) EditImage(ctx context.Context, req providers.Request) (*providers.Response, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	parts := []*genai.Part{
		{
			InlineData: &genai.Blob{
				MIMEType: req.Image.MIMEType,
				Data:     req.Image.Data,
			},
		},
		genai.NewPartFromText(req.Instruction),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	slog.Debug("Sending image to Gemini for editing",
		"model", model,
		"image_bytes", len(req.Image.Data),
		"image_mime", req.Image.MIMEType)

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", wrapAPIError(err))
	}

	out := toResponse(resp)
	slog.Debug("Gemini response received",
		"candidates", len(out.Candidates),
		"duration", time.Since(start))

	return out, nil
}

func toResponse(resp *genai.GenerateContentResponse) *providers.Response {
	out := &providers.Response{}
	if resp == nil {
		return out
	}

	for _, c := range resp.Candidates {
		if c == nil {
			continue
		}
		candidate := providers.Candidate{FinishReason: string(c.FinishReason)}
		if c.Content != nil {
			for _, p := range c.Content.Parts {
				if p == nil {
					continue
				}
				part := providers.Part{Text: p.Text}
				if p.InlineData != nil && len(p.InlineData.Data) > 0 {
					part.InlineData = &providers.Blob{
						MIMEType: p.InlineData.MIMEType,
						Data:     p.InlineData.Data,
					}
				}
				candidate.Parts = append(candidate.Parts, part)
			}
		}
		out.Candidates = append(out.Candidates, candidate)
	}

	return out
}

// wrapAPIError converts a genai API error into a providers.APIError so the
// editor can tell authentication and quota failures apart.
func wrapAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &providers.APIError{StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &providers.APIError{StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message, Err: err}
	}
	return err
}
