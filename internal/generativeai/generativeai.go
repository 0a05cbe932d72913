package generativeai

import (
	"context"
	"errors"
	"fmt"

	"github.com/fitminute/photoedit/internal/providers"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GenerativeAI is a provider for Gemini through the generative-ai-go SDK
type GenerativeAI struct {
	apiKey string
	opts   []option.ClientOption
}

// New returns a new GenerativeAI provider
func New(apiKey string, opts ...option.ClientOption) (*GenerativeAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	return &GenerativeAI{apiKey: apiKey, opts: opts}, nil
}

// EditImage sends the image and instruction to the model and returns the
// candidates it produced.
func (g *GenerativeAI) EditImage(ctx context.Context, req providers.Request) (*providers.Response, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(req.Model)

	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: req.Image.MIMEType, Data: req.Image.Data},
		genai.Text(req.Instruction),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", wrapAPIError(err))
	}

	return toResponse(resp), nil
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
		candidate := providers.Candidate{FinishReason: c.FinishReason.String()}
		if c.Content != nil {
			for _, p := range c.Content.Parts {
				switch v := p.(type) {
				case genai.Blob:
					if len(v.Data) > 0 {
						candidate.Parts = append(candidate.Parts, providers.Part{
							InlineData: &providers.Blob{MIMEType: v.MIMEType, Data: v.Data},
						})
					} else {
						candidate.Parts = append(candidate.Parts, providers.Part{})
					}
				case genai.Text:
					candidate.Parts = append(candidate.Parts, providers.Part{Text: string(v)})
				default:
					// Function calls and other part kinds carry neither image nor text.
					candidate.Parts = append(candidate.Parts, providers.Part{})
				}
			}
		}
		out.Candidates = append(out.Candidates, candidate)
	}

	return out
}

// wrapAPIError keeps the HTTP status of API errors that expose one.
func wrapAPIError(err error) error {
	var coded interface{ HTTPCode() int }
	if errors.As(err, &coded) && coded.HTTPCode() > 0 {
		return &providers.APIError{StatusCode: coded.HTTPCode(), Err: err}
	}
	return err
}
