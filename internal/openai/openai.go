package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/fitminute/photoedit/internal/imagecodec"
	"github.com/fitminute/photoedit/internal/providers"
)

const (
	// DefaultModel is the OpenAI image model used when none is configured.
	DefaultModel = "gpt-image-1"
	// DefaultBaseURL is the public OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"
)

// OpenAI is a provider for OpenAI image edits
type OpenAI struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New returns a new OpenAI provider
func New(apiKey, baseURL string, httpClient *http.Client) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OpenAI{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

type editResponse struct {
	OutputFormat string `json:"output_format"`
	Data         []struct {
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// EditImage posts the image and prompt to the images/edits endpoint
func (o *OpenAI) EditImage(ctx context.Context, req providers.Request) (*providers.Response, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	body, contentType, err := buildMultipart(model, req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/images/edits", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var response editResponse
	decodeErr := json.Unmarshal(respBody, &response)

	if resp.StatusCode != http.StatusOK {
		msg := providers.Truncate(string(respBody), 200)
		if decodeErr == nil && response.Error != nil {
			msg = response.Error.Message
		}
		return nil, &providers.APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", decodeErr)
	}

	return toResponse(&response)
}

func buildMultipart(model string, req providers.Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("model", model); err != nil {
		return nil, "", fmt.Errorf("failed to write model field: %w", err)
	}
	if err := w.WriteField("prompt", req.Instruction); err != nil {
		return nil, "", fmt.Errorf("failed to write prompt field: %w", err)
	}
	if strings.HasPrefix(model, "dall-e") {
		if err := w.WriteField("response_format", "b64_json"); err != nil {
			return nil, "", fmt.Errorf("failed to write response_format field: %w", err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="image%s"`, imagecodec.Extension(req.Image.MIMEType)))
	h.Set("Content-Type", req.Image.MIMEType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(req.Image.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write image part: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// toResponse maps data[] onto one candidate: each image becomes a binary part
// followed by its revised prompt, if any.
func toResponse(resp *editResponse) (*providers.Response, error) {
	mimeType := "image/png"
	if resp.OutputFormat != "" {
		mimeType = "image/" + resp.OutputFormat
	}

	var candidate providers.Candidate
	for i, d := range resp.Data {
		if d.B64JSON != "" {
			data, err := base64.StdEncoding.DecodeString(d.B64JSON)
			if err != nil {
				return nil, fmt.Errorf("failed to decode image %d: %w", i, err)
			}
			candidate.Parts = append(candidate.Parts, providers.Part{
				InlineData: &providers.Blob{MIMEType: mimeType, Data: data},
			})
		}
		if d.RevisedPrompt != "" {
			candidate.Parts = append(candidate.Parts, providers.Part{Text: d.RevisedPrompt})
		}
	}

	return &providers.Response{Candidates: []providers.Candidate{candidate}}, nil
}
