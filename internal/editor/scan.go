package editor

import "github.com/fitminute/photoedit/internal/providers"

// ExtractImage applies the response policy to the first candidate's parts:
// the first part carrying inline binary data wins; otherwise the first text
// part becomes a ModelRefusedError; otherwise the response is empty.
//
// It also returns the first text part seen before the image, if any, so the
// caller can surface the model's commentary.
func ExtractImage(resp *providers.Response) (*providers.Blob, string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, "", &EmptyResponseError{}
	}

	candidate := resp.Candidates[0]
	parts := candidate.Parts

	text := ""
	for i := 0; i < len(parts); i++ {
		if blob := parts[i].InlineData; blob != nil && len(blob.Data) > 0 {
			return blob, text, nil
		}
		if text == "" && parts[i].Text != "" {
			text = parts[i].Text
		}
	}

	for i := 0; i < len(parts); i++ {
		if parts[i].Text != "" {
			return nil, "", &ModelRefusedError{Text: parts[i].Text}
		}
	}

	return nil, "", &EmptyResponseError{FinishReason: candidate.FinishReason}
}
