package imagecodec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"strings"

	_ "golang.org/x/image/webp"
)

// dataURIPrefix matches the preview prefix a browser FileReader puts in front of
// the base64 payload.
var dataURIPrefix = regexp.MustCompile(`^data:image/(png|jpeg|jpg|webp);base64,`)

// supportedTypes are the image types the edit providers accept.
var supportedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/webp": true,
}

// UnsupportedTypeError is returned when an input's type is not an image type
// this package can hand to a provider.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Type == "" {
		return "unsupported image type: unknown"
	}
	return fmt.Sprintf("unsupported image type %q", e.Type)
}

// Payload is an encoded image ready for transmission.
type Payload struct {
	Data     string // standard base64, no data URI prefix
	MIMEType string
	Width    int
	Height   int
}

// URL returns the payload as a renderable data URI.
func (p *Payload) URL() string {
	return DataURI(p.MIMEType, p.Data)
}

// Encode base64-encodes raw image bytes. The declared type must match image/*;
// an empty or generic declared type is resolved by probing the bytes.
func Encode(data []byte, declaredType string) (*Payload, error) {
	mimeType := Normalize(declaredType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		detected, err := DetectMIMEType(data)
		if err != nil {
			return nil, &UnsupportedTypeError{Type: declaredType}
		}
		mimeType = detected
	}

	if !strings.HasPrefix(mimeType, "image/") {
		return nil, &UnsupportedTypeError{Type: mimeType}
	}

	p := &Payload{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		p.Width, p.Height = cfg.Width, cfg.Height
	}

	return p, nil
}

// StripDataURIPrefix removes a leading data:image/...;base64, prefix. Payloads
// without the prefix are returned unchanged.
func StripDataURIPrefix(s string) string {
	return dataURIPrefix.ReplaceAllString(s, "")
}

// DataURI builds a data URI for rendering a base64 payload.
func DataURI(mimeType, payload string) string {
	return "data:" + mimeType + ";base64," + StripDataURIPrefix(payload)
}

// Decode strips any data URI prefix and decodes the base64 payload.
func Decode(payload string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(StripDataURIPrefix(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 payload: %w", err)
	}
	return data, nil
}

// IsSupported reports whether mimeType can be sent to an edit provider.
func IsSupported(mimeType string) bool {
	return supportedTypes[Normalize(mimeType)]
}

// DetectMIMEType probes the image header and returns its MIME type.
func DetectMIMEType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to detect image format: %w", err)
	}
	return "image/" + format, nil
}

// Extension returns the file extension used when saving an image of the given type.
func Extension(mimeType string) string {
	switch Normalize(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

// Normalize strips MIME parameters and lowercases the type.
func Normalize(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(mimeType))
}
