package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fitminute/photoedit/internal/imagecodec"
)

// ErrCanceled is returned when the user dismisses a save dialog.
var ErrCanceled = errors.New("save canceled")

// File is a decoded image ready to be written somewhere.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Sink writes a file and returns where it ended up.
type Sink interface {
	Save(ctx context.Context, f *File) (string, error)
}

// SuggestedFilename returns the default name for an edited image.
func SuggestedFilename(mimeType string, t time.Time) string {
	return fmt.Sprintf("fitminute-edit-%d%s", t.UnixMilli(), imagecodec.Extension(mimeType))
}

// NewFile decodes a base64 payload into a File.
func NewFile(payload, mimeType, name string) (*File, error) {
	data, err := imagecodec.Decode(payload)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = SuggestedFilename(mimeType, time.Now())
	}
	return &File{Name: name, MIMEType: mimeType, Data: data}, nil
}

// TriggerDownload decodes payload and hands it to sink under suggestedFilename.
func TriggerDownload(ctx context.Context, sink Sink, payload, mimeType, suggestedFilename string) (string, error) {
	f, err := NewFile(payload, mimeType, suggestedFilename)
	if err != nil {
		return "", err
	}

	location, err := sink.Save(ctx, f)
	if err != nil {
		return "", err
	}

	slog.Info("Image saved", "location", location, "bytes", len(f.Data))
	return location, nil
}

// FileSink writes to the local filesystem. Path, when set, is used as-is;
// otherwise the file goes into Dir under its own name.
type FileSink struct {
	Dir  string
	Path string
}

// Save writes the file and returns its path.
func (s *FileSink) Save(ctx context.Context, f *File) (string, error) {
	path := s.Path
	if path == "" {
		dir := s.Dir
		if dir == "" {
			dir = "."
		}
		path = filepath.Join(dir, filepath.Base(f.Name))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, f.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return path, nil
}
