package download

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ncruces/zenity"
)

// DialogSink asks the user where to save through the host's native save dialog.
type DialogSink struct {
	// SelectFile overrides the dialog, for tests.
	SelectFile func(ctx context.Context, suggested string) (string, error)
}

// Save opens the dialog and writes the file to the chosen path.
func (s *DialogSink) Save(ctx context.Context, f *File) (string, error) {
	selectFile := s.SelectFile
	if selectFile == nil {
		selectFile = selectFileSave
	}

	path, err := selectFile(ctx, f.Name)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", ErrCanceled
		}
		return "", fmt.Errorf("save dialog failed: %w", err)
	}

	if err := os.WriteFile(path, f.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return path, nil
}

func selectFileSave(ctx context.Context, suggested string) (string, error) {
	return zenity.SelectFileSave(
		zenity.Context(ctx),
		zenity.Title("Save edited image"),
		zenity.Filename(suggested),
		zenity.ConfirmOverwrite(),
		zenity.FileFilters{
			{
				Name:     "Images",
				Patterns: []string{"*.png", "*.jpg", "*.jpeg", "*.webp"},
			},
		},
	)
}
