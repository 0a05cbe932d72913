package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fitminute/photoedit/internal/download"
	"github.com/fitminute/photoedit/internal/session"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newEditCmd() *cobra.Command {
	var (
		imagePath  string
		prompt     string
		output     string
		saveDialog bool
		toBucket   bool
	)

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit one image from the command line",
		Long: `Sends one image and instruction to the configured model and saves the
edited image.

By default the result is written to the download directory under a
generated name. Use --output for an explicit path, --save-dialog to pick a
location with the system file dialog, or --bucket to upload it to the
configured S3-compatible bucket.`,
		Example: `  # Edit a photo and write the result next to it
  photoedit edit --image beach.jpg --prompt "make the sky blue" --output beach-blue.png

  # Use OpenAI instead of Gemini
  photoedit edit --image beach.jpg --prompt "remove the people" --provider openai`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if saveDialog && toBucket {
				return fmt.Errorf("--save-dialog and --bucket are mutually exclusive")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			src, err := session.NewSourceImage(filepath.Base(imagePath), data, "")
			if err != nil {
				return err
			}

			ed, err := newEditor(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			sess := session.New(uuid.NewString(), ed)
			sess.Select(src)
			if !sess.Edit(cmd.Context(), prompt) {
				return fmt.Errorf("prompt is required")
			}

			snap := sess.Snapshot()
			if snap.Status != session.Succeeded {
				return errors.New(snap.Error)
			}

			var sink download.Sink
			switch {
			case saveDialog:
				sink, err = newSink("dialog", cfg)
			case toBucket:
				sink, err = newSink("bucket", cfg)
			case output != "":
				sink = &download.FileSink{Path: output}
			default:
				sink, err = newSink("file", cfg)
			}
			if err != nil {
				return err
			}

			filename := download.SuggestedFilename(snap.Result.MIMEType, time.Now())
			location, err := download.TriggerDownload(cmd.Context(), sink, snap.Result.Payload, snap.Result.MIMEType, filename)
			if err != nil {
				if errors.Is(err, download.ErrCanceled) {
					fmt.Fprintln(cmd.OutOrStdout(), "Save canceled")
					return nil
				}
				return err
			}

			if snap.Result.Text != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Model note: %s\n", snap.Result.Text)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved edited image to %s\n", location)
			return nil
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Image to edit")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Edit instruction")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path for the edited image")
	cmd.Flags().BoolVar(&saveDialog, "save-dialog", false, "Choose the output location with the system save dialog")
	cmd.Flags().BoolVar(&toBucket, "bucket", false, "Upload the edited image to the configured bucket")
	addProviderFlags(cmd)

	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}
