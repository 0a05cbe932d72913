package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fitminute/photoedit/internal/handlers"
	"github.com/fitminute/photoedit/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port     string
		saveSink string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the photo editing interface",
		Long: `Starts the photoedit web interface on the specified port.

The web interface lets you upload a photo, describe an edit in plain
language, and download the result.`,
		Example: `  # Start server on default port 8888
  photoedit serve

  # Start server on custom port, saving results to a bucket
  photoedit serve --port 3000 --save-sink bucket`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("save-sink") {
				cfg.Server.SaveSink = saveSink
			}

			ed, err := newEditor(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			sink, err := newSink(cfg.Server.SaveSink, cfg)
			if err != nil {
				return err
			}

			store := storage.New(ed)
			handler := handlers.New(store, handlers.Options{
				Provider:       cfg.Provider,
				Model:          ed.Model(),
				StaticDir:      cfg.Server.StaticDir,
				MaxUploadBytes: cfg.Server.MaxUploadBytes,
				Sink:           sink,
			})

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/sessions", handler.HandleSessions)
			mux.HandleFunc("/api/sessions/", handler.HandleSessionDetail)
			mux.HandleFunc("/api/upload", handler.HandleUpload)
			mux.HandleFunc("/", handler.HandleStatic)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + cfg.Server.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Photoedit interface available",
					"addr", addr,
					"url", "http://localhost"+addr,
					"provider", cfg.Provider,
					"model", ed.Model(),
					"save_sink", cfg.Server.SaveSink)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				if err := store.Drain(shutdownCtx); err != nil {
					slog.Warn("Edits still in flight at shutdown", "err", err)
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&saveSink, "save-sink", "file", "Where the save endpoint writes images (file, dialog, bucket, none)")
	addProviderFlags(cmd)

	return cmd
}
