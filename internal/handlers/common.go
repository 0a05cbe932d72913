package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fitminute/photoedit/internal/download"
	"github.com/fitminute/photoedit/internal/models"
	"github.com/fitminute/photoedit/internal/session"
	"github.com/fitminute/photoedit/internal/storage"
)

const defaultMaxUploadBytes = 10 * 1024 * 1024

// Options configures a Handler.
type Options struct {
	Provider       string
	Model          string
	StaticDir      string
	MaxUploadBytes int64
	// Sink receives images saved through the save endpoint. Nil disables it.
	Sink download.Sink
}

type Handler struct {
	sessionStore *storage.SessionStore
	opts         Options
}

func New(store *storage.SessionStore, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.StaticDir == "" {
		opts.StaticDir = "static"
	}
	return &Handler{
		sessionStore: store,
		opts:         opts,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Warn(message, "code", code)
	}
	http.Error(w, message, code)
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*session.Session, bool) {
	sess, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (h *Handler) sessionView(sess *session.Session) *models.SessionView {
	return models.NewSessionView(sess.Snapshot(), h.opts.Provider, h.opts.Model)
}
