package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fitminute/photoedit/internal/download"
	"github.com/fitminute/photoedit/internal/models"
	"github.com/fitminute/photoedit/internal/session"
)

func (h *Handler) handleResult(w http.ResponseWriter, sess *session.Session) {
	file, err := sess.Download()
	if err != nil {
		if errors.Is(err, session.ErrNoResult) {
			h.writeError(w, "No edited image", http.StatusNotFound)
			return
		}
		h.writeError(w, "Failed to decode edited image: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	h.writeImage(w, file.MIMEType, file.Data)
}

func (h *Handler) handleSource(w http.ResponseWriter, sess *session.Session) {
	src := sess.Snapshot().Source
	if src == nil {
		h.writeError(w, "No image selected", http.StatusNotFound)
		return
	}
	h.writeImage(w, src.MIMEType, src.Data)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if h.opts.Sink == nil {
		h.writeError(w, "Saving is not configured", http.StatusNotImplemented)
		return
	}

	snap := sess.Snapshot()
	if snap.Result == nil {
		h.writeError(w, "No edited image", http.StatusNotFound)
		return
	}

	filename := download.SuggestedFilename(snap.Result.MIMEType, snap.Result.CompletedAt)
	location, err := download.TriggerDownload(r.Context(), h.opts.Sink, snap.Result.Payload, snap.Result.MIMEType, filename)
	if err != nil {
		if errors.Is(err, download.ErrCanceled) {
			h.writeError(w, "Save canceled", http.StatusConflict)
			return
		}
		h.writeError(w, "Failed to save image: "+err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Edited image saved", "session_id", sess.ID, "location", location)

	h.writeJSON(w, http.StatusOK, models.SaveResponse{
		SessionID: sess.ID,
		Location:  location,
		Filename:  filename,
	})
}

func (h *Handler) writeImage(w http.ResponseWriter, mimeType string, data []byte) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		slog.Error("Unable to write image", "err", err)
	}
}
