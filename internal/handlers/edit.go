package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fitminute/photoedit/internal/session"
)

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var request struct {
		Instruction string `json:"instruction"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	instruction := strings.TrimSpace(request.Instruction)
	if instruction == "" {
		h.writeError(w, "instruction is required", http.StatusBadRequest)
		return
	}

	snap := sess.Snapshot()
	if snap.Source == nil {
		h.writeError(w, "No image selected", http.StatusBadRequest)
		return
	}
	if snap.Status == session.Pending {
		h.writeError(w, "Edit already in progress", http.StatusConflict)
		return
	}

	wait := r.URL.Query().Get("wait") == "true"

	var started bool
	if wait {
		started = sess.Edit(context.WithoutCancel(r.Context()), instruction)
	} else {
		started = sess.Start(r.Context(), instruction)
	}
	if !started {
		// lost a race with another edit or a reset
		h.writeError(w, "Edit already in progress", http.StatusConflict)
		return
	}

	slog.Info("Edit submitted", "session_id", sess.ID, "wait", wait)

	code := http.StatusAccepted
	if wait {
		code = http.StatusOK
	}
	h.writeJSON(w, code, h.sessionView(sess))
}
