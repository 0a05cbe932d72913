package handlers

import (
	"net/http"
	"strings"

	"github.com/fitminute/photoedit/internal/models"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sessions := h.sessionStore.GetAll()
		sessionList := make([]*models.SessionView, 0, len(sessions))
		for _, sess := range sessions {
			sessionList = append(sessionList, h.sessionView(sess))
		}
		h.writeJSON(w, http.StatusOK, sessionList)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionDetail serves /api/sessions/{id} and /api/sessions/{id}/{action}.
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	sessionID, action, _ := strings.Cut(rest, "/")
	if sessionID == "" || strings.Contains(action, "/") {
		h.writeError(w, "Not found", http.StatusNotFound)
		return
	}

	sess, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.writeJSON(w, http.StatusOK, h.sessionView(sess))
		case http.MethodDelete:
			h.sessionStore.Delete(sessionID)
			w.WriteHeader(http.StatusNoContent)
		default:
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "edit":
		if !h.requireMethod(w, r, http.MethodPost) {
			return
		}
		h.handleEdit(w, r, sess)
	case "reset":
		if !h.requireMethod(w, r, http.MethodPost) {
			return
		}
		sess.Reset()
		h.writeJSON(w, http.StatusOK, h.sessionView(sess))
	case "result":
		if !h.requireMethod(w, r, http.MethodGet) {
			return
		}
		h.handleResult(w, sess)
	case "source":
		if !h.requireMethod(w, r, http.MethodGet) {
			return
		}
		h.handleSource(w, sess)
	case "save":
		if !h.requireMethod(w, r, http.MethodPost) {
			return
		}
		h.handleSave(w, r, sess)
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
