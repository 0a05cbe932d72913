package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/fitminute/photoedit/internal/session"
)

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Check if this is a JSON request with image URL
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		h.handleURLUpload(w, r)
		return
	}

	h.handleFileUpload(w, r)
}

func (h *Handler) handleURLUpload(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ImageURL  string `json:"image_url"`
		SessionID string `json:"session_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if request.ImageURL == "" {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}

	fileData, declaredType, err := h.downloadImageFromURL(r.Context(), request.ImageURL)
	if err != nil {
		h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
		return
	}

	filename := path.Base(strings.SplitN(request.ImageURL, "?", 2)[0])
	h.selectImage(w, request.SessionID, filename, fileData, declaredType)
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("files")
	if err != nil {
		file, header, err = r.FormFile("file")
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, h.opts.MaxUploadBytes+1))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if int64(len(fileData)) > h.opts.MaxUploadBytes {
		h.writeError(w, fmt.Sprintf("File too large (max %d bytes)", h.opts.MaxUploadBytes), http.StatusBadRequest)
		return
	}

	h.selectImage(w, r.FormValue("session_id"), header.Filename, fileData, header.Header.Get("Content-Type"))
}

// selectImage encodes the upload and selects it into the named session, or a
// new one when sessionID is empty.
func (h *Handler) selectImage(w http.ResponseWriter, sessionID, filename string, fileData []byte, declaredType string) {
	src, err := session.NewSourceImage(filename, fileData, declaredType)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var sess *session.Session
	if sessionID != "" {
		var ok bool
		if sess, ok = h.getSessionOrError(w, sessionID); !ok {
			return
		}
	} else {
		sess = h.sessionStore.Create()
	}

	if !sess.Select(src) {
		h.writeError(w, "Edit in progress", http.StatusConflict)
		return
	}

	slog.Info("Image selected",
		"session_id", sess.ID,
		"filename", filename,
		"mime_type", src.MIMEType,
		"width", src.Width,
		"height", src.Height)

	h.writeJSON(w, http.StatusCreated, h.sessionView(sess))
}

func (h *Handler) downloadImageFromURL(ctx context.Context, imageURL string) ([]byte, string, error) {
	if !strings.HasPrefix(imageURL, "http://") && !strings.HasPrefix(imageURL, "https://") {
		return nil, "", fmt.Errorf("unsupported URL scheme")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, h.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(imageData)) > h.opts.MaxUploadBytes {
		return nil, "", fmt.Errorf("image too large (max %d bytes)", h.opts.MaxUploadBytes)
	}

	return imageData, resp.Header.Get("Content-Type"), nil
}
