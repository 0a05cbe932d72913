package models

import (
	"time"

	"github.com/fitminute/photoedit/internal/session"
)

// SessionView is the JSON representation of an edit session
type SessionView struct {
	ID          string         `json:"id"`
	Status      session.Status `json:"status"`
	Instruction string         `json:"instruction,omitempty"`
	Source      *ImageView     `json:"source,omitempty"`
	Result      *ResultView    `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	Provider    string         `json:"provider,omitempty"`
	Model       string         `json:"model,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ImageView describes the selected source image
type ImageView struct {
	Filename    string `json:"filename,omitempty"`
	MIMEType    string `json:"mime_type"`
	ImageURL    string `json:"image_url"`
	ImageWidth  int    `json:"image_width"`
	ImageHeight int    `json:"image_height"`
}

// ResultView describes the edited image
type ResultView struct {
	MIMEType    string    `json:"mime_type"`
	ImageURL    string    `json:"image_url"`
	DownloadURL string    `json:"download_url"`
	Text        string    `json:"text,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// SaveResponse reports where a save request wrote the edited image
type SaveResponse struct {
	SessionID string `json:"session_id"`
	Location  string `json:"location"`
	Filename  string `json:"filename"`
}

// NewSessionView builds the API view of a snapshot.
func NewSessionView(snap session.Snapshot, provider, model string) *SessionView {
	view := &SessionView{
		ID:          snap.ID,
		Status:      snap.Status,
		Instruction: snap.Instruction,
		Error:       snap.Error,
		Provider:    provider,
		Model:       model,
		CreatedAt:   snap.CreatedAt,
		UpdatedAt:   snap.UpdatedAt,
	}

	if src := snap.Source; src != nil {
		view.Source = &ImageView{
			Filename:    src.Filename,
			MIMEType:    src.MIMEType,
			ImageURL:    "/api/sessions/" + snap.ID + "/source",
			ImageWidth:  src.Width,
			ImageHeight: src.Height,
		}
	}

	if res := snap.Result; res != nil {
		view.Result = &ResultView{
			MIMEType:    res.MIMEType,
			ImageURL:    res.URL,
			DownloadURL: "/api/sessions/" + snap.ID + "/result",
			Text:        res.Text,
			CompletedAt: res.CompletedAt,
		}
	}

	return view
}
