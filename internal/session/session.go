package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fitminute/photoedit/internal/download"
	"github.com/fitminute/photoedit/internal/editor"
	"github.com/fitminute/photoedit/internal/imagecodec"
)

// ErrNoResult is returned by Download when there is no edited image.
var ErrNoResult = errors.New("no edited image available")

// Editor submits one edit. *editor.Client implements it.
type Editor interface {
	SubmitEdit(ctx context.Context, payload, mimeType, instruction string) (*editor.Result, error)
}

// SourceImage is the user's selected photo. It is replaced, never mutated.
type SourceImage struct {
	Filename string
	Data     []byte
	Payload  string // base64, no data URI prefix
	MIMEType string
	Width    int
	Height   int
}

// NewSourceImage encodes raw image bytes for a session.
func NewSourceImage(filename string, data []byte, declaredType string) (*SourceImage, error) {
	p, err := imagecodec.Encode(data, declaredType)
	if err != nil {
		return nil, err
	}
	return &SourceImage{
		Filename: filename,
		Data:     data,
		Payload:  p.Data,
		MIMEType: p.MIMEType,
		Width:    p.Width,
		Height:   p.Height,
	}, nil
}

// PreviewURL returns the data URI used to render the source locally.
func (s *SourceImage) PreviewURL() string {
	return imagecodec.DataURI(s.MIMEType, s.Payload)
}

// EditResult is a successful edit.
type EditResult struct {
	Payload     string
	MIMEType    string
	URL         string
	Text        string
	CompletedAt time.Time
}

// Snapshot is a read-only copy of a session for the display layer.
type Snapshot struct {
	ID          string
	Status      Status
	Instruction string
	Source      *SourceImage
	Result      *EditResult
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session drives one edit at a time for one source image.
type Session struct {
	ID        string
	CreatedAt time.Time

	editor Editor

	mu         sync.Mutex
	source     *SourceImage
	state      state
	generation uint64
	updatedAt  time.Time

	inflight sync.WaitGroup
}

// New returns an idle session with no source image.
func New(id string, ed Editor) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		editor:    ed,
		state:     idleState{},
		updatedAt: now,
	}
}

// Select replaces the source image and returns the session to Idle. It is
// refused while an edit is pending.
func (s *Session) Select(src *SourceImage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.status() == Pending {
		return false
	}
	s.source = src
	s.generation++
	s.transition(idleState{})
	return true
}

// Edit runs one edit and blocks until it resolves. It returns false without
// doing anything when the instruction is blank, no image is selected, or an
// edit is already pending.
func (s *Session) Edit(ctx context.Context, instruction string) bool {
	src, gen, ok := s.begin(instruction)
	if !ok {
		return false
	}
	s.run(ctx, src, gen, instruction)
	return true
}

// Start is Edit without blocking. The call is detached from ctx's
// cancellation; once issued it runs to completion.
func (s *Session) Start(ctx context.Context, instruction string) bool {
	src, gen, ok := s.begin(instruction)
	if !ok {
		return false
	}
	go s.run(context.WithoutCancel(ctx), src, gen, instruction)
	return true
}

// Wait blocks until every edit started on this session has returned.
func (s *Session) Wait() {
	s.inflight.Wait()
}

// Reset discards the result, error and source image and returns to Idle.
// An edit still in flight finishes but its outcome is dropped.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.source = nil
	s.generation++
	s.transition(idleState{})
}

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.status()
}

// Snapshot returns a copy of the session's visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.ID,
		Status:    s.state.status(),
		Source:    s.source,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.updatedAt,
	}

	switch st := s.state.(type) {
	case pendingState:
		snap.Instruction = st.instruction
	case succeededState:
		snap.Instruction = st.instruction
		snap.Result = st.result
	case failedState:
		snap.Instruction = st.instruction
		snap.Error = st.message
	}

	return snap
}

// Download returns the edited image as a file with a suggested name. It does
// not change the session.
func (s *Session) Download() (*download.File, error) {
	s.mu.Lock()
	st, ok := s.state.(succeededState)
	s.mu.Unlock()

	if !ok {
		return nil, ErrNoResult
	}
	return download.NewFile(st.result.Payload, st.result.MIMEType, download.SuggestedFilename(st.result.MIMEType, time.Now()))
}

func (s *Session) begin(instruction string) (*SourceImage, uint64, bool) {
	instruction = strings.TrimSpace(instruction)

	s.mu.Lock()
	defer s.mu.Unlock()

	if instruction == "" || s.source == nil || s.state.status() == Pending {
		slog.Debug("Edit ignored",
			"session_id", s.ID,
			"status", s.state.status(),
			"has_source", s.source != nil,
			"empty_instruction", instruction == "")
		return nil, 0, false
	}

	s.inflight.Add(1)
	s.transition(pendingState{instruction: instruction})
	return s.source, s.generation, true
}

func (s *Session) run(ctx context.Context, src *SourceImage, gen uint64, instruction string) {
	defer s.inflight.Done()

	res, err := s.editor.SubmitEdit(ctx, src.Payload, src.MIMEType, instruction)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		slog.Info("Discarding outcome of superseded edit", "session_id", s.ID)
		return
	}

	if err != nil {
		s.transition(failedState{instruction: instruction, message: err.Error(), err: err})
		return
	}

	s.transition(succeededState{
		instruction: instruction,
		result: &EditResult{
			Payload:     res.Payload,
			MIMEType:    res.MIMEType,
			URL:         res.URL(),
			Text:        res.Text,
			CompletedAt: time.Now(),
		},
	})
}

// transition must be called with mu held.
func (s *Session) transition(next state) {
	from := s.state.status()
	s.state = next
	s.updatedAt = time.Now()
	slog.Info("Session transition", "session_id", s.ID, "from", from, "to", next.status())
}
