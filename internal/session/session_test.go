package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/fitminute/photoedit/internal/editor"
	"github.com/fitminute/photoedit/internal/providers"
	"github.com/fitminute/photoedit/internal/providers/providertest"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func newSession(t *testing.T, fake *providertest.Fake) *Session {
	t.Helper()
	return New("s1", editor.NewClient(fake, editor.Options{Model: "test-model"}))
}

func selectPNG(t *testing.T, s *Session) *SourceImage {
	t.Helper()
	src, err := NewSourceImage("photo.png", testPNG(t, 10, 10), "image/png")
	if err != nil {
		t.Fatalf("failed to build source: %v", err)
	}
	if !s.Select(src) {
		t.Fatal("Expected Select to succeed")
	}
	return src
}

func TestEditSucceeds(t *testing.T) {
	edited := []byte("edited-image")
	fake := &providertest.Fake{Response: providertest.ImageResponse("image/png", edited)}
	s := newSession(t, fake)
	selectPNG(t, s)

	if !s.Edit(context.Background(), "make it blue") {
		t.Fatal("Expected Edit to run")
	}

	snap := s.Snapshot()
	if snap.Status != Succeeded {
		t.Fatalf("Expected succeeded, got %s", snap.Status)
	}
	if snap.Result == nil {
		t.Fatal("Expected a result")
	}
	if snap.Result.Payload != "ZWRpdGVkLWltYWdl" {
		t.Errorf("Unexpected payload: %s", snap.Result.Payload)
	}
	if !strings.HasPrefix(snap.Result.URL, "data:image/png;base64,") {
		t.Errorf("Unexpected URL: %s", snap.Result.URL)
	}
	if snap.Error != "" {
		t.Errorf("Expected no error, got %s", snap.Error)
	}
	if snap.Instruction != "make it blue" {
		t.Errorf("Unexpected instruction: %s", snap.Instruction)
	}

	req := fake.LastRequest()
	if req.Instruction != "make it blue" || req.Image.MIMEType != "image/png" {
		t.Errorf("Unexpected request: %+v", req)
	}
}

func TestEditFailures(t *testing.T) {
	tests := []struct {
		name     string
		fake     *providertest.Fake
		expected string
	}{
		{
			name:     "model refusal",
			fake:     &providertest.Fake{Response: providertest.TextResponse("sorry")},
			expected: "Model returned text instead of image: sorry",
		},
		{
			name:     "empty response",
			fake:     &providertest.Fake{Response: &providers.Response{}},
			expected: "no image returned",
		},
		{
			name:     "transport failure",
			fake:     &providertest.Fake{Err: errors.New("connection reset")},
			expected: "Failed to edit image: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, tt.fake)
			selectPNG(t, s)

			s.Edit(context.Background(), "make it blue")

			snap := s.Snapshot()
			if snap.Status != Failed {
				t.Fatalf("Expected failed, got %s", snap.Status)
			}
			if snap.Error != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, snap.Error)
			}
			if snap.Result != nil {
				t.Error("Expected no result on failure")
			}
		})
	}
}

func TestEditGuard(t *testing.T) {
	t.Run("blank instruction", func(t *testing.T) {
		fake := &providertest.Fake{Response: providertest.ImageResponse("image/png", []byte("x"))}
		s := newSession(t, fake)
		selectPNG(t, s)

		if s.Edit(context.Background(), "   ") {
			t.Error("Expected blank instruction to be ignored")
		}
		if s.Status() != Idle {
			t.Errorf("Expected idle, got %s", s.Status())
		}
		if fake.Calls() != 0 {
			t.Errorf("Expected no calls, got %d", fake.Calls())
		}
	})

	t.Run("no source", func(t *testing.T) {
		fake := &providertest.Fake{Response: providertest.ImageResponse("image/png", []byte("x"))}
		s := newSession(t, fake)

		if s.Edit(context.Background(), "make it blue") {
			t.Error("Expected edit without source to be ignored")
		}
		if fake.Calls() != 0 {
			t.Errorf("Expected no calls, got %d", fake.Calls())
		}
	})
}

func TestEditWhilePendingIsNoop(t *testing.T) {
	fake := &providertest.Fake{
		Response: providertest.ImageResponse("image/png", []byte("x")),
		Release:  make(chan struct{}),
		Started:  make(chan struct{}, 1),
	}
	s := newSession(t, fake)
	selectPNG(t, s)

	if !s.Start(context.Background(), "make it blue") {
		t.Fatal("Expected Start to run")
	}
	<-fake.Started

	if s.Status() != Pending {
		t.Fatalf("Expected pending, got %s", s.Status())
	}
	if s.Edit(context.Background(), "make it green") {
		t.Error("Expected second edit to be ignored while pending")
	}
	if s.Start(context.Background(), "make it green") {
		t.Error("Expected second start to be ignored while pending")
	}
	if s.Select(&SourceImage{MIMEType: "image/png", Payload: "eA=="}) {
		t.Error("Expected Select to be refused while pending")
	}

	close(fake.Release)
	s.Wait()

	if fake.Calls() != 1 {
		t.Errorf("Expected 1 call, got %d", fake.Calls())
	}
	snap := s.Snapshot()
	if snap.Status != Succeeded {
		t.Errorf("Expected succeeded, got %s", snap.Status)
	}
	if snap.Instruction != "make it blue" {
		t.Errorf("Expected first instruction to win, got %s", snap.Instruction)
	}
}

func TestStartIgnoresCallerCancellation(t *testing.T) {
	fake := &providertest.Fake{
		Response: providertest.ImageResponse("image/png", []byte("x")),
		Release:  make(chan struct{}),
		Started:  make(chan struct{}, 1),
	}
	s := newSession(t, fake)
	selectPNG(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx, "make it blue")
	<-fake.Started
	cancel()
	close(fake.Release)
	s.Wait()

	if s.Status() != Succeeded {
		t.Errorf("Expected succeeded, got %s", s.Status())
	}
}

func TestResetFromEveryState(t *testing.T) {
	tests := []struct {
		name string
		fake *providertest.Fake
	}{
		{name: "succeeded", fake: &providertest.Fake{Response: providertest.ImageResponse("image/png", []byte("x"))}},
		{name: "failed", fake: &providertest.Fake{Err: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, tt.fake)
			selectPNG(t, s)
			s.Edit(context.Background(), "make it blue")

			s.Reset()

			snap := s.Snapshot()
			if snap.Status != Idle {
				t.Errorf("Expected idle, got %s", snap.Status)
			}
			if snap.Source != nil || snap.Result != nil || snap.Error != "" {
				t.Errorf("Expected cleared session, got %+v", snap)
			}
		})
	}

	t.Run("idle", func(t *testing.T) {
		s := newSession(t, &providertest.Fake{})
		s.Reset()
		if s.Status() != Idle {
			t.Errorf("Expected idle, got %s", s.Status())
		}
	})
}

func TestResetWhilePendingDropsOutcome(t *testing.T) {
	fake := &providertest.Fake{
		Response: providertest.ImageResponse("image/png", []byte("late")),
		Release:  make(chan struct{}),
		Started:  make(chan struct{}, 1),
	}
	s := newSession(t, fake)
	selectPNG(t, s)

	s.Start(context.Background(), "make it blue")
	<-fake.Started

	s.Reset()
	if s.Status() != Idle {
		t.Fatalf("Expected idle after reset, got %s", s.Status())
	}

	close(fake.Release)
	s.Wait()

	snap := s.Snapshot()
	if snap.Status != Idle {
		t.Errorf("Expected late outcome to be dropped, got %s", snap.Status)
	}
	if snap.Result != nil {
		t.Error("Expected no result")
	}
}

func TestSelectClearsPreviousOutcome(t *testing.T) {
	fake := &providertest.Fake{Response: providertest.ImageResponse("image/png", []byte("x"))}
	s := newSession(t, fake)
	selectPNG(t, s)
	s.Edit(context.Background(), "make it blue")

	src := selectPNG(t, s)

	snap := s.Snapshot()
	if snap.Status != Idle {
		t.Errorf("Expected idle, got %s", snap.Status)
	}
	if snap.Result != nil {
		t.Error("Expected previous result to be cleared")
	}
	if snap.Source != src {
		t.Error("Expected new source to be selected")
	}
}

func TestEditAgainAfterOutcome(t *testing.T) {
	fake := &providertest.Fake{Err: errors.New("boom")}
	s := newSession(t, fake)
	selectPNG(t, s)

	s.Edit(context.Background(), "make it blue")
	if s.Status() != Failed {
		t.Fatalf("Expected failed, got %s", s.Status())
	}

	fake.Err = nil
	fake.Response = providertest.ImageResponse("image/png", []byte("x"))
	if !s.Edit(context.Background(), "make it blue") {
		t.Fatal("Expected retry from failed to run")
	}
	if s.Status() != Succeeded {
		t.Errorf("Expected succeeded, got %s", s.Status())
	}
	if fake.Calls() != 2 {
		t.Errorf("Expected 2 calls, got %d", fake.Calls())
	}
}

func TestDownload(t *testing.T) {
	fake := &providertest.Fake{Response: providertest.ImageResponse("image/png", []byte("edited"))}
	s := newSession(t, fake)
	selectPNG(t, s)

	if _, err := s.Download(); !errors.Is(err, ErrNoResult) {
		t.Errorf("Expected ErrNoResult before edit, got %v", err)
	}

	s.Edit(context.Background(), "make it blue")

	f, err := s.Download()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(f.Data) != "edited" {
		t.Errorf("Unexpected data: %q", f.Data)
	}
	if !strings.HasPrefix(f.Name, "fitminute-edit-") || !strings.HasSuffix(f.Name, ".png") {
		t.Errorf("Unexpected name: %s", f.Name)
	}
	if s.Status() != Succeeded {
		t.Errorf("Expected download to leave state unchanged, got %s", s.Status())
	}
}

func TestNewSourceImageRejectsNonImage(t *testing.T) {
	if _, err := NewSourceImage("notes.txt", []byte("hello"), "text/plain"); err == nil {
		t.Error("Expected error for non-image")
	}
}

func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		Idle:      "idle",
		Pending:   "pending",
		Succeeded: "succeeded",
		Failed:    "failed",
	}
	for status, expected := range tests {
		if status.String() != expected {
			t.Errorf("Expected %s, got %s", expected, status.String())
		}
	}
}
