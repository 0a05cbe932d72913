package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fitminute/photoedit/internal/editor"
	"github.com/fitminute/photoedit/internal/providers/providertest"
	"github.com/fitminute/photoedit/internal/session"
	"github.com/parquet-go/parquet-go"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write png: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.yaml")
	content := `jobs:
  - id: first
    image: photos/a.png
    instruction: make it blue
  - image: /abs/b.jpg
    instruction: crop it
    output: b-edited.jpg
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	jobs, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != "first" || jobs[0].Image != filepath.Join(dir, "photos", "a.png") {
		t.Errorf("Unexpected first job: %+v", jobs[0])
	}
	if jobs[1].ID != "job-002" {
		t.Errorf("Expected generated ID job-002, got %s", jobs[1].ID)
	}
	if jobs[1].Image != "/abs/b.jpg" || jobs[1].Output != "b-edited.jpg" {
		t.Errorf("Unexpected second job: %+v", jobs[1])
	}
}

func TestLoadJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.jsonl")
	content := `{"id":"a","image":"a.png","instruction":"make it blue"}

{"id":"b","image":"b.png","instruction":"make it green"}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	jobs, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[1].Instruction != "make it green" {
		t.Errorf("Unexpected instruction: %s", jobs[1].Instruction)
	}
}

func TestLoadParquet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.parquet")
	rows := []Job{
		{ID: "p1", Image: "one.png", Instruction: "make it blue"},
		{ID: "p2", Image: "two.png", Instruction: "make it red", Output: "two-red.png"},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("failed to write parquet: %v", err)
	}

	jobs, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[1].Output != "two-red.png" || jobs[1].Image != filepath.Join(dir, "two.png") {
		t.Errorf("Unexpected job: %+v", jobs[1])
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{name: "unsupported format", filename: "jobs.csv", content: "id,image\n"},
		{name: "no jobs", filename: "empty.yaml", content: "jobs: []\n"},
		{name: "missing image", filename: "noimage.yaml", content: "jobs:\n  - id: a\n    instruction: x\n"},
		{name: "duplicate id", filename: "dup.jsonl", content: `{"id":"a","image":"a.png"}` + "\n" + `{"id":"a","image":"b.png"}` + "\n"},
		{name: "bad json", filename: "bad.jsonl", content: "{not json}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.filename)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write manifest: %v", err)
			}
			if _, err := NewLoader(path).Load(); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestRunnerRun(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	fake := &providertest.Fake{Response: providertest.ImageResponse("image/png", []byte("edited"))}
	outDir := filepath.Join(dir, "out")
	runner := NewRunner(editor.NewClient(fake, editor.Options{}), Options{OutputDir: outDir, Concurrency: 2})

	jobs := []Job{
		{ID: "ok", Image: filepath.Join(dir, "a.png"), Instruction: "make it blue"},
		{ID: "named", Image: filepath.Join(dir, "a.png"), Instruction: "make it blue", Output: "custom.png"},
		{ID: "missing", Image: filepath.Join(dir, "missing.png"), Instruction: "make it blue"},
		{ID: "text", Image: filepath.Join(dir, "notes.txt"), Instruction: "make it blue"},
		{ID: "blank", Image: filepath.Join(dir, "a.png"), Instruction: "  "},
	}

	results, err := runner.Run(context.Background(), jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(jobs) {
		t.Fatalf("Expected %d results, got %d", len(jobs), len(results))
	}

	expected := []session.Status{session.Succeeded, session.Succeeded, session.Failed, session.Failed, session.Failed}
	for i, r := range results {
		if r.ID != jobs[i].ID {
			t.Errorf("Expected result %d to be %s, got %s", i, jobs[i].ID, r.ID)
		}
		if r.Status != expected[i] {
			t.Errorf("Job %s: expected %s, got %s (%s)", r.ID, expected[i], r.Status, r.Message)
		}
	}

	if results[0].Output != filepath.Join(outDir, "ok.png") {
		t.Errorf("Unexpected output: %s", results[0].Output)
	}
	if results[1].Output != filepath.Join(outDir, "custom.png") {
		t.Errorf("Unexpected output: %s", results[1].Output)
	}
	data, err := os.ReadFile(results[0].Output)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if string(data) != "edited" {
		t.Errorf("Expected edited bytes, got %q", data)
	}

	if results[4].Message != "instruction is required" {
		t.Errorf("Unexpected message for blank instruction: %s", results[4].Message)
	}
	if fake.Calls() != 2 {
		t.Errorf("Expected 2 provider calls, got %d", fake.Calls())
	}
}

func TestRunnerProviderFailure(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"))

	fake := &providertest.Fake{Err: errors.New("connection reset")}
	runner := NewRunner(editor.NewClient(fake, editor.Options{}), Options{OutputDir: filepath.Join(dir, "out")})

	results, err := runner.Run(context.Background(), []Job{{ID: "a", Image: filepath.Join(dir, "a.png"), Instruction: "make it blue"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Status != session.Failed {
		t.Errorf("Expected failed, got %s", results[0].Status)
	}
	if results[0].Message != "Failed to edit image: connection reset" {
		t.Errorf("Unexpected message: %s", results[0].Message)
	}
}

func TestReportRoundTrip(t *testing.T) {
	results := []Result{
		{ID: "a", Status: session.Succeeded, Output: "out/a.png", Duration: 2e9},
		{ID: "b", Status: session.Failed, Message: "no image returned", Duration: 1e9},
	}
	report := NewReport(ReportConfig{Provider: "gemini", Model: "m", Concurrency: 2}, results)

	if report.Summary.Succeeded != 1 || report.Summary.Failed != 1 || report.Summary.Total != 2 {
		t.Errorf("Unexpected summary: %+v", report.Summary)
	}
	if report.Summary.AverageDuration != 15e8 || report.Summary.MaxDuration != 2e9 {
		t.Errorf("Unexpected durations: %+v", report.Summary)
	}

	path := filepath.Join(t.TempDir(), "report.yaml")
	if err := report.Save(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if !strings.Contains(string(data), "status: succeeded") {
		t.Errorf("Expected readable status in report, got:\n%s", data)
	}

	loaded, err := LoadReport(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded.Results) != 2 || loaded.Results[1].Status != session.Failed {
		t.Errorf("Unexpected loaded results: %+v", loaded.Results)
	}
	if loaded.Results[0].Duration != 2e9 {
		t.Errorf("Expected 2s duration, got %s", loaded.Results[0].Duration)
	}
}

func TestPrintSummary(t *testing.T) {
	report := NewReport(ReportConfig{}, []Result{
		{ID: "a", Status: session.Succeeded},
		{ID: "b", Status: session.Failed, Message: "no image returned"},
	})

	var buf bytes.Buffer
	PrintSummary(&buf, report)

	out := buf.String()
	if !strings.Contains(out, "Succeeded:          1") {
		t.Errorf("Expected success count in output:\n%s", out)
	}
	if !strings.Contains(out, "b: no image returned") {
		t.Errorf("Expected failure line in output:\n%s", out)
	}
}
