package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fitminute/photoedit/internal/download"
	"github.com/fitminute/photoedit/internal/imagecodec"
	"github.com/fitminute/photoedit/internal/session"
)

// Result is the outcome of one job.
type Result struct {
	ID          string         `yaml:"id"`
	Image       string         `yaml:"image"`
	Instruction string         `yaml:"instruction"`
	Status      session.Status `yaml:"status"`
	Message     string         `yaml:"message,omitempty"`
	Output      string         `yaml:"output,omitempty"`
	Duration    time.Duration  `yaml:"duration"`
}

type Options struct {
	OutputDir   string
	Concurrency int
}

// Runner edits many images, one session per job.
type Runner struct {
	editor session.Editor
	opts   Options
}

func NewRunner(ed session.Editor, opts Options) *Runner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Runner{editor: ed, opts: opts}
}

// Run processes jobs with bounded concurrency. Results are in job order.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	sink := &download.FileSink{Dir: r.opts.OutputDir}
	results := make([]Result, len(jobs))

	slog.Info("Processing jobs", "jobs", len(jobs), "concurrency", r.opts.Concurrency)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, r.opts.Concurrency)

	for i, job := range jobs {
		wg.Add(1)
		go func(idx int, job Job) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			slog.Info("Processing job", "id", job.ID, "progress", fmt.Sprintf("%d/%d", idx+1, len(jobs)))
			results[idx] = r.processJob(ctx, sink, job)
		}(i, job)
	}

	wg.Wait()
	return results, nil
}

func (r *Runner) processJob(ctx context.Context, sink download.Sink, job Job) (result Result) {
	start := time.Now()
	result = Result{
		ID:          job.ID,
		Image:       job.Image,
		Instruction: job.Instruction,
		Status:      session.Failed,
	}
	defer func() {
		result.Duration = time.Since(start)
	}()

	data, err := os.ReadFile(job.Image)
	if err != nil {
		result.Message = fmt.Sprintf("failed to read image: %v", err)
		return result
	}

	src, err := session.NewSourceImage(filepath.Base(job.Image), data, "")
	if err != nil {
		result.Message = err.Error()
		return result
	}

	sess := session.New(job.ID, r.editor)
	sess.Select(src)
	if !sess.Edit(ctx, job.Instruction) {
		result.Message = "instruction is required"
		return result
	}

	snap := sess.Snapshot()
	result.Status = snap.Status
	if snap.Status != session.Succeeded {
		result.Message = snap.Error
		return result
	}

	name := job.Output
	if name == "" {
		name = job.ID + imagecodec.Extension(snap.Result.MIMEType)
	}

	location, err := download.TriggerDownload(ctx, sink, snap.Result.Payload, snap.Result.MIMEType, name)
	if err != nil {
		result.Status = session.Failed
		result.Message = fmt.Sprintf("failed to write output: %v", err)
		return result
	}

	result.Output = location
	result.Message = snap.Result.Text
	return result
}
