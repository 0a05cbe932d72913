package batch

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Job is one image to edit.
type Job struct {
	ID          string `yaml:"id" json:"id" parquet:"id"`
	Image       string `yaml:"image" json:"image" parquet:"image"`
	Instruction string `yaml:"instruction" json:"instruction" parquet:"instruction"`
	// Output is the file name written into the output directory. Defaults to
	// the job ID plus the edited image's extension.
	Output string `yaml:"output,omitempty" json:"output,omitempty" parquet:"output"`
}

type manifestFile struct {
	Jobs []Job `yaml:"jobs"`
}

// Loader reads batch manifests
type Loader struct {
	manifestPath string
}

func NewLoader(manifestPath string) *Loader {
	return &Loader{
		manifestPath: manifestPath,
	}
}

// Load reads every job from a YAML, JSONL or Parquet manifest. Relative image
// paths are resolved against the manifest's directory.
func (l *Loader) Load() ([]Job, error) {
	var (
		jobs []Job
		err  error
	)

	ext := strings.ToLower(filepath.Ext(l.manifestPath))
	switch ext {
	case ".yaml", ".yml":
		jobs, err = l.loadYAML()
	case ".jsonl", ".json":
		jobs, err = l.loadJSONL()
	case ".parquet":
		jobs, err = l.loadParquet()
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s (supported: .yaml, .jsonl, .parquet)", ext)
	}
	if err != nil {
		return nil, err
	}

	return l.normalize(jobs)
}

func (l *Loader) loadYAML() ([]Job, error) {
	data, err := os.ReadFile(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest manifestFile
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest YAML: %w", err)
	}
	return manifest.Jobs, nil
}

func (l *Loader) loadJSONL() ([]Job, error) {
	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var jobs []Job
	scanner := bufio.NewScanner(file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(line), &job); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		jobs = append(jobs, job)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	slog.Debug("Finished reading JSONL manifest", "jobs", len(jobs), "lines", lineNum)
	return jobs, nil
}

func (l *Loader) loadParquet() ([]Job, error) {
	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet manifest opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Job](pf)
	defer reader.Close()

	var jobs []Job
	rows := make([]Job, 128)
	for {
		n, err := reader.Read(rows)
		jobs = append(jobs, rows[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	return jobs, nil
}

func (l *Loader) normalize(jobs []Job) ([]Job, error) {
	if len(jobs) == 0 {
		return nil, fmt.Errorf("manifest %s has no jobs", l.manifestPath)
	}

	baseDir := filepath.Dir(l.manifestPath)
	seen := make(map[string]bool, len(jobs))

	for i := range jobs {
		job := &jobs[i]
		if job.ID == "" {
			job.ID = fmt.Sprintf("job-%03d", i+1)
		}
		if seen[job.ID] {
			return nil, fmt.Errorf("duplicate job id %q", job.ID)
		}
		seen[job.ID] = true

		if job.Image == "" {
			return nil, fmt.Errorf("job %s: image is required", job.ID)
		}
		if !filepath.IsAbs(job.Image) {
			job.Image = filepath.Join(baseDir, job.Image)
		}
	}

	return jobs, nil
}
