package batch

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fitminute/photoedit/internal/session"
	"gopkg.in/yaml.v3"
)

// ReportConfig records how a batch was run
type ReportConfig struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	Manifest    string `yaml:"manifest"`
	OutputDir   string `yaml:"outputdir"`
	Concurrency int    `yaml:"concurrency"`
	Timestamp   string `yaml:"timestamp"`
}

type Summary struct {
	Total           int           `yaml:"total"`
	Succeeded       int           `yaml:"succeeded"`
	Failed          int           `yaml:"failed"`
	AverageDuration time.Duration `yaml:"averageduration"`
	MaxDuration     time.Duration `yaml:"maxduration"`
}

// Report is the complete batch report written as YAML
type Report struct {
	Config  ReportConfig `yaml:"config"`
	Results []Result     `yaml:"results"`
	Summary Summary      `yaml:"summary"`
}

func NewReport(cfg ReportConfig, results []Result) *Report {
	if cfg.Timestamp == "" {
		cfg.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	}
	return &Report{
		Config:  cfg,
		Results: results,
		Summary: Summarize(results),
	}
}

func Summarize(results []Result) Summary {
	summary := Summary{Total: len(results)}

	var total time.Duration
	for _, r := range results {
		if r.Status == session.Succeeded {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		total += r.Duration
		if r.Duration > summary.MaxDuration {
			summary.MaxDuration = r.Duration
		}
	}

	if len(results) > 0 {
		summary.AverageDuration = total / time.Duration(len(results))
	}
	return summary
}

// Save writes the report to path.
func (r *Report) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// LoadReport reads a report written by Save.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

func PrintSummary(w io.Writer, report *Report) {
	s := report.Summary
	fmt.Fprintln(w, "\n========================================")
	fmt.Fprintln(w, "Batch Summary")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Total Jobs:         %d\n", s.Total)
	fmt.Fprintf(w, "Succeeded:          %d\n", s.Succeeded)
	fmt.Fprintf(w, "Failed:             %d\n", s.Failed)
	fmt.Fprintf(w, "Average Duration:   %s\n", s.AverageDuration.Round(time.Millisecond))
	fmt.Fprintf(w, "Max Duration:       %s\n", s.MaxDuration.Round(time.Millisecond))

	if s.Failed > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failures:")
		for _, r := range report.Results {
			if r.Status != session.Succeeded {
				fmt.Fprintf(w, "  %s: %s\n", r.ID, r.Message)
			}
		}
	}
	fmt.Fprintln(w, "========================================")
}
