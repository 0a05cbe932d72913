package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fitminute/photoedit/internal/batch"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	var (
		manifest    string
		summary     string
		outputDir   string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Edit every image listed in a manifest",
		Long: `Runs one edit per manifest entry with bounded concurrency.

The manifest may be YAML (a top-level "jobs" list), JSONL (one job per
line), or Parquet. Each job has an image, an instruction, and optionally an
id and output file name. Edited images and report.yaml are written to the
output directory. With --summary, the summary of an earlier run's report is
printed instead.`,
		Example: `  # Run a YAML manifest with 4 concurrent edits
  photoedit batch --manifest jobs.yaml --output-dir edits --concurrency 4

  # Print the summary of a previous run
  photoedit batch --summary edits/report.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if summary != "" {
				report, err := batch.LoadReport(summary)
				if err != nil {
					return err
				}
				batch.PrintSummary(cmd.OutOrStdout(), report)
				return nil
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			slog.Info("Loading manifest", "path", manifest)
			jobs, err := batch.NewLoader(manifest).Load()
			if err != nil {
				return fmt.Errorf("failed to load manifest: %w", err)
			}
			slog.Info("Manifest loaded", "jobs", len(jobs))

			ed, err := newEditor(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			runner := batch.NewRunner(ed, batch.Options{OutputDir: outputDir, Concurrency: concurrency})
			results, err := runner.Run(cmd.Context(), jobs)
			if err != nil {
				return err
			}

			report := batch.NewReport(batch.ReportConfig{
				Provider:    cfg.Provider,
				Model:       ed.Model(),
				Manifest:    manifest,
				OutputDir:   outputDir,
				Concurrency: concurrency,
			}, results)

			reportPath := filepath.Join(outputDir, "report.yaml")
			if err := report.Save(reportPath); err != nil {
				return err
			}

			batch.PrintSummary(cmd.OutOrStdout(), report)
			fmt.Fprintf(cmd.OutOrStdout(), "\nReport saved to: %s\n", reportPath)

			if report.Summary.Failed > 0 {
				return fmt.Errorf("%d of %d jobs failed", report.Summary.Failed, report.Summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "Manifest file (.yaml, .jsonl or .parquet)")
	cmd.Flags().StringVar(&summary, "summary", "", "Print the summary of an existing report.yaml and exit")
	cmd.Flags().StringVar(&outputDir, "output-dir", "batch-output", "Directory for edited images and report.yaml")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Number of concurrent edits")
	addProviderFlags(cmd)

	cmd.MarkFlagsOneRequired("manifest", "summary")
	cmd.MarkFlagsMutuallyExclusive("manifest", "summary")

	return cmd
}
