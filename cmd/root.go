package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fitminute/photoedit/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "photoedit",
		Short: "Edit photos with natural-language instructions",
		Long: `Photoedit sends a photo and a plain-language instruction to a generative
image model and returns the edited image.

It ships a web interface for interactive editing, a one-shot edit command,
and a batch runner for manifests of images.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return setupLogging(logLevel)
		},
	}

	cmd.PersistentFlags().String("config", "", "Path to a YAML config file (default ./photoedit.yaml if present)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newEditCmd())
	cmd.AddCommand(newBatchCmd())

	return cmd
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// loadConfig reads configuration and applies the --provider and --model
// flags when the command has them and they were set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := ""
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("provider") {
		cfg.Provider, _ = cmd.Flags().GetString("provider")
	}
	if cmd.Flags().Changed("model") {
		cfg.Model, _ = cmd.Flags().GetString("model")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "Model provider (gemini, generativeai, openai)")
	cmd.Flags().String("model", "", "Model to use (defaults per provider)")
}
