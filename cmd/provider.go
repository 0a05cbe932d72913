package cmd

import (
	"context"
	"fmt"

	"github.com/fitminute/photoedit/internal/config"
	"github.com/fitminute/photoedit/internal/download"
	"github.com/fitminute/photoedit/internal/editor"
	"github.com/fitminute/photoedit/internal/gemini"
	"github.com/fitminute/photoedit/internal/generativeai"
	"github.com/fitminute/photoedit/internal/openai"
	"github.com/fitminute/photoedit/internal/providers"
)

func newProvider(ctx context.Context, cfg *config.Config) (providers.Provider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		p, err := gemini.New(ctx, gemini.Config{
			APIKey:   cfg.Gemini.APIKey,
			Backend:  cfg.Gemini.Backend,
			Project:  cfg.Gemini.Project,
			Location: cfg.Gemini.Location,
			BaseURL:  cfg.Gemini.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderGenerativeAI:
		p, err := generativeai.New(cfg.Gemini.APIKey)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderOpenAI:
		p, err := openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, nil)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

func resolveModel(cfg *config.Config) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	if cfg.Provider == config.ProviderOpenAI {
		return openai.DefaultModel
	}
	return gemini.DefaultModel
}

func newEditor(ctx context.Context, cfg *config.Config) (*editor.Client, error) {
	p, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return editor.NewClient(p, editor.Options{
		Provider: cfg.Provider,
		Model:    resolveModel(cfg),
		Timeout:  cfg.RequestTimeout,
	}), nil
}

// newSink builds the save destination named by kind. "" and "none" return nil.
func newSink(kind string, cfg *config.Config) (download.Sink, error) {
	switch kind {
	case "", "none":
		return nil, nil
	case "file":
		return &download.FileSink{Dir: cfg.Download.Dir}, nil
	case "dialog":
		return &download.DialogSink{}, nil
	case "bucket":
		sink, err := download.NewBucketSink(download.BucketConfig{
			Endpoint:  cfg.Bucket.Endpoint,
			AccessKey: cfg.Bucket.AccessKey,
			SecretKey: cfg.Bucket.SecretKey,
			Bucket:    cfg.Bucket.Name,
			Region:    cfg.Bucket.Region,
			Prefix:    cfg.Bucket.Prefix,
			Secure:    cfg.Bucket.Secure,
		})
		if err != nil {
			return nil, err
		}
		return sink, nil
	default:
		return nil, fmt.Errorf("unsupported save sink: %s", kind)
	}
}
