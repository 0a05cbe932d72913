package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderGemini       = "gemini"
	ProviderGenerativeAI = "generativeai"
	ProviderOpenAI       = "openai"
)

type Config struct {
	Provider       string        `mapstructure:"provider"`
	Model          string        `mapstructure:"model"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Gemini         Gemini        `mapstructure:"gemini"`
	OpenAI         OpenAI        `mapstructure:"openai"`
	Server         Server        `mapstructure:"server"`
	Download       Download      `mapstructure:"download"`
	Bucket         Bucket        `mapstructure:"bucket"`
}

type Gemini struct {
	APIKey   string `mapstructure:"api_key"`
	Backend  string `mapstructure:"backend"` // gemini or vertex
	Project  string `mapstructure:"project"`
	Location string `mapstructure:"location"`
	BaseURL  string `mapstructure:"base_url"`
}

type OpenAI struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type Server struct {
	Port           string `mapstructure:"port"`
	StaticDir      string `mapstructure:"static_dir"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	SaveSink       string `mapstructure:"save_sink"` // dialog, file, bucket or none
}

type Download struct {
	Dir string `mapstructure:"dir"`
}

type Bucket struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Name      string `mapstructure:"name"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
	Secure    bool   `mapstructure:"secure"`
}

var defaults = map[string]any{
	"provider":                ProviderGemini,
	"model":                   "",
	"request_timeout":         "120s",
	"gemini.api_key":          "",
	"gemini.backend":          "gemini",
	"gemini.project":          "",
	"gemini.location":         "us-central1",
	"gemini.base_url":         "",
	"openai.api_key":          "",
	"openai.base_url":         "https://api.openai.com/v1",
	"server.port":             "8888",
	"server.static_dir":       "static",
	"server.max_upload_bytes": 10 * 1024 * 1024,
	"server.save_sink":        "file",
	"download.dir":            "downloads",
	"bucket.endpoint":         "",
	"bucket.access_key":       "",
	"bucket.secret_key":       "",
	"bucket.name":             "",
	"bucket.region":           "",
	"bucket.prefix":           "",
	"bucket.secure":           true,
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. With an empty path it
// looks for photoedit.yaml in the working directory and carries on without
// one. The result is not validated; callers apply flag overrides first and
// then call Validate.
func Load(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("PHOTOEDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// well-known credential variables, after the prefixed one
	if err := v.BindEnv("gemini.api_key", "PHOTOEDIT_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY", "GOOGLE_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("gemini.project", "PHOTOEDIT_GEMINI_PROJECT", "GOOGLE_CLOUD_PROJECT"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("openai.api_key", "PHOTOEDIT_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("photoedit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderGenerativeAI, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown provider %q (expected %s, %s or %s)", c.Provider, ProviderGemini, ProviderGenerativeAI, ProviderOpenAI)
	}

	switch c.Gemini.Backend {
	case "gemini", "vertex":
	default:
		return fmt.Errorf("unknown gemini backend %q", c.Gemini.Backend)
	}

	switch c.Server.SaveSink {
	case "", "none", "dialog", "file", "bucket":
	default:
		return fmt.Errorf("unknown save sink %q", c.Server.SaveSink)
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	return nil
}
