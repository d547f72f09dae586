package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackzampolin/pdfextract/internal/providers"
	"github.com/jackzampolin/pdfextract/internal/raster"
)

// ErrInvalid is wrapped by every configuration validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds pdfextract configuration.
// Stored at: ./config.yaml or ~/.pdfextract/config.yaml
type Config struct {
	Provider   ProviderCfg   `mapstructure:"provider" yaml:"provider"`
	Extraction ExtractionCfg `mapstructure:"extraction" yaml:"extraction"`
	Renderer   RendererCfg   `mapstructure:"renderer" yaml:"renderer"`
	Server     ServerCfg     `mapstructure:"server" yaml:"server"`
}

// ProviderCfg configures the remote vision model.
type ProviderCfg struct {
	Type           string  `mapstructure:"type" yaml:"type"`                       // "openai", "ollama", "mock"
	Model          string  `mapstructure:"model" yaml:"model"`                     // e.g. "gpt-4o"
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"`                 // supports ${ENV_VAR} syntax
	BaseURL        string  `mapstructure:"base_url" yaml:"base_url"`               // optional gateway / ollama host
	MaxTokens      int     `mapstructure:"max_tokens" yaml:"max_tokens"`           // per page
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"` // HTTP timeout
	RateLimit      float64 `mapstructure:"rate_limit" yaml:"rate_limit"`           // requests per second, 0 = unlimited
}

// ExtractionCfg configures the page pipeline.
type ExtractionCfg struct {
	DPI            int    `mapstructure:"dpi" yaml:"dpi"`
	Renderer       string `mapstructure:"renderer" yaml:"renderer"` // "pdftoppm", "fitz", "docker"
	Concurrency    int    `mapstructure:"concurrency" yaml:"concurrency"`
	PartialResults bool   `mapstructure:"partial_results" yaml:"partial_results"`
	WorkDir        string `mapstructure:"work_dir" yaml:"work_dir"`
}

// RendererCfg holds renderer-specific settings.
type RendererCfg struct {
	PdftoppmPath string `mapstructure:"pdftoppm_path" yaml:"pdftoppm_path"`
	DockerImage  string `mapstructure:"docker_image" yaml:"docker_image"`
}

// ServerCfg configures `pdfextract serve`.
type ServerCfg struct {
	Host        string `mapstructure:"host" yaml:"host"`
	Port        int    `mapstructure:"port" yaml:"port"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderCfg{
			Type:           providers.OpenAIName,
			Model:          providers.OpenAIDefaultModel,
			APIKey:         "${OPENAI_API_KEY}",
			MaxTokens:      providers.DefaultMaxTokens,
			TimeoutSeconds: 300,
		},
		Extraction: ExtractionCfg{
			DPI:         raster.DefaultDPI,
			Renderer:    raster.RendererPdftoppm,
			Concurrency: 1,
		},
		Renderer: RendererCfg{
			PdftoppmPath: "pdftoppm",
			DockerImage:  raster.DefaultDockerImage,
		},
		Server: ServerCfg{
			Host:        "127.0.0.1",
			Port:        8080,
			MaxUploadMB: 64,
		},
	}
}

// Validate checks that the configuration can drive an extraction. A
// missing credential for a provider that needs one is reported as
// providers.ErrMissingAPIKey (wrapped in ErrInvalid).
func (c *Config) Validate() error {
	pc := c.ProviderConfig()
	if providers.RequiresAPIKey(pc.Type) && pc.APIKey == "" {
		return fmt.Errorf("%w: %w", ErrInvalid, providers.ErrMissingAPIKey)
	}

	supported := false
	for _, t := range providers.Types() {
		if t == pc.Type {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("%w: unknown provider.type %q", ErrInvalid, c.Provider.Type)
	}

	switch c.Extraction.Renderer {
	case "", raster.RendererPdftoppm, raster.RendererFitz, raster.RendererDocker:
	default:
		return fmt.Errorf("%w: unknown extraction.renderer %q", ErrInvalid, c.Extraction.Renderer)
	}
	if c.Extraction.DPI < 0 || c.Extraction.DPI > raster.MaxDPI {
		return fmt.Errorf("%w: extraction.dpi must be between 0 (default) and %d, got %d", ErrInvalid, raster.MaxDPI, c.Extraction.DPI)
	}
	if c.Extraction.Concurrency < 0 {
		return fmt.Errorf("%w: extraction.concurrency must not be negative", ErrInvalid)
	}
	if c.Provider.RateLimit < 0 {
		return fmt.Errorf("%w: provider.rate_limit must not be negative", ErrInvalid)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range: %d", ErrInvalid, c.Server.Port)
	}
	return nil
}

// ProviderConfig converts the provider section for providers.New,
// resolving ${ENV_VAR} references.
func (c *Config) ProviderConfig() providers.Config {
	providerType := strings.ToLower(strings.TrimSpace(c.Provider.Type))
	if providerType == "" {
		providerType = providers.OpenAIName
	}
	return providers.Config{
		Type:      providerType,
		Model:     c.Provider.Model,
		APIKey:    ResolveEnvVars(c.Provider.APIKey),
		BaseURL:   ResolveEnvVars(c.Provider.BaseURL),
		MaxTokens: c.Provider.MaxTokens,
		Timeout:   time.Duration(c.Provider.TimeoutSeconds) * time.Second,
		RateLimit: c.Provider.RateLimit,
	}
}

// RendererOptions converts the renderer section for raster.NewRenderer.
func (c *Config) RendererOptions(logger *slog.Logger) raster.RendererOptions {
	return raster.RendererOptions{
		PdftoppmPath: c.Renderer.PdftoppmPath,
		DockerImage:  c.Renderer.DockerImage,
		Logger:       logger,
	}
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	mb := c.Server.MaxUploadMB
	if mb <= 0 {
		mb = 64
	}
	return int64(mb) << 20
}
