package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// Config selects and configures a vision client.
type Config struct {
	Type      string        // "openai" (default), "ollama", "mock"
	Model     string        // provider default if empty
	APIKey    string        // required for openai
	BaseURL   string        // API base URL (openai) or server URL (ollama)
	MaxTokens int           // per-page response cap
	Timeout   time.Duration // HTTP timeout
	RateLimit float64       // requests per second, 0 = unlimited
}

// Constructor builds a client from Config.
type Constructor func(cfg Config) (VisionClient, error)

var constructors = map[string]Constructor{
	OpenAIName: func(cfg Config) (VisionClient, error) {
		return NewOpenAIClient(OpenAIConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
			BaseURL:   cfg.BaseURL,
		})
	},
	OllamaName: func(cfg Config) (VisionClient, error) {
		return NewOllamaClient(OllamaConfig{
			Model:     cfg.Model,
			ServerURL: cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
	},
	MockClientName: func(cfg Config) (VisionClient, error) {
		c := NewMockClient()
		if cfg.Model != "" {
			c.ModelName = cfg.Model
		}
		return c, nil
	},
}

// Types returns the supported provider types, sorted.
func Types() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RequiresAPIKey reports whether the provider type needs a credential.
func RequiresAPIKey(providerType string) bool {
	return normalizeType(providerType) == OpenAIName
}

// New creates the client selected by cfg.Type, wrapped with pacing when
// cfg.RateLimit is set.
func New(cfg Config, logger *slog.Logger) (VisionClient, error) {
	if logger == nil {
		logger = slog.Default()
	}

	providerType := normalizeType(cfg.Type)
	construct, ok := constructors[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s)", cfg.Type, strings.Join(Types(), ", "))
	}

	client, err := construct(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("created vision client",
		"provider", client.Name(),
		"model", client.Model(),
		"rate_limit", cfg.RateLimit)

	return WithRateLimit(client, cfg.RateLimit), nil
}

func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return OpenAIName
	}
	return t
}
