package config

import (
	"sort"
)

// Entry documents a single configuration key and its default value.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// EnvVar returns the environment variable that overrides the key.
func (e Entry) EnvVar() string {
	return envKey(e.Key)
}

// DefaultEntries returns every configuration key with its default value.
// Each key is registered with viper so environment overrides apply even
// when no config file exists.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		// ===================
		// Provider
		// ===================
		{
			Key:         "provider.type",
			Value:       d.Provider.Type,
			Description: "Vision provider: openai, ollama or mock",
		},
		{
			Key:         "provider.model",
			Value:       d.Provider.Model,
			Description: "Model used for every page",
		},
		{
			Key:         "provider.api_key",
			Value:       d.Provider.APIKey,
			Description: "API key (uses environment variable)",
		},
		{
			Key:         "provider.base_url",
			Value:       d.Provider.BaseURL,
			Description: "Optional API base URL (OpenAI-compatible gateway or Ollama host)",
		},
		{
			Key:         "provider.max_tokens",
			Value:       d.Provider.MaxTokens,
			Description: "Maximum response tokens per page",
		},
		{
			Key:         "provider.timeout_seconds",
			Value:       d.Provider.TimeoutSeconds,
			Description: "HTTP timeout in seconds for one page request",
		},
		{
			Key:         "provider.rate_limit",
			Value:       d.Provider.RateLimit,
			Description: "Requests per second (0 = unlimited)",
		},

		// ===================
		// Extraction
		// ===================
		{
			Key:         "extraction.dpi",
			Value:       d.Extraction.DPI,
			Description: "Rasterization resolution",
		},
		{
			Key:         "extraction.renderer",
			Value:       d.Extraction.Renderer,
			Description: "Page renderer: pdftoppm, fitz or docker",
		},
		{
			Key:         "extraction.concurrency",
			Value:       d.Extraction.Concurrency,
			Description: "Pages processed at once (1 = sequential)",
		},
		{
			Key:         "extraction.partial_results",
			Value:       d.Extraction.PartialResults,
			Description: "Keep going after a page fails and mark it in the output",
		},
		{
			Key:         "extraction.work_dir",
			Value:       d.Extraction.WorkDir,
			Description: "Directory for temporary rasters (empty = system temp)",
		},

		// ===================
		// Renderer
		// ===================
		{
			Key:         "renderer.pdftoppm_path",
			Value:       d.Renderer.PdftoppmPath,
			Description: "pdftoppm binary",
		},
		{
			Key:         "renderer.docker_image",
			Value:       d.Renderer.DockerImage,
			Description: "Poppler image used by the docker renderer",
		},

		// ===================
		// Server
		// ===================
		{
			Key:         "server.host",
			Value:       d.Server.Host,
			Description: "Address the HTTP server binds to",
		},
		{
			Key:         "server.port",
			Value:       d.Server.Port,
			Description: "Port the HTTP server listens on",
		},
		{
			Key:         "server.max_upload_mb",
			Value:       d.Server.MaxUploadMB,
			Description: "Largest accepted upload in megabytes",
		},
	}
}

// GetDefault returns the default entry for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// Keys returns every known key, sorted.
func Keys() []string {
	entries := DefaultEntries()
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	sort.Strings(keys)
	return keys
}
