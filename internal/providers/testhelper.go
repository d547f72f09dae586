package providers

import (
	"os"
)

// TestConfig holds provider credentials loaded from environment variables,
// so live tests use the same configuration pattern as production.
type TestConfig struct {
	OpenAIAPIKey string
	OpenAIModel  string
}

// LoadTestConfig loads provider settings from the environment.
func LoadTestConfig() TestConfig {
	return TestConfig{
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  os.Getenv("PDFEXTRACT_TEST_MODEL"),
	}
}

// HasOpenAI returns true if an OpenAI API key is configured.
func (c TestConfig) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

// NewOpenAIClient creates an OpenAI client from test config.
// Returns nil if not configured.
func (c TestConfig) NewOpenAIClient() *OpenAIClient {
	if !c.HasOpenAI() {
		return nil
	}
	client, err := NewOpenAIClient(OpenAIConfig{
		APIKey: c.OpenAIAPIKey,
		Model:  c.OpenAIModel,
	})
	if err != nil {
		return nil
	}
	return client
}
