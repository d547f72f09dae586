package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	OllamaName         = "ollama"
	OllamaDefaultModel = "llava"
	OllamaDefaultURL   = "http://127.0.0.1:11434"
)

// OllamaConfig holds configuration for a local Ollama vision model.
type OllamaConfig struct {
	Model     string
	ServerURL string
	MaxTokens int
	Timeout   time.Duration
}

// OllamaClient implements VisionClient against a local Ollama server via
// langchaingo. No credential is needed.
type OllamaClient struct {
	model     string
	maxTokens int
	llm       llms.Model
}

// NewOllamaClient creates a new Ollama vision client.
func NewOllamaClient(cfg OllamaConfig) (*OllamaClient, error) {
	if cfg.Model == "" {
		cfg.Model = OllamaDefaultModel
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = OllamaDefaultURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}

	llm, err := ollama.New(
		ollama.WithModel(cfg.Model),
		ollama.WithServerURL(cfg.ServerURL),
		ollama.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return &OllamaClient{
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		llm:       llm,
	}, nil
}

func (c *OllamaClient) Name() string  { return OllamaName }
func (c *OllamaClient) Model() string { return c.model }

// Complete sends the instruction as a system message and the image as a
// binary part of the human message.
func (c *OllamaClient) Complete(ctx context.Context, req *VisionRequest) (*VisionResult, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	start := time.Now()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	completion, err := c.llm.GenerateContent(ctx, []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.Instruction)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.BinaryPart(mimeType, req.Image)},
		},
	}, llms.WithMaxTokens(maxTokens))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RemoteError{Provider: OllamaName, Message: err.Error(), Err: err}
	}
	if len(completion.Choices) == 0 {
		return nil, &RemoteError{Provider: OllamaName, Message: ErrEmptyResponse.Error(), Err: ErrEmptyResponse}
	}

	choice := completion.Choices[0]
	return &VisionResult{
		Text:             choice.Content,
		Model:            c.model,
		PromptTokens:     intInfo(choice.GenerationInfo, "PromptTokens"),
		CompletionTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
		TotalTokens:      intInfo(choice.GenerationInfo, "TotalTokens"),
		ExecutionTime:    time.Since(start),
		RequestID:        req.RequestID,
	}, nil
}

func intInfo(info map[string]any, key string) int {
	if info == nil {
		return 0
	}
	if v, ok := info[key].(int); ok {
		return v
	}
	return 0
}

var _ VisionClient = (*OllamaClient)(nil)
