// Package providers holds the remote multimodal completion clients that turn
// one page image plus an instruction into text.
package providers

import (
	"context"
	"encoding/base64"
	"time"
)

// VisionClient sends a single image with an instruction to a model and
// returns the model's text.
type VisionClient interface {
	// Name returns the provider identifier (e.g., "openai").
	Name() string

	// Model returns the model the client sends requests to.
	Model() string

	// Complete performs exactly one remote call. Implementations never retry.
	Complete(ctx context.Context, req *VisionRequest) (*VisionResult, error)
}

// VisionRequest is one page-level completion request.
type VisionRequest struct {
	// Instruction is sent as the system message.
	Instruction string `json:"instruction"`

	// Image is the raw page raster; MIMEType describes it (e.g., "image/png").
	Image    []byte `json:"-"`
	MIMEType string `json:"mime_type"`

	// MaxTokens caps the response length; zero uses the client default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Request tracking
	Page      int    `json:"page"`
	RequestID string `json:"request_id,omitempty"`
}

// VisionResult is the response for one page.
type VisionResult struct {
	Text  string `json:"text"`
	Model string `json:"model"`

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	ExecutionTime time.Duration `json:"execution_time"`
	RequestID     string        `json:"request_id,omitempty"`
}

// EncodeDataURI returns data as a base64 data URI, e.g.
// "data:image/png;base64,iVBORw0...".
func EncodeDataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
