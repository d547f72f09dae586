package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is a VisionClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ModelName    string
	ResponseText string         // used for pages without an entry in PageText
	PageText     map[int]string // per-page responses
	FailOnPage   int            // fail the request for this page (0 = never)
	FailErr      error          // error returned by FailOnPage; defaults to a 500 RemoteError

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	requests     []VisionRequest
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		ModelName:    "mock-vision",
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Model returns the mock model name.
func (c *MockClient) Model() string {
	if c.ModelName == "" {
		return "mock-vision"
	}
	return c.ModelName
}

// Complete records the request and returns the configured text.
func (c *MockClient) Complete(ctx context.Context, req *VisionRequest) (*VisionResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.requests = append(c.requests, VisionRequest{
		Instruction: req.Instruction,
		MIMEType:    req.MIMEType,
		MaxTokens:   req.MaxTokens,
		Page:        req.Page,
		RequestID:   req.RequestID,
		Image:       append([]byte(nil), req.Image...),
	})
	c.mu.Unlock()

	// Simulate latency
	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.FailOnPage > 0 && req.Page == c.FailOnPage {
		if c.FailErr != nil {
			return nil, c.FailErr
		}
		return nil, &RemoteError{
			Provider:   MockClientName,
			StatusCode: 500,
			Message:    fmt.Sprintf("mock client configured to fail on page %d", req.Page),
		}
	}

	text, ok := c.PageText[req.Page]
	if !ok {
		text = c.ResponseText
	}

	promptTokens := len(req.Instruction) / 4 // Rough estimate
	completionTokens := len(text) / 4

	return &VisionResult{
		Text:             text,
		Model:            c.Model(),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		ExecutionTime:    time.Since(start),
		RequestID:        fmt.Sprintf("mock-%d", count),
	}, nil
}

// RequestCount returns the number of requests made.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Requests returns a copy of every request received, in arrival order.
func (c *MockClient) Requests() []VisionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]VisionRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// Pages returns the page numbers requested, in arrival order.
func (c *MockClient) Pages() []int {
	reqs := c.Requests()
	pages := make([]int, len(reqs))
	for i, r := range reqs {
		pages[i] = r.Page
	}
	return pages
}

// Reset clears the request log.
func (c *MockClient) Reset() {
	c.requestCount.Store(0)
	c.mu.Lock()
	c.requests = nil
	c.mu.Unlock()
}

// Verify interface
var _ VisionClient = (*MockClient)(nil)
