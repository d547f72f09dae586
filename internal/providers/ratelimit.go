package providers

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedClient paces calls to the wrapped client. It delays requests;
// it never repeats them.
type RateLimitedClient struct {
	VisionClient
	limiter *rate.Limiter
}

// WithRateLimit wraps c so that at most rps requests per second are sent.
// rps <= 0 returns c unchanged.
func WithRateLimit(c VisionClient, rps float64) VisionClient {
	if rps <= 0 {
		return c
	}
	return &RateLimitedClient{
		VisionClient: c,
		limiter:      rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Complete waits for a token, then forwards the request.
func (c *RateLimitedClient) Complete(ctx context.Context, req *VisionRequest) (*VisionResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.VisionClient.Complete(ctx, req)
}

// Limit returns the configured requests per second.
func (c *RateLimitedClient) Limit() float64 {
	return float64(c.limiter.Limit())
}
