package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestEncodeDataURI(t *testing.T) {
	tests := []struct {
		mime string
		data []byte
		want string
	}{
		{"image/png", []byte("abc"), "data:image/png;base64,YWJj"},
		{"", []byte("abc"), "data:image/png;base64,YWJj"},
		{"image/jpeg", nil, "data:image/jpeg;base64,"},
	}
	for _, tt := range tests {
		if got := EncodeDataURI(tt.mime, tt.data); got != tt.want {
			t.Errorf("EncodeDataURI(%q, %q) = %q, want %q", tt.mime, tt.data, got, tt.want)
		}
	}
}

func TestMockClient(t *testing.T) {
	t.Run("per page text", func(t *testing.T) {
		c := NewMockClient()
		c.PageText = map[int]string{2: "second"}

		for page, want := range map[int]string{1: "mock response", 2: "second"} {
			result, err := c.Complete(context.Background(), &VisionRequest{Instruction: "x", Page: page})
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if result.Text != want {
				t.Errorf("page %d: Text = %q, want %q", page, result.Text, want)
			}
		}
		if c.RequestCount() != 2 {
			t.Errorf("RequestCount = %d, want 2", c.RequestCount())
		}
	})

	t.Run("fail on page", func(t *testing.T) {
		c := NewMockClient()
		c.FailOnPage = 3

		_, err := c.Complete(context.Background(), &VisionRequest{Page: 3})
		if !errors.Is(err, ErrRemote) {
			t.Errorf("expected ErrRemote, got %v", err)
		}
		if _, err := c.Complete(context.Background(), &VisionRequest{Page: 4}); err != nil {
			t.Errorf("page 4 should succeed, got %v", err)
		}
	})

	t.Run("custom failure", func(t *testing.T) {
		c := NewMockClient()
		c.FailOnPage = 1
		c.FailErr = fmt.Errorf("custom")

		_, err := c.Complete(context.Background(), &VisionRequest{Page: 1})
		if err == nil || err.Error() != "custom" {
			t.Errorf("expected custom error, got %v", err)
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		c := NewMockClient()
		c.Latency = time.Second

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := c.Complete(ctx, &VisionRequest{Page: 1}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("request log", func(t *testing.T) {
		c := NewMockClient()
		img := []byte("img")
		_, _ = c.Complete(context.Background(), &VisionRequest{Instruction: "do it", Image: img, Page: 7})
		img[0] = 'X'

		reqs := c.Requests()
		if len(reqs) != 1 {
			t.Fatalf("expected 1 request, got %d", len(reqs))
		}
		if reqs[0].Instruction != "do it" || string(reqs[0].Image) != "img" {
			t.Errorf("unexpected request: %+v", reqs[0])
		}
		if pages := c.Pages(); len(pages) != 1 || pages[0] != 7 {
			t.Errorf("Pages() = %v", pages)
		}

		c.Reset()
		if c.RequestCount() != 0 || len(c.Requests()) != 0 {
			t.Error("Reset did not clear state")
		}
	})
}

func TestRemoteError(t *testing.T) {
	inner := errors.New("connection reset")
	err := fmt.Errorf("page 2: %w", &RemoteError{Provider: "openai", Message: "boom", Err: inner})

	if !errors.Is(err, ErrRemote) {
		t.Error("expected errors.Is(err, ErrRemote)")
	}
	if !errors.Is(err, inner) {
		t.Error("expected wrapped cause to be reachable")
	}
	re, ok := AsRemoteError(err)
	if !ok {
		t.Fatal("AsRemoteError failed")
	}
	if re.IsRateLimited() {
		t.Error("unexpected rate limited")
	}
	if !strings.Contains(re.Error(), "openai") || !strings.Contains(re.Error(), "boom") {
		t.Errorf("Error() = %q", re.Error())
	}

	withStatus := &RemoteError{Provider: "openai", StatusCode: 429}
	if !withStatus.IsRateLimited() {
		t.Error("429 should be rate limited")
	}
	if !strings.Contains(withStatus.Error(), "status 429") {
		t.Errorf("Error() = %q", withStatus.Error())
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("5"); got != 5*time.Second {
		t.Errorf("parseRetryAfter(5) = %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("parseRetryAfter('') = %v", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Errorf("parseRetryAfter(soon) = %v", got)
	}
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(future); got <= 0 || got > time.Minute {
		t.Errorf("parseRetryAfter(date) = %v", got)
	}
}

func TestWithRateLimit(t *testing.T) {
	mock := NewMockClient()

	if got := WithRateLimit(mock, 0); got != VisionClient(mock) {
		t.Error("zero rate limit should return the client unchanged")
	}

	limited := WithRateLimit(mock, 20)
	rl, ok := limited.(*RateLimitedClient)
	if !ok {
		t.Fatalf("expected *RateLimitedClient, got %T", limited)
	}
	if rl.Limit() != 20 {
		t.Errorf("Limit() = %v", rl.Limit())
	}
	if limited.Name() != MockClientName {
		t.Errorf("Name() = %q", limited.Name())
	}

	start := time.Now()
	for i := 1; i <= 3; i++ {
		if _, err := limited.Complete(context.Background(), &VisionRequest{Page: i}); err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
	}
	// burst of 1 at 20 rps: the 2nd and 3rd calls wait ~50ms each
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected pacing, elapsed %v", elapsed)
	}
	if mock.RequestCount() != 3 {
		t.Errorf("RequestCount = %d, want 3", mock.RequestCount())
	}
}

func TestWithRateLimit_ContextCancelled(t *testing.T) {
	limited := WithRateLimit(NewMockClient(), 0.001)
	// consume the single burst token
	_, _ = limited.Complete(context.Background(), &VisionRequest{Page: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := limited.Complete(ctx, &VisionRequest{Page: 2}); err == nil {
		t.Error("expected error while waiting for a token")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  error
	}{
		{"default is openai", Config{APIKey: "k"}, OpenAIName, nil},
		{"openai without key", Config{Type: "openai"}, "", ErrMissingAPIKey},
		{"ollama needs no key", Config{Type: "Ollama"}, OllamaName, nil},
		{"mock", Config{Type: "mock", Model: "m"}, MockClientName, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if c.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", c.Name(), tt.wantName)
			}
		})
	}

	if _, err := New(Config{Type: "carrier-pigeon"}, nil); err == nil {
		t.Error("expected error for unknown provider type")
	}
}

func TestNew_RateLimited(t *testing.T) {
	c, err := New(Config{Type: "mock", RateLimit: 2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*RateLimitedClient); !ok {
		t.Errorf("expected *RateLimitedClient, got %T", c)
	}
}

func TestRequiresAPIKey(t *testing.T) {
	if !RequiresAPIKey("") || !RequiresAPIKey("OpenAI") {
		t.Error("openai requires a key")
	}
	if RequiresAPIKey("ollama") || RequiresAPIKey("mock") {
		t.Error("ollama and mock do not require a key")
	}
}

func TestTypes(t *testing.T) {
	got := strings.Join(Types(), ",")
	if got != "mock,ollama,openai" {
		t.Errorf("Types() = %s", got)
	}
}
