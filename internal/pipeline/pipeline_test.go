package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/pdfextract/internal/providers"
	"github.com/jackzampolin/pdfextract/internal/raster"
)

// pageRenderer writes "image-N" for page N.
type pageRenderer struct{}

func (pageRenderer) Name() string { return "test" }

func (pageRenderer) RenderPage(ctx context.Context, pdfPath string, page, dpi int, outDir string) (string, error) {
	dst := filepath.Join(outDir, fmt.Sprintf("page_%04d.png", page))
	if err := os.WriteFile(dst, []byte(fmt.Sprintf("image-%d", page)), 0o644); err != nil {
		return "", err
	}
	return dst, nil
}

type fixture struct {
	work     string
	pdf      string
	client   *providers.MockClient
	pipeline *Pipeline
}

func newFixture(t *testing.T, pages int, mutate func(*Config)) *fixture {
	t.Helper()

	work := t.TempDir()
	pdf := filepath.Join(t.TempDir(), "input.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := providers.NewMockClient()
	client.PageText = map[int]string{}
	for i := 1; i <= pages; i++ {
		client.PageText[i] = fmt.Sprintf("text %d", i)
	}

	cfg := Config{
		Rasterizer: raster.New(raster.Config{
			Renderer:    pageRenderer{},
			PageCounter: func(string) (int, error) { return pages, nil },
			WorkDir:     work,
		}),
		Client:  client,
		WorkDir: work,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &fixture{work: work, pdf: pdf, client: client, pipeline: p}
}

func (f *fixture) assertClean(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.work)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("work dir not cleaned up: %v", names)
	}
}

func TestNew_MissingClient(t *testing.T) {
	_, err := New(Config{})
	if !errors.Is(err, providers.ErrMissingAPIKey) {
		t.Errorf("New() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestExtract_PagesInOrder(t *testing.T) {
	f := newFixture(t, 3, nil)

	result, err := f.pipeline.Extract(context.Background(), f.pdf, "do the thing", 0)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(result.Pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(result.Pages))
	}
	for i, p := range result.Pages {
		n := i + 1
		if p.Number != n {
			t.Errorf("Pages[%d].Number = %d", i, p.Number)
		}
		if p.Label != fmt.Sprintf("Page %d", n) {
			t.Errorf("Pages[%d].Label = %q", i, p.Label)
		}
		if p.Text != fmt.Sprintf("text %d", n) {
			t.Errorf("Pages[%d].Text = %q", i, p.Text)
		}
	}
	if result.RunID == "" {
		t.Error("expected a run id")
	}
	if result.Failed() != 0 {
		t.Errorf("Failed() = %d", result.Failed())
	}

	reqs := f.client.Requests()
	if len(reqs) != 3 {
		t.Fatalf("expected 3 remote calls, got %d", len(reqs))
	}
	for i, req := range reqs {
		if req.Instruction != "do the thing" {
			t.Errorf("request %d instruction = %q", i, req.Instruction)
		}
		if string(req.Image) != fmt.Sprintf("image-%d", i+1) {
			t.Errorf("request %d image = %q", i, req.Image)
		}
		if req.MIMEType != raster.PNGMIMEType {
			t.Errorf("request %d MIME = %q", i, req.MIMEType)
		}
		if !strings.HasPrefix(req.RequestID, result.RunID) {
			t.Errorf("request %d id %q does not carry run id", i, req.RequestID)
		}
	}
	f.assertClean(t)
}

func TestExtract_ZeroPages(t *testing.T) {
	f := newFixture(t, 0, nil)

	result, err := f.pipeline.Extract(context.Background(), f.pdf, "x", 0)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Pages) != 0 {
		t.Errorf("expected no pages, got %d", len(result.Pages))
	}
	if f.client.RequestCount() != 0 {
		t.Errorf("expected no remote calls, got %d", f.client.RequestCount())
	}
	if result.Aggregate() != "" {
		t.Errorf("Aggregate() = %q", result.Aggregate())
	}
	f.assertClean(t)
}

func TestExtract_FailureStopsAtPage(t *testing.T) {
	f := newFixture(t, 4, nil)
	f.client.FailOnPage = 2

	result, err := f.pipeline.Extract(context.Background(), f.pdf, "x", 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if result != nil {
		t.Errorf("expected nil result, got %+v", result)
	}

	pe, ok := AsPageError(err)
	if !ok {
		t.Fatalf("expected *PageError, got %T: %v", err, err)
	}
	if pe.Page != 2 || pe.Label != "Page 2" {
		t.Errorf("PageError = %+v", pe)
	}
	if !errors.Is(err, providers.ErrRemote) {
		t.Errorf("expected ErrRemote in chain: %v", err)
	}

	pages := f.client.Pages()
	if len(pages) != 2 || pages[0] != 1 || pages[1] != 2 {
		t.Errorf("remote calls for pages %v, want [1 2]", pages)
	}
	f.assertClean(t)
}

func TestExtract_InvalidDocument(t *testing.T) {
	work := t.TempDir()
	garbage := filepath.Join(t.TempDir(), "garbage.pdf")
	if err := os.WriteFile(garbage, []byte("not a pdf at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := providers.NewMockClient()
	p, err := New(Config{
		Rasterizer: raster.New(raster.Config{Renderer: pageRenderer{}, WorkDir: work}),
		Client:     client,
		WorkDir:    work,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.Extract(context.Background(), garbage, "x", 0)
	if !errors.Is(err, raster.ErrInvalidDocument) {
		t.Errorf("Extract() error = %v, want ErrInvalidDocument", err)
	}
	if client.RequestCount() != 0 {
		t.Errorf("expected no remote calls, got %d", client.RequestCount())
	}
}

func TestExtract_PartialResults(t *testing.T) {
	f := newFixture(t, 3, func(c *Config) { c.PartialResults = true })
	f.client.FailOnPage = 2

	result, err := f.pipeline.Extract(context.Background(), f.pdf, "x", 0)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(result.Pages))
	}
	if result.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", result.Failed())
	}
	if result.Pages[1].Error == "" || result.Pages[1].Text != "" {
		t.Errorf("page 2 = %+v", result.Pages[1])
	}
	if result.Pages[2].Text != "text 3" {
		t.Errorf("page 3 text = %q", result.Pages[2].Text)
	}
	if !strings.Contains(result.Aggregate(), "--- Page 2 ---\n[extraction failed: ") {
		t.Errorf("aggregate missing failure marker:\n%s", result.Aggregate())
	}
	f.assertClean(t)
}

func TestExtract_ParallelPreservesOrder(t *testing.T) {
	f := newFixture(t, 8, func(c *Config) { c.Concurrency = 4 })
	f.client.Latency = 5 * time.Millisecond

	result, err := f.pipeline.Extract(context.Background(), f.pdf, "x", 0)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Pages) != 8 {
		t.Fatalf("got %d pages", len(result.Pages))
	}
	for i, p := range result.Pages {
		if p.Number != i+1 || p.Text != fmt.Sprintf("text %d", i+1) {
			t.Errorf("Pages[%d] = %+v", i, p)
		}
	}
	if f.client.RequestCount() != 8 {
		t.Errorf("RequestCount = %d", f.client.RequestCount())
	}
	f.assertClean(t)
}

func TestExtract_ParallelFailure(t *testing.T) {
	f := newFixture(t, 6, func(c *Config) { c.Concurrency = 3 })
	f.client.FailOnPage = 2

	result, err := f.pipeline.Extract(context.Background(), f.pdf, "x", 0)
	if result != nil {
		t.Errorf("expected nil result")
	}
	pe, ok := AsPageError(err)
	if !ok {
		t.Fatalf("expected *PageError, got %v", err)
	}
	if pe.Page != 2 {
		t.Errorf("PageError.Page = %d, want 2", pe.Page)
	}
	f.assertClean(t)
}

// delayedFailClient fails the pages in failAfter once their delay has
// passed and answers every other page after latency.
type delayedFailClient struct {
	latency   time.Duration
	failAfter map[int]time.Duration
}

func (c *delayedFailClient) Name() string  { return "delayed" }
func (c *delayedFailClient) Model() string { return "delayed-model" }

func (c *delayedFailClient) Complete(ctx context.Context, req *providers.VisionRequest) (*providers.VisionResult, error) {
	delay, fail := c.failAfter[req.Page]
	if !fail {
		delay = c.latency
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if fail {
		return nil, &providers.RemoteError{Provider: c.Name(), StatusCode: 500, Message: fmt.Sprintf("page %d failed", req.Page)}
	}
	return &providers.VisionResult{Text: fmt.Sprintf("text %d", req.Page), Model: c.Model()}, nil
}

func TestExtract_ParallelReportsLowestFailingPage(t *testing.T) {
	client := &delayedFailClient{
		latency: 20 * time.Millisecond,
		failAfter: map[int]time.Duration{
			2: 60 * time.Millisecond,
			4: 0,
		},
	}
	f := newFixture(t, 8, func(c *Config) {
		c.Concurrency = 4
		c.Client = client
	})

	result, err := f.pipeline.Extract(context.Background(), f.pdf, "x", 0)
	if result != nil {
		t.Errorf("expected nil result")
	}
	pe, ok := AsPageError(err)
	if !ok {
		t.Fatalf("expected *PageError, got %v", err)
	}
	if pe.Page != 2 {
		t.Errorf("PageError.Page = %d, want 2", pe.Page)
	}
	if !errors.Is(err, providers.ErrRemote) {
		t.Errorf("Extract() error = %v, want ErrRemote", err)
	}
	f.assertClean(t)
}

func TestExtract_Cancelled(t *testing.T) {
	f := newFixture(t, 3, nil)
	f.client.Latency = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.pipeline.Extract(ctx, f.pdf, "x", 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Extract() error = %v, want DeadlineExceeded", err)
	}
	f.assertClean(t)
}

func TestExtractReader_RemovesCopy(t *testing.T) {
	f := newFixture(t, 2, nil)

	result, err := f.pipeline.ExtractReader(context.Background(), bytes.NewReader([]byte("%PDF-1.4 upload")), "x", 150)
	if err != nil {
		t.Fatalf("ExtractReader() error = %v", err)
	}
	if len(result.Pages) != 2 {
		t.Errorf("got %d pages", len(result.Pages))
	}
	f.assertClean(t)

	f.client.FailOnPage = 1
	if _, err := f.pipeline.ExtractReader(context.Background(), bytes.NewReader([]byte("%PDF")), "x", 0); err == nil {
		t.Fatal("expected error")
	}
	f.assertClean(t)
}
