// Package pipeline runs a PDF through rasterization and one remote
// completion per page, collecting the per-page results in document order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/pdfextract/internal/providers"
	"github.com/jackzampolin/pdfextract/internal/raster"
)

// Config configures a Pipeline.
type Config struct {
	// Rasterizer renders pages; a pdftoppm-backed one is created if nil.
	Rasterizer *raster.Rasterizer

	// Client performs the remote call for each page. Required.
	Client providers.VisionClient

	Logger *slog.Logger

	// Concurrency is the number of pages in flight. <= 1 is sequential.
	Concurrency int

	// PartialResults keeps going after a page fails and records the failure
	// on that page instead of aborting the run.
	PartialResults bool

	// MaxTokens caps each page's response; zero uses the client default.
	MaxTokens int

	// DPI is used when a call passes 0; raster.DefaultDPI if unset.
	DPI int

	// WorkDir holds uploaded copies and page rasters; os.TempDir() if empty.
	WorkDir string
}

// Pipeline is stateless between runs and safe for concurrent use.
type Pipeline struct {
	rasterizer  *raster.Rasterizer
	client      providers.VisionClient
	logger      *slog.Logger
	concurrency int
	partial     bool
	maxTokens   int
	dpi         int
	workDir     string
}

// New creates a Pipeline. A nil client is a configuration error.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Client == nil {
		return nil, providers.ErrMissingAPIKey
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Rasterizer == nil {
		cfg.Rasterizer = raster.New(raster.Config{WorkDir: cfg.WorkDir, Logger: cfg.Logger})
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return &Pipeline{
		rasterizer:  cfg.Rasterizer,
		client:      cfg.Client,
		logger:      cfg.Logger.With("component", "pipeline"),
		concurrency: cfg.Concurrency,
		partial:     cfg.PartialResults,
		maxTokens:   cfg.MaxTokens,
		dpi:         cfg.DPI,
		workDir:     cfg.WorkDir,
	}, nil
}

// Client returns the configured vision client.
func (p *Pipeline) Client() providers.VisionClient {
	return p.client
}

// Rasterizer returns the configured rasterizer.
func (p *Pipeline) Rasterizer() *raster.Rasterizer {
	return p.rasterizer
}

// Close releases renderer resources such as a Docker client.
func (p *Pipeline) Close() error {
	if c, ok := p.rasterizer.Renderer().(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Extract rasterizes pdfPath at dpi and sends every page with instruction
// to the model. Pages are processed in document order; results are always
// returned in document order.
//
// Unless PartialResults is set, the first failing page aborts the run and
// the returned error is a *PageError naming it.
func (p *Pipeline) Extract(ctx context.Context, pdfPath, instruction string, dpi int) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	logger := p.logger.With("run_id", runID)
	if dpi <= 0 {
		dpi = p.dpi
	}

	doc, err := p.rasterizer.Open(ctx, pdfPath, dpi)
	if err != nil {
		logger.Warn("pipeline.open.error", "error", err)
		return nil, err
	}
	defer doc.Close()

	logger.Info("pipeline.start",
		"pages", doc.PageCount(),
		"dpi", doc.DPI(),
		"provider", p.client.Name(),
		"model", p.client.Model(),
		"concurrency", p.concurrency)

	r := &run{
		pipeline:    p,
		doc:         doc,
		instruction: instruction,
		runID:       runID,
		logger:      logger,
		pages:       make([]PageResult, doc.PageCount()),
	}

	if p.concurrency > 1 && doc.PageCount() > 1 {
		err = r.parallel(ctx)
	} else {
		err = r.sequential(ctx)
	}
	if err != nil {
		logger.Error("pipeline.failed", "error", err, "elapsed", time.Since(start))
		return nil, err
	}

	result := &Result{
		RunID:    runID,
		Provider: p.client.Name(),
		Model:    p.client.Model(),
		Pages:    r.pages,
		Elapsed:  time.Since(start),
	}
	logger.Info("pipeline.done",
		"pages", len(result.Pages),
		"failed", result.Failed(),
		"elapsed", result.Elapsed)
	return result, nil
}

// ExtractReader copies r to a temporary file owned by the pipeline, runs
// Extract on it and removes the copy on every exit path.
func (p *Pipeline) ExtractReader(ctx context.Context, r io.Reader, instruction string, dpi int) (*Result, error) {
	if p.workDir != "" {
		if err := os.MkdirAll(p.workDir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create work dir: %v", raster.ErrResource, err)
		}
	}
	f, err := os.CreateTemp(p.workDir, "pdfextract-upload-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: create upload copy: %v", raster.ErrResource, err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: write upload copy: %v", raster.ErrResource, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: write upload copy: %v", raster.ErrResource, err)
	}

	return p.Extract(ctx, path, instruction, dpi)
}

// run holds the state of one Extract call.
type run struct {
	pipeline    *Pipeline
	doc         *raster.Document
	instruction string
	runID       string
	logger      *slog.Logger
	pages       []PageResult
}

func (r *run) sequential(ctx context.Context) error {
	for n := 1; n <= len(r.pages); n++ {
		if err := r.handle(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// parallel writes each result into its own slot so completion order does
// not affect result order. When pages fail, the lowest failing page is
// reported: a failure cancels only higher pages, and lower pages still in
// flight run to completion.
func (r *run) parallel(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(r.pipeline.concurrency)

	var (
		mu      sync.Mutex
		failed  *PageError
		cancels = make([]context.CancelFunc, len(r.pages))
	)
	stopped := func(n int) bool {
		mu.Lock()
		defer mu.Unlock()
		return failed != nil && failed.Page < n
	}

	for n := 1; n <= len(r.pages); n++ {
		if ctx.Err() != nil || stopped(n) {
			break
		}
		g.Go(func() error {
			if stopped(n) {
				return nil
			}
			pctx, cancel := context.WithCancel(ctx)
			defer cancel()

			mu.Lock()
			cancels[n-1] = cancel
			mu.Unlock()

			err := r.handle(pctx, n)

			mu.Lock()
			defer mu.Unlock()
			cancels[n-1] = nil

			if pageErr, ok := AsPageError(err); ok {
				if failed == nil || pageErr.Page < failed.Page {
					failed = pageErr
					for _, c := range cancels[n:] {
						if c != nil {
							c()
						}
					}
				}
				return nil
			}
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	err := g.Wait()
	if failed != nil {
		return failed
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

// handle processes page n and applies the failure policy.
func (r *run) handle(ctx context.Context, n int) error {
	slot := &r.pages[n-1]
	slot.Number = n
	slot.Label = raster.Label(n)

	err := r.page(ctx, n, slot)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	pageErr := &PageError{Page: n, Label: slot.Label, Err: err}
	if !r.pipeline.partial {
		return pageErr
	}
	slot.Error = err.Error()
	r.logger.Warn("pipeline.page.skipped", "page", n, "error", err)
	return nil
}

func (r *run) page(ctx context.Context, n int, out *PageResult) error {
	logger := r.logger.With("page", n)
	logger.Debug("pipeline.page.start")

	page, err := r.doc.Render(ctx, n)
	if err != nil {
		logger.Error("pipeline.page.render.error", "error", err)
		return err
	}
	defer page.Release()

	image, err := page.Bytes()
	if err != nil {
		return err
	}

	res, err := r.pipeline.client.Complete(ctx, &providers.VisionRequest{
		Instruction: r.instruction,
		Image:       image,
		MIMEType:    page.MIMEType,
		MaxTokens:   r.pipeline.maxTokens,
		Page:        n,
		RequestID:   fmt.Sprintf("%s-%d", r.runID, n),
	})
	if err != nil {
		attrs := []any{"error", err}
		if re, ok := providers.AsRemoteError(err); ok {
			attrs = append(attrs, "status", re.StatusCode, "rate_limited", re.IsRateLimited())
		}
		logger.Error("pipeline.page.remote.error", attrs...)
		return err
	}

	out.Text = res.Text
	out.PromptTokens = res.PromptTokens
	out.CompletionTokens = res.CompletionTokens

	logger.Debug("pipeline.page.done",
		"chars", len(res.Text),
		"tokens", res.TotalTokens,
		"latency", res.ExecutionTime)
	return nil
}

// PageError identifies the page at which a run failed.
type PageError struct {
	Page  int
	Label string
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Label, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// AsPageError extracts a *PageError from err.
func AsPageError(err error) (*PageError, bool) {
	var pe *PageError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
