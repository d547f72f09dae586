// Package raster renders PDF pages to temporary PNG files, one page at a time.
package raster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const (
	// DefaultDPI is the rendering resolution used when none is given.
	DefaultDPI = 300

	// MaxDPI bounds the requested resolution. A US letter page at 1200 DPI
	// is already roughly 135 megapixels.
	MaxDPI = 1200

	// PNGMIMEType is the media type of every rendered page.
	PNGMIMEType = "image/png"
)

var (
	// ErrInvalidDocument means the input could not be parsed as a PDF.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrResource means rasterization failed for environmental reasons
	// (missing renderer, disk, docker daemon).
	ErrResource = errors.New("rasterization resource error")
)

// PageCounter returns the number of pages in a PDF file.
type PageCounter func(pdfPath string) (int, error)

// PDFCPUPageCount counts pages with pdfcpu. Parse failures are reported as
// ErrInvalidDocument.
func PDFCPUPageCount(pdfPath string) (int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	defer f.Close()

	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return n, nil
}

// Config configures a Rasterizer.
type Config struct {
	Renderer    Renderer    // defaults to PdftoppmRenderer
	PageCounter PageCounter // defaults to PDFCPUPageCount
	WorkDir     string      // parent of per-document temp dirs; os.TempDir() if empty
	Logger      *slog.Logger
}

// Rasterizer opens documents and renders their pages. It holds no
// per-document state and is safe for concurrent use.
type Rasterizer struct {
	renderer Renderer
	count    PageCounter
	workDir  string
	logger   *slog.Logger
}

// New creates a Rasterizer.
func New(cfg Config) *Rasterizer {
	if cfg.Renderer == nil {
		cfg.Renderer = &PdftoppmRenderer{}
	}
	if cfg.PageCounter == nil {
		cfg.PageCounter = PDFCPUPageCount
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Rasterizer{
		renderer: cfg.Renderer,
		count:    cfg.PageCounter,
		workDir:  cfg.WorkDir,
		logger:   cfg.Logger.With("component", "raster", "renderer", cfg.Renderer.Name()),
	}
}

// Renderer returns the configured renderer.
func (r *Rasterizer) Renderer() Renderer {
	return r.renderer
}

// Open validates pdfPath, counts its pages and reserves a private temp
// directory for its rasters. The caller must Close the document.
func (r *Rasterizer) Open(ctx context.Context, pdfPath string, dpi int) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	info, err := os.Stat(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidDocument, pdfPath)
	}

	pages, err := r.count(pdfPath)
	if err != nil {
		if errors.Is(err, ErrInvalidDocument) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	if r.workDir != "" {
		if err := os.MkdirAll(r.workDir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create work dir: %v", ErrResource, err)
		}
	}
	dir, err := os.MkdirTemp(r.workDir, "pdfextract-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp dir: %v", ErrResource, err)
	}

	r.logger.Debug("raster.open", "file", filepath.Base(pdfPath), "pages", pages, "dpi", dpi)

	return &Document{
		path:     pdfPath,
		dir:      dir,
		dpi:      dpi,
		pages:    pages,
		renderer: r.renderer,
		logger:   r.logger,
	}, nil
}

// Rasterize renders every page of pdfPath in document order and calls fn
// with each one. The page file is released after fn returns and the
// document directory is removed on every exit path.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath string, dpi int, fn func(*Page) error) error {
	doc, err := r.Open(ctx, pdfPath, dpi)
	if err != nil {
		return err
	}
	defer doc.Close()

	for n := 1; n <= doc.PageCount(); n++ {
		page, err := doc.Render(ctx, n)
		if err != nil {
			return err
		}
		err = fn(page)
		page.Release()
		if err != nil {
			return err
		}
	}
	return nil
}

// Document is an opened PDF with its own temp directory.
type Document struct {
	path     string
	dir      string
	dpi      int
	pages    int
	renderer Renderer
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.pages
}

// DPI returns the rendering resolution.
func (d *Document) DPI() int {
	return d.dpi
}

// Dir returns the document's temp directory.
func (d *Document) Dir() string {
	return d.dir
}

// Render rasterizes page n (1-based).
func (d *Document) Render(ctx context.Context, n int) (*Page, error) {
	if n < 1 || n > d.pages {
		return nil, fmt.Errorf("page %d out of range [1, %d]", n, d.pages)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := d.renderer.RenderPage(ctx, d.path, n, d.dpi, d.dir)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrInvalidDocument) || errors.Is(err, ErrResource) {
			return nil, fmt.Errorf("render page %d: %w", n, err)
		}
		return nil, fmt.Errorf("%w: render page %d: %v", ErrResource, n, err)
	}

	d.logger.Debug("raster.page", "page", n, "path", path)
	return &Page{Number: n, Path: path, MIMEType: PNGMIMEType}, nil
}

// Close removes the document's temp directory and every raster left in it.
// It is safe to call more than once.
func (d *Document) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = os.RemoveAll(d.dir)
	})
	return d.closeErr
}

// Page is one rendered page. Its file lives until Release or until the
// owning Document is closed.
type Page struct {
	Number   int
	Path     string
	MIMEType string
}

// Label returns the human-readable page label, e.g. "Page 3".
func (p *Page) Label() string {
	return Label(p.Number)
}

// Label returns "Page n".
func Label(n int) string {
	return fmt.Sprintf("Page %d", n)
}

// Bytes reads the rendered image.
func (p *Page) Bytes() ([]byte, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrResource, p.Label(), err)
	}
	return data, nil
}

// Release deletes the page file. Calling it again is a no-op.
func (p *Page) Release() error {
	if err := os.Remove(p.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
