package raster

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Renderer rasterizes a single PDF page into outDir and returns the path of
// the PNG it wrote.
type Renderer interface {
	Name() string
	RenderPage(ctx context.Context, pdfPath string, page, dpi int, outDir string) (string, error)
}

// Renderer names accepted by NewRenderer.
const (
	RendererPdftoppm = "pdftoppm"
	RendererFitz     = "fitz"
	RendererDocker   = "docker"
)

// RendererOptions carries per-renderer settings.
type RendererOptions struct {
	PdftoppmPath string
	DockerImage  string
	Logger       *slog.Logger
}

// NewRenderer builds a renderer by name. An empty name selects pdftoppm.
func NewRenderer(name string, opts RendererOptions) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", RendererPdftoppm:
		return &PdftoppmRenderer{Path: opts.PdftoppmPath}, nil
	case RendererFitz:
		return &FitzRenderer{}, nil
	case RendererDocker:
		return NewDockerRenderer(DockerConfig{
			Image:  opts.DockerImage,
			Logger: opts.Logger,
		})
	default:
		return nil, fmt.Errorf("unknown renderer: %s", name)
	}
}

// pageFile is the output path used by every renderer for page n.
func pageFile(outDir string, page int) string {
	return filepath.Join(outDir, fmt.Sprintf("page_%04d.png", page))
}
