package raster

import (
	"context"
	"fmt"
	"image/png"
	"os"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer renders pages in-process with MuPDF. It needs no external
// binaries but requires a cgo build.
type FitzRenderer struct{}

func (r *FitzRenderer) Name() string { return RendererFitz }

// RenderPage opens the document, renders one page and PNG-encodes it.
func (r *FitzRenderer) RenderPage(ctx context.Context, pdfPath string, page, dpi int, outDir string) (string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	defer doc.Close()

	if page < 1 || page > doc.NumPage() {
		return "", fmt.Errorf("%w: page %d of %d", ErrInvalidDocument, page, doc.NumPage())
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// fitz pages are 0-based
	img, err := doc.ImageDPI(page-1, float64(dpi))
	if err != nil {
		return "", fmt.Errorf("failed to convert page %d to image: %w", page, err)
	}

	dst := pageFile(outDir, page)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrResource, err)
	}

	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(f, img); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrResource, err)
	}
	return dst, nil
}
