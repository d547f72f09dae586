package raster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// PdftoppmRenderer renders pages with pdftoppm (poppler-utils).
type PdftoppmRenderer struct {
	// Path is the pdftoppm binary; defaults to "pdftoppm" on $PATH.
	Path string
}

func (r *PdftoppmRenderer) Name() string { return RendererPdftoppm }

func (r *PdftoppmRenderer) binary() string {
	if r.Path == "" {
		return "pdftoppm"
	}
	return r.Path
}

// Available reports whether the pdftoppm binary can be found.
func (r *PdftoppmRenderer) Available() error {
	if _, err := exec.LookPath(r.binary()); err != nil {
		return fmt.Errorf("%w: %s not found: %v", ErrResource, r.binary(), err)
	}
	return nil
}

// RenderPage runs pdftoppm for a single page.
func (r *PdftoppmRenderer) RenderPage(ctx context.Context, pdfPath string, page, dpi int, outDir string) (string, error) {
	if err := r.Available(); err != nil {
		return "", err
	}

	dst := pageFile(outDir, page)

	// -singlefile writes <prefix>.png without a page number suffix
	pageStr := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, r.binary(),
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(dpi),
		"-singlefile",
		pdfPath,
		strings.TrimSuffix(dst, ".png"),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %v", ErrResource, err)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", pdftoppmExitError(exitErr.ExitCode(), string(output))
		}
		return "", fmt.Errorf("pdftoppm failed: %w (output: %s)", err, strings.TrimSpace(string(output)))
	}

	if _, err := os.Stat(dst); err != nil {
		return "", fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return dst, nil
}

// poppler's documented exit status for "error opening a PDF file".
const pdftoppmExitOpen = 1

// Messages poppler prints when the bytes are not a document it can parse.
var popplerParseErrors = []string{
	"Syntax Error",
	"Couldn't read xref",
	"Couldn't find trailer",
	"May not be a PDF file",
	"Incorrect password",
}

// pdftoppmExitError classifies a non-zero pdftoppm exit. Poppler can
// refuse a file pdfcpu accepted; that is still an invalid document.
func pdftoppmExitError(code int, output string) error {
	output = strings.TrimSpace(output)
	if code == pdftoppmExitOpen {
		return fmt.Errorf("%w: pdftoppm could not open the document: %s", ErrInvalidDocument, output)
	}
	for _, marker := range popplerParseErrors {
		if strings.Contains(output, marker) {
			return fmt.Errorf("%w: pdftoppm: %s", ErrInvalidDocument, output)
		}
	}
	return fmt.Errorf("pdftoppm exited with status %d: %s", code, output)
}
