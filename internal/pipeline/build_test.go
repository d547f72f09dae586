package pipeline

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/pdfextract/internal/config"
	"github.com/jackzampolin/pdfextract/internal/providers"
	"github.com/jackzampolin/pdfextract/internal/raster"
)

func TestFromConfig(t *testing.T) {
	t.Run("mock provider", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Provider.Type = "Mock"
		cfg.Extraction.DPI = 150

		p, err := FromConfig(cfg, t.TempDir(), nil)
		if err != nil {
			t.Fatalf("FromConfig() error = %v", err)
		}
		defer p.Close()

		if p.Client().Name() != providers.MockClientName {
			t.Errorf("client = %s", p.Client().Name())
		}
		if p.dpi != 150 {
			t.Errorf("dpi = %d, want 150", p.dpi)
		}
		if p.Rasterizer().Renderer().Name() != raster.RendererPdftoppm {
			t.Errorf("renderer = %s", p.Rasterizer().Renderer().Name())
		}
	})

	t.Run("missing key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		_, err := FromConfig(config.DefaultConfig(), t.TempDir(), nil)
		if !errors.Is(err, providers.ErrMissingAPIKey) {
			t.Fatalf("expected ErrMissingAPIKey, got %v", err)
		}
		if !errors.Is(err, config.ErrInvalid) {
			t.Errorf("expected ErrInvalid, got %v", err)
		}
	})

	t.Run("unknown renderer", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Provider.Type = "mock"
		cfg.Extraction.Renderer = "ghostscript"
		if _, err := FromConfig(cfg, "", nil); !errors.Is(err, config.ErrInvalid) {
			t.Fatalf("expected ErrInvalid, got %v", err)
		}
	})

	t.Run("work dir override", func(t *testing.T) {
		override := filepath.Join(t.TempDir(), "rasters")
		t.Setenv("PDFEXTRACT_TEST_WORK", override)

		cfg := config.DefaultConfig()
		cfg.Provider.Type = "mock"
		cfg.Extraction.WorkDir = "${PDFEXTRACT_TEST_WORK}"

		p, err := FromConfig(cfg, t.TempDir(), nil)
		if err != nil {
			t.Fatalf("FromConfig() error = %v", err)
		}
		if p.workDir != override {
			t.Errorf("workDir = %q, want %q", p.workDir, override)
		}
	})
}
