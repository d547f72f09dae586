package pipeline

import (
	"log/slog"

	"github.com/jackzampolin/pdfextract/internal/config"
	"github.com/jackzampolin/pdfextract/internal/providers"
	"github.com/jackzampolin/pdfextract/internal/raster"
)

// FromConfig validates cfg and assembles the renderer, rasterizer and
// vision client it describes. workDir is used when extraction.work_dir is
// empty. A missing credential surfaces as providers.ErrMissingAPIKey.
func FromConfig(cfg *config.Config, workDir string, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Extraction.WorkDir != "" {
		workDir = config.ResolveEnvVars(cfg.Extraction.WorkDir)
	}

	renderer, err := raster.NewRenderer(cfg.Extraction.Renderer, cfg.RendererOptions(logger))
	if err != nil {
		return nil, err
	}

	client, err := providers.New(cfg.ProviderConfig(), logger)
	if err != nil {
		if c, ok := renderer.(interface{ Close() error }); ok {
			c.Close()
		}
		return nil, err
	}

	return New(Config{
		Rasterizer: raster.New(raster.Config{
			Renderer: renderer,
			WorkDir:  workDir,
			Logger:   logger,
		}),
		Client:         client,
		Logger:         logger,
		Concurrency:    cfg.Extraction.Concurrency,
		PartialResults: cfg.Extraction.PartialResults,
		MaxTokens:      cfg.Provider.MaxTokens,
		DPI:            cfg.Extraction.DPI,
		WorkDir:        workDir,
	})
}
