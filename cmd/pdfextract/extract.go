package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfextract/internal/api"
	"github.com/jackzampolin/pdfextract/internal/pipeline"
	"github.com/jackzampolin/pdfextract/internal/server/endpoints"
)

var extractFlags struct {
	mode        string
	fields      string
	format      string
	dpi         int
	renderer    string
	concurrency int
	partial     bool
	out         string
	save        bool
}

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>",
	Short: "Extract structured text from a PDF",
	Long: `Rasterize every page of a PDF, send each page to the configured vision
model and write the page-ordered results to extracted_output.<ext>.

Each page appears in the output as:

  --- Page N ---
  <model output>

The run stops at the first page that fails unless --partial is set.

Examples:
  pdfextract extract invoice.pdf --fields "name, date, total_amount"
  pdfextract extract invoice.pdf --mode manual          # default field list
  pdfextract extract report.pdf --mode auto -f Markdown --out report.md
  pdfextract extract scan.pdf --renderer docker --dpi 200 --save`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	addRequestFlags(extractCmd, &extractFlags.mode, &extractFlags.fields, &extractFlags.format)
	f.IntVar(&extractFlags.dpi, "dpi", 0, "Rasterization resolution (default: extraction.dpi)")
	f.StringVar(&extractFlags.renderer, "renderer", "", "Page renderer: pdftoppm, fitz or docker (default: extraction.renderer)")
	f.IntVar(&extractFlags.concurrency, "concurrency", 0, "Pages in flight (default: extraction.concurrency)")
	f.BoolVar(&extractFlags.partial, "partial", false, "Keep going after a page fails and mark it in the output")
	f.StringVar(&extractFlags.out, "out", "", "Output file (default: ./extracted_output.<ext>)")
	f.BoolVar(&extractFlags.save, "save", false, "Write the output to the home output directory, named after the PDF")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()
	source := args[0]

	req, text, err := requestFromFlags(cmd, extractFlags.mode, extractFlags.fields, extractFlags.format)
	if err != nil {
		return err
	}

	h, err := getHome()
	if err != nil {
		return err
	}
	mgr, err := loadConfig(h)
	if err != nil {
		return err
	}

	cfg := *mgr.Get()
	flags := cmd.Flags()
	if flags.Changed("dpi") {
		cfg.Extraction.DPI = extractFlags.dpi
	}
	if flags.Changed("renderer") {
		cfg.Extraction.Renderer = extractFlags.renderer
	}
	if flags.Changed("concurrency") {
		cfg.Extraction.Concurrency = extractFlags.concurrency
	}
	if flags.Changed("partial") {
		cfg.Extraction.PartialResults = extractFlags.partial
	}

	p, err := pipeline.FromConfig(&cfg, h.WorkPath(), logger)
	if err != nil {
		return err
	}
	defer p.Close()

	logger.Info("extracting",
		"file", source,
		"mode", req.Mode.String(),
		"format", req.Format.String(),
		"provider", p.Client().Name(),
		"model", p.Client().Model())

	result, err := p.Extract(ctx, source, text, 0)
	if err != nil {
		return err
	}

	artifact, data := result.Artifact(req.Format.String())
	path := extractFlags.out
	switch {
	case path != "":
	case extractFlags.save:
		path = h.ArtifactPath(source, artifact.Extension)
	default:
		path = artifact.Filename("")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Info("extraction complete",
		"output", path,
		"pages", len(result.Pages),
		"failed", result.Failed(),
		"elapsed", result.Elapsed)

	return api.Output(endpoints.ExtractResponse{
		RunID:       result.RunID,
		Provider:    result.Provider,
		Model:       result.Model,
		Mode:        req.Mode.String(),
		Format:      req.Format.String(),
		Instruction: text,
		Artifact:    artifact,
		Filename:    path,
		Pages:       result.Pages,
		Failed:      result.Failed(),
		Aggregate:   string(data),
		ElapsedMS:   result.Elapsed.Milliseconds(),
	})
}
