package endpoints

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfextract/internal/api"
	"github.com/jackzampolin/pdfextract/internal/instruction"
	"github.com/jackzampolin/pdfextract/internal/pipeline"
	"github.com/jackzampolin/pdfextract/internal/raster"
	"github.com/jackzampolin/pdfextract/internal/svcctx"
)

// DefaultMaxUploadBytes bounds uploads when no config manager is present.
const DefaultMaxUploadBytes = 64 << 20

// ExtractResponse is the JSON body of a completed extraction.
type ExtractResponse struct {
	RunID       string                `json:"run_id"`
	Provider    string                `json:"provider"`
	Model       string                `json:"model"`
	Mode        string                `json:"mode"`
	Format      string                `json:"format"`
	Instruction string                `json:"instruction"`
	Artifact    instruction.Artifact  `json:"artifact"`
	Filename    string                `json:"filename"`
	Pages       []pipeline.PageResult `json:"pages"`
	Failed      int                   `json:"failed,omitempty"`
	Aggregate   string                `json:"aggregate"`
	ElapsedMS   int64                 `json:"elapsed_ms"`
}

// Text renders the aggregate for text output.
func (r ExtractResponse) Text() string {
	return r.Aggregate
}

// ExtractEndpoint handles POST /api/extract.
type ExtractEndpoint struct{}

var _ api.Endpoint = (*ExtractEndpoint)(nil)

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/extract", e.handler
}

func (e *ExtractEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Extract structured text from a PDF
//	@Description	Rasterize every page, send each page to the vision model and return the per-page results in page order
//	@Tags			extract
//	@Accept			mpfd
//	@Produce		json
//	@Param			file		formData	file	true	"PDF document"
//	@Param			mode		formData	string	false	"manual or auto (default: manual when fields are given)"
//	@Param			fields		formData	string	false	"Comma-separated field names (manual mode)"
//	@Param			format		formData	string	false	"JSON, XML, Markdown or HTML (default JSON)"
//	@Param			dpi			formData	int		false	"Rasterization resolution (1-1200)"
//	@Param			download	formData	bool	false	"Return the aggregate file instead of JSON"
//	@Success		200			{object}	ExtractResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Failure		429			{object}	ErrorResponse
//	@Failure		502			{object}	ErrorResponse
//	@Failure		503			{object}	ErrorResponse
//	@Router			/api/extract [post]
func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := svcctx.LoggerFrom(ctx)

	maxBytes := int64(DefaultMaxUploadBytes)
	if mgr := svcctx.ConfigFrom(ctx); mgr != nil {
		maxBytes = mgr.Get().MaxUploadBytes()
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	const maxMemory = 32 << 20
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	format := r.FormValue("format")
	if format == "" {
		format = instruction.FormatJSON.String()
	}
	req, text, err := buildInstruction(r.FormValue("mode"), instruction.ParseFields(r.FormValue("fields")), format)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	dpi := 0
	if v := r.FormValue("dpi"); v != "" {
		dpi, err = strconv.Atoi(v)
		if err != nil || dpi <= 0 || dpi > raster.MaxDPI {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid dpi %q: must be between 1 and %d", v, raster.MaxDPI))
			return
		}
	}
	download, _ := strconv.ParseBool(r.FormValue("download"))

	source := svcctx.PipelinesFrom(ctx)
	if source == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not initialized")
		return
	}
	p, err := source.Pipeline()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	logger.Info("extract request",
		"filename", header.Filename,
		"size", header.Size,
		"mode", req.Mode.String(),
		"format", req.Format.String(),
		"download", download)

	result, err := p.ExtractReader(ctx, file, text, dpi)
	if err != nil {
		logger.Warn("extract failed", "filename", header.Filename, "error", err)
		writeExtractError(w, err)
		return
	}

	artifact, data := result.Artifact(req.Format.String())
	filename := artifact.Filename("")

	if download {
		w.Header().Set("Content-Type", artifact.MIMEType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
		w.Header().Set("X-Run-ID", result.RunID)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	writeJSON(w, http.StatusOK, ExtractResponse{
		RunID:       result.RunID,
		Provider:    result.Provider,
		Model:       result.Model,
		Mode:        req.Mode.String(),
		Format:      req.Format.String(),
		Instruction: text,
		Artifact:    artifact,
		Filename:    filename,
		Pages:       result.Pages,
		Failed:      result.Failed(),
		Aggregate:   string(data),
		ElapsedMS:   result.Elapsed.Milliseconds(),
	})
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	var mode, fields, format, out string
	var dpi int
	var download bool
	cmd := &cobra.Command{
		Use:   "extract <pdf>",
		Short: "Extract a PDF on the running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			up := api.Upload{
				FieldName: "file",
				FilePath:  args[0],
				Fields: map[string]string{
					"mode":   mode,
					"fields": fields,
					"format": format,
				},
			}
			if dpi > 0 {
				up.Fields["dpi"] = strconv.Itoa(dpi)
			}

			if download || out != "" {
				up.Fields["download"] = "true"
				started := time.Now()
				dl, err := client.PostFileDownload(ctx, "/api/extract", up)
				if err != nil {
					return err
				}
				path := out
				if path == "" {
					path = dl.Filename
				}
				if path == "" {
					path = instruction.ArtifactFor(format).Filename("")
				}
				if err := os.WriteFile(path, dl.Data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes, %s) in %s\n",
					path, len(dl.Data), dl.ContentType, time.Since(started).Round(time.Millisecond))
				return nil
			}

			var resp ExtractResponse
			if err := client.PostFile(ctx, "/api/extract", up, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "manual or auto (default: manual when --fields is set)")
	cmd.Flags().StringVar(&fields, "fields", "", "Comma-separated field names for manual mode")
	cmd.Flags().StringVarP(&format, "format", "f", "JSON", "Output format: JSON, XML, Markdown or HTML")
	cmd.Flags().IntVar(&dpi, "dpi", 0, "Rasterization resolution (server default when 0)")
	cmd.Flags().BoolVar(&download, "download", false, "Save the aggregate file instead of printing JSON")
	cmd.Flags().StringVar(&out, "out", "", "Path for the downloaded file (implies --download)")
	return cmd
}
