package endpoints

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfextract/internal/api"
	"github.com/jackzampolin/pdfextract/internal/svcctx"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider,omitempty"`
	Error    string `json:"error,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

var _ api.Endpoint = (*HealthEndpoint)(nil)

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Liveness check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	var wait bool
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			if wait {
				attempts := uint(timeout / (500 * time.Millisecond))
				if attempts == 0 {
					attempts = 1
				}
				if err := client.WaitReady(ctx, "/health", attempts, 500*time.Millisecond); err != nil {
					return fmt.Errorf("server not healthy after %s: %w", timeout, err)
				}
			}
			var resp HealthResponse
			if err := client.Get(ctx, "/health", &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the server answers")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "How long --wait polls")
	return cmd
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

var _ api.Endpoint = (*ReadyEndpoint)(nil)

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Readiness check
//	@Description	Reports whether a vision provider is configured and extractions can run
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse
//	@Router			/ready [get]
func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	source := svcctx.PipelinesFrom(r.Context())
	if source == nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Provider: "not_initialized"})
		return
	}

	p, err := source.Pipeline()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "degraded",
			Provider: "not_configured",
			Error:    err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Provider: p.Client().Name()})
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (provider configured)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			fmt.Printf("Status:   %s\n", resp.Status)
			if resp.Provider != "" {
				fmt.Printf("Provider: %s\n", resp.Provider)
			}
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server     string           `json:"server"`
	ConfigFile string           `json:"config_file,omitempty"`
	Provider   ProviderStatus   `json:"provider"`
	Extraction ExtractionStatus `json:"extraction"`
}

// ProviderStatus describes the configured vision provider.
type ProviderStatus struct {
	Type       string  `json:"type"`
	Model      string  `json:"model"`
	Configured bool    `json:"configured"`
	RateLimit  float64 `json:"rate_limit,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// ExtractionStatus describes the pipeline settings.
type ExtractionStatus struct {
	DPI            int    `json:"dpi"`
	Renderer       string `json:"renderer"`
	Concurrency    int    `json:"concurrency"`
	PartialResults bool   `json:"partial_results"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct{}

var _ api.Endpoint = (*StatusEndpoint)(nil)

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Server status
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	StatusResponse
//	@Router		/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Server: "running"}

	if mgr := svcctx.ConfigFrom(r.Context()); mgr != nil {
		cfg := mgr.Get()
		pc := cfg.ProviderConfig()
		resp.ConfigFile = mgr.ConfigFileUsed()
		resp.Provider.Type = pc.Type
		resp.Provider.Model = pc.Model
		resp.Provider.RateLimit = pc.RateLimit
		resp.Extraction = ExtractionStatus{
			DPI:            cfg.Extraction.DPI,
			Renderer:       cfg.Extraction.Renderer,
			Concurrency:    cfg.Extraction.Concurrency,
			PartialResults: cfg.Extraction.PartialResults,
		}
	}

	if source := svcctx.PipelinesFrom(r.Context()); source != nil {
		p, err := source.Pipeline()
		if err != nil {
			resp.Provider.Error = err.Error()
		} else {
			resp.Provider.Configured = true
			resp.Provider.Model = p.Client().Model()
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			if api.IsStructuredOutput() {
				return api.Output(resp)
			}
			fmt.Printf("Server: %s\n", resp.Server)
			if resp.ConfigFile != "" {
				fmt.Printf("Config: %s\n", resp.ConfigFile)
			}
			fmt.Printf("Provider:\n")
			fmt.Printf("  Type:       %s\n", resp.Provider.Type)
			fmt.Printf("  Model:      %s\n", resp.Provider.Model)
			fmt.Printf("  Configured: %t\n", resp.Provider.Configured)
			if resp.Provider.Error != "" {
				fmt.Printf("  Error:      %s\n", resp.Provider.Error)
			}
			fmt.Printf("Extraction:\n")
			fmt.Printf("  DPI:         %d\n", resp.Extraction.DPI)
			fmt.Printf("  Renderer:    %s\n", resp.Extraction.Renderer)
			fmt.Printf("  Concurrency: %d\n", resp.Extraction.Concurrency)
			return nil
		},
	}
}
