package endpoints

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pdfextract/internal/api"
	"github.com/jackzampolin/pdfextract/web"
)

// StaticEndpoint serves the embedded upload page and its assets. Unknown
// page paths get the upload page; unknown /api/ paths get a JSON 404.
type StaticEndpoint struct{}

var _ api.Endpoint = (*StaticEndpoint)(nil)

func (e *StaticEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/{path...}", e.handler
}

func (e *StaticEndpoint) RequiresInit() bool { return false }

func (e *StaticEndpoint) Command(_ func() string) *cobra.Command {
	return nil
}

func (e *StaticEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name == "api" || strings.HasPrefix(name, "api/") {
		writeError(w, http.StatusNotFound, "unknown endpoint: "+r.URL.Path)
		return
	}

	assets, err := web.DistFS()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "upload page not available")
		return
	}

	if name == "" {
		name = "index.html"
	}
	if info, err := fs.Stat(assets, name); err != nil || info.IsDir() {
		name = "index.html"
	}
	http.ServeFileFS(w, r, assets, name)
}
