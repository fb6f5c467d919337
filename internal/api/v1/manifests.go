package v1

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/toolhive-console/internal/api/common"
	"github.com/stacklok/toolhive-console/internal/render"
)

// ManifestResponse is the rendered manifest returned by the manifest
// endpoints. Lines carry fold metadata when the caller asks for them.
type ManifestResponse struct {
	// Format is the rendered representation (json or yaml)
	Format string `json:"format"`

	// Text is the full rendered manifest text
	Text string `json:"text"`

	// Lines is the fold-annotated line list, present when lines=true
	Lines []render.Line `json:"lines,omitempty"`
}

// getRegistryManifest handles GET /api/v1/registries/{name}/manifest
func (routes *Routes) getRegistryManifest(w http.ResponseWriter, r *http.Request) {
	routes.serveManifest(w, r, func(ctx context.Context) ([]byte, error) {
		return routes.service.GetRegistryManifest(ctx, chi.URLParam(r, "name"))
	})
}

// getServerManifest handles GET /api/v1/registries/{name}/servers/{server}/manifest
func (routes *Routes) getServerManifest(w http.ResponseWriter, r *http.Request) {
	routes.serveManifest(w, r, func(ctx context.Context) ([]byte, error) {
		return routes.service.GetServerManifest(ctx, chi.URLParam(r, "name"), chi.URLParam(r, "server"))
	})
}

// getDeployedServerManifest handles GET /api/v1/servers/deployed/{name}/manifest
func (routes *Routes) getDeployedServerManifest(w http.ResponseWriter, r *http.Request) {
	routes.serveManifest(w, r, func(ctx context.Context) ([]byte, error) {
		return routes.service.GetDeployedServerManifest(ctx, namespaceParam(r), chi.URLParam(r, "name"))
	})
}

// getConfigMapManifest handles GET /api/v1/registries/{name}/configmap/manifest
func (routes *Routes) getConfigMapManifest(w http.ResponseWriter, r *http.Request) {
	routes.serveManifest(w, r, func(ctx context.Context) ([]byte, error) {
		return routes.service.GetConfigMapManifest(ctx, chi.URLParam(r, "name"))
	})
}

// serveManifest fetches a JSON manifest and renders it in the requested
// format, optionally with per-line fold metadata.
func (routes *Routes) serveManifest(
	w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]byte, error),
) {
	format, err := manifestFormat(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := fetch(r.Context())
	if err != nil {
		routes.writeServiceError(w, err, "Failed to get manifest")
		return
	}

	value, err := render.ParseJSON(data)
	if err != nil {
		common.WriteErrorResponse(w, "Manifest is not valid JSON: "+err.Error(), http.StatusBadGateway)
		return
	}

	response := ManifestResponse{Format: string(format)}
	switch format {
	case render.FormatJSON:
		response.Text = render.RenderJSON(value)
	case render.FormatYAML:
		response.Text = render.RenderYAMLLike(value)
	}

	if r.URL.Query().Get("lines") == "true" {
		response.Lines = render.ParseForFolding(response.Text, format)
	}

	common.WriteJSONResponse(w, response, http.StatusOK)
}

func manifestFormat(r *http.Request) (render.Format, error) {
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		return render.FormatJSON, nil
	case "yaml":
		return render.FormatYAML, nil
	default:
		return "", &unsupportedFormatError{format: format}
	}
}

type unsupportedFormatError struct {
	format string
}

func (e *unsupportedFormatError) Error() string {
	return "unsupported manifest format: " + e.format + " (expected json or yaml)"
}
