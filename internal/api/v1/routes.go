// Package v1 provides the console REST API handlers.
package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/toolhive-console/internal/api/common"
	"github.com/stacklok/toolhive-console/internal/git"
	"github.com/stacklok/toolhive-console/internal/service"
)

// Routes handles HTTP requests for the console API
type Routes struct {
	service      service.ConsoleService
	gitValidator *git.Validator
}

// NewRoutes creates a new Routes instance with the given service
func NewRoutes(svc service.ConsoleService, gitValidator *git.Validator) *Routes {
	return &Routes{
		service:      svc,
		gitValidator: gitValidator,
	}
}

// Router creates and configures the HTTP router for the console API
func Router(svc service.ConsoleService, gitValidator *git.Validator) http.Handler {
	routes := NewRoutes(svc, gitValidator)

	r := chi.NewRouter()

	r.Get("/registries", routes.listRegistries)
	r.Route("/registries/{name}", func(r chi.Router) {
		r.Get("/", routes.getRegistry)
		r.Get("/manifest", routes.getRegistryManifest)
		r.Get("/configmap/manifest", routes.getConfigMapManifest)
		r.Post("/force-sync", routes.forceSync)
		r.Get("/servers", routes.listServers)
		r.Get("/deployed-servers", routes.listDeployedServers)
		r.Route("/servers/{server}", func(r chi.Router) {
			r.Get("/", routes.getServer)
			r.Get("/manifest", routes.getServerManifest)
			r.Post("/deploy", routes.deployServer)
		})
	})

	r.Get("/servers/deployed/{name}", routes.getDeployedServer)
	r.Get("/servers/deployed/{name}/manifest", routes.getDeployedServerManifest)
	r.Delete("/servers/{name}", routes.deleteServer)

	r.Post("/validation/git/repository", routes.validateGitRepository)
	r.Post("/validation/git/branch", routes.validateGitBranch)
	r.Post("/validation/git/file", routes.validateGitFile)

	return r
}

// listRegistries handles GET /api/v1/registries
func (routes *Routes) listRegistries(w http.ResponseWriter, r *http.Request) {
	summaries, err := routes.service.ListRegistries(r.Context())
	if err != nil {
		routes.writeServiceError(w, err, "Failed to list registries")
		return
	}

	if namespace := r.URL.Query().Get("namespace"); namespace != "" {
		filtered := summaries[:0]
		for _, s := range summaries {
			if s.Namespace == namespace {
				filtered = append(filtered, s)
			}
		}
		summaries = filtered
	}

	common.WriteJSONResponse(w, map[string]any{"registries": summaries}, http.StatusOK)
}

// getRegistry handles GET /api/v1/registries/{name}
func (routes *Routes) getRegistry(w http.ResponseWriter, r *http.Request) {
	summary, err := routes.service.GetRegistry(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		routes.writeServiceError(w, err, "Failed to get registry")
		return
	}
	common.WriteJSONResponse(w, summary, http.StatusOK)
}

// forceSync handles POST /api/v1/registries/{name}/force-sync
func (routes *Routes) forceSync(w http.ResponseWriter, r *http.Request) {
	syncStatus, err := routes.service.ForceSync(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		routes.writeServiceError(w, err, "Failed to trigger sync")
		return
	}
	common.WriteJSONResponse(w, syncStatus, http.StatusAccepted)
}

// listServers handles GET /api/v1/registries/{name}/servers
func (routes *Routes) listServers(w http.ResponseWriter, r *http.Request) {
	var opts []service.ListOption

	query := r.URL.Query()
	if cursor := query.Get("cursor"); cursor != "" {
		opts = append(opts, service.WithCursor(cursor))
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			common.WriteErrorResponse(w, "Invalid limit parameter: must be an integer", http.StatusBadRequest)
			return
		}
		opts = append(opts, service.WithLimit(limit))
	}

	page, err := routes.service.ListServers(r.Context(), chi.URLParam(r, "name"), opts...)
	if err != nil {
		routes.writeServiceError(w, err, "Failed to list servers")
		return
	}
	common.WriteJSONResponse(w, page, http.StatusOK)
}

// getServer handles GET /api/v1/registries/{name}/servers/{server}
func (routes *Routes) getServer(w http.ResponseWriter, r *http.Request) {
	srv, err := routes.service.GetServer(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "server"))
	if err != nil {
		routes.writeServiceError(w, err, "Failed to get server")
		return
	}
	common.WriteJSONResponse(w, srv, http.StatusOK)
}

// listDeployedServers handles GET /api/v1/registries/{name}/deployed-servers
func (routes *Routes) listDeployedServers(w http.ResponseWriter, r *http.Request) {
	servers, err := routes.service.ListDeployedServers(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		routes.writeServiceError(w, err, "Failed to list deployed servers")
		return
	}
	common.WriteJSONResponse(w, map[string]any{"servers": servers}, http.StatusOK)
}

// getDeployedServer handles GET /api/v1/servers/deployed/{name}
func (routes *Routes) getDeployedServer(w http.ResponseWriter, r *http.Request) {
	server, err := routes.service.GetDeployedServer(
		r.Context(), namespaceParam(r), chi.URLParam(r, "name"))
	if err != nil {
		routes.writeServiceError(w, err, "Failed to get deployed server")
		return
	}
	common.WriteJSONResponse(w, server, http.StatusOK)
}

// deployServer handles POST /api/v1/registries/{name}/servers/{server}/deploy
func (routes *Routes) deployServer(w http.ResponseWriter, r *http.Request) {
	var req service.DeployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := routes.service.DeployServer(
		r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "server"), &req)
	if err != nil {
		routes.writeServiceError(w, err, "Failed to deploy server")
		return
	}
	common.WriteJSONResponse(w, result, http.StatusCreated)
}

// deleteServer handles DELETE /api/v1/servers/{name}
func (routes *Routes) deleteServer(w http.ResponseWriter, r *http.Request) {
	err := routes.service.DeleteServer(r.Context(), namespaceParam(r), chi.URLParam(r, "name"))
	if err != nil {
		routes.writeServiceError(w, err, "Failed to delete server")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// namespaceParam reads the namespace query parameter, defaulting to "default"
func namespaceParam(r *http.Request) string {
	if ns := r.URL.Query().Get("namespace"); ns != "" {
		return ns
	}
	return "default"
}

// writeServiceError maps service errors to HTTP status codes
func (*Routes) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrRegistryNotFound),
		errors.Is(err, service.ErrServerNotFound),
		errors.Is(err, service.ErrDeploymentNotFound):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrMissingRequiredEnvVar),
		errors.Is(err, service.ErrInvalidDeployRequest),
		errors.Is(err, service.ErrServerNotDeployable):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrRegistryNotSynced):
		common.WriteErrorResponse(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, service.ErrKubernetesUnavailable):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadGateway)
	default:
		slog.Error(fallback, "error", err)
		common.WriteErrorResponse(w, fallback, http.StatusInternalServerError)
	}
}
