package v1

import (
	"encoding/json"
	"net/http"

	"github.com/stacklok/toolhive-console/internal/api/common"
)

// GitValidationRequest is the body of the Git validation endpoints
type GitValidationRequest struct {
	// Repository is the Git repository URL
	Repository string `json:"repository"`

	// Branch is the branch to check (branch and file validation)
	Branch string `json:"branch,omitempty"`

	// Path is the file path to check within the repository (file validation)
	Path string `json:"path,omitempty"`
}

// validateGitRepository handles POST /api/v1/validation/git/repository
func (routes *Routes) validateGitRepository(w http.ResponseWriter, r *http.Request) {
	req, ok := routes.decodeGitValidationRequest(w, r)
	if !ok {
		return
	}

	result := routes.gitValidator.ValidateRepository(r.Context(), req.Repository)
	common.WriteJSONResponse(w, result, http.StatusOK)
}

// validateGitBranch handles POST /api/v1/validation/git/branch
func (routes *Routes) validateGitBranch(w http.ResponseWriter, r *http.Request) {
	req, ok := routes.decodeGitValidationRequest(w, r)
	if !ok {
		return
	}
	if req.Branch == "" {
		common.WriteErrorResponse(w, "branch is required", http.StatusBadRequest)
		return
	}

	result := routes.gitValidator.ValidateBranch(r.Context(), req.Repository, req.Branch)
	common.WriteJSONResponse(w, result, http.StatusOK)
}

// validateGitFile handles POST /api/v1/validation/git/file
func (routes *Routes) validateGitFile(w http.ResponseWriter, r *http.Request) {
	req, ok := routes.decodeGitValidationRequest(w, r)
	if !ok {
		return
	}
	if req.Path == "" {
		common.WriteErrorResponse(w, "path is required", http.StatusBadRequest)
		return
	}

	result := routes.gitValidator.ValidateFile(r.Context(), req.Repository, req.Branch, req.Path)
	common.WriteJSONResponse(w, result, http.StatusOK)
}

// decodeGitValidationRequest parses the shared request body and rejects the
// call when validation support is not configured.
func (routes *Routes) decodeGitValidationRequest(
	w http.ResponseWriter, r *http.Request,
) (*GitValidationRequest, bool) {
	if routes.gitValidator == nil {
		common.WriteErrorResponse(w, "Git validation is not configured", http.StatusNotImplemented)
		return nil, false
	}

	var req GitValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteErrorResponse(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if req.Repository == "" {
		common.WriteErrorResponse(w, "repository is required", http.StatusBadRequest)
		return nil, false
	}

	return &req, true
}
