package git

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// validationCacheTTL bounds how long a validation verdict is reused
	// before the remote is consulted again.
	validationCacheTTL = 5 * time.Minute

	validationCacheSweep = 10 * time.Minute
)

// ValidationResult is the outcome of a repository, branch, or file check.
type ValidationResult struct {
	// Valid reports whether the checked entity exists and is accessible
	Valid bool `json:"valid"`

	// Message carries a human-readable explanation for invalid results
	Message string `json:"message,omitempty"`
}

// Validator checks that Git coordinates entered in the console are usable
// before a registry source is configured with them. Verdicts are cached so
// repeated form edits do not hammer the remote.
type Validator struct {
	client Client
	cache  *gocache.Cache
}

// NewValidator creates a Validator backed by the given Git client.
func NewValidator(client Client) *Validator {
	return &Validator{
		client: client,
		cache:  gocache.New(validationCacheTTL, validationCacheSweep),
	}
}

// ValidateRepository checks that the repository at url exists and is
// reachable.
func (v *Validator) ValidateRepository(ctx context.Context, url string) ValidationResult {
	if url == "" {
		return ValidationResult{Valid: false, Message: "repository URL is required"}
	}

	key := "repo:" + url
	if cached, ok := v.cache.Get(key); ok {
		return cached.(ValidationResult)
	}

	result := ValidationResult{Valid: true}
	if _, err := v.client.ListRemoteRefs(ctx, url); err != nil {
		result = ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("repository is not accessible: %v", err),
		}
	}

	v.cache.SetDefault(key, result)
	return result
}

// ValidateBranch checks that the named branch exists in the repository.
func (v *Validator) ValidateBranch(ctx context.Context, url, branch string) ValidationResult {
	if url == "" || branch == "" {
		return ValidationResult{Valid: false, Message: "repository URL and branch are required"}
	}

	key := "branch:" + url + "#" + branch
	if cached, ok := v.cache.Get(key); ok {
		return cached.(ValidationResult)
	}

	result := v.checkBranch(ctx, url, branch)
	v.cache.SetDefault(key, result)
	return result
}

func (v *Validator) checkBranch(ctx context.Context, url, branch string) ValidationResult {
	refs, err := v.client.ListRemoteRefs(ctx, url)
	if err != nil {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("repository is not accessible: %v", err),
		}
	}

	for _, ref := range refs {
		if ref.Name().IsBranch() && ref.Name().Short() == branch {
			return ValidationResult{Valid: true}
		}
	}
	return ValidationResult{
		Valid:   false,
		Message: fmt.Sprintf("branch %q not found in repository", branch),
	}
}

// ValidateFile checks that the file at path exists on the given branch. This
// clones the repository, so results are cached aggressively.
func (v *Validator) ValidateFile(ctx context.Context, url, branch, path string) ValidationResult {
	if url == "" || path == "" {
		return ValidationResult{Valid: false, Message: "repository URL and file path are required"}
	}

	key := "file:" + url + "#" + branch + "#" + path
	if cached, ok := v.cache.Get(key); ok {
		return cached.(ValidationResult)
	}

	result := v.checkFile(ctx, url, branch, path)
	v.cache.SetDefault(key, result)
	return result
}

func (v *Validator) checkFile(ctx context.Context, url, branch, path string) ValidationResult {
	repoInfo, err := v.client.Clone(ctx, &CloneConfig{URL: url, Branch: branch})
	if err != nil {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("failed to clone repository: %v", err),
		}
	}
	defer func() {
		_ = v.client.Cleanup(ctx, repoInfo)
	}()

	if _, err := v.client.GetFileContent(repoInfo, path); err != nil {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("file %q not found: %v", path, err),
		}
	}
	return ValidationResult{Valid: true}
}
