package sources

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/stacklok/toolhive-console/internal/config"
	"github.com/stacklok/toolhive-console/internal/git"
)

const (
	// DefaultRegistryDataFile is the default file name for the registry data in Git sources
	DefaultRegistryDataFile = "registry.json"
)

// GitSourceHandler handles registry data from Git repositories
type GitSourceHandler struct {
	gitClient git.Client
	validator SourceDataValidator
}

// NewGitSourceHandler creates a new Git source handler
func NewGitSourceHandler() *GitSourceHandler {
	return &GitSourceHandler{
		gitClient: git.NewDefaultGitClient(),
		validator: NewSourceDataValidator(),
	}
}

// Validate validates the Git source configuration
func (*GitSourceHandler) Validate(regConfig *config.RegistryConfig) error {
	if regConfig.Git == nil {
		return fmt.Errorf("git configuration is required for source type %s", config.SourceTypeGit)
	}

	gitSource := regConfig.Git

	if gitSource.Repository == "" {
		return fmt.Errorf("git repository URL cannot be empty")
	}

	// Validate mutually exclusive branch/tag/commit
	specified := 0
	if gitSource.Branch != "" {
		specified++
	}
	if gitSource.Tag != "" {
		specified++
	}
	if gitSource.Commit != "" {
		specified++
	}
	if specified > 1 {
		return fmt.Errorf("only one of branch, tag, or commit may be specified")
	}

	return nil
}

// fetchRegistryData clones the repository and reads the registry file
func (h *GitSourceHandler) fetchRegistryData(ctx context.Context, regConfig *config.RegistryConfig) ([]byte, error) {
	if err := h.Validate(regConfig); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	cloneConfig := &git.CloneConfig{
		URL:    regConfig.Git.Repository,
		Branch: regConfig.Git.Branch,
		Tag:    regConfig.Git.Tag,
		Commit: regConfig.Git.Commit,
	}

	startTime := time.Now()
	slog.Info("Starting git clone",
		"repository", cloneConfig.URL,
		"branch", cloneConfig.Branch,
		"tag", cloneConfig.Tag,
		"commit", cloneConfig.Commit)

	repoInfo, err := h.gitClient.Clone(ctx, cloneConfig)
	cloneDuration := time.Since(startTime)
	if err != nil {
		slog.Error("Git clone failed",
			"repository", cloneConfig.URL,
			"duration", cloneDuration.String(),
			"error", err)
		return nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	slog.Info("Git clone completed",
		"repository", cloneConfig.URL,
		"duration", cloneDuration.String(),
		"branch", repoInfo.Branch)

	defer func() {
		if cleanupErr := h.gitClient.Cleanup(ctx, repoInfo); cleanupErr != nil {
			slog.Warn("Failed to cleanup repository", "error", cleanupErr)
		}
	}()

	filePath := regConfig.Git.Path
	if filePath == "" {
		filePath = DefaultRegistryDataFile
	}

	registryData, err := h.gitClient.GetFileContent(repoInfo, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s from repository: %w", filePath, err)
	}

	return registryData, nil
}

// FetchRegistry retrieves registry data from the Git repository
func (h *GitSourceHandler) FetchRegistry(ctx context.Context, regConfig *config.RegistryConfig) (*FetchResult, error) {
	registryData, err := h.fetchRegistryData(ctx, regConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registry data: %w", err)
	}

	reg, err := h.validator.ValidateData(registryData)
	if err != nil {
		return nil, fmt.Errorf("registry data validation failed: %w", err)
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(registryData))
	return NewFetchResult(reg, registryData, hash), nil
}

// CurrentHash returns the current hash of the source data after fetching the registry data
func (h *GitSourceHandler) CurrentHash(ctx context.Context, regConfig *config.RegistryConfig) (string, error) {
	registryData, err := h.fetchRegistryData(ctx, regConfig)
	if err != nil {
		return "", fmt.Errorf("failed to fetch registry data: %w", err)
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(registryData))
	return hash, nil
}
