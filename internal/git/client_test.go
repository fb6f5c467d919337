package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestRepo creates a local Git repository with the given files in a
// single commit and returns its path.
func createTestRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	repoDir := t.TempDir()

	repo, err := gogit.PlainInit(repoDir, false)
	require.NoError(t, err)

	workTree, err := repo.Worktree()
	require.NoError(t, err)

	for filename, content := range files {
		filePath := filepath.Join(repoDir, filename)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
		_, err = workTree.Add(filename)
		require.NoError(t, err)
	}

	_, err = workTree.Commit("Initial commit", &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return repoDir
}

func TestCloneAndGetFileContent(t *testing.T) {
	t.Parallel()

	repoDir := createTestRepo(t, map[string]string{
		"registry.json": `{"version":"1.0.0"}`,
		"docs/README":   "readme",
	})

	client := NewDefaultGitClient()
	repoInfo, err := client.Clone(context.Background(), &CloneConfig{URL: repoDir})
	require.NoError(t, err)
	defer func() {
		_ = client.Cleanup(context.Background(), repoInfo)
	}()

	assert.Equal(t, repoDir, repoInfo.RemoteURL)
	assert.NotEmpty(t, repoInfo.CommitHash)

	content, err := client.GetFileContent(repoInfo, "registry.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.0.0"}`, string(content))

	nested, err := client.GetFileContent(repoInfo, "docs/README")
	require.NoError(t, err)
	assert.Equal(t, "readme", string(nested))

	_, err = client.GetFileContent(repoInfo, "missing.json")
	assert.Error(t, err)
}

func TestCloneMissingRepository(t *testing.T) {
	t.Parallel()

	client := NewDefaultGitClient()
	_, err := client.Clone(context.Background(), &CloneConfig{
		URL: filepath.Join(t.TempDir(), "does-not-exist"),
	})
	assert.Error(t, err)
}

func TestListRemoteRefs(t *testing.T) {
	t.Parallel()

	repoDir := createTestRepo(t, map[string]string{"registry.json": "{}"})

	client := NewDefaultGitClient()
	refs, err := client.ListRemoteRefs(context.Background(), repoDir)
	require.NoError(t, err)
	assert.NotEmpty(t, refs)
}

func TestCleanup(t *testing.T) {
	t.Parallel()

	repoDir := createTestRepo(t, map[string]string{"registry.json": "{}"})

	client := NewDefaultGitClient()
	repoInfo, err := client.Clone(context.Background(), &CloneConfig{URL: repoDir})
	require.NoError(t, err)

	require.NoError(t, client.Cleanup(context.Background(), repoInfo))
	assert.Nil(t, repoInfo.Repository)

	// Second cleanup reports the repository is gone.
	assert.Error(t, client.Cleanup(context.Background(), repoInfo))
}
