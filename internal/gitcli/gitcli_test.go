package gitcli

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gitRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	_, err := Runner{}.Run(context.Background(), dir, "init", "-b", "main")
	require.NoError(t, err)
	return dir
}

func TestTopLevel(t *testing.T) {
	dir := gitRepo(t)

	top, err := Runner{}.TopLevel(context.Background(), dir)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(top)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCurrentBranch(t *testing.T) {
	dir := gitRepo(t)

	branch, err := Runner{}.CurrentBranch(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestRunSurfacesStderr(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	_, err := Runner{}.TopLevel(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rev-parse")
}

func TestRunHonorsContext(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Runner{}.TopLevel(ctx, t.TempDir())
	assert.Error(t, err)
}
