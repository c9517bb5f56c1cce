package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/jakoblorz/go-gbuild/internal/filesystem"
	"github.com/jakoblorz/go-gbuild/internal/git"
	"github.com/jakoblorz/go-gbuild/internal/workspace"
	"github.com/stretchr/testify/require"
)

const testRepoRoot = "/repo"

// fixture is a repository with two projects: api (with a go.mod) and web.
type fixture struct {
	fs   *filesystem.MockFileSystem
	repo *git.MockRepository

	openedRoot    string
	openedBackend git.Backend
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fs := workspace.NewWorkspaceBuilder(testRepoRoot).
		AddProject("api", "github.com/example/api").
		AddProject("web", "").
		Build()
	fs.AddDir(testRepoRoot + "/.git")

	return &fixture{
		fs:   fs,
		repo: git.NewMockRepository(testRepoRoot),
	}
}

// withReleases releases api 1.2.0 and web 2.4.0 on master and checks out develop
func (f *fixture) withReleases(t *testing.T) *fixture {
	t.Helper()

	f.repo.CreateCommit("feat: first api endpoint", "src/api/main.go")
	f.repo.CreateCommit("feat: landing page", "src/web/index.html")
	require.NoError(t, f.repo.AddTag("api/1.2.0", ""))
	require.NoError(t, f.repo.AddTag("web/2.4.0", ""))

	require.NoError(t, f.repo.CreateBranch("develop"))
	require.NoError(t, f.repo.CheckoutBranch("develop"))
	return f
}

func (f *fixture) open(_ context.Context, root string, backend git.Backend) (git.Repository, error) {
	f.openedRoot = root
	f.openedBackend = backend
	return f.repo, nil
}

func (f *fixture) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(f.fs, f.open, &GlobalFlags{})
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
