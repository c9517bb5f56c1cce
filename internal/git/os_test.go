package git_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jakoblorz/go-gbuild/internal/git"
	"github.com/jakoblorz/go-gbuild/internal/models"
	"github.com/stretchr/testify/require"
)

var baseDate = time.Date(2024, time.February, 1, 10, 0, 0, 0, time.UTC)

// testRepo is a real repository on disk with a deterministic clock
type testRepo struct {
	t    *testing.T
	dir  string
	tick int
}

// setupTestRepo creates a temporary git repository for testing
func setupTestRepo(t *testing.T) *testRepo {
	t.Helper()

	// Check if git is available
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available in PATH")
	}

	r := &testRepo{t: t, dir: t.TempDir()}

	// Initialize git repo with main as default branch
	r.git("init", "-b", "main")
	r.git("config", "user.name", "Test User")
	r.git("config", "user.email", "test@example.com")
	r.git("config", "tag.gpgSign", "false")
	r.git("config", "commit.gpgSign", "false")

	r.write("README.md", "# Test Repo")
	r.commit("Initial commit")

	return r
}

// git runs a git command with author and committer dates one minute after the previous command
func (r *testRepo) git(args ...string) string {
	r.t.Helper()

	r.tick++
	date := baseDate.Add(time.Duration(r.tick) * time.Minute).Format(time.RFC3339)

	cmd := exec.Command("git", args...)
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_DATE="+date,
		"GIT_COMMITTER_DATE="+date,
	)
	output, err := cmd.CombinedOutput()
	require.NoErrorf(r.t, err, "git %v failed\nOutput: %s", args, output)
	return strings.TrimSpace(string(output))
}

// write writes content to a file, creating parent directories
func (r *testRepo) write(filename, content string) {
	r.t.Helper()
	path := filepath.Join(r.dir, filename)
	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoErrorf(r.t, os.WriteFile(path, []byte(content), 0644), "failed to write file %s", path)
}

// commit stages everything and commits, returning the new hash
func (r *testRepo) commit(message string) string {
	r.t.Helper()
	r.git("add", "-A")
	r.git("commit", "-m", message)
	return r.git("rev-parse", "HEAD")
}

type backendFactory struct {
	name string
	open func(t *testing.T, dir string) git.Repository
}

var backends = []backendFactory{
	{"exec", func(t *testing.T, dir string) git.Repository {
		repo, err := git.OpenExec(context.Background(), dir)
		require.NoError(t, err)
		return repo
	}},
	{"go-git", func(t *testing.T, dir string) git.Repository {
		repo, err := git.OpenGoGit(dir)
		require.NoError(t, err)
		return repo
	}},
}

func forEachBackend(t *testing.T, fn func(t *testing.T, r *testRepo, repo git.Repository)) {
	for _, backend := range backends {
		t.Run(backend.name, func(t *testing.T) {
			if testing.Short() {
				t.Skip("Skipping integration test in short mode")
			}

			r := setupTestRepo(t)
			fn(t, r, backend.open(t, r.dir))
		})
	}
}

func TestRepository_CurrentBranchAndResolve(t *testing.T) {
	forEachBackend(t, func(t *testing.T, r *testRepo, repo git.Repository) {
		ctx := context.Background()
		head := r.git("rev-parse", "HEAD")

		branch, err := repo.CurrentBranch(ctx)
		require.NoError(t, err)
		require.Equal(t, "refs/heads/main", branch)

		for _, name := range []string{"HEAD", "main", "refs/heads/main", head} {
			hash, err := repo.ResolveRef(ctx, name)
			require.NoErrorf(t, err, "resolve %s", name)
			require.Equalf(t, head, hash, "resolve %s", name)
		}

		_, err = repo.ResolveRef(ctx, "refs/heads/missing")
		var accessErr *git.RepositoryAccessError
		require.ErrorAs(t, err, &accessErr)
		require.Equal(t, "refs/heads/missing", accessErr.Ref)
	})
}

func TestRepository_ResolveAnnotatedTagPeelsToCommit(t *testing.T) {
	forEachBackend(t, func(t *testing.T, r *testRepo, repo git.Repository) {
		head := r.git("rev-parse", "HEAD")
		r.git("tag", "-a", "release-1", "-m", "first release")

		hash, err := repo.ResolveRef(context.Background(), "refs/tags/release-1")
		require.NoError(t, err)
		require.Equal(t, head, hash)
	})
}

func TestRepository_ListCommits(t *testing.T) {
	forEachBackend(t, func(t *testing.T, r *testRepo, repo git.Repository) {
		ctx := context.Background()

		r.write("src/api/main.go", "package main")
		r.commit("feat: add api")
		r.git("checkout", "-b", "feature/login")
		r.write("src/api/login.go", "package main")
		r.commit("feat: add login\n\nwith a body")
		r.write("src/web/index.html", "<html></html>")
		r.commit("fix: web page")

		all, err := repo.ListCommits(ctx, "HEAD", "")
		require.NoError(t, err)
		require.Equal(t, []string{"Initial commit", "feat: add api", "feat: add login", "fix: web page"}, subjects(all))
		require.Equal(t, "feat: add login\n\nwith a body", all[2].Message)
		require.Equal(t, "Test User <test@example.com>", all[2].Author)
		require.True(t, all[0].Timestamp.Before(all[3].Timestamp))

		ahead, err := repo.ListCommits(ctx, "HEAD", "refs/heads/main")
		require.NoError(t, err)
		require.Equal(t, []string{"feat: add login", "fix: web page"}, subjects(ahead))

		none, err := repo.ListCommits(ctx, "refs/heads/main", "HEAD")
		require.NoError(t, err)
		require.Empty(t, none)
	})
}

func TestRepository_MergeBase(t *testing.T) {
	forEachBackend(t, func(t *testing.T, r *testRepo, repo git.Repository) {
		ctx := context.Background()

		branchPoint := r.git("rev-parse", "HEAD")
		r.git("checkout", "-b", "develop")
		r.write("a.txt", "a")
		r.commit("on develop")
		r.git("checkout", "main")
		r.write("b.txt", "b")
		r.commit("on main")

		base, err := repo.MergeBase(ctx, "refs/heads/develop", "refs/heads/main")
		require.NoError(t, err)
		require.Equal(t, branchPoint, base)
	})
}

func TestRepository_MergeBase_UnrelatedHistories(t *testing.T) {
	forEachBackend(t, func(t *testing.T, r *testRepo, repo git.Repository) {
		r.git("checkout", "--orphan", "unrelated")
		r.git("rm", "-rf", ".")
		r.write("other.txt", "other")
		r.commit("unrelated root")

		_, err := repo.MergeBase(context.Background(), "refs/heads/unrelated", "refs/heads/main")
		var noAncestor *git.NoCommonAncestorError
		require.ErrorAs(t, err, &noAncestor)
		require.Equal(t, "refs/heads/unrelated", noAncestor.Head)
		require.Equal(t, "refs/heads/main", noAncestor.Parent)
	})
}

func TestRepository_ListChangedFiles(t *testing.T) {
	forEachBackend(t, func(t *testing.T, r *testRepo, repo git.Repository) {
		ctx := context.Background()

		root := r.git("rev-list", "--max-parents=0", "HEAD")
		files, err := repo.ListChangedFiles(ctx, root)
		require.NoError(t, err)
		require.Equal(t, []models.ChangedFile{{Path: "README.md", Kind: models.FileAdded}}, files)

		r.write("src/api/main.go", "package main\n\nfunc main() {}\n")
		r.write("src/api/util.go", "package main\n\n// util helpers live here\nfunc helper() string { return \"helper\" }\n")
		r.write("src/web/index.html", "<h1>web</h1>\n")
		r.commit("add api and web")

		r.write("README.md", "# Changed")
		r.git("rm", "-q", "src/api/main.go")
		r.git("mv", "src/api/util.go", "src/web/util.go")
		hash := r.commit("rework")

		files, err = repo.ListChangedFiles(ctx, hash)
		require.NoError(t, err)
		require.ElementsMatch(t, []models.ChangedFile{
			{Path: "README.md", Kind: models.FileModified},
			{Path: "src/api/main.go", Kind: models.FileDeleted},
			{Path: "src/web/util.go", Kind: models.FileRenamed, OldPath: "src/api/util.go"},
		}, files)
	})
}

func TestRepository_ListTags(t *testing.T) {
	forEachBackend(t, func(t *testing.T, r *testRepo, repo git.Repository) {
		first := r.git("rev-parse", "HEAD")
		r.git("tag", "api/1.0.0")

		r.write("x.txt", "x")
		second := r.commit("second")
		r.git("tag", "-a", "release-2", "-m", "---\napi: 1.1.0\n---\nnotes")

		tags, err := repo.ListTags(context.Background())
		require.NoError(t, err)
		require.Len(t, tags, 2)

		require.Equal(t, "api/1.0.0", tags[0].Name)
		require.Equal(t, first, tags[0].CommitID)
		require.Empty(t, tags[0].Message)

		require.Equal(t, "release-2", tags[1].Name)
		require.Equal(t, second, tags[1].CommitID)
		require.Equal(t, "---\napi: 1.1.0\n---\nnotes", tags[1].Message)
		require.True(t, tags[0].Timestamp.Before(tags[1].Timestamp))
	})
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := git.Open(context.Background(), t.TempDir(), git.Backend("svn"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown repository backend")
}

func TestOpen_NotARepository(t *testing.T) {
	_, err := git.Open(context.Background(), t.TempDir(), git.BackendGoGit)

	var accessErr *git.RepositoryAccessError
	require.True(t, errors.As(err, &accessErr), fmt.Sprintf("unexpected error %T", err))
	require.Equal(t, "open repository", accessErr.Op)
}

func subjects(commits []models.Commit) []string {
	out := make([]string, 0, len(commits))
	for _, c := range commits {
		out = append(out, c.Subject())
	}
	return out
}
