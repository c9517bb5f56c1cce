package git

import (
	"context"
	"fmt"
	"time"

	"github.com/jakoblorz/go-gbuild/internal/models"
)

// Backend names a Repository implementation.
type Backend string

const (
	// BackendGoGit reads the object store in-process via go-git.
	BackendGoGit Backend = "go-git"

	// BackendExec shells out to the git executable.
	BackendExec Backend = "exec"
)

// Tag is a repository tag as reported by the backend.
type Tag struct {
	Name string

	// Message is the annotation of an annotated tag, empty for lightweight tags
	Message string

	// CommitID is the commit the tag (eventually) points to
	CommitID string

	// Timestamp is the tagger date for annotated tags, the commit date otherwise
	Timestamp time.Time
}

// Repository provides read access to the version-control store.
//
// Ref arguments accept fully qualified names ("refs/heads/develop"), short
// names ("develop"), tag names and commit hashes.
type Repository interface {
	// Root returns the repository working tree root.
	Root() string

	// CurrentBranch returns the fully qualified name of the checked-out branch.
	CurrentBranch(ctx context.Context) (string, error)

	// ResolveRef resolves a ref name to a commit hash.
	ResolveRef(ctx context.Context, name string) (string, error)

	// MergeBase returns the best common ancestor of two refs.
	// Returns *NoCommonAncestorError if the histories are unrelated.
	MergeBase(ctx context.Context, a, b string) (string, error)

	// ListCommits returns commits reachable from `from` but not from `excluding`,
	// oldest first. An empty `excluding` lists the whole history of `from`.
	ListCommits(ctx context.Context, from, excluding string) ([]models.Commit, error)

	// ListChangedFiles returns the files changed by a commit relative to its first parent.
	ListChangedFiles(ctx context.Context, commitID string) ([]models.ChangedFile, error)

	// ListTags returns all tags in backend order.
	ListTags(ctx context.Context) ([]Tag, error)
}

// Open opens the repository containing path with the given backend.
// An empty backend selects go-git.
func Open(ctx context.Context, path string, backend Backend) (Repository, error) {
	switch backend {
	case "", BackendGoGit:
		return OpenGoGit(path)
	case BackendExec:
		return OpenExec(ctx, path)
	default:
		return nil, fmt.Errorf("unknown repository backend %q (must be %s or %s)", backend, BackendGoGit, BackendExec)
	}
}
