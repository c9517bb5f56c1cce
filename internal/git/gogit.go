package git

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/jakoblorz/go-gbuild/internal/models"
)

// GoGitRepository implements Repository by reading the object store in-process
type GoGitRepository struct {
	root string
	repo *gogit.Repository
}

var _ Repository = (*GoGitRepository)(nil)

// OpenGoGit opens the repository containing path, searching parent directories for .git
func OpenGoGit(path string) (*GoGitRepository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, accessError("open repository", path, "", err)
	}

	root := path
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}

	return &GoGitRepository{root: root, repo: repo}, nil
}

func (g *GoGitRepository) Root() string {
	return g.root
}

func (g *GoGitRepository) CurrentBranch(_ context.Context) (string, error) {
	head, err := g.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", accessError("read current branch", g.root, "HEAD", err)
	}

	if head.Type() != plumbing.SymbolicReference {
		return "", accessError("read current branch", g.root, "HEAD", fmt.Errorf("HEAD is detached"))
	}

	return head.Target().String(), nil
}

func (g *GoGitRepository) ResolveRef(_ context.Context, name string) (string, error) {
	hash, err := g.resolve(name)
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

func (g *GoGitRepository) resolve(name string) (plumbing.Hash, error) {
	hash, err := g.repo.ResolveRevision(plumbing.Revision(name))
	if err != nil {
		return plumbing.ZeroHash, accessError("resolve ref", g.root, name, err)
	}

	// Annotated tags resolve to the tag object, peel to the commit
	if tag, err := g.repo.TagObject(*hash); err == nil {
		commit, err := tag.Commit()
		if err != nil {
			return plumbing.ZeroHash, accessError("resolve ref", g.root, name, err)
		}
		return commit.Hash, nil
	}

	return *hash, nil
}

func (g *GoGitRepository) commit(name string) (*object.Commit, error) {
	hash, err := g.resolve(name)
	if err != nil {
		return nil, err
	}

	commit, err := g.repo.CommitObject(hash)
	if err != nil {
		return nil, accessError("read commit", g.root, name, err)
	}
	return commit, nil
}

func (g *GoGitRepository) MergeBase(_ context.Context, a, b string) (string, error) {
	commitA, err := g.commit(a)
	if err != nil {
		return "", err
	}
	commitB, err := g.commit(b)
	if err != nil {
		return "", err
	}

	bases, err := commitA.MergeBase(commitB)
	if err != nil {
		return "", accessError("merge-base", g.root, a+" "+b, err)
	}
	if len(bases) == 0 {
		return "", &NoCommonAncestorError{Head: a, Parent: b}
	}

	return bases[0].Hash.String(), nil
}

// ancestors collects every commit reachable from start (inclusive)
func (g *GoGitRepository) ancestors(ctx context.Context, start *object.Commit) (map[plumbing.Hash]bool, error) {
	seen := make(map[plumbing.Hash]bool)

	iter := object.NewCommitPreorderIter(start, nil, nil)
	defer iter.Close()

	err := iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen[c.Hash] = true
		return nil
	})
	return seen, err
}

func (g *GoGitRepository) ListCommits(ctx context.Context, from, excluding string) ([]models.Commit, error) {
	head, err := g.commit(from)
	if err != nil {
		return nil, err
	}

	excluded := map[plumbing.Hash]bool{}
	if excluding != "" {
		base, err := g.commit(excluding)
		if err != nil {
			return nil, err
		}
		if excluded, err = g.ancestors(ctx, base); err != nil {
			return nil, accessError("list commits", g.root, excluding, err)
		}
	}

	// Newest first, then reversed; committer time order keeps parents after children
	// for ordinary histories
	iter, err := g.repo.Log(&gogit.LogOptions{From: head.Hash, Order: gogit.LogOrderCommitterTime})
	if err != nil {
		return nil, accessError("list commits", g.root, from, err)
	}
	defer iter.Close()

	var commits []models.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if excluded[c.Hash] {
			return nil
		}
		commits = append(commits, toCommit(c))
		return nil
	})
	if err != nil {
		return nil, accessError("list commits", g.root, from, err)
	}

	for i, j := 0, len(commits)-1; i < j; i, j = i+1, j-1 {
		commits[i], commits[j] = commits[j], commits[i]
	}

	return commits, nil
}

func toCommit(c *object.Commit) models.Commit {
	return models.Commit{
		ID:        c.Hash.String(),
		Message:   strings.TrimRight(c.Message, "\n"),
		Timestamp: c.Author.When,
		Author:    fmt.Sprintf("%s <%s>", c.Author.Name, c.Author.Email),
	}
}

func (g *GoGitRepository) ListChangedFiles(ctx context.Context, commitID string) ([]models.ChangedFile, error) {
	commit, err := g.repo.CommitObject(plumbing.NewHash(commitID))
	if err != nil {
		return nil, accessError("list changed files", g.root, commitID, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, accessError("list changed files", g.root, commitID, err)
	}

	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, accessError("list changed files", g.root, commitID, err)
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, accessError("list changed files", g.root, commitID, err)
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, tree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, accessError("list changed files", g.root, commitID, err)
	}

	files := make([]models.ChangedFile, 0, len(changes))
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return nil, accessError("list changed files", g.root, commitID, err)
		}

		switch action {
		case merkletrie.Insert:
			files = append(files, models.ChangedFile{Path: change.To.Name, Kind: models.FileAdded})
		case merkletrie.Delete:
			files = append(files, models.ChangedFile{Path: change.From.Name, Kind: models.FileDeleted})
		default:
			if change.From.Name != change.To.Name {
				files = append(files, models.ChangedFile{Path: change.To.Name, Kind: models.FileRenamed, OldPath: change.From.Name})
			} else {
				files = append(files, models.ChangedFile{Path: change.To.Name, Kind: models.FileModified})
			}
		}
	}

	return files, nil
}

func (g *GoGitRepository) ListTags(ctx context.Context) ([]Tag, error) {
	refs, err := g.repo.Tags()
	if err != nil {
		return nil, accessError("list tags", g.root, "refs/tags", err)
	}
	defer refs.Close()

	var tags []Tag
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		tag, ok, err := g.readTag(ref)
		if err != nil {
			return err
		}
		if ok {
			tags = append(tags, tag)
		}
		return nil
	})
	if err != nil {
		return nil, accessError("list tags", g.root, "refs/tags", err)
	}

	// Match `git for-each-ref --sort=creatordate`
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].Timestamp.Before(tags[j].Timestamp)
	})

	return tags, nil
}

// readTag reads a tag ref; ok is false for tags not pointing at a commit
func (g *GoGitRepository) readTag(ref *plumbing.Reference) (Tag, bool, error) {
	name := ref.Name().Short()

	annotated, err := g.repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		commit, err := annotated.Commit()
		if errors.Is(err, object.ErrUnsupportedObject) {
			return Tag{}, false, nil
		}
		if err != nil {
			return Tag{}, false, fmt.Errorf("failed to peel tag %s: %w", name, err)
		}
		return Tag{
			Name:      name,
			Message:   strings.TrimRight(annotated.Message, "\n"),
			CommitID:  commit.Hash.String(),
			Timestamp: annotated.Tagger.When,
		}, true, nil

	case errors.Is(err, plumbing.ErrObjectNotFound):
		// Lightweight tag
		commit, err := g.repo.CommitObject(ref.Hash())
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return Tag{}, false, nil
		}
		if err != nil {
			return Tag{}, false, fmt.Errorf("failed to read commit of tag %s: %w", name, err)
		}
		return Tag{
			Name:      name,
			CommitID:  commit.Hash.String(),
			Timestamp: commit.Committer.When,
		}, true, nil

	default:
		return Tag{}, false, fmt.Errorf("failed to read tag %s: %w", name, err)
	}
}
