package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/jakoblorz/go-gbuild/internal/models"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// ExecRepository implements Repository using real git commands
type ExecRepository struct {
	root string
}

var _ Repository = (*ExecRepository)(nil)

// OpenExec opens the repository containing path using the git executable
func OpenExec(ctx context.Context, path string) (*ExecRepository, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, accessError("open repository", path, "", fmt.Errorf("git executable not found: %w", err))
	}

	out, err := runGit(ctx, path, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, accessError("open repository", path, "", err)
	}

	return &ExecRepository{root: strings.TrimSpace(out)}, nil
}

// runGit runs git in dir and returns stdout. Stderr is folded into the error.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("git %s: %w", args[0], err)
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
	}

	return out.String(), nil
}

func (g *ExecRepository) git(ctx context.Context, args ...string) (string, error) {
	return runGit(ctx, g.root, args...)
}

func (g *ExecRepository) Root() string {
	return g.root
}

// CurrentBranch returns the fully qualified name of the checked-out branch
func (g *ExecRepository) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.git(ctx, "symbolic-ref", "--quiet", "HEAD")
	if err != nil {
		return "", accessError("read current branch", g.root, "HEAD", err)
	}

	return strings.TrimSpace(out), nil
}

func (g *ExecRepository) ResolveRef(ctx context.Context, name string) (string, error) {
	out, err := g.git(ctx, "rev-parse", "--verify", "--quiet", name+"^{commit}")
	if err != nil {
		return "", accessError("resolve ref", g.root, name, err)
	}

	return strings.TrimSpace(out), nil
}

func (g *ExecRepository) MergeBase(ctx context.Context, a, b string) (string, error) {
	// Resolve first so an unknown ref is not mistaken for unrelated histories
	hashA, err := g.ResolveRef(ctx, a)
	if err != nil {
		return "", err
	}
	hashB, err := g.ResolveRef(ctx, b)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, "git", "merge-base", hashA, hashB)
	cmd.Dir = g.root

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		// merge-base exits 1 without output when there is no common ancestor
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", &NoCommonAncestorError{Head: a, Parent: b}
		}
		return "", accessError("merge-base", g.root, a+" "+b, err)
	}

	return strings.TrimSpace(out.String()), nil
}

// ListCommits lists commits in `excluding..from`, oldest first
func (g *ExecRepository) ListCommits(ctx context.Context, from, excluding string) ([]models.Commit, error) {
	revRange := from
	if excluding != "" {
		revRange = excluding + ".." + from
	}

	format := "--format=%H" + "%x1f" + "%aI" + "%x1f" + "%an <%ae>" + "%x1f" + "%B" + "%x1e"
	out, err := g.git(ctx, "log", "--reverse", "--topo-order", format, revRange, "--")
	if err != nil {
		return nil, accessError("list commits", g.root, revRange, err)
	}

	return parseLog(out)
}

// parseLog parses `git log` output produced with the ListCommits format
func parseLog(out string) ([]models.Commit, error) {
	var commits []models.Commit

	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}

		fields := strings.SplitN(record, fieldSep, 4)
		if len(fields) != 4 {
			return nil, fmt.Errorf("malformed log record: %q", record)
		}

		timestamp, err := time.Parse(time.RFC3339, fields[1])
		if err != nil {
			return nil, fmt.Errorf("failed to parse commit date %q: %w", fields[1], err)
		}

		commits = append(commits, models.Commit{
			ID:        fields[0],
			Timestamp: timestamp,
			Author:    fields[2],
			Message:   strings.TrimRight(fields[3], "\n"),
		})
	}

	return commits, nil
}

// ListChangedFiles returns the files changed by a commit relative to its first parent.
// Root commits report every file as added.
func (g *ExecRepository) ListChangedFiles(ctx context.Context, commitID string) ([]models.ChangedFile, error) {
	parents, err := g.git(ctx, "rev-list", "--parents", "-n", "1", commitID)
	if err != nil {
		return nil, accessError("list changed files", g.root, commitID, err)
	}

	args := []string{"diff-tree", "--no-commit-id", "--name-status", "-r", "-M"}
	if ids := strings.Fields(parents); len(ids) > 1 {
		args = append(args, ids[1], commitID)
	} else {
		args = append(args, "--root", commitID)
	}

	out, err := g.git(ctx, args...)
	if err != nil {
		return nil, accessError("list changed files", g.root, commitID, err)
	}

	return parseNameStatus(out), nil
}

// parseNameStatus parses `git diff-tree --name-status` output
func parseNameStatus(out string) []models.ChangedFile {
	var files []models.ChangedFile

	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}

		status := fields[0]
		switch status[0] {
		case 'A':
			files = append(files, models.ChangedFile{Path: fields[1], Kind: models.FileAdded})
		case 'D':
			files = append(files, models.ChangedFile{Path: fields[1], Kind: models.FileDeleted})
		case 'R', 'C':
			if len(fields) < 3 {
				continue
			}
			kind := models.FileRenamed
			if status[0] == 'C' {
				kind = models.FileAdded
			}
			files = append(files, models.ChangedFile{Path: fields[2], Kind: kind, OldPath: fields[1]})
		default:
			files = append(files, models.ChangedFile{Path: fields[1], Kind: models.FileModified})
		}
	}

	return files
}

// ListTags lists all tags ordered by creation date
func (g *ExecRepository) ListTags(ctx context.Context) ([]Tag, error) {
	format := "--format=%(refname:short)%1f%(objecttype)%1f%(*objectname)%1f%(objectname)%1f%(creatordate:iso-strict)%1f%(contents)%1e"
	out, err := g.git(ctx, "for-each-ref", "--sort=creatordate", format, "refs/tags")
	if err != nil {
		return nil, accessError("list tags", g.root, "refs/tags", err)
	}

	return parseTags(out)
}

// parseTags parses `git for-each-ref` output produced with the ListTags format
func parseTags(out string) ([]Tag, error) {
	var tags []Tag

	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}

		fields := strings.SplitN(record, fieldSep, 6)
		if len(fields) != 6 {
			return nil, fmt.Errorf("malformed tag record: %q", record)
		}

		name, objectType, peeled, object := fields[0], fields[1], fields[2], fields[3]

		timestamp, err := time.Parse(time.RFC3339, fields[4])
		if err != nil {
			return nil, fmt.Errorf("failed to parse date of tag %s: %w", name, err)
		}

		tag := Tag{Name: name, CommitID: object, Timestamp: timestamp}
		if objectType == "tag" {
			tag.CommitID = peeled
			tag.Message = strings.TrimRight(fields[5], "\n")
		}

		// Tags of trees or blobs carry no release
		if objectType != "tag" && objectType != "commit" {
			continue
		}

		tags = append(tags, tag)
	}

	return tags, nil
}
