package history

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jakoblorz/go-gbuild/internal/git"
	"github.com/jakoblorz/go-gbuild/internal/models"
	"github.com/jakoblorz/go-gbuild/internal/strategy"
)

const head = "HEAD"

// CommitHistoryAnalyser summarises the commits unique to the checked-out branch.
type CommitHistoryAnalyser struct {
	classifier   Classifier
	since        string
	projectSince map[models.Project]string
}

// Option configures a CommitHistoryAnalyser
type Option func(*CommitHistoryAnalyser)

// WithClassifier replaces the default conventional-commit classifier.
func WithClassifier(c Classifier) Option {
	return func(a *CommitHistoryAnalyser) {
		a.classifier = c
	}
}

// WithSince sets the lower bound used for root strategies (typically the latest
// release commit). Without it a root strategy analyses the whole history.
func WithSince(ref string) Option {
	return func(a *CommitHistoryAnalyser) {
		a.since = ref
	}
}

// WithProjectSince gives projects their own lower bound on root strategies,
// usually the commit of the newest release that tagged the project. Projects
// without one use the WithSince bound.
func WithProjectSince(bounds map[models.Project]string) Option {
	return func(a *CommitHistoryAnalyser) {
		a.projectSince = bounds
	}
}

// NewCommitHistoryAnalyser creates an analyser.
func NewCommitHistoryAnalyser(opts ...Option) *CommitHistoryAnalyser {
	a := &CommitHistoryAnalyser{
		classifier: DefaultClassifier(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyseCommitLog analyses the commits in parent..HEAD, where parent is the
// strategy's parent branch, and attributes them to projects by changed path.
//
// A root strategy has no parent: the range starts at the WithSince bound, and a
// project with its own bound only collects the commits above that bound.
func (a *CommitHistoryAnalyser) AnalyseCommitLog(ctx context.Context, s *strategy.BranchVersioningStrategy, repo git.Repository, projects []models.Project) (models.CommitHistoryAnalysis, error) {
	lower := a.since
	if parent := s.ParentRef(); parent != "" {
		if _, err := repo.MergeBase(ctx, head, parent); err != nil {
			return models.CommitHistoryAnalysis{}, fmt.Errorf("failed to find fork point of %s: %w", parent, err)
		}
		lower = parent
	}

	bounds := make(map[models.Project]string, len(projects))
	for _, project := range projects {
		bounds[project] = lower
		if bound, ok := a.projectSince[project]; ok && s.IsRoot() {
			bounds[project] = bound
		}
	}

	ranges, commits, err := a.listRanges(ctx, repo, lower, bounds)
	if err != nil {
		return models.CommitHistoryAnalysis{}, err
	}

	changed := make(map[models.Project][]models.Commit)
	var inRange []models.Commit
	var files []models.ChangedFile

	for _, commit := range commits {
		commit.Type = a.classifier.Classify(commit.Message)

		commitFiles, err := repo.ListChangedFiles(ctx, commit.ID)
		if err != nil {
			return models.CommitHistoryAnalysis{}, fmt.Errorf("failed to list changes of %s: %w", commit.ShortID(), err)
		}

		attributed := false
		for _, project := range projects {
			if ranges[bounds[project]][commit.ID] && touches(project, commitFiles) {
				changed[project] = append(changed[project], commit)
				attributed = true
			}
		}

		if attributed || ranges[lower][commit.ID] {
			inRange = append(inRange, commit)
			files = append(files, commitFiles...)
		}
	}

	return models.NewCommitHistoryAnalysis(changed, inRange, files), nil
}

// listRanges lists the commits above every distinct lower bound. It returns the
// commit IDs per bound and the union of all ranges, oldest first.
func (a *CommitHistoryAnalyser) listRanges(ctx context.Context, repo git.Repository, lower string, bounds map[models.Project]string) (map[string]map[string]bool, []models.Commit, error) {
	distinct := []string{lower}
	for _, bound := range bounds {
		if !slices.Contains(distinct, bound) {
			distinct = append(distinct, bound)
		}
	}
	slices.Sort(distinct[1:])

	ranges := make(map[string]map[string]bool, len(distinct))
	var commits []models.Commit
	for i, bound := range distinct {
		listed, err := repo.ListCommits(ctx, head, bound)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list commits: %w", err)
		}
		ranges[bound] = commitIDs(listed)
		if i == 0 {
			commits = listed
		}
	}
	if len(distinct) == 1 {
		return ranges, commits, nil
	}

	enclosing, err := enclosingBound(ctx, repo, distinct)
	if err != nil {
		return nil, nil, err
	}
	listed, err := repo.ListCommits(ctx, head, enclosing)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list commits: %w", err)
	}

	union := make([]models.Commit, 0, len(listed))
	for _, commit := range listed {
		for _, ids := range ranges {
			if ids[commit.ID] {
				union = append(union, commit)
				break
			}
		}
	}
	return ranges, union, nil
}

// enclosingBound returns a commit every bound descends from, or "" for the
// whole history.
func enclosingBound(ctx context.Context, repo git.Repository, bounds []string) (string, error) {
	base := bounds[0]
	for _, bound := range bounds[1:] {
		if base == "" || bound == "" {
			return "", nil
		}

		merged, err := repo.MergeBase(ctx, base, bound)
		var noAncestor *git.NoCommonAncestorError
		if errors.As(err, &noAncestor) {
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to find common base of %s and %s: %w", base, bound, err)
		}
		base = merged
	}
	return base, nil
}

func commitIDs(commits []models.Commit) map[string]bool {
	ids := make(map[string]bool, len(commits))
	for _, c := range commits {
		ids[c.ID] = true
	}
	return ids
}

// touches reports whether any side of any change lies under the project directory
func touches(project models.Project, files []models.ChangedFile) bool {
	for _, f := range files {
		for _, p := range f.Paths() {
			if project.Contains(p) {
				return true
			}
		}
	}
	return false
}
