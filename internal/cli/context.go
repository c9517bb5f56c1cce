package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jakoblorz/go-gbuild/internal/config"
	"github.com/jakoblorz/go-gbuild/internal/filesystem"
	"github.com/jakoblorz/go-gbuild/internal/generator"
	"github.com/jakoblorz/go-gbuild/internal/git"
	"github.com/jakoblorz/go-gbuild/internal/history"
	"github.com/jakoblorz/go-gbuild/internal/models"
	"github.com/jakoblorz/go-gbuild/internal/release"
	"github.com/jakoblorz/go-gbuild/internal/strategy"
	"github.com/jakoblorz/go-gbuild/internal/workspace"
)

// RepositoryOpener opens the repository at a root with the configured backend
type RepositoryOpener func(ctx context.Context, root string, backend git.Backend) (git.Repository, error)

// buildContext is everything a command needs, read once from the repository
// before any version is computed and never modified afterwards.
type buildContext struct {
	Config    *config.ConfigurationFile
	Repo      git.Repository
	Branch    string
	Workspace *workspace.Workspace
	Releases  []models.Release
	Analysis  models.CommitHistoryAnalysis
}

// Strategy returns the strategy resolved for the branch
func (b *buildContext) Strategy() *strategy.BranchVersioningStrategy {
	return b.Workspace.BranchVersioningStrategy
}

// Generator returns the version generator for the configured branching model
func (b *buildContext) Generator() (*generator.IndependentVersionNumberGenerator, error) {
	start, err := b.Config.StartingSemanticVersion()
	if err != nil {
		return nil, err
	}
	return generator.NewIndependentVersionNumberGenerator(start, b.Strategy(), b.Analysis, b.Releases), nil
}

type contextLoader struct {
	fs     filesystem.FileSystem
	open   RepositoryOpener
	logger zerolog.Logger

	// mergedOnly limits releases to tags reachable from HEAD
	mergedOnly bool
}

// locate finds the repository root from repoPath (or the working directory),
// loads build.yaml and opens the repository.
func (l *contextLoader) locate(ctx context.Context, repoPath string) (string, *config.ConfigurationFile, git.Repository, error) {
	start := repoPath
	if start == "" {
		cwd, err := l.fs.Getwd()
		if err != nil {
			return "", nil, nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		start = cwd
	}

	root, err := workspace.FindRoot(l.fs, start)
	if err != nil {
		return "", nil, nil, err
	}

	cfg, err := config.Load(l.fs, root)
	if err != nil {
		return "", nil, nil, err
	}

	l.logger.Debug().
		Str("root", root).
		Str("backend", string(cfg.RepositoryBackend)).
		Msg("opening repository")

	repo, err := l.open(ctx, root, cfg.RepositoryBackend)
	if err != nil {
		return "", nil, nil, err
	}

	return root, cfg, repo, nil
}

// load runs the initialization phase: strategy, workspace, releases and commit analysis.
func (l *contextLoader) load(ctx context.Context, repoPath, branch string) (*buildContext, error) {
	root, cfg, repo, err := l.locate(ctx, repoPath)
	if err != nil {
		return nil, err
	}

	if branch == "" {
		branch, err = repo.CurrentBranch(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to determine current branch (use --branch on a detached HEAD): %w", err)
		}
	}

	issueRegex, err := cfg.IssueIDPattern()
	if err != nil {
		return nil, fmt.Errorf("invalid issue-id-regex: %w", err)
	}

	s, err := strategy.NewResolver(cfg.Branches, strategy.WithIssueIDRegex(issueRegex)).Resolve(branch)
	if err != nil {
		return nil, err
	}

	l.logger.Debug().
		Str("branch", s.Branch()).
		Str("strategy", s.Name()).
		Str("parent", s.ParentRef()).
		Msg("resolved branch strategy")

	ws, err := workspace.New(l.fs, root, cfg.SourceCodeRoot, s)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}

	releases, err := l.releases(ctx, repo, ws.Projects)
	if err != nil {
		return nil, err
	}

	opts := []history.Option{history.WithClassifier(cfg.Classifier())}
	if s.IsRoot() && len(releases) > 0 {
		opts = append(opts,
			history.WithSince(releases[0].Commit),
			history.WithProjectSince(models.LastReleaseCommits(releases)),
		)
	}

	analysis, err := history.NewCommitHistoryAnalyser(opts...).AnalyseCommitLog(ctx, s, repo, ws.Projects)
	if err != nil {
		return nil, err
	}

	l.logger.Debug().
		Int("projects", len(ws.Projects)).
		Int("releases", len(releases)).
		Int("commits", len(analysis.Commits)).
		Bool("breaking", analysis.HasBreakingChanges).
		Msg("analysed repository")

	return &buildContext{
		Config:    cfg,
		Repo:      repo,
		Branch:    branch,
		Workspace: ws,
		Releases:  releases,
		Analysis:  analysis,
	}, nil
}

func (l *contextLoader) releases(ctx context.Context, repo git.Repository, projects []models.Project) ([]models.Release, error) {
	var opts []release.Option
	if l.mergedOnly {
		opts = append(opts, release.WithReachableFrom("HEAD"))
	}
	return release.NewReleaseHistoryProvider(opts...).GetReleases(ctx, repo, projects)
}
