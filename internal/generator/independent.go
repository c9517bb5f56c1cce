package generator

import (
	"fmt"

	"github.com/jakoblorz/go-gbuild/internal/models"
	"github.com/jakoblorz/go-gbuild/internal/strategy"
)

// IndependentVersionNumberGenerator versions every project on its own, from the
// latest release, the project's changes on the current branch and the branch strategy.
type IndependentVersionNumberGenerator struct {
	startingVersion models.SemanticVersion
	strategy        *strategy.BranchVersioningStrategy
	analysis        models.CommitHistoryAnalysis
	releases        []models.Release
}

// NewIndependentVersionNumberGenerator creates a generator. Releases must be ordered newest first.
func NewIndependentVersionNumberGenerator(
	startingVersion models.SemanticVersion,
	s *strategy.BranchVersioningStrategy,
	analysis models.CommitHistoryAnalysis,
	releases []models.Release,
) *IndependentVersionNumberGenerator {
	return &IndependentVersionNumberGenerator{
		startingVersion: startingVersion,
		strategy:        s,
		analysis:        analysis,
		releases:        append([]models.Release(nil), releases...),
	}
}

// BaseVersion returns the version a project builds on before the branch
// prerelease is applied.
//
// Without a release of the project this is the starting version. A released
// project that changed is bumped (major for breaking changes, the branch
// increment otherwise); an unchanged project keeps its released version.
func (g *IndependentVersionNumberGenerator) BaseVersion(project models.Project) models.SemanticVersion {
	if len(g.releases) == 0 {
		return g.startingVersion
	}

	released, ok := g.releases[0].Version(project)
	if !ok {
		return g.startingVersion
	}

	switch {
	case !g.analysis.ProjectHasChanges(project):
		return released
	case g.analysis.ProjectHasBreakingChanges(project):
		return released.IncrementMajor()
	default:
		return released.Increment(g.strategy.Increment())
	}
}

// GetVersion returns the version of a project on the current branch.
func (g *IndependentVersionNumberGenerator) GetVersion(project models.Project) (models.SemanticVersion, error) {
	commitCount := len(g.analysis.ProjectCommits(project))

	version, err := g.strategy.Generate(g.BaseVersion(project), project, commitCount)
	if err != nil {
		return models.SemanticVersion{}, fmt.Errorf("failed to generate version for %s: %w", project.Name, err)
	}
	return version, nil
}

// GetVersions returns the version of every project, in the given order.
func (g *IndependentVersionNumberGenerator) GetVersions(projects []models.Project) ([]ProjectVersion, error) {
	versions := make([]ProjectVersion, 0, len(projects))
	for _, project := range projects {
		version, err := g.GetVersion(project)
		if err != nil {
			return nil, err
		}

		versions = append(versions, ProjectVersion{
			Project:     project,
			Version:     version,
			Base:        g.BaseVersion(project),
			CommitCount: len(g.analysis.ProjectCommits(project)),
			Breaking:    g.analysis.ProjectHasBreakingChanges(project),
		})
	}
	return versions, nil
}

// ProjectVersion is a generated version together with how it was derived.
type ProjectVersion struct {
	Project     models.Project
	Version     models.SemanticVersion
	Base        models.SemanticVersion
	CommitCount int
	Breaking    bool
}
