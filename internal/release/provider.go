package release

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/jakoblorz/go-gbuild/internal/git"
	"github.com/jakoblorz/go-gbuild/internal/models"
)

// projectTagRegex matches single-project tags: "<project>/<semver>" or "<project>@v<semver>"
var projectTagRegex = regexp.MustCompile(`^(.+?)(?:/v?|@v)(\d+\.\d+\.\d+\S*)$`)

// ReleaseHistoryProvider reconstructs releases from repository tags.
//
// Two tag conventions are recognised:
//
//   - a tag named <project>/<version> or <project>@v<version> releases one project
//   - an annotated tag whose message starts with YAML front matter mapping
//     project names to versions releases every project it names
//
// Any other tag is ignored.
type ReleaseHistoryProvider struct {
	reachableFrom string
}

// Option configures a ReleaseHistoryProvider
type Option func(*ReleaseHistoryProvider)

// WithReachableFrom only considers tags whose commit is an ancestor of ref
// (like `git tag --merged <ref>`).
func WithReachableFrom(ref string) Option {
	return func(p *ReleaseHistoryProvider) {
		p.reachableFrom = ref
	}
}

// NewReleaseHistoryProvider creates a provider.
func NewReleaseHistoryProvider(opts ...Option) *ReleaseHistoryProvider {
	p := &ReleaseHistoryProvider{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetReleases returns the releases found in the repository, newest first.
//
// Every release carries a version for each project released so far: projects
// not named by a tag keep the version of their latest earlier release.
func (p *ReleaseHistoryProvider) GetReleases(ctx context.Context, repo git.Repository, projects []models.Project) ([]models.Release, error) {
	tags, err := repo.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	byName := make(map[string]models.Project, len(projects))
	for _, project := range projects {
		byName[project.Name] = project
	}

	var releases []models.Release
	for _, tag := range tags {
		versions := parseTag(tag, byName)
		if len(versions) == 0 {
			continue
		}

		if p.reachableFrom != "" {
			reachable, err := isAncestor(ctx, repo, tag.CommitID, p.reachableFrom)
			if err != nil {
				return nil, fmt.Errorf("failed to check tag %s: %w", tag.Name, err)
			}
			if !reachable {
				continue
			}
		}

		releases = append(releases, models.NewRelease(tag.Name, tag.CommitID, tag.Timestamp, versions))
	}

	// Oldest first; ties keep backend order
	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].Timestamp.Before(releases[j].Timestamp)
	})

	current := make(map[models.Project]models.SemanticVersion)
	for i := range releases {
		for project, version := range releases[i].VersionNumbers {
			current[project] = version
		}
		releases[i] = releases[i].WithCarriedVersions(current)
	}

	// Newest first
	for i, j := 0, len(releases)-1; i < j; i, j = i+1, j-1 {
		releases[i], releases[j] = releases[j], releases[i]
	}

	return releases, nil
}

// parseTag extracts project versions from a tag; nil if the tag is not a release
func parseTag(tag git.Tag, projects map[string]models.Project) map[models.Project]models.SemanticVersion {
	if m := projectTagRegex.FindStringSubmatch(tag.Name); m != nil {
		project, ok := projects[m[1]]
		if !ok {
			return nil
		}
		version, err := models.ParseSemanticVersion(m[2])
		if err != nil {
			return nil
		}
		return map[models.Project]models.SemanticVersion{project: version}
	}

	if !strings.HasPrefix(strings.TrimSpace(tag.Message), "---") {
		return nil
	}

	var matter map[string]string
	if _, err := frontmatter.Parse(bytes.NewReader([]byte(tag.Message)), &matter); err != nil {
		return nil
	}

	versions := make(map[models.Project]models.SemanticVersion, len(matter))
	for name, text := range matter {
		// Projects that left the workspace keep their entry in old tags
		project, ok := projects[name]
		if !ok {
			continue
		}
		version, err := models.ParseSemanticVersion(text)
		if err != nil {
			return nil
		}
		versions[project] = version
	}
	return versions
}

// isAncestor reports whether commit is reachable from ref
func isAncestor(ctx context.Context, repo git.Repository, commit, ref string) (bool, error) {
	base, err := repo.MergeBase(ctx, commit, ref)
	var noAncestor *git.NoCommonAncestorError
	if errors.As(err, &noAncestor) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return base == commit, nil
}
