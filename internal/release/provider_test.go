package release_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jakoblorz/go-gbuild/internal/git"
	"github.com/jakoblorz/go-gbuild/internal/models"
	"github.com/jakoblorz/go-gbuild/internal/release"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	project1 = models.NewProject("project1", "src/project1")
	project2 = models.NewProject("project2", "src/project2")
	projects = []models.Project{project1, project2}
)

func versionsOf(r models.Release) map[string]string {
	out := make(map[string]string)
	for p, v := range r.VersionNumbers {
		out[p.Name] = v.String()
	}
	return out
}

func TestGetReleases_NoTags(t *testing.T) {
	repo := git.NewMockRepository("/repo")

	releases, err := release.NewReleaseHistoryProvider().GetReleases(context.Background(), repo, projects)
	require.NoError(t, err)
	assert.Empty(t, releases)
}

func TestGetReleases_FrontMatterRelease(t *testing.T) {
	repo := git.NewMockRepository("/repo")
	commit := repo.CreateCommit("release")
	require.NoError(t, repo.AddTag("release-2024.1", "---\nproject1: 1.2.0\nproject2: 2.4.0\n---\nRelease notes"))

	releases, err := release.NewReleaseHistoryProvider().GetReleases(context.Background(), repo, projects)
	require.NoError(t, err)
	require.Len(t, releases, 1)

	assert.Equal(t, "release-2024.1", releases[0].Name)
	assert.Equal(t, commit, releases[0].Commit)
	assert.Equal(t, map[string]string{"project1": "1.2.0", "project2": "2.4.0"}, versionsOf(releases[0]))
}

func TestGetReleases_ProjectTagsCarryForward(t *testing.T) {
	repo := git.NewMockRepository("/repo")
	ctx := context.Background()

	repo.CreateCommit("one")
	require.NoError(t, repo.AddTag("project1/1.0.0", ""))
	repo.CreateCommit("two")
	require.NoError(t, repo.AddTag("project2@v0.3.0", ""))
	repo.CreateCommit("three")
	require.NoError(t, repo.AddTag("project1/v1.1.0", ""))

	releases, err := release.NewReleaseHistoryProvider().GetReleases(ctx, repo, projects)
	require.NoError(t, err)
	require.Len(t, releases, 3)

	assert.Equal(t, "project1/v1.1.0", releases[0].Name, "newest first")
	assert.Equal(t, map[string]string{"project1": "1.1.0", "project2": "0.3.0"}, versionsOf(releases[0]))
	assert.Equal(t, map[string]string{"project1": "1.0.0", "project2": "0.3.0"}, versionsOf(releases[1]))
	assert.Equal(t, map[string]string{"project1": "1.0.0"}, versionsOf(releases[2]))

	for i := 1; i < len(releases); i++ {
		assert.False(t, releases[i-1].Timestamp.Before(releases[i].Timestamp))
	}

	assert.Equal(t, map[models.Project]bool{project1: true}, releases[0].Tagged, "carried versions are not tagged")
	assert.Equal(t, map[models.Project]bool{project2: true}, releases[1].Tagged)
	assert.Equal(t, map[models.Project]string{
		project1: releases[0].Commit,
		project2: releases[1].Commit,
	}, models.LastReleaseCommits(releases))
}

func TestGetReleases_FrontMatterSkipsRemovedProjects(t *testing.T) {
	repo := git.NewMockRepository("/repo")

	repo.CreateCommit("one")
	require.NoError(t, repo.AddTag("release-1", "---\nproject1: 1.0.0\n---"))
	repo.CreateCommit("two")
	require.NoError(t, repo.AddTag("release-2", "---\nproject1: 3.0.0\nlegacy: 1.0.0\n---"))

	releases, err := release.NewReleaseHistoryProvider().GetReleases(context.Background(), repo, projects)
	require.NoError(t, err)
	require.Len(t, releases, 2)

	assert.Equal(t, "release-2", releases[0].Name)
	assert.Equal(t, map[string]string{"project1": "3.0.0"}, versionsOf(releases[0]))
	assert.Equal(t, map[models.Project]bool{project1: true}, releases[0].Tagged)
}

func TestGetReleases_SortsByTimestampNotBackendOrder(t *testing.T) {
	repo := git.NewMockRepository("/repo")

	// Backend lists project1/2.0.0 first although it was created later
	repo.AddTagAt("project1/2.0.0", "", git.MockEpoch.Add(48*time.Hour))
	repo.AddTagAt("project1/1.0.0", "", git.MockEpoch.Add(24*time.Hour))

	releases, err := release.NewReleaseHistoryProvider().GetReleases(context.Background(), repo, projects)
	require.NoError(t, err)
	require.Len(t, releases, 2)
	assert.Equal(t, "project1/2.0.0", releases[0].Name)
	assert.Equal(t, "project1/1.0.0", releases[1].Name)
}

func TestGetReleases_EqualTimestampsKeepBackendOrder(t *testing.T) {
	repo := git.NewMockRepository("/repo")
	when := git.MockEpoch.Add(time.Hour)

	repo.AddTagAt("project1/1.0.0", "", when)
	repo.AddTagAt("project1/1.1.0", "", when)

	releases, err := release.NewReleaseHistoryProvider().GetReleases(context.Background(), repo, projects)
	require.NoError(t, err)
	require.Len(t, releases, 2)
	assert.Equal(t, "project1/1.1.0", releases[0].Name, "later backend position is newer")
}

func TestGetReleases_SkipsForeignTags(t *testing.T) {
	repo := git.NewMockRepository("/repo")

	tags := []struct{ name, message string }{
		{"v1.0.0", ""},
		{"nightly", "just a build"},
		{"unknown/1.0.0", ""},
		{"project1/not-a-version", ""},
		{"release-a", "---\nproject1: banana\n---"},
		{"release-b", "---\nproject9: 1.0.0\n---"},
		{"release-c", "---\n---\nempty"},
	}
	for _, tag := range tags {
		require.NoError(t, repo.AddTag(tag.name, tag.message))
	}

	releases, err := release.NewReleaseHistoryProvider().GetReleases(context.Background(), repo, projects)
	require.NoError(t, err)
	assert.Empty(t, releases)
}

func TestGetReleases_ReachableFrom(t *testing.T) {
	repo := git.NewMockRepository("/repo")
	ctx := context.Background()

	repo.CreateCommit("base")
	require.NoError(t, repo.AddTag("project1/1.0.0", ""))
	require.NoError(t, repo.CreateBranch("develop"))

	repo.CreateCommit("master only")
	require.NoError(t, repo.AddTag("project1/1.1.0", ""))

	require.NoError(t, repo.CheckoutBranch("develop"))
	repo.CreateCommit("develop work")

	all, err := release.NewReleaseHistoryProvider().GetReleases(ctx, repo, projects)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	reachable, err := release.NewReleaseHistoryProvider(release.WithReachableFrom("HEAD")).GetReleases(ctx, repo, projects)
	require.NoError(t, err)
	require.Len(t, reachable, 1)
	assert.Equal(t, "project1/1.0.0", reachable[0].Name)
}

func TestGetReleases_RepositoryError(t *testing.T) {
	repo := git.NewMockRepository("/repo")
	repo.ListTagsError = &git.RepositoryAccessError{Op: "list tags", Err: errors.New("locked")}

	_, err := release.NewReleaseHistoryProvider().GetReleases(context.Background(), repo, projects)

	var accessErr *git.RepositoryAccessError
	require.ErrorAs(t, err, &accessErr)
}
