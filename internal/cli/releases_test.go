package cli

import (
	"encoding/json"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleases_Table(t *testing.T) {
	f := newFixture(t).withReleases(t)
	f.repo.CreateCommit("feat: search", "src/web/search.html")
	require.NoError(t, f.repo.AddTag("release-7", "---\nweb: 2.5.0\napi: 1.2.1\n---\nSpring release\n"))

	stdout, _, err := f.run(t, "releases")
	require.NoError(t, err)
	assert.Contains(t, stdout, "release-7")
	assert.Contains(t, stdout, "api 1.2.1, web 2.5.0")
	assert.Contains(t, stdout, "api 1.2.0, web 2.4.0")

	snaps.MatchSnapshot(t, stdout)
}

func TestReleases_JSON(t *testing.T) {
	f := newFixture(t).withReleases(t)

	stdout, _, err := f.run(t, "releases", "-o", "json")
	require.NoError(t, err)

	var infos []ReleaseInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &infos))
	require.Len(t, infos, 2)

	assert.Equal(t, "web/2.4.0", infos[0].Tag)
	assert.Equal(t, map[string]string{"api": "1.2.0", "web": "2.4.0"}, infos[0].Versions)
	assert.Equal(t, "api/1.2.0", infos[1].Tag)
	assert.Equal(t, map[string]string{"api": "1.2.0"}, infos[1].Versions)
	assert.Equal(t, f.repo.Head(), infos[1].Commit)
}

func TestReleases_None(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.repo.AddTag("nightly", ""))

	stdout, _, err := f.run(t, "releases")
	require.NoError(t, err)
	assert.Equal(t, "No releases found\n", stdout)

	stdout, _, err = f.run(t, "releases", "--output", "json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", stdout)
}

func TestReleases_MergedOnly(t *testing.T) {
	f := newFixture(t).withReleases(t)
	require.NoError(t, f.repo.CreateBranch("experiment"))
	require.NoError(t, f.repo.CheckoutBranch("experiment"))
	f.repo.CreateCommit("feat: rewrite", "src/web/app.js")
	require.NoError(t, f.repo.AddTag("web/9.0.0", ""))
	require.NoError(t, f.repo.CheckoutBranch("develop"))

	stdout, _, err := f.run(t, "releases", "-o", "json")
	require.NoError(t, err)
	var all []ReleaseInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &all))
	require.Len(t, all, 3)
	assert.Equal(t, "web/9.0.0", all[0].Tag)

	stdout, _, err = f.run(t, "releases", "-o", "json", "--merged")
	require.NoError(t, err)
	var merged []ReleaseInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &merged))
	require.Len(t, merged, 2)
	assert.Equal(t, "web/2.4.0", merged[0].Tag)

	stdout, _, err = f.run(t, "version", "-p", "web", "--merged")
	require.NoError(t, err)
	assert.Equal(t, "2.4.0-dev-0\n", stdout)

	stdout, _, err = f.run(t, "version", "-p", "web")
	require.NoError(t, err)
	assert.Equal(t, "9.0.0-dev-0\n", stdout)
}
