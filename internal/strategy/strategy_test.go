package strategy

import (
	"errors"
	"regexp"
	"testing"

	"github.com/jakoblorz/go-gbuild/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultModels = []models.BranchVersioningStrategyModel{
	{Name: "master"},
	{Name: "develop", ParentBranch: "master", Tag: "dev"},
	{Name: "refs/heads/feature/*", ParentBranch: "develop", Tag: "dev-{featurename}"},
}

var project1 = models.NewProject("project1", "src/project1")

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern  string
		branch   string
		captures []string
		matches  bool
	}{
		{"master", "refs/heads/master", []string{}, true},
		{"master", "master", []string{}, true},
		{"refs/heads/master", "master", []string{}, true},
		{"refs/heads/feature/*", "refs/heads/feature/login", []string{"login"}, true},
		{"feature/*", "refs/heads/feature/login", []string{"login"}, true},
		{"release/*/*", "refs/heads/release/2024/q1", []string{"2024", "q1"}, true},
		{"refs/heads/feature/*", "refs/heads/feature/login/extra", nil, false},
		{"refs/heads/feature/*", "refs/heads/feature", nil, false},
		{"refs/heads/feature/*", "refs/heads/feature/", nil, false},
		{"develop", "refs/heads/development", nil, false},
		{"master", "refs/tags/master", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.branch, func(t *testing.T) {
			captures, ok := matchPattern(tt.pattern, tt.branch)
			assert.Equal(t, tt.matches, ok)
			assert.Equal(t, tt.captures, captures)
		})
	}
}

func TestResolve_FeatureBranch(t *testing.T) {
	s, err := Resolve("refs/heads/feature/login", defaultModels)
	require.NoError(t, err)

	assert.Equal(t, "refs/heads/feature/*", s.Name())
	assert.Equal(t, "refs/heads/feature/login", s.Branch())
	assert.Equal(t, "login", s.FeatureName())
	assert.Equal(t, "refs/heads/develop", s.ParentRef())
	assert.False(t, s.IsRoot())

	require.NotNil(t, s.Parent())
	assert.Equal(t, "develop", s.Parent().Name())
	require.NotNil(t, s.Parent().Parent())
	assert.Equal(t, "master", s.Parent().Parent().Name())
	assert.True(t, s.Parent().Parent().IsRoot())
	assert.Equal(t, "", s.Parent().Parent().ParentRef())

	v, err := s.Generate(models.NewSemanticVersion(1, 0, 0), project1, 2)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0-dev-login-2", v.String())
}

func TestResolve_FirstMatchWins(t *testing.T) {
	overlapping := []models.BranchVersioningStrategyModel{
		{Name: "master"},
		{Name: "refs/heads/feature/special", ParentBranch: "master", Tag: "special"},
		{Name: "refs/heads/feature/*", ParentBranch: "master", Tag: "dev-{featurename}"},
	}

	s, err := Resolve("feature/special", overlapping)
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/feature/special", s.Name())

	reversed := []models.BranchVersioningStrategyModel{overlapping[0], overlapping[2], overlapping[1]}
	s, err = Resolve("feature/special", reversed)
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/feature/*", s.Name())
}

func TestResolve_UnknownBranch(t *testing.T) {
	_, err := Resolve("refs/heads/hotfix/crash", defaultModels)

	var unknown *UnknownBranchError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "refs/heads/hotfix/crash", unknown.Branch)
	assert.False(t, errors.Is(err, ErrStrategyCycle))
}

func TestResolve_UnknownParent(t *testing.T) {
	_, err := Resolve("develop", []models.BranchVersioningStrategyModel{
		{Name: "develop", ParentBranch: "main", Tag: "dev"},
	})

	var unknown *UnknownBranchError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "refs/heads/main", unknown.Branch)
}

func TestResolve_ParentCycle(t *testing.T) {
	cyclic := []models.BranchVersioningStrategyModel{
		{Name: "master", ParentBranch: "develop"},
		{Name: "develop", ParentBranch: "master", Tag: "dev"},
	}

	_, err := Resolve("develop", cyclic)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStrategyCycle)

	var unknown *UnknownBranchError
	assert.ErrorAs(t, err, &unknown)
}

func TestResolve_InvalidConfiguration(t *testing.T) {
	_, err := Resolve("master", []models.BranchVersioningStrategyModel{{Name: "master", Increment: "huge"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid increment")

	_, err = Resolve("master", []models.BranchVersioningStrategyModel{{Name: "master", Tag: "{{ .featurename "}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse tag template")
}

func TestIncrement_DefaultsToMinor(t *testing.T) {
	s, err := Resolve("develop", defaultModels)
	require.NoError(t, err)
	assert.Equal(t, models.BumpMinor, s.Increment())

	s, err = Resolve("develop", []models.BranchVersioningStrategyModel{
		{Name: "master"},
		{Name: "develop", ParentBranch: "master", Tag: "dev", Increment: models.BumpPatch},
	})
	require.NoError(t, err)
	assert.Equal(t, models.BumpPatch, s.Increment())
}

func TestGenerate(t *testing.T) {
	base := models.MustParseSemanticVersion("1.2.0")

	tests := []struct {
		name     string
		branch   string
		model    models.BranchVersioningStrategyModel
		count    int
		expected string
	}{
		{
			name:     "no tag means release version",
			branch:   "master",
			model:    models.BranchVersioningStrategyModel{Name: "master"},
			count:    5,
			expected: "1.2.0",
		},
		{
			name:     "tag with count appended",
			branch:   "develop",
			model:    models.BranchVersioningStrategyModel{Name: "develop", Tag: "dev"},
			count:    7,
			expected: "1.2.0-dev-7",
		},
		{
			name:     "tag and metadata",
			branch:   "develop",
			model:    models.BranchVersioningStrategyModel{Name: "develop", Tag: "dev", Metadata: "metatag"},
			count:    0,
			expected: "1.2.0-dev-0+metatag",
		},
		{
			name:     "explicit commitcount placement",
			branch:   "develop",
			model:    models.BranchVersioningStrategyModel{Name: "develop", Tag: "dev.{commitcount}"},
			count:    3,
			expected: "1.2.0-dev.3",
		},
		{
			name:     "wildcards and branchname",
			branch:   "release/2024/q1",
			model:    models.BranchVersioningStrategyModel{Name: "release/*/*", Tag: "rc-{wildcard1}", Metadata: "{branchname}.{projectname}"},
			count:    1,
			expected: "1.2.0-rc-2024-1+release-2024-q1.project1",
		},
		{
			name:     "sprig functions",
			branch:   "feature/very-long-feature-name",
			model:    models.BranchVersioningStrategyModel{Name: "feature/*", Tag: "dev-{{ .featurename | trunc 8 | upper }}"},
			count:    4,
			expected: "1.2.0-dev-VERY-LON-4",
		},
		{
			name:     "mixed placeholder and template syntax",
			branch:   "feature/Login_Page",
			model:    models.BranchVersioningStrategyModel{Name: "feature/*", Tag: "{{ lower \"DEV\" }}-{featurename}"},
			count:    2,
			expected: "1.2.0-dev-Login-Page-2",
		},
		{
			name:     "invalid characters sanitized",
			branch:   "feature/fix#12..ui",
			model:    models.BranchVersioningStrategyModel{Name: "feature/*", Tag: "{featurename}"},
			count:    1,
			expected: "1.2.0-fix-12.ui-1",
		},
		{
			name:     "leading zeros stripped from numeric identifiers",
			branch:   "feature/007",
			model:    models.BranchVersioningStrategyModel{Name: "feature/*", Tag: "pr.{featurename}.{commitcount}"},
			count:    1,
			expected: "1.2.0-pr.7.1",
		},
		{
			name:     "empty rendered tag falls back to count",
			branch:   "develop",
			model:    models.BranchVersioningStrategyModel{Name: "develop", Tag: "{issueid}"},
			count:    9,
			expected: "1.2.0-9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Resolve(tt.branch, []models.BranchVersioningStrategyModel{tt.model})
			require.NoError(t, err)

			v, err := s.Generate(base, project1, tt.count)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v.String())

			parsed, err := models.ParseSemanticVersion(v.String())
			require.NoError(t, err, "generated versions must parse")
			assert.Equal(t, v, parsed)
		})
	}
}

func TestGenerate_IssueID(t *testing.T) {
	resolver := NewResolver([]models.BranchVersioningStrategyModel{
		{Name: "feature/*", Tag: "{issueid}"},
	}, WithIssueIDRegex(regexp.MustCompile(`(?i)(PROJ-\d+)`)))

	s, err := resolver.Resolve("feature/PROJ-42-add-login")
	require.NoError(t, err)

	v, err := s.Generate(models.NewSemanticVersion(0, 1, 0), project1, 3)
	require.NoError(t, err)
	assert.Equal(t, "0.1.0-PROJ-42-3", v.String())
}

func TestGenerate_KeepsBaseNumbers(t *testing.T) {
	s, err := Resolve("develop", defaultModels)
	require.NoError(t, err)

	base := models.MustParseSemanticVersion("2.5.0-old+meta")
	v, err := s.Generate(base, project1, 3)
	require.NoError(t, err)
	assert.Equal(t, "2.5.0-dev-3", v.String())
}
