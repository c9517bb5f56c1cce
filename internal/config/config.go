package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jakoblorz/go-gbuild/internal/git"
	"github.com/jakoblorz/go-gbuild/internal/history"
	"github.com/jakoblorz/go-gbuild/internal/models"
)

// FileName is the configuration file at the repository root
const FileName = "build.yaml"

// BranchingModelIndependent versions every project independently
const BranchingModelIndependent = "independent"

// ErrConfigExists is returned when writing over an existing configuration without overwrite.
var ErrConfigExists = errors.New("configuration file already exists")

// ConfigurationFile is the content of build.yaml.
type ConfigurationFile struct {
	// StartingVersion is used for projects that were never released
	StartingVersion string `yaml:"starting-version" mapstructure:"starting-version"`

	// SourceCodeRoot is the directory (relative to the repository root) holding one directory per project
	SourceCodeRoot string `yaml:"source-code-root" mapstructure:"source-code-root"`

	// IssueIDRegex extracts {issueid} from branch names
	IssueIDRegex string `yaml:"issue-id-regex" mapstructure:"issue-id-regex"`

	BranchingModel    string      `yaml:"branching-model" mapstructure:"branching-model"`
	RepositoryBackend git.Backend `yaml:"repository-backend" mapstructure:"repository-backend"`

	CommitConventions CommitConventions `yaml:"commit-conventions" mapstructure:"commit-conventions"`

	// Branches are matched in order; the first matching pattern wins
	Branches []models.BranchVersioningStrategyModel `yaml:"branches" mapstructure:"branches"`
}

// CommitConventions configure how commit messages are classified
type CommitConventions struct {
	BreakingMarkers []string `yaml:"breaking-markers" mapstructure:"breaking-markers"`
	FeaturePrefixes []string `yaml:"feature-prefixes" mapstructure:"feature-prefixes"`
}

// Defaults returns the configuration written by `gbuild init`.
func Defaults() *ConfigurationFile {
	return &ConfigurationFile{
		StartingVersion:   "0.1.0",
		SourceCodeRoot:    "src",
		IssueIDRegex:      "",
		BranchingModel:    BranchingModelIndependent,
		RepositoryBackend: git.BackendGoGit,
		CommitConventions: CommitConventions{
			BreakingMarkers: append([]string(nil), history.DefaultBreakingMarkers...),
			FeaturePrefixes: append([]string(nil), history.DefaultFeaturePrefixes...),
		},
		Branches: []models.BranchVersioningStrategyModel{
			{Name: "master"},
			{Name: "develop", ParentBranch: "master", Tag: "dev"},
			{Name: "refs/heads/feature/*", ParentBranch: "develop", Tag: "dev-{featurename}"},
		},
	}
}

// StartingSemanticVersion parses StartingVersion.
func (c *ConfigurationFile) StartingSemanticVersion() (models.SemanticVersion, error) {
	return models.ParseSemanticVersion(c.StartingVersion)
}

// Classifier returns the commit classifier for the configured conventions.
func (c *ConfigurationFile) Classifier() history.Classifier {
	return history.Classifier{
		BreakingMarkers: c.CommitConventions.BreakingMarkers,
		FeaturePrefixes: c.CommitConventions.FeaturePrefixes,
	}
}

// IssueIDPattern compiles IssueIDRegex; nil when unset.
func (c *ConfigurationFile) IssueIDPattern() (*regexp.Regexp, error) {
	if strings.TrimSpace(c.IssueIDRegex) == "" {
		return nil, nil
	}
	return regexp.Compile(c.IssueIDRegex)
}

// Validate checks the configuration for values gbuild cannot work with.
func Validate(c *ConfigurationFile) error {
	var errs []error

	if _, err := c.StartingSemanticVersion(); err != nil {
		errs = append(errs, fmt.Errorf("starting-version: %w", err))
	}

	if _, err := c.IssueIDPattern(); err != nil {
		errs = append(errs, fmt.Errorf("issue-id-regex: %w", err))
	}

	if c.BranchingModel != BranchingModelIndependent {
		errs = append(errs, fmt.Errorf("branching-model: unsupported model %q (only %q is supported)", c.BranchingModel, BranchingModelIndependent))
	}

	switch c.RepositoryBackend {
	case git.BackendGoGit, git.BackendExec:
	default:
		errs = append(errs, fmt.Errorf("repository-backend: unknown backend %q (must be %s or %s)", c.RepositoryBackend, git.BackendGoGit, git.BackendExec))
	}

	if len(c.Branches) == 0 {
		errs = append(errs, errors.New("branches: at least one branch strategy is required"))
	}
	for i, b := range c.Branches {
		if strings.TrimSpace(b.Name) == "" {
			errs = append(errs, fmt.Errorf("branches[%d]: name is required", i))
		}
		if b.Increment != "" && !b.Increment.IsValid() {
			errs = append(errs, fmt.Errorf("branches[%d]: invalid increment %q (must be patch, minor, or major)", i, b.Increment))
		}
	}

	return errors.Join(errs...)
}
