package models

// BranchVersioningStrategyModel maps a branch name pattern to a parent branch and
// the templates used to render prerelease tags and metadata.
//
// Mainline, development and feature branches all share this shape; only the
// field values differ.
type BranchVersioningStrategyModel struct {
	// Name is the branch pattern, e.g. "refs/heads/feature/*"
	Name string `yaml:"name" mapstructure:"name"`

	// ParentBranch is the literal ref name of the parent branch; empty for a root policy
	ParentBranch string `yaml:"parent-branch,omitempty" mapstructure:"parent-branch"`

	// Tag is the prerelease template, e.g. "dev-{featurename}"
	Tag string `yaml:"tag,omitempty" mapstructure:"tag"`

	// Metadata is the build metadata template
	Metadata string `yaml:"metadata,omitempty" mapstructure:"metadata"`

	// Increment is applied to changed projects without breaking changes
	Increment BumpType `yaml:"increment,omitempty" mapstructure:"increment"`
}

// IsRoot reports whether the model has no parent branch.
func (m BranchVersioningStrategyModel) IsRoot() bool {
	return m.ParentBranch == ""
}
