package strategy

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jakoblorz/go-gbuild/internal/models"
)

// BranchVersioningStrategy is the strategy model matched for a concrete branch,
// with its wildcard captures bound and its parent chain resolved.
type BranchVersioningStrategy struct {
	model    models.BranchVersioningStrategyModel
	branch   string
	captures []string
	issueID  string
	parent   *BranchVersioningStrategy

	tag      textTemplate
	metadata textTemplate
}

// Resolver matches branches against an ordered list of strategy models.
type Resolver struct {
	models     []models.BranchVersioningStrategyModel
	issueRegex *regexp.Regexp
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithIssueIDRegex sets the expression used to extract {issueid} from branch names.
// If the expression has a capture group, the first group is used.
func WithIssueIDRegex(re *regexp.Regexp) ResolverOption {
	return func(r *Resolver) {
		r.issueRegex = re
	}
}

// NewResolver creates a Resolver. Models are matched in order; the first match wins.
func NewResolver(strategies []models.BranchVersioningStrategyModel, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		models: append([]models.BranchVersioningStrategyModel(nil), strategies...),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve is a shorthand for NewResolver(strategies).Resolve(branch).
func Resolve(branch string, strategies []models.BranchVersioningStrategyModel) (*BranchVersioningStrategy, error) {
	return NewResolver(strategies).Resolve(branch)
}

// Resolve finds the strategy for a branch and resolves its parent chain.
func (r *Resolver) Resolve(branch string) (*BranchVersioningStrategy, error) {
	return r.resolve(QualifyBranch(branch), map[int]bool{})
}

func (r *Resolver) resolve(branch string, visited map[int]bool) (*BranchVersioningStrategy, error) {
	index, captures, ok := r.match(branch)
	if !ok {
		return nil, &UnknownBranchError{Branch: branch}
	}
	if visited[index] {
		return nil, &UnknownBranchError{Branch: branch, Err: ErrStrategyCycle}
	}
	visited[index] = true

	model := r.models[index]
	if model.Increment == "" {
		model.Increment = models.BumpMinor
	}
	if !model.Increment.IsValid() {
		return nil, fmt.Errorf("branch %s: invalid increment %q (must be patch, minor, or major)", model.Name, model.Increment)
	}

	tag, err := parseTemplate("tag", model.Tag)
	if err != nil {
		return nil, fmt.Errorf("branch %s: %w", model.Name, err)
	}
	metadata, err := parseTemplate("metadata", model.Metadata)
	if err != nil {
		return nil, fmt.Errorf("branch %s: %w", model.Name, err)
	}

	s := &BranchVersioningStrategy{
		model:    model,
		branch:   branch,
		captures: captures,
		issueID:  r.issueID(branch),
		tag:      tag,
		metadata: metadata,
	}

	if !model.IsRoot() {
		parent, err := r.resolve(QualifyBranch(model.ParentBranch), visited)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve parent of %s: %w", ShortBranch(branch), err)
		}
		s.parent = parent
	}

	return s, nil
}

// match returns the index and captures of the first model matching branch
func (r *Resolver) match(branch string) (int, []string, bool) {
	for i, m := range r.models {
		if captures, ok := matchPattern(m.Name, branch); ok {
			return i, captures, true
		}
	}
	return -1, nil, false
}

func (r *Resolver) issueID(branch string) string {
	if r.issueRegex == nil {
		return ""
	}

	m := r.issueRegex.FindStringSubmatch(ShortBranch(branch))
	switch {
	case m == nil:
		return ""
	case len(m) > 1:
		return m[1]
	default:
		return m[0]
	}
}

// Name returns the matched pattern.
func (s *BranchVersioningStrategy) Name() string {
	return s.model.Name
}

// Branch returns the fully qualified branch ref the strategy was resolved for.
func (s *BranchVersioningStrategy) Branch() string {
	return s.branch
}

// Model returns the matched configuration model.
func (s *BranchVersioningStrategy) Model() models.BranchVersioningStrategyModel {
	return s.model
}

// Parent returns the parent branch strategy, or nil for a root strategy.
func (s *BranchVersioningStrategy) Parent() *BranchVersioningStrategy {
	return s.parent
}

// ParentRef returns the fully qualified ref of the parent branch, or "" for a root strategy.
func (s *BranchVersioningStrategy) ParentRef() string {
	if s.model.IsRoot() {
		return ""
	}
	return QualifyBranch(s.model.ParentBranch)
}

// IsRoot reports whether the strategy has no parent branch.
func (s *BranchVersioningStrategy) IsRoot() bool {
	return s.parent == nil
}

// Increment returns the bump applied to changed projects without breaking changes.
func (s *BranchVersioningStrategy) Increment() models.BumpType {
	return s.model.Increment
}

// FeatureName returns the capture of the last wildcard, or "".
func (s *BranchVersioningStrategy) FeatureName() string {
	if len(s.captures) == 0 {
		return ""
	}
	return s.captures[len(s.captures)-1]
}

// Variables returns the template variables bound for a project and commit count.
func (s *BranchVersioningStrategy) Variables(project models.Project, commitCount int) map[string]string {
	vars := map[string]string{
		VarFeatureName: s.FeatureName(),
		VarBranchName:  strings.ReplaceAll(ShortBranch(s.branch), "/", "-"),
		VarIssueID:     s.issueID,
		VarProjectName: project.Name,
		VarCommitCount: strconv.Itoa(commitCount),
	}
	for i, c := range s.captures {
		vars[VarWildcard+strconv.Itoa(i+1)] = c
	}
	return vars
}

// Generate applies the branch's prerelease and metadata templates to base.
//
// An empty tag template yields no prerelease. Otherwise "-<commitCount>" is
// appended to the rendered tag unless the template places {commitcount} itself.
func (s *BranchVersioningStrategy) Generate(base models.SemanticVersion, project models.Project, commitCount int) (models.SemanticVersion, error) {
	vars := s.Variables(project, commitCount)

	var prerelease string
	if !s.tag.isEmpty() {
		rendered, err := s.tag.render(vars)
		if err != nil {
			return models.SemanticVersion{}, fmt.Errorf("branch %s: %w", s.model.Name, err)
		}

		prerelease = sanitizeIdentifiers(rendered, true)
		if !s.tag.references(VarCommitCount) {
			if prerelease == "" {
				prerelease = strconv.Itoa(commitCount)
			} else {
				prerelease = prerelease + "-" + strconv.Itoa(commitCount)
			}
		}
	}

	var metadata string
	if !s.metadata.isEmpty() {
		rendered, err := s.metadata.render(vars)
		if err != nil {
			return models.SemanticVersion{}, fmt.Errorf("branch %s: %w", s.model.Name, err)
		}
		metadata = sanitizeIdentifiers(rendered, false)
	}

	return models.CreateFrom(base, prerelease, metadata), nil
}
