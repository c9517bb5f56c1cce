package models

// CommitHistoryAnalysis is the result of analysing the commits unique to the current branch.
type CommitHistoryAnalysis struct {
	// ChangedProjects maps every project touched in the range to its commits, oldest first
	ChangedProjects map[Project][]Commit

	// Commits are all commits in the range, oldest first
	Commits []Commit

	// ChangedFiles are all files touched in the range
	ChangedFiles []ChangedFile

	HasBreakingChanges bool
	HasNewFeatures     bool
}

// NewCommitHistoryAnalysis builds an analysis and derives the aggregate flags from commits.
func NewCommitHistoryAnalysis(changedProjects map[Project][]Commit, commits []Commit, changedFiles []ChangedFile) CommitHistoryAnalysis {
	projects := make(map[Project][]Commit, len(changedProjects))
	for p, cs := range changedProjects {
		projects[p] = append([]Commit(nil), cs...)
	}

	analysis := CommitHistoryAnalysis{
		ChangedProjects: projects,
		Commits:         append([]Commit(nil), commits...),
		ChangedFiles:    append([]ChangedFile(nil), changedFiles...),
	}

	for _, c := range commits {
		switch c.Type {
		case ChangeTypeBreaking:
			analysis.HasBreakingChanges = true
		case ChangeTypeFeature:
			analysis.HasNewFeatures = true
		}
	}

	return analysis
}

// ProjectCommits returns the commits that touched a project (nil if untouched).
func (a CommitHistoryAnalysis) ProjectCommits(project Project) []Commit {
	return a.ChangedProjects[project]
}

// ProjectHasChanges reports whether any commit in range touched the project.
func (a CommitHistoryAnalysis) ProjectHasChanges(project Project) bool {
	return len(a.ChangedProjects[project]) > 0
}

// ProjectHasBreakingChanges reports whether any commit touching the project is breaking.
func (a CommitHistoryAnalysis) ProjectHasBreakingChanges(project Project) bool {
	for _, c := range a.ChangedProjects[project] {
		if c.Type == ChangeTypeBreaking {
			return true
		}
	}
	return false
}

// ProjectHasNewFeatures reports whether any commit touching the project adds a feature.
func (a CommitHistoryAnalysis) ProjectHasNewFeatures(project Project) bool {
	for _, c := range a.ChangedProjects[project] {
		if c.Type == ChangeTypeFeature {
			return true
		}
	}
	return false
}
