package models

import (
	"sort"
	"time"
)

// Release is a tagged snapshot recording one semantic version per project.
type Release struct {
	// Name is the tag the release was reconstructed from
	Name string

	// Commit is the commit the tag points to
	Commit string

	Timestamp      time.Time
	VersionNumbers map[Project]SemanticVersion

	// Tagged are the projects the tag itself names. VersionNumbers may also
	// carry versions forward from earlier releases.
	Tagged map[Project]bool
}

// NewRelease creates a release with a private copy of the version map. Every
// project in versions counts as tagged.
func NewRelease(name, commit string, timestamp time.Time, versions map[Project]SemanticVersion) Release {
	copied := make(map[Project]SemanticVersion, len(versions))
	tagged := make(map[Project]bool, len(versions))
	for p, v := range versions {
		copied[p] = v
		tagged[p] = true
	}

	return Release{
		Name:           name,
		Commit:         commit,
		Timestamp:      timestamp,
		VersionNumbers: copied,
		Tagged:         tagged,
	}
}

// WithCarriedVersions returns a copy of r whose versions are carried, while
// Tagged still lists only the projects r's tag names.
func (r Release) WithCarriedVersions(carried map[Project]SemanticVersion) Release {
	out := NewRelease(r.Name, r.Commit, r.Timestamp, carried)
	out.Tagged = make(map[Project]bool, len(r.Tagged))
	for p := range r.Tagged {
		out.Tagged[p] = true
	}
	return out
}

// LastReleaseCommits maps every project to the commit of the newest release
// whose tag names it. releases must be ordered newest first.
func LastReleaseCommits(releases []Release) map[Project]string {
	commits := make(map[Project]string)
	for _, r := range releases {
		for p := range r.Tagged {
			if _, seen := commits[p]; !seen {
				commits[p] = r.Commit
			}
		}
	}
	return commits
}

// Version returns the released version of a project.
func (r Release) Version(project Project) (SemanticVersion, bool) {
	v, ok := r.VersionNumbers[project]
	return v, ok
}

// Projects returns the projects in this release sorted by name.
func (r Release) Projects() []Project {
	projects := make([]Project, 0, len(r.VersionNumbers))
	for p := range r.VersionNumbers {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Name < projects[j].Name
	})
	return projects
}
