package models

import (
	"strings"
	"time"
)

// ChangeType classifies a commit by the kind of change it introduces.
type ChangeType int

const (
	ChangeTypeOther ChangeType = iota
	ChangeTypeFeature
	ChangeTypeBreaking
)

func (c ChangeType) String() string {
	switch c {
	case ChangeTypeFeature:
		return "feature"
	case ChangeTypeBreaking:
		return "breaking"
	default:
		return "other"
	}
}

// Commit is a commit read from the repository log.
type Commit struct {
	ID        string
	Message   string
	Timestamp time.Time
	Author    string

	// Type is set by the commit history analyser; repository backends leave it at ChangeTypeOther.
	Type ChangeType
}

// Subject returns the first line of the commit message.
func (c Commit) Subject() string {
	subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return strings.TrimSpace(subject)
}

// ShortID returns the abbreviated commit hash.
func (c Commit) ShortID() string {
	if len(c.ID) > 7 {
		return c.ID[:7]
	}
	return c.ID
}

// FileChangeKind describes how a file changed in a commit.
type FileChangeKind string

const (
	FileAdded    FileChangeKind = "added"
	FileModified FileChangeKind = "modified"
	FileDeleted  FileChangeKind = "deleted"
	FileRenamed  FileChangeKind = "renamed"
)

// ChangedFile is a file touched by a commit, relative to the repository root.
type ChangedFile struct {
	Path string
	Kind FileChangeKind

	// OldPath is the previous location for renamed files.
	OldPath string
}

// Paths returns every path the change touches (both sides of a rename).
func (f ChangedFile) Paths() []string {
	if f.Kind == FileRenamed && f.OldPath != "" && f.OldPath != f.Path {
		return []string{f.Path, f.OldPath}
	}
	return []string{f.Path}
}
