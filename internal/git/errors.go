package git

import (
	"fmt"
)

// RepositoryAccessError is returned when the version-control store cannot be read:
// a missing path, a corrupt object store or an unresolvable ref.
type RepositoryAccessError struct {
	// Op is the failing operation, e.g. "resolve ref"
	Op string

	// Path is the repository path
	Path string

	// Ref is the ref or commit involved, if any
	Ref string

	Err error
}

func (e *RepositoryAccessError) Error() string {
	msg := fmt.Sprintf("repository access failed: %s", e.Op)
	if e.Ref != "" {
		msg += fmt.Sprintf(" %q", e.Ref)
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" in %s", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RepositoryAccessError) Unwrap() error {
	return e.Err
}

// NoCommonAncestorError is returned when two refs share no history.
type NoCommonAncestorError struct {
	Head   string
	Parent string
}

func (e *NoCommonAncestorError) Error() string {
	return fmt.Sprintf("%s and %s have no common ancestor", e.Head, e.Parent)
}

func accessError(op, path, ref string, err error) error {
	return &RepositoryAccessError{Op: op, Path: path, Ref: ref, Err: err}
}
