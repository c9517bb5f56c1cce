package models

import (
	"path"
	"strings"
)

// Project represents a versioned project inside the repository.
//
// Project is a comparable value: two projects are the same project when
// both name and directory match, which makes it usable as a map key.
type Project struct {
	// Name is the project identifier (unique within the workspace)
	Name string

	// Directory is the slash-separated project path relative to the repository root
	Directory string
}

// NewProject creates a new Project with a normalized directory.
func NewProject(name, directory string) Project {
	return Project{
		Name:      name,
		Directory: NormalizePath(directory),
	}
}

// Contains reports whether a repository-relative file path lives under the project directory.
// Matching is segment aligned: "src/api" contains "src/api/main.go" but not "src/api2/main.go".
func (p Project) Contains(filePath string) bool {
	dir := NormalizePath(p.Directory)
	file := NormalizePath(filePath)

	if dir == "" {
		return true
	}
	return file == dir || strings.HasPrefix(file, dir+"/")
}

// NormalizePath converts a path to the slash-separated, cleaned form used for attribution.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}

	cleaned := path.Clean(p)
	cleaned = strings.TrimPrefix(cleaned, "./")
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "." {
		return ""
	}
	return cleaned
}
