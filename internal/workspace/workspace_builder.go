package workspace

import (
	"fmt"
	"path/filepath"

	"github.com/jakoblorz/go-gbuild/internal/filesystem"
)

// WorkspaceBuilder helps create test workspaces
type WorkspaceBuilder struct {
	fs         *filesystem.MockFileSystem
	root       string
	sourceRoot string
}

// NewWorkspaceBuilder creates a new WorkspaceBuilder with projects under root/src
func NewWorkspaceBuilder(root string) *WorkspaceBuilder {
	fs := filesystem.NewMockFileSystem()
	fs.AddDir(root)
	fs.SetCurrentDir(root)

	return &WorkspaceBuilder{
		fs:         fs,
		root:       root,
		sourceRoot: "src",
	}
}

// WithSourceRoot changes the source directory projects are added to
func (wb *WorkspaceBuilder) WithSourceRoot(sourceRoot string) *WorkspaceBuilder {
	wb.sourceRoot = sourceRoot
	return wb
}

// AddProject adds a project directory. A non-empty modulePath also writes a go.mod.
func (wb *WorkspaceBuilder) AddProject(dir, modulePath string) *WorkspaceBuilder {
	projectRoot := filepath.Join(wb.root, wb.sourceRoot, dir)
	wb.fs.AddDir(projectRoot)

	if modulePath != "" {
		goMod := fmt.Sprintf("module %s\n\ngo 1.24\n", modulePath)
		wb.fs.AddFile(filepath.Join(projectRoot, "go.mod"), []byte(goMod))
	}

	return wb
}

// AddFile adds a file relative to the workspace root
func (wb *WorkspaceBuilder) AddFile(path, content string) *WorkspaceBuilder {
	wb.fs.AddFile(filepath.Join(wb.root, path), []byte(content))
	return wb
}

// AddGitIgnore writes the root .gitignore
func (wb *WorkspaceBuilder) AddGitIgnore(content string) *WorkspaceBuilder {
	return wb.AddFile(".gitignore", content)
}

// AddConfig writes build.yaml at the workspace root
func (wb *WorkspaceBuilder) AddConfig(content string) *WorkspaceBuilder {
	return wb.AddFile("build.yaml", content)
}

// Build finalizes the workspace and returns the filesystem
func (wb *WorkspaceBuilder) Build() *filesystem.MockFileSystem {
	wb.fs.AddDir(filepath.Join(wb.root, wb.sourceRoot))
	return wb.fs
}

// FileSystem returns the mock filesystem
func (wb *WorkspaceBuilder) FileSystem() *filesystem.MockFileSystem {
	return wb.fs
}
