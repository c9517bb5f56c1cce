package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/denormal/go-gitignore"
	"github.com/jakoblorz/go-gbuild/internal/filesystem"
	"github.com/jakoblorz/go-gbuild/internal/models"
	"github.com/jakoblorz/go-gbuild/internal/strategy"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

// Workspace is the repository root, its source root and the projects found below it,
// together with the strategy resolved for the checked-out branch.
type Workspace struct {
	RootDirectory string
	SourceRoot    string
	Projects      []models.Project

	BranchVersioningStrategy *strategy.BranchVersioningStrategy
}

// New discovers the projects below root/sourceCodeRoot and returns the workspace.
//
// Every direct, non-hidden subdirectory of the source root is a project unless the
// repository's .gitignore excludes it. Projects carrying a go.mod are named after the
// last element of their module path, all others after their directory.
func New(fsys filesystem.FileSystem, root, sourceCodeRoot string, s *strategy.BranchVersioningStrategy) (*Workspace, error) {
	projects, err := DiscoverProjects(fsys, root, sourceCodeRoot)
	if err != nil {
		return nil, err
	}

	return &Workspace{
		RootDirectory:            filepath.Clean(root),
		SourceRoot:               filepath.Join(root, sourceCodeRoot),
		Projects:                 projects,
		BranchVersioningStrategy: s,
	}, nil
}

// DiscoverProjects lists the projects below root/sourceCodeRoot, sorted by name.
func DiscoverProjects(fsys filesystem.FileSystem, root, sourceCodeRoot string) ([]models.Project, error) {
	sourceRoot := filepath.Join(root, sourceCodeRoot)

	entries, err := fsys.ReadDir(sourceRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("source code root %s not found", sourceRoot)
		}
		return nil, fmt.Errorf("failed to read source code root: %w", err)
	}

	ignore, err := loadRootGitIgnore(fsys, root)
	if err != nil {
		return nil, err
	}

	var projects []models.Project
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		dir := filepath.Join(sourceRoot, entry.Name())
		rel, err := filepath.Rel(root, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to relate %s to %s: %w", dir, root, err)
		}
		rel = filepath.ToSlash(rel)

		if ignore != nil {
			if match := ignore.Relative(rel, true); match != nil && match.Ignore() {
				continue
			}
		}

		name, err := projectName(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to load project at %s: %w", dir, err)
		}

		projects = append(projects, models.NewProject(name, rel))
	}

	if len(projects) == 0 {
		return nil, fmt.Errorf("no projects found in %s", sourceRoot)
	}

	projects = dedupeProjectNames(projects)
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].Name < projects[j].Name
	})

	return projects, nil
}

// GetProject returns a project by name.
func (w *Workspace) GetProject(name string) (models.Project, error) {
	for _, p := range w.Projects {
		if p.Name == name {
			return p, nil
		}
	}
	return models.Project{}, fmt.Errorf("project %s not found in workspace", name)
}

// GetProjectNames returns a list of all project names.
func (w *Workspace) GetProjectNames() []string {
	names := make([]string, len(w.Projects))
	for i, p := range w.Projects {
		names[i] = p.Name
	}
	return names
}

// projectName reads the module path from go.mod, falling back to the directory name.
func projectName(fsys filesystem.FileSystem, dir string) (string, error) {
	goModPath := filepath.Join(dir, "go.mod")
	if !fsys.Exists(goModPath) {
		return filepath.Base(dir), nil
	}

	data, err := fsys.ReadFile(goModPath)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}

	modulePath := modfile.ModulePath(data)
	if modulePath == "" {
		return "", fmt.Errorf("no module directive in %s", goModPath)
	}

	return extractProjectName(modulePath), nil
}

// extractProjectName extracts the project name from a module path, ignoring a
// major version suffix.
// e.g., "github.com/user/project/v2" -> "project".
func extractProjectName(modulePath string) string {
	if prefix, _, ok := module.SplitPathVersion(modulePath); ok {
		modulePath = prefix
	}
	parts := strings.Split(modulePath, "/")
	return parts[len(parts)-1]
}

func loadRootGitIgnore(fsys filesystem.FileSystem, root string) (gitignore.GitIgnore, error) {
	ignorePath := filepath.Join(root, ".gitignore")
	if !fsys.Exists(ignorePath) {
		return nil, nil
	}

	data, err := fsys.ReadFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .gitignore: %w", err)
	}

	return gitignore.New(bytes.NewReader(data), root, nil), nil
}

// dedupeProjectNames renames projects sharing a name to name-<directory>, then name-2, name-3...
func dedupeProjectNames(projects []models.Project) []models.Project {
	counts := make(map[string]int)
	for _, p := range projects {
		counts[p.Name]++
	}

	used := make(map[string]int)
	for i, p := range projects {
		name := p.Name
		if counts[p.Name] > 1 && path.Base(p.Directory) != p.Name {
			name = fmt.Sprintf("%s-%s", p.Name, path.Base(p.Directory))
		}

		if used[name] > 0 {
			name = fmt.Sprintf("%s-%d", name, used[name]+1)
		}

		used[name]++
		projects[i].Name = name
	}

	return projects
}
