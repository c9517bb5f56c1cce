package workspace

import (
	"fmt"
	"path/filepath"

	"github.com/jakoblorz/go-gbuild/internal/filesystem"
)

// FindRoot walks up from startDir to the first directory containing .git
// (a directory for normal checkouts, a file for worktrees and submodules).
func FindRoot(fs filesystem.FileSystem, startDir string) (string, error) {
	dir := filepath.Clean(startDir)

	for {
		if fs.Exists(filepath.Join(dir, ".git")) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no git repository found at or above %s", startDir)
		}
		dir = parent
	}
}
