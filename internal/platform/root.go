package platform

import (
	"fmt"
	"path/filepath"

	"github.com/aretw0/outline/pkg/adapters/fs"
)

// rootMarkers identify the top directory of a graph, closest first.
var rootMarkers = []string{"logseq", fs.DefaultSystemDir, ".git"}

// FindRoot walks up from startDir looking for a graph root: a directory
// holding a logseq/ config dir, a .outline system dir or a .git repository.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, marker := range rootMarkers {
			if exists(filepath.Join(dir, marker)) {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("graph root not found from %s", abs)
}
