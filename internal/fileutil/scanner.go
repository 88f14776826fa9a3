package fileutil

import (
	"fmt"
	"sort"

	"github.com/go-git/go-billy/v5"
)

// ListChildren returns the names of the immediate children of dir,
// sorted alphabetically. Hidden entries are included: they are the usual
// candidates for exclusion (.git, .env).
func ListChildren(fs billy.Filesystem, dir string) ([]string, error) {
	info, err := fs.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	// Sort for consistent prompt numbering
	sort.Strings(names)

	return names, nil
}
