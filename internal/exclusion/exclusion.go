// Package exclusion turns the immediate-child names a user chose to skip
// into the absolute paths the copier compares against while walking.
//
// Only exact top-level child names are supported. There is no glob or
// nested-path matching.
package exclusion

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const separator = string(os.PathSeparator)

// Set is a set of absolute paths that must not be copied.
type Set map[string]struct{}

// Join appends name to dir with exactly one separator between them,
// however many trailing separators dir already has. dir is cleaned first
// so the result matches the paths the copier walks.
func Join(dir, name string) string {
	return strings.TrimRight(filepath.Clean(dir), `/\`) + separator + name
}

// Resolve builds the exclusion set for the given project directory.
// Duplicate names collapse; empty names and names containing a path
// separator are ignored.
func Resolve(projectDirectory string, childNames []string) Set {
	set := make(Set, len(childNames))
	for _, name := range childNames {
		if name == "" || strings.ContainsAny(name, `/\`) {
			continue
		}
		set[Join(projectDirectory, name)] = struct{}{}
	}
	return set
}

// Excludes reports whether path is a member of the set.
// A nil or empty set excludes nothing.
func (s Set) Excludes(path string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[path]
	return ok
}

// Len returns the number of excluded paths
func (s Set) Len() int {
	return len(s)
}

// Paths returns the excluded paths in sorted order
func (s Set) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
