package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// Validation messages shown inline by the text prompt
var (
	ErrPathRequired = errors.New("path is required")
	ErrPathNotExist = errors.New("path does not exist")
)

// ExpandPath trims the input, expands a leading ~ to the user's home
// directory and makes the result absolute.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrPathRequired
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path %s: %w", path, err)
	}
	return abs, nil
}

// PathExists reports whether path exists on fs. Errors other than
// "not exist" (permission denied on a parent, for instance) count as
// existing so the copy reports the real failure later.
func PathExists(fs billy.Filesystem, path string) bool {
	_, err := fs.Stat(path)
	if err == nil {
		return true
	}
	return !errors.Is(err, os.ErrNotExist)
}

// ValidateExistingPath returns a validator for text prompts: the input
// must be non-empty and, once expanded, exist on fs.
func ValidateExistingPath(fs billy.Filesystem) func(string) error {
	return func(value string) error {
		if strings.TrimSpace(value) == "" {
			return ErrPathRequired
		}
		path, err := ExpandPath(value)
		if err != nil {
			return err
		}
		if !PathExists(fs, path) {
			return ErrPathNotExist
		}
		return nil
	}
}
