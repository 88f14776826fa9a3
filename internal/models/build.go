package models

import (
	"errors"
	"fmt"
	"strings"
)

// BuildRecord is a saved build definition: copy ProjectDirectory into
// DestinationDirectory, skipping the listed immediate children.
type BuildRecord struct {
	ID                   string   `yaml:"-"`
	ProjectDirectory     string   `yaml:"projectDirectory"`
	DestinationDirectory string   `yaml:"destinationDirectory"`
	FilesToExclude       []string `yaml:"filesToExclude"`
}

// Validate checks the record against the persisted builds schema
func (b *BuildRecord) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return errors.New("build id is required")
	}
	if b.ProjectDirectory == "" {
		return fmt.Errorf("build %q: project directory is required", b.ID)
	}
	if b.DestinationDirectory == "" {
		return fmt.Errorf("build %q: destination directory is required", b.ID)
	}
	for _, name := range b.FilesToExclude {
		if name == "" {
			return fmt.Errorf("build %q: empty entry in filesToExclude", b.ID)
		}
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("build %q: filesToExclude entry %q must be an immediate child name", b.ID, name)
		}
	}
	return nil
}

// Label formats the record the way it is listed in selection prompts
func (b *BuildRecord) Label() string {
	return fmt.Sprintf("%s - Project Dir: %s | Destination Dir: %s", b.ID, b.ProjectDirectory, b.DestinationDirectory)
}

// Clone returns a deep copy so callers can modify FilesToExclude freely
func (b BuildRecord) Clone() BuildRecord {
	if b.FilesToExclude != nil {
		b.FilesToExclude = append([]string(nil), b.FilesToExclude...)
	}
	return b
}
