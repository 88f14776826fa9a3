// Package store persists saved build definitions.
//
// Builds live under a single top-level "builds" mapping keyed by build id.
// Entries are only added or overwritten by Save; nothing is ever deleted.
// Every Save is durable before it returns.
package store

import (
	"errors"
	"fmt"

	"github.com/harrison/builder/internal/config"
	"github.com/harrison/builder/internal/models"
)

var (
	// ErrNotFound is returned by Get when no build has the requested id.
	ErrNotFound = errors.New("build not found")

	// ErrInvalidSchema is returned when persisted data does not match the
	// builds schema.
	ErrInvalidSchema = errors.New("build store does not match schema")
)

// Store is a keyed collection of build records.
type Store interface {
	// List returns every saved build sorted by id.
	List() ([]models.BuildRecord, error)
	// Get returns the build saved under id, or ErrNotFound.
	Get(id string) (models.BuildRecord, error)
	// Save stores record under record.ID, replacing any previous entry.
	Save(record models.BuildRecord) error
	// Path returns where the builds are persisted.
	Path() string
	// Close releases the backend.
	Close() error
}

// Open returns the store backend selected by cfg, rooted in home.
func Open(cfg config.StoreConfig, home string) (Store, error) {
	path := config.GetStorePath(home, cfg)

	switch cfg.Backend {
	case config.BackendYAML, "":
		return NewFileStore(path)
	case config.BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
