package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/builder/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// supportedSchemaVersion is the newest schema this build understands
const supportedSchemaVersion = 1

// SQLiteStore keeps builds in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps an in-memory database alive and shared
	db.SetMaxOpenConns(1)

	// busy_timeout first so the rest wait on locks held by another process.
	// synchronous=FULL makes every committed save survive power loss.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := execWithRetry(db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	version, err := s.SchemaVersion()
	if err != nil {
		db.Close()
		return nil, err
	}
	if version > supportedSchemaVersion {
		db.Close()
		return nil, fmt.Errorf("%w: database schema version %d is newer than supported version %d",
			ErrInvalidSchema, version, supportedSchemaVersion)
	}

	return s, nil
}

// Path returns the database location
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// execWithRetry executes a statement with exponential backoff on lock errors
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// SchemaVersion returns the highest applied schema version
func (s *SQLiteStore) SchemaVersion() (int, error) {
	var version int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("query schema version: %w", err)
	}
	return version, nil
}

// List returns every saved build sorted by id
func (s *SQLiteStore) List() ([]models.BuildRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, project_directory, destination_directory, files_to_exclude
		FROM builds
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var records []models.BuildRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return records, nil
}

// Get returns the build saved under id
func (s *SQLiteStore) Get(id string) (models.BuildRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, project_directory, destination_directory, files_to_exclude
		FROM builds
		WHERE id = ?`, id)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BuildRecord{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return record, err
}

// Save upserts record under its id
func (s *SQLiteStore) Save(record models.BuildRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid build: %w", err)
	}

	exclusions := record.FilesToExclude
	if exclusions == nil {
		exclusions = []string{}
	}
	encoded, err := json.Marshal(exclusions)
	if err != nil {
		return fmt.Errorf("encode exclusions: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO builds (id, project_directory, destination_directory, files_to_exclude, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			project_directory = excluded.project_directory,
			destination_directory = excluded.destination_directory,
			files_to_exclude = excluded.files_to_exclude,
			updated_at = CURRENT_TIMESTAMP`,
		record.ID, record.ProjectDirectory, record.DestinationDirectory, string(encoded))
	if err != nil {
		return fmt.Errorf("save build %q: %w", record.ID, err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (models.BuildRecord, error) {
	var record models.BuildRecord
	var exclusions string
	if err := row.Scan(&record.ID, &record.ProjectDirectory, &record.DestinationDirectory, &exclusions); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record, err
		}
		return record, fmt.Errorf("scan build: %w", err)
	}

	if err := json.Unmarshal([]byte(exclusions), &record.FilesToExclude); err != nil {
		return record, fmt.Errorf("%w: build %q: files_to_exclude: %w", ErrInvalidSchema, record.ID, err)
	}
	if err := record.Validate(); err != nil {
		return record, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return record, nil
}
