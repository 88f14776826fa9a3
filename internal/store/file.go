package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/harrison/builder/internal/filelock"
	"github.com/harrison/builder/internal/models"
	"gopkg.in/yaml.v3"
)

// document is the on-disk layout of the YAML store
type document struct {
	Builds map[string]models.BuildRecord `yaml:"builds"`
}

// FileStore keeps builds in a YAML document guarded by a flock lock.
type FileStore struct {
	path string
	lock *filelock.FileLock
}

// NewFileStore opens the YAML store at path, creating an empty document
// on first use. An existing document must match the schema.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		lock: filelock.ForFile(path),
	}

	if err := s.lock.Lock(); err != nil {
		return nil, err
	}
	defer s.lock.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if err := s.write(doc); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns the document location
func (s *FileStore) Path() string {
	return s.path
}

// List returns every saved build sorted by id
func (s *FileStore) List() ([]models.BuildRecord, error) {
	doc, err := s.readLocked()
	if err != nil {
		return nil, err
	}

	records := make([]models.BuildRecord, 0, len(doc.Builds))
	for _, record := range doc.Builds {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// Get returns the build saved under id
func (s *FileStore) Get(id string) (models.BuildRecord, error) {
	doc, err := s.readLocked()
	if err != nil {
		return models.BuildRecord{}, err
	}

	record, ok := doc.Builds[id]
	if !ok {
		return models.BuildRecord{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return record, nil
}

// Save writes record under its id, overwriting any previous entry
func (s *FileStore) Save(record models.BuildRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid build: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return err
	}
	defer s.lock.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Builds[record.ID] = record.Clone()

	return s.write(doc)
}

// Close is a no-op; the document is never held open
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) readLocked() (*document, error) {
	if err := s.lock.RLock(); err != nil {
		return nil, err
	}
	defer s.lock.Unlock()

	return s.load()
}

// load decodes the document strictly. A missing or empty file is an empty
// store. Caller must hold the lock.
func (s *FileStore) load() (*document, error) {
	doc := &document{Builds: map[string]models.BuildRecord{}}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read build store: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &document{Builds: map[string]models.BuildRecord{}}, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSchema, s.path, err)
	}
	if doc.Builds == nil {
		doc.Builds = map[string]models.BuildRecord{}
	}

	for id, record := range doc.Builds {
		record.ID = id
		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSchema, s.path, err)
		}
		doc.Builds[id] = record
	}
	return doc, nil
}

// write encodes doc and replaces the file atomically. Caller must hold
// the exclusive lock.
func (s *FileStore) write(doc *document) error {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode build store: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to encode build store: %w", err)
	}

	if err := filelock.AtomicWrite(s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to save build store: %w", err)
	}
	return nil
}
