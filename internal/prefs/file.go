package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every client's preferences in one JSON document on disk.
// Writes replace the file atomically.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore stores preferences at path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type fileDocument map[string]map[string]json.RawMessage

// load returns an empty document when the file is missing. A file that is not
// valid JSON also reads as empty so a damaged file never blocks the CLI.
func (s *FileStore) load() (fileDocument, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileDocument{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	doc := fileDocument{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fileDocument{}, nil
	}
	return doc, nil
}

func (s *FileStore) save(doc fileDocument) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, clientID, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	v, ok := doc[clientID][name]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

// Set stores value, which must be valid JSON.
func (s *FileStore) Set(_ context.Context, clientID, name string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("prefs: value for %q is not JSON", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	if doc[clientID] == nil {
		doc[clientID] = map[string]json.RawMessage{}
	}
	doc[clientID][name] = json.RawMessage(append([]byte(nil), value...))
	return s.save(doc)
}

func (s *FileStore) Delete(_ context.Context, clientID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc[clientID][name]; !ok {
		return nil
	}
	delete(doc[clientID], name)
	if len(doc[clientID]) == 0 {
		delete(doc, clientID)
	}
	return s.save(doc)
}
