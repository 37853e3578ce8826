package session

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/json-iterator/go"
)

// Marker is the locally cached belief that a server session exists. It is
// optimistic: the server may have dropped the session since VerifiedAt.
type Marker struct {
	HasSession bool       `json:"has_session"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// Store persists the Marker
type Store interface {
	Load() (Marker, error)
	Save(Marker) error
	Clear() error
}

// FileStore keeps the marker in a JSON file readable only by the owner
type FileStore struct {
	path string
}

// NewFileStore creates a store at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the marker; a missing file is an empty marker
func (s *FileStore) Load() (Marker, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Marker{}, nil
		}
		return Marker{}, err
	}

	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return Marker{}, err
	}
	return m, nil
}

// Save writes the marker atomically
func (s *FileStore) Save(m Marker) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Clear removes the marker
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemoryStore keeps the marker in memory
type MemoryStore struct {
	mu     sync.Mutex
	marker Marker
}

// NewMemoryStore creates a store holding m
func NewMemoryStore(m Marker) *MemoryStore {
	return &MemoryStore{marker: m}
}

func (s *MemoryStore) Load() (Marker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marker, nil
}

func (s *MemoryStore) Save(m Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = m
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = Marker{}
	return nil
}
