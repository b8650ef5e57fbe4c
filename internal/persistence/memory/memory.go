package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"sitelog/internal/persistence"
)

var _ persistence.BlobStore = (*Store)(nil)

// Store keeps blobs in process memory. Nothing survives a restart.
type Store struct {
	mu    sync.Mutex
	blobs map[string][]byte
	saves int
}

func New() *Store {
	return &Store{blobs: map[string][]byte{}}
}

// NewFromDir seeds the store from <base>/<key>.json files. Missing or
// unreadable files are skipped.
func NewFromDir(base string) *Store {
	s := New()
	if base == "" {
		return s
	}
	for _, key := range persistence.Keys {
		b, err := os.ReadFile(filepath.Join(base, key+".json"))
		if err != nil || len(b) == 0 {
			continue
		}
		s.blobs[key] = b
	}
	return s
}

func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (s *Store) Save(_ context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), blob...)
	s.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
