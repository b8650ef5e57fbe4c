// Package backend builds the blob store (and optional change publisher) the
// logbook runs on, from configuration.
package backend

import (
	"context"

	"sitelog/internal/persistence"
	"sitelog/internal/services"
)

// CleanupFunc releases the resources behind a Result.
type CleanupFunc func() error

// Result is a ready-to-use store plus what goes with it.
type Result struct {
	Store persistence.BlobStore
	// Publisher is nil when change notifications are disabled.
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// Close runs Cleanup if there is one.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
