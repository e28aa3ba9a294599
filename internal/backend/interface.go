package backend

import (
	"context"

	"comforty/internal/catalog"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result contains the catalog store and an optional cleanup function.
type Result struct {
	Store   catalog.Store
	Cleanup CleanupFunc
}

// Factory creates catalog stores based on configuration
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for store creation
type Config struct {
	Type Type

	// Sanity specific
	SanityProjectID  string
	SanityDataset    string
	SanityAPIVersion string
	SanityToken      string

	// Snapshot specific
	SQLiteDBPath string

	// Memory backend specific
	DataDirectory string
}

// Type selects where catalog records are read from.
type Type string

const (
	SanityBackend   Type = "sanity"   // live GROQ queries against the CMS
	SnapshotBackend Type = "snapshot" // local SQLite copy kept by the worker
	MemoryBackend   Type = "memory"   // seed files, for development
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SanityBackend, SnapshotBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
