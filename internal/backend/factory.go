package backend

import (
	"context"
	"fmt"
	"log/slog"

	"comforty/internal/catalog/memory"
	"comforty/internal/catalog/sanity"
	"comforty/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SanityBackend:
		return f.createSanityStore(config)
	case SnapshotBackend:
		return f.createSnapshotStore(config)
	case MemoryBackend:
		return f.createMemoryStore(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSanityStore(config Config) (*Result, error) {
	if config.SanityProjectID == "" {
		return nil, fmt.Errorf("sanity backend requires a project ID")
	}
	client := sanity.NewFromProject(config.SanityProjectID, config.SanityDataset, config.SanityAPIVersion, config.SanityToken)

	f.logger.Info("Initialized sanity backend",
		"project", config.SanityProjectID,
		"dataset", config.SanityDataset)

	return &Result{Store: client}, nil
}

func (f *DefaultFactory) createSnapshotStore(config Config) (*Result, error) {
	repo, err := storage.NewSnapshotRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize snapshot repository: %w", err)
	}

	f.logger.Info("Initialized snapshot backend", "db_path", config.SQLiteDBPath)

	return &Result{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) (*Result, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store := memory.NewFromFiles(dataDir)

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &Result{Store: store}, nil
}
