package backend

import (
	"fmt"

	"comforty/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := Type(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SanityProjectID:  appConfig.SanityProjectID,
		SanityDataset:    appConfig.SanityDataset,
		SanityAPIVersion: appConfig.SanityAPIVersion,
		SanityToken:      appConfig.SanityToken,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		DataDirectory: "data",
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SanityBackend:
		if c.SanityProjectID == "" {
			return fmt.Errorf("sanity project ID is required for the sanity backend")
		}
	case SnapshotBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for the snapshot backend")
		}
	case MemoryBackend:
		// DataDirectory defaults to "data" when empty.
	}

	return nil
}
