package storage

import (
	"fmt"

	"sportsync/internal/pkg/config"
)

// New creates the mapping store named by the configuration.
func New(cfg *config.StorageConfig) (MappingStore, error) {
	switch cfg.Backend {
	case "postgres":
		return NewPostgresMappingStore(&cfg.Postgres)
	case "sqlite":
		return NewSQLiteMappingStore(&cfg.SQLite)
	case "":
		return nil, ErrNotConfigured
	}
	return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
}
