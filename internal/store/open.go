package store

import (
	"fmt"

	"medstore/internal/config"
)

// Open builds the Storage selected by cfg. Relative paths resolve against workspace.
func Open(cfg config.StorageConfig, workspace string) (Storage, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendFile, "":
		return NewFileStorage(config.ResolvePath(workspace, cfg.Dir))
	case config.BackendSQLite:
		return NewSQLite(config.ResolvePath(workspace, cfg.SQLitePath))
	case config.BackendRedis:
		return NewRedis(cfg.RedisURL, cfg.KeyPrefix)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
