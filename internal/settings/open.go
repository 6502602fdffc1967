package settings

import (
	"context"
	"fmt"

	"github.com/mrcode/nightscout-widget/internal/config"
)

// Open returns the store selected by cfg.SettingsBackend
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.SettingsBackend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendRedis:
		return OpenRedis(ctx, cfg.RedisURL)
	case config.BackendFile, config.BackendSQLite:
		path, err := cfg.ResolveSettingsPath()
		if err != nil {
			return nil, err
		}
		if cfg.SettingsBackend == config.BackendSQLite {
			return OpenSQLite(ctx, path)
		}
		return NewFileStore(path), nil
	default:
		return nil, fmt.Errorf("unknown settings backend %q", cfg.SettingsBackend)
	}
}
