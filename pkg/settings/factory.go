package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"herre/pkg/config"
)

// FromConfig builds the backend named by cfg.SettingsBackend. Postgres and
// Redis backends need the matching connection.
func FromConfig(ctx context.Context, cfg config.Config, dbPool *pgxpool.Pool, rdb *redis.Client) (Backend, error) {
	switch cfg.SettingsBackend {
	case "memory":
		return NewMemoryBackend(), nil
	case "file", "":
		return NewFileBackend(cfg.SettingsFile)
	case "redis":
		if rdb == nil {
			return nil, errors.New("settings backend redis requires REDIS_URL")
		}
		return NewRedisBackend(rdb, ""), nil
	case "postgres":
		if dbPool == nil {
			return nil, errors.New("settings backend postgres requires DATABASE_URL")
		}
		if err := EnsureSchema(ctx, dbPool); err != nil {
			return nil, fmt.Errorf("settings schema: %w", err)
		}
		return NewPostgresBackend(dbPool), nil
	case "keyring":
		return NewKeyringBackend(""), nil
	}
	return nil, fmt.Errorf("unknown settings backend %q", cfg.SettingsBackend)
}
