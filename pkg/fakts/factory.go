package fakts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"herre/pkg/config"
)

// FromConfig builds the source named by cfg.FaktsBackend ("auto" is already
// resolved by config.Load).
func FromConfig(ctx context.Context, cfg config.Config, dbPool *pgxpool.Pool, rdb *redis.Client, log *zap.SugaredLogger) (Source, error) {
	switch cfg.FaktsBackend {
	case "memory", "":
		return NewMemorySourceFromEnv(log), nil
	case "file":
		if cfg.FaktsFile == "" {
			return nil, errors.New("fakts backend file requires HERRE_FAKTS_FILE")
		}
		return NewFileSource(cfg.FaktsFile), nil
	case "env":
		return NewEnvSource(""), nil
	case "redis":
		if rdb == nil {
			return nil, errors.New("fakts backend redis requires REDIS_URL")
		}
		return NewRedisSource(rdb, ""), nil
	case "postgres":
		if dbPool == nil {
			return nil, errors.New("fakts backend postgres requires DATABASE_URL")
		}
		if err := EnsureSchema(ctx, dbPool); err != nil {
			return nil, fmt.Errorf("fakts schema: %w", err)
		}
		return NewPostgresSource(dbPool), nil
	}
	return nil, fmt.Errorf("unknown fakts backend %q", cfg.FaktsBackend)
}
