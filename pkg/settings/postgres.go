package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresBackend struct {
	dbPool *pgxpool.Pool
}

func NewPostgresBackend(dbPool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{dbPool: dbPool}
}

// EnsureSchema creates the settings table. Idempotent.
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS herre_settings (
  key text PRIMARY KEY,
  value text NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT NOW()
);`)
	return err
}

func (p *PostgresBackend) Value(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := p.dbPool.QueryRow(ctx, `SELECT value FROM herre_settings WHERE key=$1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (p *PostgresBackend) SetValue(ctx context.Context, key, value string) error {
	_, err := p.dbPool.Exec(ctx, `INSERT INTO herre_settings(key,value) VALUES ($1,$2)
	  ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`, key, value)
	return err
}
