package fakts

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource reads fakts from the fakts table; values are jsonb so a key
// may hold a string, number or object.
type PostgresSource struct {
	dbPool *pgxpool.Pool
}

func NewPostgresSource(dbPool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{dbPool: dbPool}
}

// EnsureSchema creates the fakts table. Idempotent.
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS fakts (
  key text PRIMARY KEY,
  value jsonb NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT NOW()
);`)
	return err
}

func (p *PostgresSource) Get(ctx context.Context, key string) (any, error) {
	var raw []byte
	err := p.dbPool.QueryRow(ctx, `SELECT value FROM fakts WHERE key=$1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Put upserts a fakt.
func (p *PostgresSource) Put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = p.dbPool.Exec(ctx, `INSERT INTO fakts(key,value) VALUES ($1,$2)
	  ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`, key, raw)
	return err
}
