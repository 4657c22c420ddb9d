package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/starford/planthub/internal/apperr"
)

const postgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS planthub_kv (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Postgres implements Provider and Batcher on a PostgreSQL table via pgx.
type Postgres struct {
	conn *sql.DB
}

// OpenPostgres connects with the pgx database/sql driver, verifies the
// connection and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open postgres: %w", err)
	}

	// A single-user hub needs very few connections.
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(5 * time.Minute)
	conn.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("kvstore: ping postgres: %w", err)
	}
	if _, err := conn.ExecContext(ctx, postgresSchemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("kvstore: apply postgres schema: %w", err)
	}
	return &Postgres{conn: conn}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := p.conn.QueryRowContext(ctx, `SELECT value FROM planthub_kv WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("kvstore: %s: %w", key, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("kvstore: get %s: %w", key, err)
	}
	return v, nil
}

func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	return p.PutMany(ctx, map[string][]byte{key: value})
}

// PutMany upserts every value inside one transaction.
func (p *Postgres) PutMany(ctx context.Context, values map[string][]byte) error {
	for k := range values {
		if err := ValidateKey(k); err != nil {
			return err
		}
	}
	tx, err := p.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("kvstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for k, v := range values {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO planthub_kv (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET
				value      = EXCLUDED.value,
				updated_at = EXCLUDED.updated_at
		`, k, v)
		if err != nil {
			return fmt.Errorf("kvstore: upsert %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.conn.ExecContext(ctx, `DELETE FROM planthub_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("kvstore: delete %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Keys(ctx context.Context) ([]string, error) {
	return queryKeys(ctx, p.conn, `SELECT key FROM planthub_kv ORDER BY key`)
}

func (p *Postgres) Close() error {
	return p.conn.Close()
}

var (
	_ Provider = (*Postgres)(nil)
	_ Batcher  = (*Postgres)(nil)
)
