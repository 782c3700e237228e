package license

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS licenses (
		license_key TEXT PRIMARY KEY,
		tier        TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at  TIMESTAMPTZ NOT NULL,
		revoked     BOOLEAN NOT NULL DEFAULT FALSE
	)
`

// PostgresStore implements Store on a pgx connection pool. The licenses
// table is created on open if missing.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create licenses table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Purchase(ctx context.Context, tier string) (*License, error) {
	dur, err := DurationForTier(tier)
	if err != nil {
		return nil, err
	}

	key, err := GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate license key: %w", err)
	}

	query := `
		INSERT INTO licenses (license_key, tier, expires_at)
		VALUES ($1, $2, NOW() + $3)
		RETURNING license_key, tier, created_at, expires_at, revoked
	`

	var lic License
	row := s.pool.QueryRow(ctx, query, key, tier, dur)
	if err := row.Scan(&lic.Key, &lic.Tier, &lic.CreatedAt, &lic.ExpiresAt, &lic.Revoked); err != nil {
		return nil, fmt.Errorf("insert license: %w", err)
	}
	return &lic, nil
}

func (s *PostgresStore) Status(ctx context.Context, key string) (*Status, error) {
	query := `
		SELECT tier, expires_at
		FROM licenses
		WHERE license_key = $1 AND revoked = FALSE AND expires_at > NOW()
	`

	var (
		tier      string
		expiresAt time.Time
	)
	row := s.pool.QueryRow(ctx, query, key)
	if err := row.Scan(&tier, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Status{Active: false}, nil
		}
		return nil, fmt.Errorf("query license status: %w", err)
	}
	return &Status{Active: true, Tier: tier, ExpiresAt: &expiresAt}, nil
}

func (s *PostgresStore) RevokeExpired(ctx context.Context) (int64, error) {
	query := `
		UPDATE licenses
		SET revoked = TRUE
		WHERE expires_at <= NOW() AND revoked = FALSE
	`

	tag, err := s.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("revoke expired licenses: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
