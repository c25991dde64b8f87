package draftstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"SanduqVerify/internal/core/ports"
)

// postgresStore persists draft keys in a single table:
//
//	CREATE TABLE IF NOT EXISTS verification_drafts (
//	    session_scope TEXT NOT NULL,
//	    key           TEXT NOT NULL,
//	    value         TEXT NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    PRIMARY KEY (session_scope, key)
//	);
type postgresStore struct {
	pool  *pgxpool.Pool
	scope string
	log   zerolog.Logger
}

var _ ports.DraftStore = (*postgresStore)(nil) // Ensure compliance

// NewPostgresStore creates and tests a new database connection.
func NewPostgresStore(ctx context.Context, connString, scope string, baseLogger *zerolog.Logger) (ports.DraftStore, func(), error) {
	log := baseLogger.With().Str("component", "postgres_draft_store").Logger()

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse DB connection string")
		return nil, nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create connection pool")
		return nil, nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to ping database")
		pool.Close()
		return nil, nil, err
	}

	log.Info().Msg("Database connection pool established")
	store := &postgresStore{pool: pool, scope: scope, log: log}
	return store, pool.Close, nil
}

func (s *postgresStore) Put(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO verification_drafts (session_scope, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (session_scope, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, query, s.scope, key, value); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to upsert draft key")
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *postgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM verification_drafts WHERE session_scope = $1 AND key = $2`

	var value string
	err := s.pool.QueryRow(ctx, query, s.scope, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to read draft key")
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *postgresStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM verification_drafts WHERE session_scope = $1 AND key = $2`
	if _, err := s.pool.Exec(ctx, query, s.scope, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
