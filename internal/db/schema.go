package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema bootstraps the users table on startup. Idempotent, so it
// is safe to run on every boot.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			referral_code TEXT NOT NULL,
			points        INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
			referred_by   BIGINT REFERENCES users(id),
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT users_email_uniq UNIQUE (email),
			CONSTRAINT users_referral_code_uniq UNIQUE (referral_code)
		)
	`)

	return err
}
