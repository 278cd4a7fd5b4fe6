package database

import (
	"context"
	"fmt"
)

// schema is applied on every boot; each statement must be idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		seller_id INT NOT NULL,
		status TEXT NOT NULL DEFAULT 'available',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS products_seller_id_idx ON products (seller_id)`,

	`CREATE TABLE IF NOT EXISTS carts (
		user_id INT PRIMARY KEY,
		lines JSONB NOT NULL DEFAULT '[]',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		user_id INT NOT NULL,
		items JSONB NOT NULL,
		total_amount NUMERIC(14,2) NOT NULL,
		status TEXT NOT NULL,
		idempotency_key TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_id_created_at_idx ON orders (user_id, created_at DESC)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS orders_user_idempotency_key_idx ON orders (user_id, idempotency_key) WHERE idempotency_key IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS user_purchases (
		user_id INT NOT NULL,
		order_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, order_id)
	)`,

	`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id INT PRIMARY KEY,
		username TEXT NOT NULL CONSTRAINT user_profiles_username_key UNIQUE,
		email TEXT NOT NULL CONSTRAINT user_profiles_email_key UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the tables the API needs when they are missing.
func EnsureSchema(ctx context.Context, db DBTX) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
