package database

import (
	"context"
	"fmt"
	"time"

	"archive-backend/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a connection pool and verifies it with a ping
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.HealthCheckPeriod = 30 * time.Second

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         UUID PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS items (
	id                UUID PRIMARY KEY,
	user_id           UUID NOT NULL REFERENCES users(id),
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	brand             TEXT NOT NULL CHECK (btrim(brand) <> ''),
	item_name         TEXT NOT NULL CHECK (btrim(item_name) <> ''),
	category          TEXT,
	season            TEXT,
	year              INTEGER,
	style_code        TEXT,
	colorway          TEXT,
	size              TEXT,
	purchase_date     DATE,
	purchase_price    NUMERIC(12, 2),
	purchase_location TEXT,
	condition         TEXT,
	description       TEXT,
	notes             TEXT,
	tags              TEXT[] NOT NULL DEFAULT '{}',
	is_for_sale       BOOLEAN NOT NULL DEFAULT FALSE,
	asking_price      NUMERIC(12, 2),
	location          TEXT
);

CREATE INDEX IF NOT EXISTS items_created_at_idx ON items (created_at DESC);

CREATE TABLE IF NOT EXISTS images (
	id            UUID PRIMARY KEY,
	item_id       UUID NOT NULL REFERENCES items(id),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	url           TEXT NOT NULL,
	is_primary    BOOLEAN NOT NULL DEFAULT FALSE,
	display_order INTEGER NOT NULL DEFAULT 0,
	alt_text      TEXT,
	file_size     BIGINT,
	width         INTEGER,
	height        INTEGER
);

CREATE INDEX IF NOT EXISTS images_item_order_idx ON images (item_id, display_order);

-- at most one primary image per item
CREATE UNIQUE INDEX IF NOT EXISTS images_one_primary_idx ON images (item_id) WHERE is_primary;
`

// EnsureSchema creates the tables and indexes if they do not exist yet
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
