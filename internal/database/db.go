// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxBeginner is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Schema creates the archive tables. It is safe to run on every start. Rooms
// are keyed by session id since room codes are recycled.
const Schema = `
CREATE TABLE IF NOT EXISTS rooms (
	session_id UUID PRIMARY KEY,
	code       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'in_progress',
	started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	ended_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS rooms_code_idx ON rooms (code);

CREATE TABLE IF NOT EXISTS room_actions (
	session_id     UUID NOT NULL REFERENCES rooms(session_id) ON DELETE CASCADE,
	action_index   INT NOT NULL,
	actor_id       UUID NOT NULL,
	action_type    TEXT NOT NULL,
	action_payload JSONB NOT NULL DEFAULT '{}',
	created_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (session_id, action_index)
);

CREATE TABLE IF NOT EXISTS room_results (
	session_id    UUID NOT NULL REFERENCES rooms(session_id) ON DELETE CASCADE,
	player_id     UUID NOT NULL,
	username      TEXT NOT NULL,
	placement     INT NOT NULL,
	total_score   INT NOT NULL,
	eliminated_in INT NOT NULL DEFAULT 0,
	did_win       BOOLEAN NOT NULL,
	PRIMARY KEY (session_id, player_id)
);
`

// Connect creates a pgx pool for url and pings it.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

// Migrate applies Schema.
func Migrate(ctx context.Context, db TxBeginner) error {
	return pgx.BeginTxFunc(ctx, db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, Schema)
		return err
	})
}
