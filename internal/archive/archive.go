// Package archive persists finished games to Postgres for history and
// later analysis. The hot path lives entirely in Redis; this sink only
// sees terminal snapshots, so a write failure never affects play.
package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AtharvKotekar/MafiaChain/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS finished_games (
	game_id     text PRIMARY KEY,
	winner      text NOT NULL,
	rounds      int NOT NULL,
	player_count int NOT NULL,
	survivors   text[] NOT NULL,
	snapshot    jsonb NOT NULL,
	created_at  timestamptz NOT NULL,
	archived_at timestamptz NOT NULL DEFAULT now()
);
`

// Archive writes terminal game snapshots to a Postgres pool.
type Archive struct {
	pool *pgxpool.Pool
}

// New connects to Postgres and ensures the finished_games table exists.
// The caller is responsible for calling Close.
func New(ctx context.Context, dsn string) (*Archive, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure finished_games table: %w", err)
	}
	return &Archive{pool: pool}, nil
}

func (a *Archive) Close() {
	a.pool.Close()
}

// ArchiveGame inserts the terminal snapshot. Re-archiving the same game
// overwrites the previous row, so a retried tick stays idempotent.
func (a *Archive) ArchiveGame(ctx context.Context, g *engine.Game) error {
	snapshot, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to marshal game %s: %w", g.ID, err)
	}

	var survivors []string
	for _, p := range g.Players {
		if p.IsAlive {
			survivors = append(survivors, p.ID)
		}
	}

	q := `
	INSERT INTO finished_games (game_id, winner, rounds, player_count, survivors, snapshot, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, to_timestamp($7::double precision / 1000))
	ON CONFLICT (game_id) DO UPDATE SET
		winner = EXCLUDED.winner,
		rounds = EXCLUDED.rounds,
		player_count = EXCLUDED.player_count,
		survivors = EXCLUDED.survivors,
		snapshot = EXCLUDED.snapshot,
		archived_at = now();
	`
	_, err = a.pool.Exec(ctx, q,
		g.ID, string(g.Winner), g.Round, len(g.Players), survivors, snapshot, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert finished game %s: %w", g.ID, err)
	}
	return nil
}
