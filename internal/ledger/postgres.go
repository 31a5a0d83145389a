package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/nps-watcher/internal/types"
)

// PostgresLedger keeps the comment log in an insert-only Postgres table.
// Selected when DATABASE_URL is configured, e.g. when several machines share
// one ledger.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool and ensures the ledger table
// exists.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresLedger, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	_, err = pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS nps_comments (
			id BIGSERIAL PRIMARY KEY,
			store TEXT NOT NULL,
			ts TEXT NOT NULL,
			comment TEXT NOT NULL,
			score TEXT NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure ledger table: %w", err)
	}

	return &PostgresLedger{pool: pool}, nil
}

// LoadSeen reads the identities of every previously committed comment.
func (l *PostgresLedger) LoadSeen(ctx context.Context) (map[types.Identity]struct{}, error) {
	rows, err := l.pool.Query(ctx, `SELECT store, ts, comment FROM nps_comments`)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	defer rows.Close()

	seen := make(map[types.Identity]struct{})
	for rows.Next() {
		var id types.Identity
		if err := rows.Scan(&id.Store, &id.Timestamp, &id.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		seen[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return seen, nil
}

// Append inserts the given comments in order within one transaction, so a
// partially committed cycle never becomes visible.
func (l *PostgresLedger) Append(ctx context.Context, comments []types.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, c := range comments {
		batch.Queue(
			`INSERT INTO nps_comments (store, ts, comment, score) VALUES ($1, $2, $3, $4)`,
			c.Store, c.Timestamp, c.Comment, c.Score,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to append to ledger: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ledger append: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (l *PostgresLedger) Close() {
	if l.pool != nil {
		l.pool.Close()
	}
}
