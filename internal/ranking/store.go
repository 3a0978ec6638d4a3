package ranking

import (
	"context"
	"database/sql"
	"fmt"

	"memoria/internal/ports"
)

// Store implements ports.LeaderboardPort on the SQL database provided by the
// runtime.
type Store struct {
	db *sql.DB
}

// NewStore creates the backing table when missing and returns the store.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	const ddl = `
		CREATE TABLE IF NOT EXISTS ranking (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			mode TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			score BIGINT NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("failed to create ranking table: %w", err)
	}
	return &Store{db: db}, nil
}

// Record persists the score of one finished session.
func (s *Store) Record(ctx context.Context, entry ports.Entry) error {
	const query = `
		INSERT INTO ranking (name, mode, difficulty, score, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.Name,
		entry.Mode,
		entry.Difficulty,
		entry.Score,
		entry.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ranking entry: %w", err)
	}
	return nil
}

// Top returns the best n entries ordered by score descending, most recent
// first on ties.
func (s *Store) Top(ctx context.Context, n int) ([]ports.Entry, error) {
	const query = `
		SELECT name, mode, difficulty, score, recorded_at
		FROM ranking
		ORDER BY score DESC, recorded_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking: %w", err)
	}
	defer rows.Close()

	var entries []ports.Entry
	for rows.Next() {
		var e ports.Entry
		if err := rows.Scan(&e.Name, &e.Mode, &e.Difficulty, &e.Score, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ranking entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ranking rows: %w", err)
	}
	return entries, nil
}
