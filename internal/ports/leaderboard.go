package ports

import (
	"context"
	"time"
)

// Entry is one persisted leaderboard row.
type Entry struct {
	Name       string    `json:"name"`
	Mode       string    `json:"mode"`
	Difficulty string    `json:"difficulty"`
	Score      int       `json:"score"`
	RecordedAt time.Time `json:"recorded_at"`
}

// LeaderboardPort defines durable top-score storage.
type LeaderboardPort interface {
	// Record persists the score of one finished session.
	Record(ctx context.Context, entry Entry) error

	// Top returns the best n entries ordered by score descending, then by
	// most recent first.
	Top(ctx context.Context, n int) ([]Entry, error)
}
