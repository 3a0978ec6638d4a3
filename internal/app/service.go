package app

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"memoria/internal/bot"
	"memoria/internal/config"
	"memoria/internal/domain"
	"memoria/internal/ports"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionFinished     = errors.New("session already finished")
	ErrInvalidBoardSize    = errors.New("board size must be positive")
	ErrOutOfRange          = errors.New("position out of range")
	ErrPositionFrozen      = errors.New("position is frozen")
	ErrPositionMatched     = errors.New("position already matched")
	ErrPositionFaceUp      = errors.New("position already face-up")
	ErrAlreadyFrozen       = errors.New("position already frozen")
	ErrNoSpecialsLeft      = errors.New("special power budget exhausted")
	ErrNoHintsLeft         = errors.New("hint budget exhausted")
	ErrTurnAwaitingResolve = errors.New("turn already has its cards, resolve it first")
)

// Service owns the session registry and runs every game operation. Failed
// operations never mutate state, so any call is safe to re-issue.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*Session

	scores ports.LeaderboardPort
	rules  config.GameConfig
	rng    *rand.Rand
	now    func() time.Time
}

// NewService constructs a Service with the provided rng or a time-seeded
// default. scores receives each finished session's result exactly once.
func NewService(scores ports.LeaderboardPort, rules config.GameConfig, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		sessions: make(map[string]*Session),
		scores:   scores,
		rules:    rules,
		rng:      rng,
		now:      time.Now,
	}
}

// StartSession creates and registers a new game session and returns its
// first snapshot.
func (s *Service) StartSession(ctx context.Context, name, mode, difficulty string, boardSize int) (*domain.Snapshot, error) {
	m, err := domain.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	d, err := domain.ParseDifficulty(difficulty)
	if err != nil {
		return nil, err
	}
	if boardSize <= 0 {
		return nil, ErrInvalidBoardSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Fresh random source per session, derived from the service seed.
	sessRNG := rand.New(rand.NewSource(s.rng.Int63()))
	deck, groups := domain.GenerateDeck(sessRNG, d, boardSize)

	now := s.now()
	sess := &Session{
		ID:            uuid.NewString(),
		Mode:          m,
		Difficulty:    d,
		Deck:          deck,
		Groups:        groups,
		Frozen:        make([]bool, len(deck)),
		Human:         domain.Player{Name: name},
		Machine:       domain.Player{Name: "machine"},
		Bot:           bot.NewOpponent(d.MemorySize(), sessRNG),
		rules:         s.rules,
		rng:           sessRNG,
		startedAt:     now,
		turnStartedAt: now,
	}
	s.sessions[sess.ID] = sess

	return s.finalize(ctx, sess, now), nil
}

// State returns the session snapshot. As the snapshot accessor it also runs
// the finish check and persists the final score exactly once.
func (s *Service) State(ctx context.Context, id string) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return s.finalize(ctx, sess, s.now()), nil
}

// OpenCard opens one card for the human turn.
func (s *Service) OpenCard(ctx context.Context, id string, pos int) (*domain.Snapshot, error) {
	return s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		return sess.openCard(now, pos)
	})
}

// ResolveTurn settles the human turn once the required cards are open.
func (s *Service) ResolveTurn(ctx context.Context, id string) (*domain.Snapshot, error) {
	return s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		sess.resolveTurn(now)
		return nil
	})
}

// AIOpen runs the open phase of the machine's turn.
func (s *Service) AIOpen(ctx context.Context, id string) (*domain.Snapshot, error) {
	return s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		sess.aiOpen()
		return nil
	})
}

// AIResolve settles the machine's opened cards.
func (s *Service) AIResolve(ctx context.Context, id string) (*domain.Snapshot, error) {
	return s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		sess.aiResolve()
		return nil
	})
}

// UseShuffle permutes the hidden unmatched cards. Past the specials budget
// it silently returns the unchanged snapshot.
func (s *Service) UseShuffle(ctx context.Context, id string) (*domain.Snapshot, error) {
	return s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		sess.useShuffle()
		return nil
	})
}

// UseFreeze blocks one position from being opened until the next resolved
// turn.
func (s *Service) UseFreeze(ctx context.Context, id string, pos int) (*domain.Snapshot, error) {
	return s.mutate(ctx, id, func(sess *Session, _ time.Time) error {
		return sess.useFreeze(pos)
	})
}

// UseHint reveals up to two hidden cards, subject to budget and cooldown.
func (s *Service) UseHint(ctx context.Context, id string) (*domain.Snapshot, error) {
	return s.mutate(ctx, id, func(sess *Session, now time.Time) error {
		return sess.useHint(now)
	})
}

// mutate looks the session up, rejects finished sessions, applies op and
// returns the fresh snapshot. op errors leave the session untouched.
func (s *Service) mutate(ctx context.Context, id string, op func(*Session, time.Time) error) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess.refreshFinish(now)
	if sess.finished {
		return nil, ErrSessionFinished
	}
	if err := op(sess, now); err != nil {
		return nil, err
	}
	return s.finalize(ctx, sess, now), nil
}

// session must be called with s.mu held.
func (s *Service) session(id string) (*Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// finalize latches the finished state, persists the score once, and builds
// the snapshot. A failed persist leaves the saved flag unset so the next
// state read retries it.
func (s *Service) finalize(ctx context.Context, sess *Session, now time.Time) *domain.Snapshot {
	sess.refreshFinish(now)
	if sess.finished && !sess.scoreSaved && s.scores != nil {
		entry := ports.Entry{
			Name:       sess.Human.Name,
			Mode:       string(sess.Mode),
			Difficulty: string(sess.Difficulty),
			Score:      sess.Human.Score,
			RecordedAt: now,
		}
		if err := s.scores.Record(ctx, entry); err == nil {
			sess.scoreSaved = true
		}
	}
	return sess.snapshot(now)
}
