package app

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"memoria/internal/bot"
	"memoria/internal/config"
	"memoria/internal/domain"
)

// maxAIPickAttempts bounds the machine's position hunt so a turn can never
// loop forever on a nearly exhausted board.
const maxAIPickAttempts = 200

// hintRevealCount is how many hidden cards a hint flips face-up at most.
const hintRevealCount = 2

// HintCooldownError rejects a hint issued before its cooldown expired.
type HintCooldownError struct {
	RemainingSec int
}

func (e *HintCooldownError) Error() string {
	return fmt.Sprintf("wait %ds before the next hint", e.RemainingSec)
}

// Session is the aggregate root of one game: deck, players, turn bookkeeping,
// special-power budgets and timing. All mutation goes through the Service,
// one call at a time.
type Session struct {
	ID         string
	Mode       domain.Mode
	Difficulty domain.Difficulty

	Deck   []domain.Card
	Groups map[string]int // value -> required match count
	Frozen []bool         // parallel to Deck; at most one true entry

	Human   domain.Player
	Machine domain.Player
	Bot     *bot.Opponent

	rules config.GameConfig
	rng   *rand.Rand

	turnOpened []int // positions opened by the human this turn
	aiSelected []int // positions opened by the machine this turn

	groupsFormed int
	specialsUsed int
	hintsUsed    int
	lastHintAt   time.Time

	startedAt     time.Time
	turnStartedAt time.Time
	finishedAt    time.Time
	finished      bool
	timedOut      bool
	scoreSaved    bool
}

// openCard runs the open phase of a human turn. The first open of a fresh
// turn hides stray face-up cards from the previous turn and restarts the
// response-time clock. Opening an already face-up card is a no-op.
func (s *Session) openCard(now time.Time, pos int) error {
	if pos < 0 || pos >= len(s.Deck) {
		return ErrOutOfRange
	}
	if s.Frozen[pos] {
		return ErrPositionFrozen
	}
	card := &s.Deck[pos]
	if card.Matched {
		return ErrPositionMatched
	}
	if card.FaceUp {
		return nil
	}
	if len(s.turnOpened) >= s.Difficulty.RevealCount() {
		return ErrTurnAwaitingResolve
	}

	if len(s.turnOpened) == 0 {
		domain.HideUnmatched(s.Deck)
		s.turnStartedAt = now
	}

	card.FaceUp = true
	s.Human.Award(s.rules.FlipReward)
	s.turnOpened = append(s.turnOpened, pos)
	return nil
}

// resolveTurn runs the resolve phase of a human turn. It is a no-op until
// exactly the required number of cards has been opened.
func (s *Session) resolveTurn(now time.Time) {
	if len(s.turnOpened) != s.Difficulty.RevealCount() {
		return
	}

	completed := s.matchOpened(s.turnOpened)
	if completed > 0 {
		s.groupsFormed += completed
		s.Human.Award(s.rules.GroupBonus*completed + s.speedBonus(now))
	} else {
		s.hideOpened(s.turnOpened)
		s.Human.Penalize(s.rules.MismatchPenalty)
	}

	s.turnOpened = s.turnOpened[:0]
	s.clearFrozen()
}

// aiOpen runs the open phase of a machine turn: stray cards are hidden, then
// the opponent picks selectable positions until the turn quota is met or the
// board runs out.
func (s *Session) aiOpen() {
	s.aiSelected = s.aiSelected[:0]
	domain.HideUnmatched(s.Deck)

	required := s.Difficulty.RevealCount()
	for attempts := 0; len(s.aiSelected) < required && attempts < maxAIPickAttempts; attempts++ {
		pos := s.Bot.ChoosePosition(s.Deck, s.Frozen, s.Groups)
		if pos < 0 {
			break
		}
		s.Deck[pos].FaceUp = true
		s.Bot.Remember(pos, s.Deck[pos].Value)
		s.aiSelected = append(s.aiSelected, pos)
	}
}

// aiResolve settles the machine's opened cards. Points go to the machine in
// competitive mode and to the shared team score in cooperative mode.
func (s *Session) aiResolve() {
	target := &s.Machine
	if s.Mode == domain.ModeCooperative {
		target = &s.Human
	}

	completed := s.matchOpened(s.aiSelected)
	if completed > 0 {
		s.groupsFormed += completed
		target.Award(s.rules.GroupBonus * completed)
	} else if len(s.aiSelected) > 0 {
		s.hideOpened(s.aiSelected)
		target.Penalize(s.rules.MismatchPenalty)
	}

	s.aiSelected = s.aiSelected[:0]
	s.clearFrozen()
}

// matchOpened marks every completed group among the opened positions as
// matched and returns how many groups completed. Only whole multiples of a
// value's requirement match: a leftover copy beyond the last whole group
// stays unmatched so its remaining partners on the board can still pair it.
func (s *Session) matchOpened(opened []int) int {
	byValue := make(map[string][]int)
	for _, pos := range opened {
		value := s.Deck[pos].Value
		byValue[value] = append(byValue[value], pos)
	}

	completed := 0
	for value, positions := range byValue {
		required := s.Groups[value]
		if required == 0 || len(positions) < required {
			continue
		}
		whole := (len(positions) / required) * required
		sort.Ints(positions)
		for _, pos := range positions[:whole] {
			s.Deck[pos].Matched = true
		}
		completed += whole / required
	}
	return completed
}

// hideOpened flips the opened-but-unmatched positions back face-down.
func (s *Session) hideOpened(opened []int) {
	for _, pos := range opened {
		if !s.Deck[pos].Matched {
			s.Deck[pos].FaceUp = false
		}
	}
}

// speedBonus returns the tier bonus for the current turn's response time.
func (s *Session) speedBonus(now time.Time) int {
	elapsed := now.Sub(s.turnStartedAt).Seconds()
	for _, tier := range s.rules.SpeedTiers {
		if elapsed <= float64(tier.WithinSeconds) {
			return tier.Bonus
		}
	}
	return 0
}

// useShuffle permutes the positions holding hidden unmatched cards. Past the
// specials budget it is a silent no-op.
func (s *Session) useShuffle() {
	if s.specialsUsed >= s.rules.MaxSpecials {
		return
	}
	s.specialsUsed++

	var positions []int
	for i := range s.Deck {
		if !s.Deck[i].FaceUp && !s.Deck[i].Matched {
			positions = append(positions, i)
		}
	}
	s.rng.Shuffle(len(positions), func(i, j int) {
		s.Deck[positions[i]], s.Deck[positions[j]] = s.Deck[positions[j]], s.Deck[positions[i]]
	})

	// The hidden cards moved, so the machine's remembered positions are stale.
	s.Bot.Reset()
}

// useFreeze marks one hidden position as unopenable until the next resolved
// turn. Only one position is ever frozen at a time.
func (s *Session) useFreeze(pos int) error {
	if s.specialsUsed >= s.rules.MaxSpecials {
		return ErrNoSpecialsLeft
	}
	if pos < 0 || pos >= len(s.Deck) {
		return ErrOutOfRange
	}
	if s.Deck[pos].Matched {
		return ErrPositionMatched
	}
	if s.Deck[pos].FaceUp {
		return ErrPositionFaceUp
	}
	if s.Frozen[pos] {
		return ErrAlreadyFrozen
	}

	s.clearFrozen()
	s.Frozen[pos] = true
	s.specialsUsed++
	return nil
}

// useHint reveals up to two hidden cards. The revealed cards are not matched;
// they behave like normally opened cards and are hidden again by the next
// turn's stray sweep.
func (s *Session) useHint(now time.Time) error {
	if s.specialsUsed >= s.rules.MaxSpecials {
		return ErrNoSpecialsLeft
	}
	if s.hintsUsed >= s.rules.MaxHints {
		return ErrNoHintsLeft
	}
	if remaining := s.hintCooldownRemaining(now); remaining > 0 {
		return &HintCooldownError{RemainingSec: remaining}
	}

	s.hintsUsed++
	s.specialsUsed++
	s.lastHintAt = now

	var hidden []int
	for i := range s.Deck {
		if !s.Deck[i].FaceUp && !s.Deck[i].Matched {
			hidden = append(hidden, i)
		}
	}
	s.rng.Shuffle(len(hidden), func(i, j int) {
		hidden[i], hidden[j] = hidden[j], hidden[i]
	})
	if len(hidden) > hintRevealCount {
		hidden = hidden[:hintRevealCount]
	}
	for _, pos := range hidden {
		s.Deck[pos].FaceUp = true
	}
	return nil
}

func (s *Session) clearFrozen() {
	for i := range s.Frozen {
		s.Frozen[i] = false
	}
}

// refreshFinish samples the wall clock and latches the finished state: all
// cards matched, or the cooperative countdown expiring first.
func (s *Session) refreshFinish(now time.Time) {
	if s.finished {
		return
	}
	allFound := domain.AllMatched(s.Deck)
	timedOut := s.Mode == domain.ModeCooperative && !allFound && s.remainingSeconds(now) <= 0
	if allFound || timedOut {
		s.finished = true
		s.timedOut = timedOut
		s.finishedAt = now
	}
}

func (s *Session) elapsedSeconds(now time.Time) int {
	end := now
	if s.finished {
		end = s.finishedAt
	}
	return int(end.Sub(s.startedAt).Seconds())
}

func (s *Session) remainingSeconds(now time.Time) int {
	remaining := s.rules.CoopTimeLimitSeconds - s.elapsedSeconds(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (s *Session) hintCooldownRemaining(now time.Time) int {
	if s.lastHintAt.IsZero() {
		return 0
	}
	remaining := s.rules.HintCooldownSeconds - int(now.Sub(s.lastHintAt).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// snapshot builds the serializable session view at the given instant.
func (s *Session) snapshot(now time.Time) *domain.Snapshot {
	cooldown := s.hintCooldownRemaining(now)
	if s.hintsUsed >= s.rules.MaxHints {
		cooldown = 0
	}

	snap := &domain.Snapshot{
		SessionID:       s.ID,
		Cards:           append([]domain.Card(nil), s.Deck...),
		Finished:        s.finished,
		Mode:            s.Mode,
		Difficulty:      s.Difficulty,
		Score:           s.Human.Score,
		ElapsedSec:      s.elapsedSeconds(now),
		SpecialsLeft:    s.rules.MaxSpecials - s.specialsUsed,
		HintsLeft:       s.rules.MaxHints - s.hintsUsed,
		HintCooldownSec: cooldown,
		Frozen:          append([]bool(nil), s.Frozen...),
	}

	switch s.Mode {
	case domain.ModeCompetitive:
		snap.MachineScore = s.Machine.Score
	case domain.ModeCooperative:
		snap.RemainingSec = s.remainingSeconds(now)
		snap.TimedOut = s.timedOut
		snap.AllFound = domain.AllMatched(s.Deck)
	}
	return snap
}
