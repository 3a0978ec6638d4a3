package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStartSessionValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name       string
		mode       string
		difficulty string
		size       int
	}{
		{name: "unknown mode", mode: "ranked", difficulty: "easy", size: 8},
		{name: "unknown difficulty", mode: "competitive", difficulty: "nightmare", size: 8},
		{name: "zero board", mode: "competitive", difficulty: "easy", size: 0},
		{name: "negative board", mode: "competitive", difficulty: "easy", size: -4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.StartSession(ctx, "ana", tt.mode, tt.difficulty, tt.size); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestStartSessionSnapshot(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	snap, err := svc.StartSession(ctx, "ana", "competitive", "medium", 9)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if snap.SessionID == "" {
		t.Fatalf("session id should not be empty")
	}
	if len(snap.Cards)%3 != 0 {
		t.Fatalf("medium board of %d cards is not a multiple of 3", len(snap.Cards))
	}
	for i, c := range snap.Cards {
		if c.FaceUp || c.Matched {
			t.Fatalf("card %d starts %+v, want hidden and unmatched", i, c)
		}
	}
	if snap.SpecialsLeft != 3 || snap.HintsLeft != 3 {
		t.Fatalf("budgets = %d/%d, want 3/3", snap.SpecialsLeft, snap.HintsLeft)
	}
	if snap.Finished {
		t.Fatalf("fresh session should not be finished")
	}
}

func TestUnknownSessionID(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.State(ctx, "no-such-id"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want %v", err, ErrSessionNotFound)
	}
	if _, err := svc.OpenCard(ctx, "no-such-id", 0); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want %v", err, ErrSessionNotFound)
	}
}

func TestFinishedSessionRejectsOperations(t *testing.T) {
	svc, _, _ := newTestService()
	sess := startForcedSession(t, svc, "competitive", "easy", []string{"a", "a"}, map[string]int{"a": 2})
	ctx := context.Background()

	for _, pos := range []int{0, 1} {
		if _, err := svc.OpenCard(ctx, sess.ID, pos); err != nil {
			t.Fatalf("open %d: %v", pos, err)
		}
	}
	snap, err := svc.ResolveTurn(ctx, sess.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !snap.Finished {
		t.Fatalf("session should be finished once every card is matched")
	}

	if _, err := svc.OpenCard(ctx, sess.ID, 0); !errors.Is(err, ErrSessionFinished) {
		t.Fatalf("err = %v, want %v", err, ErrSessionFinished)
	}
	if _, err := svc.UseShuffle(ctx, sess.ID); !errors.Is(err, ErrSessionFinished) {
		t.Fatalf("err = %v, want %v", err, ErrSessionFinished)
	}

	// State stays readable after the end.
	if _, err := svc.State(ctx, sess.ID); err != nil {
		t.Fatalf("state after finish: %v", err)
	}
}

func TestCooperativeTimeout(t *testing.T) {
	svc, _, clk := newTestService()
	sess := startForcedSession(t, svc, "cooperative", "easy", []string{"a", "b", "a", "b"}, pairGroups())
	ctx := context.Background()

	snap, err := svc.State(ctx, sess.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if snap.RemainingSec != 120 {
		t.Fatalf("remaining = %ds, want 120s", snap.RemainingSec)
	}

	clk.advance(121 * time.Second)
	snap, err = svc.State(ctx, sess.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !snap.Finished || !snap.TimedOut || snap.AllFound {
		t.Fatalf("snapshot = %+v, want finished by timeout", snap)
	}
	if snap.RemainingSec != 0 {
		t.Fatalf("remaining = %ds, want 0s", snap.RemainingSec)
	}
	if _, err := svc.OpenCard(ctx, sess.ID, 0); !errors.Is(err, ErrSessionFinished) {
		t.Fatalf("err = %v, want %v", err, ErrSessionFinished)
	}
}

func TestElapsedStopsAtFinish(t *testing.T) {
	svc, _, clk := newTestService()
	sess := startForcedSession(t, svc, "competitive", "easy", []string{"a", "a"}, map[string]int{"a": 2})
	ctx := context.Background()

	clk.advance(5 * time.Second)
	for _, pos := range []int{0, 1} {
		if _, err := svc.OpenCard(ctx, sess.ID, pos); err != nil {
			t.Fatalf("open %d: %v", pos, err)
		}
	}
	if _, err := svc.ResolveTurn(ctx, sess.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	clk.advance(1 * time.Hour)
	snap, err := svc.State(ctx, sess.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if snap.ElapsedSec != 5 {
		t.Fatalf("elapsed = %ds, want frozen at 5s", snap.ElapsedSec)
	}
}

func TestScorePersistedExactlyOnce(t *testing.T) {
	svc, scores, _ := newTestService()
	sess := startForcedSession(t, svc, "competitive", "easy", []string{"a", "a"}, map[string]int{"a": 2})
	ctx := context.Background()

	for _, pos := range []int{0, 1} {
		if _, err := svc.OpenCard(ctx, sess.ID, pos); err != nil {
			t.Fatalf("open %d: %v", pos, err)
		}
	}
	if _, err := svc.ResolveTurn(ctx, sess.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Repeated reads must not duplicate the record.
	for i := 0; i < 3; i++ {
		if _, err := svc.State(ctx, sess.ID); err != nil {
			t.Fatalf("state: %v", err)
		}
	}

	if len(scores.entries) != 1 {
		t.Fatalf("recorded %d entries, want 1", len(scores.entries))
	}
	entry := scores.entries[0]
	if entry.Name != "ana" || entry.Mode != "competitive" || entry.Difficulty != "easy" {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.Score != sess.Human.Score {
		t.Fatalf("entry score = %d, want %d", entry.Score, sess.Human.Score)
	}
}

func TestScorePersistRetriesAfterFailure(t *testing.T) {
	svc, scores, _ := newTestService()
	sess := startForcedSession(t, svc, "competitive", "easy", []string{"a", "a"}, map[string]int{"a": 2})
	ctx := context.Background()

	scores.err = errors.New("database down")
	for _, pos := range []int{0, 1} {
		if _, err := svc.OpenCard(ctx, sess.ID, pos); err != nil {
			t.Fatalf("open %d: %v", pos, err)
		}
	}
	if _, err := svc.ResolveTurn(ctx, sess.ID); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(scores.entries) != 0 {
		t.Fatalf("recorded %d entries while the store was down", len(scores.entries))
	}

	// The store recovers; the next read lands the record, later reads don't.
	scores.err = nil
	for i := 0; i < 2; i++ {
		if _, err := svc.State(ctx, sess.ID); err != nil {
			t.Fatalf("state: %v", err)
		}
	}
	if len(scores.entries) != 1 {
		t.Fatalf("recorded %d entries, want 1", len(scores.entries))
	}
}

// TestEasyGameFlow plays a short real game on a generated board: one match,
// one mismatch, and a final state consistent with the scoring rules.
func TestEasyGameFlow(t *testing.T) {
	svc, _, clk := newTestService()
	ctx := context.Background()

	snap, err := svc.StartSession(ctx, "ana", "competitive", "easy", 8)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	id := snap.SessionID
	sess := svc.sessions[id]

	// Find a real pair and a mismatched pair on the shuffled board.
	byValue := make(map[string][]int)
	for i, c := range sess.Deck {
		byValue[c.Value] = append(byValue[c.Value], i)
	}
	var pair []int
	for _, positions := range byValue {
		if len(positions) == 2 {
			pair = positions
			break
		}
	}
	if pair == nil {
		t.Fatalf("easy board has no pair")
	}
	var odd int = -1
	for i, c := range sess.Deck {
		if i != pair[0] && i != pair[1] && c.Value != sess.Deck[pair[0]].Value {
			odd = i
			break
		}
	}
	if odd < 0 {
		t.Fatalf("easy board of 8 cards should hold more than one value")
	}

	// Mismatch first: the flips pay, the resolve takes the penalty back.
	for _, pos := range []int{pair[0], odd} {
		if _, err := svc.OpenCard(ctx, id, pos); err != nil {
			t.Fatalf("open %d: %v", pos, err)
		}
	}
	clk.advance(8 * time.Second)
	snap, err = svc.ResolveTurn(ctx, id)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if snap.Score != 2*30-10 {
		t.Fatalf("score after mismatch = %d, want %d", snap.Score, 2*30-10)
	}

	// Then the fast match.
	for _, pos := range pair {
		if _, err := svc.OpenCard(ctx, id, pos); err != nil {
			t.Fatalf("open %d: %v", pos, err)
		}
	}
	snap, err = svc.ResolveTurn(ctx, id)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := (2*30 - 10) + 2*30 + 500 + 1000
	if snap.Score != want {
		t.Fatalf("score after match = %d, want %d", snap.Score, want)
	}
	if !snap.Cards[pair[0]].Matched || !snap.Cards[pair[1]].Matched {
		t.Fatalf("pair should be matched")
	}
	if snap.Finished {
		t.Fatalf("six cards remain, session should still be live")
	}

	if _, err := svc.State(ctx, ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("empty id should not resolve to a session")
	}
}
