package bot

import (
	"math/rand"
	"sort"
	"time"

	"memoria/internal/domain"
)

// Observation is a single remembered card sighting.
type Observation struct {
	Pos   int
	Value string
}

// Memory is a bounded FIFO of card sightings. Once capacity is exceeded the
// oldest observation is evicted.
type Memory struct {
	capacity int
	entries  []Observation
}

// NewMemory creates a memory holding at most capacity observations.
func NewMemory(capacity int) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	return &Memory{capacity: capacity}
}

// Remember records a sighting, evicting the oldest entry past capacity.
func (m *Memory) Remember(pos int, value string) {
	m.entries = append(m.entries, Observation{Pos: pos, Value: value})
	if len(m.entries) > m.capacity {
		m.entries = m.entries[1:]
	}
}

// Len returns the number of retained observations.
func (m *Memory) Len() int {
	return len(m.entries)
}

// Reset clears all retained observations.
func (m *Memory) Reset() {
	m.entries = m.entries[:0]
}

// Opponent drives the machine player's card picks from its bounded memory.
type Opponent struct {
	memory *Memory
	rng    *rand.Rand
}

// NewOpponent creates an opponent with the given memory capacity. rng may be
// nil to use a time-seeded default.
func NewOpponent(memorySize int, rng *rand.Rand) *Opponent {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Opponent{
		memory: NewMemory(memorySize),
		rng:    rng,
	}
}

// Remember records a card sighting in the opponent's memory.
func (o *Opponent) Remember(pos int, value string) {
	o.memory.Remember(pos, value)
}

// Reset drops every remembered sighting, e.g. after a shuffle moved the
// hidden cards out from under the remembered positions.
func (o *Opponent) Reset() {
	o.memory.Reset()
}

// ChoosePosition picks a board position to open. When the memory holds a
// full group of distinct still-hidden positions for some value, the lowest
// of those positions is returned; otherwise a uniformly random selectable
// position. Returns -1 when nothing is selectable.
//
// The board and group table are passed in rather than referenced back so
// the opponent stays one-directional from the session.
func (o *Opponent) ChoosePosition(deck []domain.Card, frozen []bool, groups map[string]int) int {
	selectable := func(pos int) bool {
		if pos < 0 || pos >= len(deck) {
			return false
		}
		if deck[pos].FaceUp || deck[pos].Matched {
			return false
		}
		return !(pos < len(frozen) && frozen[pos])
	}

	known := make(map[string]map[int]bool)
	for _, obs := range o.memory.entries {
		if !selectable(obs.Pos) {
			continue
		}
		if known[obs.Value] == nil {
			known[obs.Value] = make(map[int]bool)
		}
		known[obs.Value][obs.Pos] = true
	}

	// Walk memory in observation order so the choice is deterministic for a
	// given memory state.
	checked := make(map[string]bool)
	for _, obs := range o.memory.entries {
		if checked[obs.Value] {
			continue
		}
		checked[obs.Value] = true

		required, ok := groups[obs.Value]
		if !ok {
			continue
		}
		positions := known[obs.Value]
		if len(positions) < required {
			continue
		}
		distinct := make([]int, 0, len(positions))
		for pos := range positions {
			distinct = append(distinct, pos)
		}
		sort.Ints(distinct)
		return distinct[0]
	}

	available := domain.SelectablePositions(deck, frozen)
	if len(available) == 0 {
		return -1
	}
	return available[o.rng.Intn(len(available))]
}
