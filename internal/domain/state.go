package domain

import "fmt"

// Mode selects how the human and the machine score against each other.
type Mode string

const (
	// ModeCompetitive pits the human against the machine with separate scores.
	ModeCompetitive Mode = "competitive"
	// ModeCooperative pools both players into one score racing a countdown.
	ModeCooperative Mode = "cooperative"
)

// ParseMode validates a client-provided mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCompetitive, ModeCooperative:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Difficulty controls group sizes, reveal counts and machine memory.
type Difficulty string

const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyExtreme Difficulty = "extreme"
)

// ParseDifficulty validates a client-provided difficulty string.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExtreme:
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// GroupSize returns the uniform group size for the difficulty, or 0 for
// extreme which mixes group sizes within one deck.
func (d Difficulty) GroupSize() int {
	switch d {
	case DifficultyEasy:
		return 2
	case DifficultyMedium:
		return 3
	case DifficultyHard:
		return 4
	}
	return 0
}

// RevealCount returns how many cards a turn must open before it can resolve.
func (d Difficulty) RevealCount() int {
	if d == DifficultyExtreme {
		return 4
	}
	return d.GroupSize()
}

// MemorySize returns the machine opponent's observation capacity.
func (d Difficulty) MemorySize() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 3
	}
	return 4
}

// Card is a single board card. Value identifies its match group; position in
// the deck slice is its stable identity.
type Card struct {
	Value   string `json:"value"`
	FaceUp  bool   `json:"face_up"`
	Matched bool   `json:"matched"`
}

// Player holds the name and running score of one participant.
type Player struct {
	Name  string
	Score int
}

// Award adds points to the player's score.
func (p *Player) Award(points int) {
	p.Score += points
}

// Penalize subtracts points, flooring the score at zero.
func (p *Player) Penalize(points int) {
	p.Score -= points
	if p.Score < 0 {
		p.Score = 0
	}
}
