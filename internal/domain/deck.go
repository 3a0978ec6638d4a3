package domain

import (
	"fmt"
	"math/rand"
)

// Extreme decks use a fixed recipe mixing group sizes: this many distinct
// values requiring pairs, triples and quads respectively.
const (
	extremePairValues   = 4
	extremeTripleValues = 4
	extremeQuadValues   = 7
)

// ExtremeMinSize is the smallest extreme deck the recipe can produce.
const ExtremeMinSize = extremePairValues*2 + extremeTripleValues*3 + extremeQuadValues*4

// GenerateDeck builds a shuffled deck for the difficulty along with the
// required-match-count table keyed by card value.
//
// Decks only ever contain whole groups: uniform difficulties round the
// requested size down to a multiple of the group size (minimum one group),
// and extreme pads oversize requests one whole group at a time. The
// count-of-value is therefore always an exact multiple of its requirement.
func GenerateDeck(rng *rand.Rand, d Difficulty, size int) ([]Card, map[string]int) {
	var deck []Card
	groups := make(map[string]int)

	if d == DifficultyExtreme {
		deck = buildExtremeDeck(rng, size, groups)
	} else {
		groupSize := d.GroupSize()
		values := size / groupSize
		if values < 1 {
			values = 1
		}
		for i := 0; i < values; i++ {
			value := imageKey(i)
			groups[value] = groupSize
			for j := 0; j < groupSize; j++ {
				deck = append(deck, Card{Value: value})
			}
		}
	}

	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck, groups
}

func buildExtremeDeck(rng *rand.Rand, size int, groups map[string]int) []Card {
	var deck []Card
	next := 0
	addValues := func(count, groupSize int) {
		for i := 0; i < count; i++ {
			value := imageKey(next)
			next++
			groups[value] = groupSize
			for j := 0; j < groupSize; j++ {
				deck = append(deck, Card{Value: value})
			}
		}
	}
	addValues(extremePairValues, 2)
	addValues(extremeTripleValues, 3)
	addValues(extremeQuadValues, 4)

	// Requests below the recipe minimum are silently raised to it. Larger
	// requests duplicate randomly chosen values one whole group at a time,
	// overshooting the target by at most one group rather than breaking it.
	values := make([]string, 0, len(groups))
	for value := range groups {
		values = append(values, value)
	}
	for len(deck) < size {
		value := values[rng.Intn(len(values))]
		for j := 0; j < groups[value]; j++ {
			deck = append(deck, Card{Value: value})
		}
	}
	return deck
}

// imageKey assigns the sequential front-image asset for the i-th value.
func imageKey(i int) string {
	return fmt.Sprintf("img/c%d.png", i+1)
}

// HideUnmatched flips every face-up card that has not been matched back down.
func HideUnmatched(deck []Card) {
	for i := range deck {
		if deck[i].FaceUp && !deck[i].Matched {
			deck[i].FaceUp = false
		}
	}
}

// SelectablePositions returns the indices that may still be opened: neither
// face-up, matched, nor frozen.
func SelectablePositions(deck []Card, frozen []bool) []int {
	var out []int
	for i := range deck {
		if deck[i].FaceUp || deck[i].Matched {
			continue
		}
		if i < len(frozen) && frozen[i] {
			continue
		}
		out = append(out, i)
	}
	return out
}

// AllMatched reports whether every card on the board has been matched.
func AllMatched(deck []Card) bool {
	for i := range deck {
		if !deck[i].Matched {
			return false
		}
	}
	return len(deck) > 0
}
