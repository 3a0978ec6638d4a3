package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// SpeedTier awards Bonus when a turn resolves within WithinSeconds of its
// first card being opened. Tiers are evaluated in order, fastest first.
type SpeedTier struct {
	WithinSeconds int `json:"within_seconds"`
	Bonus         int `json:"bonus"`
}

// GameConfig carries the session rule tunables.
type GameConfig struct {
	MaxSpecials          int         `json:"max_specials"`
	MaxHints             int         `json:"max_hints"`
	HintCooldownSeconds  int         `json:"hint_cooldown_seconds"`
	CoopTimeLimitSeconds int         `json:"coop_time_limit_seconds"`
	FlipReward           int         `json:"flip_reward"`
	GroupBonus           int         `json:"group_bonus"`
	MismatchPenalty      int         `json:"mismatch_penalty"`
	SpeedTiers           []SpeedTier `json:"speed_tiers"`
}

// Default returns the built-in rule set used when no config file is present.
func Default() GameConfig {
	return GameConfig{
		MaxSpecials:          3,
		MaxHints:             3,
		HintCooldownSeconds:  10,
		CoopTimeLimitSeconds: 120,
		FlipReward:           30,
		GroupBonus:           500,
		MismatchPenalty:      10,
		SpeedTiers: []SpeedTier{
			{WithinSeconds: 2, Bonus: 1000},
			{WithinSeconds: 4, Bonus: 500},
			{WithinSeconds: 6, Bonus: 200},
		},
	}
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		c := Default()
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the loaded configuration, or the defaults when no
// file was loaded.
func GetGameConfig() GameConfig {
	if cfg == nil {
		return Default()
	}
	return *cfg
}
