package domain

// Snapshot is the serializable view of a session returned to the client
// after every operation.
type Snapshot struct {
	SessionID  string     `json:"session_id"`
	Cards      []Card     `json:"cards"`
	Finished   bool       `json:"finished"`
	Mode       Mode       `json:"mode"`
	Difficulty Difficulty `json:"difficulty"`

	// Score is the human score in competitive mode and the shared team
	// score in cooperative mode. MachineScore is only meaningful in
	// competitive mode.
	Score        int `json:"score"`
	MachineScore int `json:"machine_score"`

	ElapsedSec      int    `json:"elapsed_sec"`
	SpecialsLeft    int    `json:"specials_left"`
	HintsLeft       int    `json:"hints_left"`
	HintCooldownSec int    `json:"hint_cooldown_sec"`
	Frozen          []bool `json:"frozen"`

	// Cooperative countdown fields; zero-valued in competitive mode.
	RemainingSec int  `json:"remaining_sec"`
	TimedOut     bool `json:"timed_out"`
	AllFound     bool `json:"all_found"`
}
