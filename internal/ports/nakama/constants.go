package nakama

// Nakama RPC ids exposed to clients. Each game operation is one
// request/response RPC; the client drives the turn loop.
const (
	RpcSessionStart = "session_start"
	RpcSessionState = "session_state"
	RpcCardOpen     = "card_open"
	RpcTurnResolve  = "turn_resolve"
	RpcAIOpen       = "ai_open"
	RpcAIResolve    = "ai_resolve"
	RpcPowerShuffle = "power_shuffle"
	RpcPowerFreeze  = "power_freeze"
	RpcPowerHint    = "power_hint"
	RpcRankingTop   = "ranking_top"
)

// GameConfigPath is where the rule tunables live inside the Nakama data dir.
const GameConfigPath = "data/game_config.json"

// DefaultRankingLimit is how many leaderboard rows ranking_top returns when
// the request doesn't say.
const DefaultRankingLimit = 5

// gRPC status codes used with runtime.NewError.
const (
	codeInvalidArgument = 3
	codeNotFound        = 5
	codeInternal        = 13
)
