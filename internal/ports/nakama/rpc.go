package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/heroiclabs/nakama-common/runtime"

	"memoria/internal/app"
	"memoria/internal/domain"
	"memoria/internal/ports"
)

type startSessionRequest struct {
	Name       string `json:"name"`
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty"`
	BoardSize  int    `json:"board_size"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type positionRequest struct {
	SessionID string `json:"session_id"`
	Position  int    `json:"position"`
}

type rankingRequest struct {
	Limit int `json:"limit"`
}

type rankingResponse struct {
	Entries []ports.Entry `json:"entries"`
}

// handlers binds the RPC surface to the application service and the
// leaderboard store.
type handlers struct {
	svc    *app.Service
	scores ports.LeaderboardPort
}

// RegisterRPCs registers every game RPC with the Nakama initializer.
func RegisterRPCs(initializer runtime.Initializer, svc *app.Service, scores ports.LeaderboardPort) error {
	h := &handlers{svc: svc, scores: scores}

	rpcs := map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcSessionStart: h.rpcSessionStart,
		RpcSessionState: h.rpcSessionState,
		RpcCardOpen:     h.rpcCardOpen,
		RpcTurnResolve:  h.rpcTurnResolve,
		RpcAIOpen:       h.rpcAIOpen,
		RpcAIResolve:    h.rpcAIResolve,
		RpcPowerShuffle: h.rpcPowerShuffle,
		RpcPowerFreeze:  h.rpcPowerFreeze,
		RpcPowerHint:    h.rpcPowerHint,
		RpcRankingTop:   h.rpcRankingTop,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return err
		}
	}
	return nil
}

func (h *handlers) rpcSessionStart(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req startSessionRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", codeInvalidArgument)
	}

	snap, err := h.svc.StartSession(ctx, req.Name, req.Mode, req.Difficulty, req.BoardSize)
	if err != nil {
		logger.Warn("session_start rejected: %v", err)
		return "", rpcError(err)
	}
	logger.Info("session_start: %s %s/%s board=%d", snap.SessionID, req.Mode, req.Difficulty, len(snap.Cards))
	return marshalSnapshot(snap)
}

func (h *handlers) rpcSessionState(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	req, err := parseSessionRequest(payload)
	if err != nil {
		return "", err
	}
	snap, err := h.svc.State(ctx, req.SessionID)
	if err != nil {
		return "", rpcError(err)
	}
	return marshalSnapshot(snap)
}

func (h *handlers) rpcCardOpen(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req positionRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", codeInvalidArgument)
	}
	snap, err := h.svc.OpenCard(ctx, req.SessionID, req.Position)
	if err != nil {
		return "", rpcError(err)
	}
	return marshalSnapshot(snap)
}

func (h *handlers) rpcTurnResolve(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	req, err := parseSessionRequest(payload)
	if err != nil {
		return "", err
	}
	snap, err := h.svc.ResolveTurn(ctx, req.SessionID)
	if err != nil {
		return "", rpcError(err)
	}
	return marshalSnapshot(snap)
}

func (h *handlers) rpcAIOpen(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	req, err := parseSessionRequest(payload)
	if err != nil {
		return "", err
	}
	snap, err := h.svc.AIOpen(ctx, req.SessionID)
	if err != nil {
		return "", rpcError(err)
	}
	return marshalSnapshot(snap)
}

func (h *handlers) rpcAIResolve(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	req, err := parseSessionRequest(payload)
	if err != nil {
		return "", err
	}
	snap, err := h.svc.AIResolve(ctx, req.SessionID)
	if err != nil {
		return "", rpcError(err)
	}
	return marshalSnapshot(snap)
}

func (h *handlers) rpcPowerShuffle(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	req, err := parseSessionRequest(payload)
	if err != nil {
		return "", err
	}
	snap, err := h.svc.UseShuffle(ctx, req.SessionID)
	if err != nil {
		return "", rpcError(err)
	}
	return marshalSnapshot(snap)
}

func (h *handlers) rpcPowerFreeze(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req positionRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", codeInvalidArgument)
	}
	snap, err := h.svc.UseFreeze(ctx, req.SessionID, req.Position)
	if err != nil {
		return "", rpcError(err)
	}
	return marshalSnapshot(snap)
}

func (h *handlers) rpcPowerHint(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	req, err := parseSessionRequest(payload)
	if err != nil {
		return "", err
	}
	snap, err := h.svc.UseHint(ctx, req.SessionID)
	if err != nil {
		return "", rpcError(err)
	}
	return marshalSnapshot(snap)
}

func (h *handlers) rpcRankingTop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	limit := DefaultRankingLimit
	if payload != "" {
		var req rankingRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", codeInvalidArgument)
		}
		if req.Limit > 0 {
			limit = req.Limit
		}
	}

	entries, err := h.scores.Top(ctx, limit)
	if err != nil {
		logger.Error("ranking_top query failed: %v", err)
		return "", runtime.NewError("ranking unavailable", codeInternal)
	}
	resp := rankingResponse{Entries: entries}
	if resp.Entries == nil {
		resp.Entries = []ports.Entry{}
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return "", runtime.NewError("failed to encode response", codeInternal)
	}
	return string(b), nil
}

func parseSessionRequest(payload string) (sessionRequest, error) {
	var req sessionRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return req, runtime.NewError("invalid payload", codeInvalidArgument)
	}
	if req.SessionID == "" {
		return req, runtime.NewError("session_id is required", codeInvalidArgument)
	}
	return req, nil
}

func marshalSnapshot(snap *domain.Snapshot) (string, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return "", runtime.NewError("failed to encode response", codeInternal)
	}
	return string(b), nil
}

// rpcError maps service errors onto gRPC status codes. Unknown sessions are
// NOT_FOUND; every other rule violation is INVALID_ARGUMENT.
func rpcError(err error) error {
	code := codeInvalidArgument
	if errors.Is(err, app.ErrSessionNotFound) {
		code = codeNotFound
	}
	return runtime.NewError(err.Error(), code)
}
