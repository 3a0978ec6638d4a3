package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"memoria/internal/app"
	"memoria/internal/config"
	"memoria/internal/ranking"
)

// InitModule wires the game service, the ranking store and the RPC surface
// into the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := config.LoadGameConfig(GameConfigPath); err != nil {
		logger.Warn("Game config not loaded, using defaults: %v", err)
	}

	store, err := ranking.NewStore(ctx, db)
	if err != nil {
		logger.Error("Failed to prepare ranking store: %v", err)
		return err
	}

	svc := app.NewService(store, config.GetGameConfig(), nil)
	if err := RegisterRPCs(initializer, svc, store); err != nil {
		return err
	}

	logger.Info("Memoria Go module loaded.")
	return nil
}
