package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/songqueue-backend/pkg/config"
	"github.com/angelmondragon/songqueue-backend/pkg/db"
	"github.com/angelmondragon/songqueue-backend/pkg/logger"
)

// ShouldAutoRun reports whether the API should migrate at boot: dev only,
// behind the auto-migrate flag, and only when the queue lives in SQL.
func ShouldAutoRun(cfg *config.Config) bool {
	return cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate && cfg.Store.Driver == config.StoreDriverSQL
}

// MaybeRunDev applies pending migrations from DefaultDir when ShouldAutoRun
// allows it.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !ShouldAutoRun(cfg) {
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	m, err := NewMigrator(sqlDB, client.Dialect(), DefaultDir)
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{"dir": DefaultDir, "dialect": client.Dialect()})
	applied, err := m.Up(ctx)
	if err != nil {
		return err
	}
	for _, step := range applied {
		logg.Info(logg.WithFields(ctx, map[string]any{"version": step.Version, "file": step.Path}), "migration applied")
	}
	logg.Info(logg.WithField(ctx, "applied", len(applied)), "dev auto-migrate complete")
	return nil
}
