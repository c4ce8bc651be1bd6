// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/residenthub/internal/app/system/indexes"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// EnsureSchema reconciles the indexes every store relies on, including the
// unique procedure-log key backing the atomic increment.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, appCfg.TimeoutLong)
	defer cancel()

	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	logger.Info("indexes ensured", zap.String("database", deps.MongoDatabase.Name()))
	return nil
}
