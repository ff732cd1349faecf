// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the background workers and disconnects MongoDB.
// Unsaved workspace buffers are not persisted.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if s := deps.Services; s != nil {
		if s.Eviction != nil {
			s.Eviction.Stop()
		}
		if s.LoginLimiter != nil {
			s.LoginLimiter.Stop()
		}
		if s.Workspaces != nil {
			logger.Info("discarding in-memory workspaces", zap.Int("count", s.Workspaces.Len()))
		}
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
