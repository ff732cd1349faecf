// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/codeprephub/internal/app/policy/programpolicy"
	activitystore "github.com/dalemusser/codeprephub/internal/app/store/activity"
	profilestore "github.com/dalemusser/codeprephub/internal/app/store/profiles"
	"github.com/dalemusser/codeprephub/internal/app/system/auth"
	"github.com/dalemusser/codeprephub/internal/app/system/ratelimit"
	"github.com/dalemusser/codeprephub/internal/app/system/runner"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"github.com/dalemusser/codeprephub/internal/app/system/workers"
	"github.com/dalemusser/codeprephub/internal/app/system/workspace"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the session manager, the execution adapter, the workspace registry and the
// background workers, and parks them on deps.Services.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	configureTimeouts(appCfg, logger)

	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return err
	}
	// Fresh profile data on each request, so a deleted account is signed out.
	sessionMgr.SetUserFetcher(profilestore.NewFetcher(deps.MongoDatabase))

	registry := workspace.NewRegistry(workspace.Deps{
		Runner:   runner.NewAdapter(timeouts.Run(), logger),
		Programs: programpolicy.NewWriter(deps.MongoDatabase),
		Activity: activitystore.New(deps.MongoDatabase),
		Log:      logger,
	})

	eviction := workers.NewWorkspaceEviction(registry, logger, appCfg.WorkspaceSweepInterval, appCfg.WorkspaceIdleTTL)
	eviction.Start()

	deps.Services.Sessions = sessionMgr
	deps.Services.Workspaces = registry
	deps.Services.Eviction = eviction
	deps.Services.LoginLimiter = ratelimit.NewLoginLimiter(appCfg.LoginRateLimit, appCfg.LoginRateWindow)

	logger.Info("codeprephub services started",
		zap.Duration("run_timeout", timeouts.Run()),
		zap.Duration("workspace_idle_ttl", appCfg.WorkspaceIdleTTL),
		zap.Int("login_rate_limit", appCfg.LoginRateLimit))
	return nil
}

// configureTimeouts applies run_timeout from the app config, then any
// TIMEOUT_* environment overrides, so TIMEOUT_RUN wins when it is set.
func configureTimeouts(appCfg AppConfig, logger *zap.Logger) {
	timeouts.Configure(timeouts.Config{Run: appCfg.RunTimeout})
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}
}
