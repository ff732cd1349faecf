// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CodePrep Hub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CODEPREPHUB_MONGO_URI, CODEPREPHUB_RUN_TIMEOUT, etc.
//   - Command-line flags: --mongo_uri, --run_timeout, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "codeprephub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "", Desc: "Session signing key, at least 32 bytes (blank outside prod uses an ephemeral key)"},
	{Name: "session_name", Default: "codeprephub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session cookie lifetime"},

	// Code execution
	{Name: "run_timeout", Default: "10s", Desc: "Wall-clock limit for one JavaScript run"},

	// Workspaces
	{Name: "workspace_idle_ttl", Default: "2h", Desc: "Drop an editor workspace after this long without use"},
	{Name: "workspace_sweep_interval", Default: "5m", Desc: "How often idle workspaces are swept"},

	// Login throttling
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts allowed per IP per window"},
	{Name: "login_rate_window", Default: "1m", Desc: "Login rate limit window"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// environment variables (WAFFLE_* for core, CODEPREPHUB_* for app) and
// flags with precedence: flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CODEPREPHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 7*24*time.Hour),

		RunTimeout: appValues.Duration("run_timeout", 10*time.Second),

		WorkspaceIdleTTL:       appValues.Duration("workspace_idle_ttl", 2*time.Hour),
		WorkspaceSweepInterval: appValues.Duration("workspace_sweep_interval", 5*time.Minute),

		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI is checked before any connection attempt, durations
// must be positive, and production refuses to start without a real
// session key.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database must not be empty")
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"session_max_age", appCfg.SessionMaxAge},
		{"run_timeout", appCfg.RunTimeout},
		{"workspace_idle_ttl", appCfg.WorkspaceIdleTTL},
		{"workspace_sweep_interval", appCfg.WorkspaceSweepInterval},
		{"login_rate_window", appCfg.LoginRateWindow},
	}
	for _, c := range durations {
		if c.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", c.name, c.d)
		}
	}
	if appCfg.LoginRateLimit <= 0 {
		return fmt.Errorf("login_rate_limit must be positive, got %d", appCfg.LoginRateLimit)
	}

	if coreCfg.Env == "prod" && appCfg.SessionKey == "" {
		return errors.New("session_key is required in prod")
	}
	if coreCfg.Env != "prod" && appCfg.SessionKey == "" {
		logger.Warn("session_key not set; sessions will not survive a restart")
	}
	return nil
}
