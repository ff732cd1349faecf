// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// the framework-level settings (ports, TLS, logging, CORS, body limits).
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (at least 32 bytes)
	SessionName   string        // Cookie name for sessions (default: codeprephub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Code execution
	RunTimeout time.Duration // Wall-clock limit for one JavaScript run

	// In-memory workspaces
	WorkspaceIdleTTL       time.Duration // Drop a workspace after this long without use
	WorkspaceSweepInterval time.Duration // How often the eviction worker runs

	// Login throttling
	LoginRateLimit  int           // Attempts allowed per IP per window
	LoginRateWindow time.Duration // Window for LoginRateLimit
}
