// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/codeprephub/internal/app/system/auth"
	"github.com/dalemusser/codeprephub/internal/app/system/ratelimit"
	"github.com/dalemusser/codeprephub/internal/app/system/workers"
	"github.com/dalemusser/codeprephub/internal/app/system/workspace"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Services is allocated by ConnectDB and filled in by Startup. The
	// hooks receive DBDeps by value, so the pointer is what carries the
	// long-lived services into BuildHandler and Shutdown.
	Services *Services
}

// Services are the in-process components built once per run.
type Services struct {
	Sessions     *auth.SessionManager
	Workspaces   *workspace.Registry
	Eviction     *workers.WorkspaceEviction
	LoginLimiter *ratelimit.LoginLimiter
}
