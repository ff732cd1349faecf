// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	dashboardfeature "github.com/dalemusser/codeprephub/internal/app/features/dashboard"
	editorfeature "github.com/dalemusser/codeprephub/internal/app/features/editor"
	errorsfeature "github.com/dalemusser/codeprephub/internal/app/features/errors"
	filesfeature "github.com/dalemusser/codeprephub/internal/app/features/files"
	groupsfeature "github.com/dalemusser/codeprephub/internal/app/features/groups"
	healthfeature "github.com/dalemusser/codeprephub/internal/app/features/health"
	loginfeature "github.com/dalemusser/codeprephub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/codeprephub/internal/app/features/logout"
	mefeature "github.com/dalemusser/codeprephub/internal/app/features/me"
	signupfeature "github.com/dalemusser/codeprephub/internal/app/features/signup"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed; the services Startup built are on deps.Services.
// Every route speaks JSON.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	s := deps.Services
	if s == nil || s.Sessions == nil || s.Workspaces == nil {
		return nil, errors.New("bootstrap: Startup has not built the services")
	}
	sessionMgr := s.Sessions
	db := deps.MongoDatabase

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, s.Workspaces, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Accounts
	signupHandler := signupfeature.NewHandler(db, sessionMgr, errLog, logger)
	r.Mount("/signup", signupfeature.Routes(signupHandler))

	loginHandler := loginfeature.NewHandler(db, sessionMgr, s.LoginLimiter, errLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, s.Workspaces, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	meHandler := mefeature.NewHandler(db, errLog, logger)
	r.Mount("/me", mefeature.Routes(meHandler, sessionMgr))

	// Folder tree and personal programs
	filesHandler := filesfeature.NewHandler(db, s.Workspaces, errLog, logger)
	r.Mount("/files", filesfeature.Routes(filesHandler, sessionMgr))

	// Study groups and their shared programs
	groupsHandler := groupsfeature.NewHandler(db, s.Workspaces, errLog, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler, sessionMgr))

	// Workspace state: buffer, save, run
	editorHandler := editorfeature.NewHandler(db, s.Workspaces, errLog, logger)
	r.Mount("/editor", editorfeature.Routes(editorHandler, sessionMgr))

	dashboardHandler := dashboardfeature.NewHandler(db, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	return r, nil
}
