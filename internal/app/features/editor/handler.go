// internal/app/features/editor/handler.go
package editor

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	"github.com/dalemusser/codeprephub/internal/app/policy/grouppolicy"
	programstore "github.com/dalemusser/codeprephub/internal/app/store/programs"
	"github.com/dalemusser/codeprephub/internal/app/system/authz"
	"github.com/dalemusser/codeprephub/internal/app/system/notify"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"github.com/dalemusser/codeprephub/internal/app/system/workspace"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler exposes one workspace per (user, scope) over HTTP. Every response
// carries the workspace snapshot and any notices raised by the request.
type Handler struct {
	DB         *mongo.Database
	Programs   *programstore.Store
	Workspaces *workspace.Registry
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, workspaces *workspace.Registry, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Programs:   programstore.New(db),
		Workspaces: workspaces,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type response struct {
	State   workspace.State `json:"state"`
	Notices []notify.Notice `json:"notices"`
}

func (h *Handler) respond(w http.ResponseWriter, status int, ws *workspace.Workspace, notices []notify.Notice) {
	if notices == nil {
		notices = []notify.Notice{}
	}
	uierrors.WriteJSON(w, status, response{State: ws.Snapshot(), Notices: notices})
}

type ctxKey string

const (
	scopeKey ctxKey = "editorScope"
	userKey  ctxKey = "editorUser"
)

func withScope(r *http.Request, userID primitive.ObjectID, scope workspace.Scope) *http.Request {
	ctx := context.WithValue(r.Context(), scopeKey, scope)
	ctx = context.WithValue(ctx, userKey, userID)
	return r.WithContext(ctx)
}

// workspaceFor returns the caller's workspace for the scope resolved by
// the personal or group middleware.
func (h *Handler) workspaceFor(r *http.Request) (*workspace.Workspace, primitive.ObjectID, workspace.Scope) {
	scope, _ := r.Context().Value(scopeKey).(workspace.Scope)
	userID, _ := r.Context().Value(userKey).(primitive.ObjectID)
	return h.Workspaces.Get(userID, scope), userID, scope
}

// personalScope binds the request to the caller's personal workspace.
func (h *Handler) personalScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authz.UserID(r)
		if !ok {
			uierrors.RenderUnauthorized(w, "You must be signed in.")
			return
		}
		next.ServeHTTP(w, withScope(r, userID, workspace.Personal()))
	})
}

// groupScope binds the request to the caller's workspace for {groupID}.
// Non-members get a 404.
func (h *Handler) groupScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authz.UserID(r)
		if !ok {
			uierrors.RenderUnauthorized(w, "You must be signed in.")
			return
		}
		groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupID"))
		if err != nil {
			uierrors.RenderBadRequest(w, "Bad group id.")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()
		member, err := grouppolicy.IsMember(ctx, h.DB, groupID, userID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "editor: membership lookup", err, "Could not open the group workspace.")
			return
		}
		if !member {
			uierrors.RenderNotFound(w, "Group not found.")
			return
		}
		next.ServeHTTP(w, withScope(r, userID, workspace.Group(groupID)))
	})
}
