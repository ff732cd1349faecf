// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	"github.com/dalemusser/codeprephub/internal/app/policy/grouppolicy"
	"github.com/dalemusser/codeprephub/internal/app/store/activity"
	groupstore "github.com/dalemusser/codeprephub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/codeprephub/internal/app/store/memberships"
	profilestore "github.com/dalemusser/codeprephub/internal/app/store/profiles"
	programstore "github.com/dalemusser/codeprephub/internal/app/store/programs"
	"github.com/dalemusser/codeprephub/internal/app/system/workspace"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the groups feature:
// listing, creating and joining groups, the group page, group programs
// and membership changes.
type Handler struct {
	DB          *mongo.Database
	Groups      *groupstore.Store
	Memberships *membershipstore.Store
	Programs    *programstore.Store
	Profiles    *profilestore.Store
	Activity    *activity.Store
	Workspaces  *workspace.Registry
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, workspaces *workspace.Registry, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Groups:      groupstore.New(db),
		Memberships: membershipstore.New(db),
		Programs:    programstore.New(db),
		Profiles:    profilestore.New(db),
		Activity:    activity.New(db),
		Workspaces:  workspaces,
		ErrLog:      errLog,
		Log:         logger,
	}
}

// groupIDParam parses {id}. On failure a 400 has been written.
func groupIDParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	gid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, "Bad group id.")
		return primitive.NilObjectID, false
	}
	return gid, true
}

// requireRole loads the caller's role in the group. Non-members get a 404
// so group IDs cannot be probed. On failure a response has been written.
func (h *Handler) requireRole(ctx context.Context, w http.ResponseWriter, r *http.Request, groupID, userID primitive.ObjectID) (string, bool) {
	role, err := grouppolicy.Role(ctx, h.DB, groupID, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: membership lookup", err, "Could not load the group.")
		return "", false
	}
	if role == "" {
		uierrors.RenderNotFound(w, "Group not found.")
		return "", false
	}
	return role, true
}

func (h *Handler) record(ctx context.Context, a models.Activity) {
	if err := h.Activity.Record(ctx, a); err != nil {
		h.Log.Warn("record activity failed",
			zap.String("action", a.Action),
			zap.String("target_type", a.TargetType),
			zap.Error(err))
	}
}
