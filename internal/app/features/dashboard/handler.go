// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	activitystore "github.com/dalemusser/codeprephub/internal/app/store/activity"
	folderstore "github.com/dalemusser/codeprephub/internal/app/store/folders"
	membershipstore "github.com/dalemusser/codeprephub/internal/app/store/memberships"
	programstore "github.com/dalemusser/codeprephub/internal/app/store/programs"
	"github.com/dalemusser/codeprephub/internal/app/system/authz"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// recentLimit is how many activity entries the dashboard shows.
const recentLimit = 10

type Handler struct {
	Programs    *programstore.Store
	Folders     *folderstore.Store
	Memberships *membershipstore.Store
	Activity    *activitystore.Store
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Programs:    programstore.New(db),
		Folders:     folderstore.New(db),
		Memberships: membershipstore.New(db),
		Activity:    activitystore.New(db),
		ErrLog:      errLog,
		Log:         logger,
	}
}

type stats struct {
	TotalPrograms int64 `json:"total_programs"`
	TotalGroups   int64 `json:"total_groups"`
	TotalFolders  int64 `json:"total_folders"`
}

type dashboardData struct {
	Stats          stats             `json:"stats"`
	RecentActivity []models.Activity `json:"recent_activity"`
}

// ServeDashboard handles GET /: the caller's counts and latest activity.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		data dashboardData
		err  error
	)
	if data.Stats.TotalPrograms, err = h.Programs.CountPersonal(ctx, userID); err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard: count programs", err, "Could not load the dashboard.")
		return
	}
	if data.Stats.TotalGroups, err = h.Memberships.CountByUser(ctx, userID); err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard: count groups", err, "Could not load the dashboard.")
		return
	}
	if data.Stats.TotalFolders, err = h.Folders.CountByUser(ctx, userID); err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard: count folders", err, "Could not load the dashboard.")
		return
	}
	if data.RecentActivity, err = h.Activity.ListByUser(ctx, userID, recentLimit); err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard: recent activity", err, "Could not load the dashboard.")
		return
	}

	uierrors.WriteJSON(w, http.StatusOK, data)
}
