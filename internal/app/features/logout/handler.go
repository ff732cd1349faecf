// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	"github.com/dalemusser/codeprephub/internal/app/system/auth"
	"github.com/dalemusser/codeprephub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Workspaces is told when a user signs out so their in-memory editors go away.
type Workspaces interface {
	DropUser(userID primitive.ObjectID) int
}

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Workspaces Workspaces
}

func NewHandler(sessionMgr *auth.SessionManager, workspaces Workspaces, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Workspaces: workspaces,
	}
}

// ServeLogout handles POST /logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if userID, ok := authz.UserID(r); ok && h.Workspaces != nil {
		n := h.Workspaces.DropUser(userID)
		h.Log.Debug("dropped workspaces on logout",
			zap.String("user_id", userID.Hex()),
			zap.Int("count", n))
	}

	// Expire the cookie even when the old one failed to decode.
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}

	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]bool{"signed_out": true})
}
