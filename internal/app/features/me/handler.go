// internal/app/features/me/handler.go
package me

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	profilestore "github.com/dalemusser/codeprephub/internal/app/store/profiles"
	"github.com/dalemusser/codeprephub/internal/app/system/authz"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Profiles *profilestore.Store
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles: profilestore.New(db),
		ErrLog:   errLog,
		Log:      logger,
	}
}

// ServeMe handles GET /me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Profiles.GetByID(ctx, userID)
	if err == mongo.ErrNoDocuments {
		// Session outlived the account.
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "me: load profile", err, "Could not load your profile.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"user": p})
}
