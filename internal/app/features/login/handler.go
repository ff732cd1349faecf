// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	profilestore "github.com/dalemusser/codeprephub/internal/app/store/profiles"
	"github.com/dalemusser/codeprephub/internal/app/system/auth"
	"github.com/dalemusser/codeprephub/internal/app/system/inputval"
	"github.com/dalemusser/codeprephub/internal/app/system/normalize"
	"github.com/dalemusser/codeprephub/internal/app/system/ratelimit"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const invalidCredentials = "Invalid email or password"

type Handler struct {
	Profiles   *profilestore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles:   profilestore.New(db),
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		ErrLog:     errLog,
		Log:        logger,
	}
}

// remainingHeader tells the client how many login attempts are left.
const remainingHeader = "X-RateLimit-Remaining"

type loginInput struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// HandleLogin handles POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if !uierrors.DecodeJSON(w, r, &in) {
		return
	}
	in.Email = normalize.Email(in.Email)

	if h.Limiter != nil {
		ok, msg := h.Limiter.Check(r, in.Email)
		w.Header().Set(remainingHeader, strconv.Itoa(h.Limiter.Remaining(r, in.Email)))
		if !ok {
			h.Log.Warn("login rate limited",
				zap.String("ip", ratelimit.ClientIP(r)),
				zap.String("email", in.Email))
			uierrors.RenderTooManyRequests(w, msg)
			return
		}
	}

	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.RenderValidation(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Profiles.Authenticate(ctx, in.Email, in.Password)
	if errors.Is(err, profilestore.ErrInvalidCredentials) {
		h.Log.Info("login failed", zap.String("email", in.Email))
		uierrors.RenderUnauthorized(w, invalidCredentials)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login: authenticate", err, "Could not sign you in.")
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(in.Email)
	}
	if err := h.SessionMgr.SignIn(w, r, sessionUser(p)); err != nil {
		h.ErrLog.LogServerError(w, r, "login: save session", err, "Could not sign you in.")
		return
	}

	h.Log.Info("user signed in", zap.String("user_id", p.ID.Hex()))
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"user": p})
}

func sessionUser(p models.Profile) auth.SessionUser {
	return auth.SessionUser{ID: p.ID.Hex(), Name: p.Name, Email: p.Email}
}
