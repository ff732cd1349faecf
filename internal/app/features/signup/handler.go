// internal/app/features/signup/handler.go
package signup

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	profilestore "github.com/dalemusser/codeprephub/internal/app/store/profiles"
	"github.com/dalemusser/codeprephub/internal/app/system/auth"
	"github.com/dalemusser/codeprephub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/codeprephub/internal/app/system/inputval"
	"github.com/dalemusser/codeprephub/internal/app/system/normalize"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Profiles   *profilestore.Store
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles:   profilestore.New(db),
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Log:        logger,
	}
}

// bcrypt ignores input past 72 bytes.
type signupInput struct {
	Name     string `json:"name" validate:"required,max=100" label:"Name"`
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required,min=8,max=72" label:"Password"`
}

// HandleSignup handles POST /signup. A new account is signed in immediately.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var in signupInput
	if !uierrors.DecodeJSON(w, r, &in) {
		return
	}
	in.Name = htmlsanitize.PlainText(normalize.Name(in.Name))
	in.Email = normalize.Email(in.Email)

	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.RenderValidation(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Profiles.Create(ctx, in.Name, in.Email, in.Password)
	if errors.Is(err, profilestore.ErrDuplicateEmail) {
		uierrors.RenderConflict(w, "An account with this email already exists.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "signup: create profile", err, "Could not create your account.")
		return
	}

	u := auth.SessionUser{ID: p.ID.Hex(), Name: p.Name, Email: p.Email}
	if err := h.SessionMgr.SignIn(w, r, u); err != nil {
		h.ErrLog.LogServerError(w, r, "signup: save session", err, "Your account was created but we could not sign you in.")
		return
	}

	h.Log.Info("account created", zap.String("user_id", p.ID.Hex()))
	uierrors.WriteJSON(w, http.StatusCreated, map[string]any{"user": p})
}
