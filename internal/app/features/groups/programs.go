// internal/app/features/groups/programs.go
package groups

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	"github.com/dalemusser/codeprephub/internal/app/policy/programpolicy"
	"github.com/dalemusser/codeprephub/internal/app/system/authz"
	"github.com/dalemusser/codeprephub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/codeprephub/internal/app/system/inputval"
	"github.com/dalemusser/codeprephub/internal/app/system/normalize"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"github.com/dalemusser/codeprephub/internal/app/system/workspace"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type groupProgramInput struct {
	Title    string `json:"title" validate:"required,max=200" label:"Title"`
	Language string `json:"language" validate:"required,language" label:"Language"`
}

// HandleCreateGroupProgram handles POST /groups/{id}/programs. The new
// program is selected into the caller's workspace for this group.
func (h *Handler) HandleCreateGroupProgram(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}
	groupID, ok := groupIDParam(w, r)
	if !ok {
		return
	}

	var in groupProgramInput
	if !uierrors.DecodeJSON(w, r, &in) {
		return
	}
	in.Title = htmlsanitize.PlainText(normalize.Name(in.Title))
	in.Language = string(normalize.Language(in.Language))
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.RenderValidation(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, ok := h.requireRole(ctx, w, r, groupID, userID); !ok {
		return
	}

	lang := models.Language(in.Language)
	gid := groupID
	p, err := h.Programs.Create(ctx, models.Program{
		Title:          in.Title,
		Language:       lang,
		Code:           lang.DefaultCode(),
		UserID:         userID,
		GroupID:        &gid,
		IsGroupProgram: true,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: create program", err, "Could not create the program.")
		return
	}

	h.record(ctx, models.Activity{
		UserID:     userID,
		Action:     models.ActionCreated,
		TargetType: models.TargetProgram,
		TargetID:   &p.ID,
		TargetName: p.Title,
		GroupID:    &gid,
	})

	ws := h.Workspaces.Get(userID, workspace.Group(groupID))
	ws.SelectProgram(p)

	uierrors.WriteJSON(w, http.StatusCreated, map[string]any{
		"program": p,
		"state":   ws.Snapshot(),
	})
}

// HandleDeleteGroupProgram handles DELETE /groups/{id}/programs/{programID}.
// The author (while still a member) or a group admin may delete.
func (h *Handler) HandleDeleteGroupProgram(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}
	groupID, ok := groupIDParam(w, r)
	if !ok {
		return
	}
	programID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "programID"))
	if err != nil {
		uierrors.RenderBadRequest(w, "Bad program id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, ok := h.requireRole(ctx, w, r, groupID, userID); !ok {
		return
	}

	p, err := h.Programs.GetByID(ctx, programID)
	if err == mongo.ErrNoDocuments || (err == nil && (p.GroupID == nil || *p.GroupID != groupID)) {
		uierrors.RenderNotFound(w, "Program not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: load program", err, "Could not delete the program.")
		return
	}

	allowed, err := programpolicy.CanDelete(ctx, h.DB, p, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: delete policy", err, "Could not delete the program.")
		return
	}
	if !allowed {
		uierrors.RenderForbidden(w, "Only the author or a group admin can delete this program.")
		return
	}

	if _, err := h.Programs.Delete(ctx, programID); err != nil {
		h.ErrLog.LogServerError(w, r, "groups: delete program", err, "Could not delete the program.")
		return
	}
	h.Workspaces.ForgetProgram(userID, programID)

	h.Log.Info("group program deleted",
		zap.String("group_id", groupID.Hex()),
		zap.String("program_id", programID.Hex()))
	w.WriteHeader(http.StatusNoContent)
}
