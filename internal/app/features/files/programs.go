// internal/app/features/files/programs.go
package files

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
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

type programInput struct {
	Title    string `json:"title" validate:"required,max=200" label:"Title"`
	Language string `json:"language" validate:"required,language" label:"Language"`
	FolderID string `json:"folder_id" validate:"omitempty,objectid" label:"Folder"`
}

// HandleCreateProgram handles POST /files/programs. The program starts with
// the language's default snippet and becomes the active program of the
// user's personal workspace.
func (h *Handler) HandleCreateProgram(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}

	var in programInput
	if !uierrors.DecodeJSON(w, r, &in) {
		return
	}
	in.Title = htmlsanitize.PlainText(normalize.Name(in.Title))
	in.Language = string(normalize.Language(in.Language))
	in.FolderID = normalize.QueryParam(in.FolderID)
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.RenderValidation(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	lang := models.Language(in.Language)
	p := models.Program{
		Title:    in.Title,
		Language: lang,
		Code:     lang.DefaultCode(),
		UserID:   userID,
	}
	if in.FolderID != "" {
		fid, _ := primitive.ObjectIDFromHex(in.FolderID)
		f, err := h.Folders.GetByID(ctx, fid)
		if err == mongo.ErrNoDocuments || (err == nil && f.UserID != userID) {
			uierrors.RenderNotFound(w, "Folder not found.")
			return
		}
		if err != nil {
			h.ErrLog.LogServerError(w, r, "files: load folder", err, "Could not create the program.")
			return
		}
		p.FolderID = &f.ID
	}

	p, err := h.Programs.Create(ctx, p)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "files: create program", err, "Could not create the program.")
		return
	}

	h.record(ctx, models.Activity{
		UserID:     userID,
		Action:     models.ActionCreated,
		TargetType: models.TargetProgram,
		TargetID:   &p.ID,
		TargetName: p.Title,
	})

	ws := h.Workspaces.Get(userID, workspace.Personal())
	ws.SelectProgram(p)

	uierrors.WriteJSON(w, http.StatusCreated, map[string]any{
		"program": p,
		"state":   ws.Snapshot(),
	})
}

// HandleDeleteProgram handles DELETE /files/programs/{id}. Only the owner
// may delete a personal program; group programs are deleted from the group.
func (h *Handler) HandleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}
	programID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, "Bad program id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Programs.GetByID(ctx, programID)
	if err == mongo.ErrNoDocuments || (err == nil && (p.IsGroupProgram || p.UserID != userID)) {
		uierrors.RenderNotFound(w, "Program not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "files: load program", err, "Could not delete the program.")
		return
	}

	if _, err := h.Programs.Delete(ctx, programID); err != nil {
		h.ErrLog.LogServerError(w, r, "files: delete program", err, "Could not delete the program.")
		return
	}
	h.Workspaces.ForgetProgram(userID, programID)

	h.Log.Info("program deleted", zap.String("program_id", programID.Hex()))
	w.WriteHeader(http.StatusNoContent)
}
