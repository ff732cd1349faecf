// internal/app/features/files/folders.go
package files

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	folderstore "github.com/dalemusser/codeprephub/internal/app/store/folders"
	"github.com/dalemusser/codeprephub/internal/app/system/authz"
	"github.com/dalemusser/codeprephub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/codeprephub/internal/app/system/inputval"
	"github.com/dalemusser/codeprephub/internal/app/system/normalize"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"github.com/dalemusser/codeprephub/internal/app/system/txn"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type folderInput struct {
	Name     string `json:"name" validate:"required,max=100" label:"Folder name"`
	ParentID string `json:"parent_id" validate:"omitempty,objectid" label:"Parent folder"`
}

// HandleCreateFolder handles POST /files/folders.
func (h *Handler) HandleCreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}

	var in folderInput
	if !uierrors.DecodeJSON(w, r, &in) {
		return
	}
	in.Name = htmlsanitize.PlainText(normalize.Name(in.Name))
	in.ParentID = normalize.QueryParam(in.ParentID)
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.RenderValidation(w, res)
		return
	}

	f := models.Folder{Name: in.Name, UserID: userID}
	if in.ParentID != "" {
		pid, _ := primitive.ObjectIDFromHex(in.ParentID)
		f.ParentID = &pid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	f, err := h.Folders.Create(ctx, f)
	if errors.Is(err, folderstore.ErrParentNotFound) {
		uierrors.RenderNotFound(w, "Parent folder not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "files: create folder", err, "Could not create the folder.")
		return
	}

	h.record(ctx, models.Activity{
		UserID:     userID,
		Action:     models.ActionCreated,
		TargetType: models.TargetFolder,
		TargetID:   &f.ID,
		TargetName: f.Name,
	})

	uierrors.WriteJSON(w, http.StatusCreated, map[string]any{"folder": f})
}

// HandleDeleteFolder handles DELETE /files/folders/{id}. The folder, every
// folder beneath it and every program filed in any of them go together.
func (h *Handler) HandleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}
	folderID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, "Bad folder id.")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete folder")
	defer cancel()

	f, err := h.Folders.GetByID(ctx, folderID)
	if err == mongo.ErrNoDocuments || (err == nil && f.UserID != userID) {
		uierrors.RenderNotFound(w, "Folder not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "files: load folder", err, "Could not delete the folder.")
		return
	}

	var programIDs []primitive.ObjectID
	var foldersGone, programsGone int64
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		ids, err := h.Folders.SubtreeIDs(ctx, userID, folderID)
		if err != nil {
			return err
		}
		if programIDs, err = h.Programs.ListIDsInFolders(ctx, userID, ids); err != nil {
			return err
		}
		if programsGone, err = h.Programs.DeleteInFolders(ctx, userID, ids); err != nil {
			return err
		}
		foldersGone, err = h.Folders.DeleteMany(ctx, userID, ids)
		return err
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "files: delete folder", err, "Could not delete the folder.")
		return
	}

	for _, pid := range programIDs {
		h.Workspaces.ForgetProgram(userID, pid)
	}

	h.Log.Info("folder deleted",
		zap.String("folder_id", folderID.Hex()),
		zap.Int64("folders", foldersGone),
		zap.Int64("programs", programsGone))

	uierrors.WriteJSON(w, http.StatusOK, map[string]int64{
		"deleted_folders":  foldersGone,
		"deleted_programs": programsGone,
	})
}

// record appends to the activity feed. The user's action already
// succeeded, so a failure here is only logged.
func (h *Handler) record(ctx context.Context, a models.Activity) {
	if err := h.Activity.Record(ctx, a); err != nil {
		h.Log.Warn("record activity failed",
			zap.String("action", a.Action),
			zap.String("target_type", a.TargetType),
			zap.Error(err))
	}
}
