// internal/app/features/files/list.go
package files

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	"github.com/dalemusser/codeprephub/internal/app/system/authz"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"github.com/dalemusser/codeprephub/internal/domain/models"
)

type listResponse struct {
	Folders  []models.Folder  `json:"folders"`
	Programs []models.Program `json:"programs"`
}

// ServeList handles GET /files: every folder (by name) and personal program
// (by title) the user owns. The client builds the tree from parent_id and folder_id.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	folders, err := h.Folders.ListByUser(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "files: list folders", err, "Could not load your files.")
		return
	}
	programs, err := h.Programs.ListPersonal(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "files: list programs", err, "Could not load your files.")
		return
	}

	uierrors.WriteJSON(w, http.StatusOK, listResponse{Folders: folders, Programs: programs})
}
