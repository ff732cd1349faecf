// internal/app/features/groups/groupnew.go
package groups

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	"github.com/dalemusser/codeprephub/internal/app/system/authz"
	"github.com/dalemusser/codeprephub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/codeprephub/internal/app/system/inputval"
	"github.com/dalemusser/codeprephub/internal/app/system/normalize"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"github.com/dalemusser/codeprephub/internal/app/system/txn"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"go.uber.org/zap"
)

type createGroupInput struct {
	Name        string `json:"name" validate:"required,max=100" label:"Group name"`
	Description string `json:"description" validate:"max=1000" label:"Description"`
}

// HandleCreateGroup handles POST /groups. The group and the creator's admin
// membership are written together.
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}

	var in createGroupInput
	if !uierrors.DecodeJSON(w, r, &in) {
		return
	}
	in.Name = htmlsanitize.PlainText(normalize.Name(in.Name))
	in.Description = htmlsanitize.PlainText(in.Description)
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.RenderValidation(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var group models.Group
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		g, err := h.Groups.Create(ctx, models.Group{
			Name:        in.Name,
			Description: in.Description,
			CreatedBy:   userID,
		})
		if err != nil {
			return err
		}
		if _, err := h.Memberships.Add(ctx, g.ID, userID, models.RoleAdmin); err != nil {
			return err
		}
		group = g
		return nil
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: create", err, "Could not create the group.")
		return
	}

	h.record(ctx, models.Activity{
		UserID:     userID,
		Action:     models.ActionCreated,
		TargetType: models.TargetGroup,
		TargetID:   &group.ID,
		TargetName: group.Name,
		GroupID:    &group.ID,
	})

	h.Log.Info("group created",
		zap.String("group_id", group.ID.Hex()),
		zap.String("user_id", userID.Hex()))
	uierrors.WriteJSON(w, http.StatusCreated, map[string]any{"group": group})
}
