// internal/app/features/groups/join.go
package groups

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	membershipstore "github.com/dalemusser/codeprephub/internal/app/store/memberships"
	"github.com/dalemusser/codeprephub/internal/app/system/authz"
	"github.com/dalemusser/codeprephub/internal/app/system/inputval"
	"github.com/dalemusser/codeprephub/internal/app/system/normalize"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type joinInput struct {
	InviteCode string `json:"invite_code" validate:"required,max=64" label:"Invite code"`
}

// HandleJoinGroup handles POST /groups/join. Codes match exactly after trimming.
func (h *Handler) HandleJoinGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}

	var in joinInput
	if !uierrors.DecodeJSON(w, r, &in) {
		return
	}
	in.InviteCode = normalize.InviteCode(in.InviteCode)
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.RenderValidation(w, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Groups.GetByInviteCode(ctx, in.InviteCode)
	if err == mongo.ErrNoDocuments {
		uierrors.RenderNotFound(w, "Invalid invite code")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: lookup invite code", err, "Could not join the group.")
		return
	}

	// The unique (group_id, user_id) index settles a race between two joins.
	exists, err := h.Memberships.Exists(ctx, g.ID, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: check membership", err, "Could not join the group.")
		return
	}
	if exists {
		uierrors.RenderConflict(w, "You are already a member of this group")
		return
	}
	m, err := h.Memberships.Add(ctx, g.ID, userID, models.RoleMember)
	if errors.Is(err, membershipstore.ErrDuplicateMembership) {
		uierrors.RenderConflict(w, "You are already a member of this group")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: add membership", err, "Could not join the group.")
		return
	}

	h.record(ctx, models.Activity{
		UserID:     userID,
		Action:     models.ActionJoined,
		TargetType: models.TargetGroup,
		TargetID:   &g.ID,
		TargetName: g.Name,
		GroupID:    &g.ID,
	})

	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"group": g, "membership": m})
}
