// internal/app/features/groups/members.go
package groups

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	"github.com/dalemusser/codeprephub/internal/app/system/authz"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"github.com/dalemusser/codeprephub/internal/app/system/workspace"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleLeaveGroup handles POST /groups/{id}/leave. The caller's workspace
// for the group goes with the membership.
func (h *Handler) HandleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}
	groupID, ok := groupIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Memberships.Remove(ctx, groupID, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: leave", err, "Could not leave the group.")
		return
	}
	if n == 0 {
		uierrors.RenderNotFound(w, "Group not found.")
		return
	}
	h.Workspaces.Drop(userID, workspace.Group(groupID))

	h.Log.Info("left group",
		zap.String("group_id", groupID.Hex()),
		zap.String("user_id", userID.Hex()))
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemoveMember handles POST /groups/{id}/members/{userID}/remove.
// Admins only, and never themselves (they leave instead).
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}
	groupID, ok := groupIDParam(w, r)
	if !ok {
		return
	}
	targetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		uierrors.RenderBadRequest(w, "Bad user id.")
		return
	}
	if targetID == userID {
		uierrors.RenderBadRequest(w, "You cannot remove yourself. Leave the group instead.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	role, ok := h.requireRole(ctx, w, r, groupID, userID)
	if !ok {
		return
	}
	if role != models.RoleAdmin {
		uierrors.RenderForbidden(w, "Only group admins can remove members.")
		return
	}

	n, err := h.Memberships.Remove(ctx, groupID, targetID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: remove member", err, "Could not remove the member.")
		return
	}
	if n == 0 {
		uierrors.RenderNotFound(w, "Member not found.")
		return
	}
	h.Workspaces.Drop(targetID, workspace.Group(groupID))

	name := "Unknown"
	if p, err := h.Profiles.GetByID(ctx, targetID); err == nil && p.Name != "" {
		name = p.Name
	} else if err != nil && err != mongo.ErrNoDocuments {
		h.Log.Warn("load removed member profile", zap.Error(err))
	}

	gid := groupID
	h.record(ctx, models.Activity{
		UserID:     userID,
		Action:     models.ActionRemoved,
		TargetType: models.TargetMember,
		TargetID:   &targetID,
		TargetName: name,
		GroupID:    &gid,
	})

	w.WriteHeader(http.StatusNoContent)
}
