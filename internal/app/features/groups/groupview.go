// internal/app/features/groups/groupview.go
package groups

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	"github.com/dalemusser/codeprephub/internal/app/system/authz"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type memberRow struct {
	UserID    primitive.ObjectID `json:"user_id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	AvatarURL string             `json:"avatar_url,omitempty"`
	Role      string             `json:"role"`
	JoinedAt  time.Time          `json:"joined_at"`
}

type programRow struct {
	models.Program
	AuthorName string `json:"author_name"`
}

type groupViewResponse struct {
	Group    models.Group `json:"group"`
	Role     string       `json:"role"`
	Members  []memberRow  `json:"members"`
	Programs []programRow `json:"programs"`
}

// ServeGroupView handles GET /groups/{id}. Members only.
func (h *Handler) ServeGroupView(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}
	groupID, ok := groupIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	role, ok := h.requireRole(ctx, w, r, groupID, userID)
	if !ok {
		return
	}

	g, err := h.Groups.GetByID(ctx, groupID)
	if err == mongo.ErrNoDocuments {
		uierrors.RenderNotFound(w, "Group not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: load group", err, "Could not load the group.")
		return
	}

	memberships, err := h.Memberships.ListByGroup(ctx, groupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: list members", err, "Could not load the group.")
		return
	}
	programs, err := h.Programs.ListByGroup(ctx, groupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: list programs", err, "Could not load the group.")
		return
	}

	// One profile lookup for members and authors; authors may have left.
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, m := range memberships {
		if !seen[m.UserID] {
			seen[m.UserID] = true
			ids = append(ids, m.UserID)
		}
	}
	for _, p := range programs {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			ids = append(ids, p.UserID)
		}
	}
	profiles, err := h.Profiles.ListByIDs(ctx, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: load profiles", err, "Could not load the group.")
		return
	}

	resp := groupViewResponse{
		Group:    g,
		Role:     role,
		Members:  make([]memberRow, 0, len(memberships)),
		Programs: make([]programRow, 0, len(programs)),
	}
	for _, m := range memberships {
		p := profiles[m.UserID]
		resp.Members = append(resp.Members, memberRow{
			UserID:    m.UserID,
			Name:      displayName(p),
			Email:     p.Email,
			AvatarURL: p.AvatarURL,
			Role:      m.Role,
			JoinedAt:  m.JoinedAt,
		})
	}
	for _, p := range programs {
		resp.Programs = append(resp.Programs, programRow{Program: p, AuthorName: displayName(profiles[p.UserID])})
	}

	uierrors.WriteJSON(w, http.StatusOK, resp)
}

func displayName(p models.Profile) string {
	if p.Name == "" {
		return "Unknown"
	}
	return p.Name
}
