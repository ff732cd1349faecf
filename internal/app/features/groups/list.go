// internal/app/features/groups/list.go
package groups

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	"github.com/dalemusser/codeprephub/internal/app/system/authz"
	"github.com/dalemusser/codeprephub/internal/app/system/paging"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeGroupsList handles GET /groups: the groups the user belongs to, by
// name, one page at a time (?after= / ?before= cursors, ?q= name prefix).
func (h *Handler) ServeGroupsList(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserID(r)
	if !ok {
		uierrors.RenderUnauthorized(w, "You must be signed in.")
		return
	}

	q := query.Search(r, "q")
	k := paging.FromRequest(r, paging.DefaultSize)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ids, err := h.Memberships.ListGroupIDsByUser(ctx, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: list memberships", err, "Could not load your groups.")
		return
	}
	groups, page, err := h.Groups.ListPage(ctx, ids, q, k)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "groups: list groups", err, "Could not load your groups.")
		return
	}

	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"groups": groups, "page": page})
}
