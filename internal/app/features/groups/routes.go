// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/codeprephub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Everything under /groups requires authentication
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// LIST + CREATE
		pr.Get("/", h.ServeGroupsList)
		pr.Post("/", h.HandleCreateGroup)

		// JOIN by invite code
		pr.Post("/join", h.HandleJoinGroup)

		// VIEW
		pr.Get("/{id}", h.ServeGroupView)

		// GROUP PROGRAMS
		pr.Post("/{id}/programs", h.HandleCreateGroupProgram)
		pr.Delete("/{id}/programs/{programID}", h.HandleDeleteGroupProgram)

		// MEMBERSHIP
		pr.Post("/{id}/leave", h.HandleLeaveGroup)
		pr.Post("/{id}/members/{userID}/remove", h.HandleRemoveMember)
	})

	return r
}
