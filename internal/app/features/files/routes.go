// internal/app/features/files/routes.go
package files

import (
	"github.com/dalemusser/codeprephub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)

		pr.Post("/folders", h.HandleCreateFolder)
		pr.Delete("/folders/{id}", h.HandleDeleteFolder)

		pr.Post("/programs", h.HandleCreateProgram)
		pr.Delete("/programs/{id}", h.HandleDeleteProgram)
	})

	return r
}
