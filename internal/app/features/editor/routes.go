// internal/app/features/editor/routes.go
package editor

import (
	"github.com/dalemusser/codeprephub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Route("/personal", func(pr chi.Router) {
		pr.Use(h.personalScope)
		h.mount(pr)
	})
	r.Route("/groups/{groupID}", func(gr chi.Router) {
		gr.Use(h.groupScope)
		h.mount(gr)
	})

	return r
}

// mount registers the workspace operations under a resolved scope.
func (h *Handler) mount(r chi.Router) {
	r.Get("/", h.ServeState)
	r.Delete("/", h.HandleDiscard)

	r.Post("/select", h.HandleSelect)
	r.Post("/clear", h.HandleClear)
	r.Put("/code", h.HandleSetCode)
	r.Put("/language", h.HandleSetLanguage)

	r.Post("/save", h.HandleSave)
	r.Post("/run", h.HandleRun)
	r.Post("/output/clear", h.HandleClearOutput)
}
