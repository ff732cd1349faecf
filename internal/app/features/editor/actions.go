// internal/app/features/editor/actions.go
package editor

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	"github.com/dalemusser/codeprephub/internal/app/policy/programpolicy"
	programstore "github.com/dalemusser/codeprephub/internal/app/store/programs"
	"github.com/dalemusser/codeprephub/internal/app/system/notify"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"github.com/dalemusser/codeprephub/internal/app/system/workspace"
	"go.uber.org/zap"
)

// HandleSave handles POST /save. A rejected save is reported as an error
// notice on a 200 response; the buffer is kept so the user can retry.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ws, userID, scope := h.workspaceFor(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "save program")
	defer cancel()

	var notices notify.Collector
	if err := ws.Save(ctx, &notices); err != nil {
		fields := []zap.Field{
			zap.String("user_id", userID.Hex()),
			zap.String("scope", scope.String()),
			zap.Error(err),
		}
		if errors.Is(err, programpolicy.ErrForbidden) || errors.Is(err, programstore.ErrNotFound) {
			h.Log.Info("save rejected", fields...)
		} else {
			h.Log.Error("save failed", fields...)
		}
	}
	h.respond(w, http.StatusOK, ws, notices.Notices())
}

// HandleRun handles POST /run. Execution errors are part of the state
// (output and error flag), not an HTTP failure.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ws, _, _ := h.workspaceFor(r)

	if _, err := ws.Run(r.Context()); err != nil {
		if errors.Is(err, workspace.ErrRunInProgress) {
			uierrors.RenderConflict(w, "Code is already running.")
			return
		}
		h.ErrLog.LogServerError(w, r, "editor: run", err, "Could not run the code.")
		return
	}
	h.respond(w, http.StatusOK, ws, nil)
}
