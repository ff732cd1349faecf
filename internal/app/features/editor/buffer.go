// internal/app/features/editor/buffer.go
package editor

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	"github.com/dalemusser/codeprephub/internal/app/policy/programpolicy"
	"github.com/dalemusser/codeprephub/internal/app/system/inputval"
	"github.com/dalemusser/codeprephub/internal/app/system/limits"
	"github.com/dalemusser/codeprephub/internal/app/system/normalize"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"github.com/dalemusser/codeprephub/internal/app/system/workspace"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeState handles GET /.
func (h *Handler) ServeState(w http.ResponseWriter, r *http.Request) {
	ws, _, _ := h.workspaceFor(r)
	h.respond(w, http.StatusOK, ws, nil)
}

// HandleDiscard handles DELETE /: the user navigated away from the editor.
// Unsaved edits are lost.
func (h *Handler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	_, userID, scope := h.workspaceFor(r)
	h.Workspaces.Drop(userID, scope)
	w.WriteHeader(http.StatusNoContent)
}

type selectInput struct {
	ProgramID string `json:"program_id" validate:"required,objectid" label:"Program"`
}

// HandleSelect handles POST /select. The stored program replaces the
// buffer; unsaved edits to the previous program are discarded.
func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var in selectInput
	if !uierrors.DecodeJSON(w, r, &in) {
		return
	}
	in.ProgramID = normalize.QueryParam(in.ProgramID)
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.RenderValidation(w, res)
		return
	}
	programID, _ := primitive.ObjectIDFromHex(in.ProgramID)

	ws, userID, scope := h.workspaceFor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Programs.GetByID(ctx, programID)
	if err == mongo.ErrNoDocuments || (err == nil && !inScope(p, scope)) {
		uierrors.RenderNotFound(w, "Program not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "editor: load program", err, "Could not open the program.")
		return
	}

	ok, err := programpolicy.CanView(ctx, h.DB, p, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "editor: view policy", err, "Could not open the program.")
		return
	}
	if !ok {
		uierrors.RenderForbidden(w, "You do not have access to this program.")
		return
	}

	ws.SelectProgram(p)
	h.respond(w, http.StatusOK, ws, nil)
}

// inScope reports whether p can be opened in the given workspace: personal
// programs in the personal editor, a group's programs in that group's editor.
func inScope(p models.Program, scope workspace.Scope) bool {
	if !scope.IsGroup() {
		return !p.IsGroupProgram
	}
	return p.IsGroupProgram && p.GroupID != nil && *p.GroupID == scope.GroupID
}

// HandleClear handles POST /clear.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ws, _, _ := h.workspaceFor(r)
	ws.ClearActiveProgram()
	h.respond(w, http.StatusOK, ws, nil)
}

type codeInput struct {
	Code string `json:"code"`
}

// HandleSetCode handles PUT /code. Only the buffer changes.
func (h *Handler) HandleSetCode(w http.ResponseWriter, r *http.Request) {
	var in codeInput
	if !uierrors.DecodeJSON(w, r, &in) {
		return
	}
	if len(in.Code) > limits.MaxCodeSize {
		uierrors.RenderBadRequest(w, "Code is too large.")
		return
	}
	ws, _, _ := h.workspaceFor(r)
	ws.SetCode(in.Code)
	h.respond(w, http.StatusOK, ws, nil)
}

type languageInput struct {
	Language string `json:"language" validate:"required,language" label:"Language"`
}

// HandleSetLanguage handles PUT /language.
func (h *Handler) HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var in languageInput
	if !uierrors.DecodeJSON(w, r, &in) {
		return
	}
	in.Language = string(normalize.Language(in.Language))
	if res := inputval.Validate(in); res.HasErrors() {
		uierrors.RenderValidation(w, res)
		return
	}
	ws, _, _ := h.workspaceFor(r)
	ws.SetLanguage(models.Language(in.Language))
	h.respond(w, http.StatusOK, ws, nil)
}

// HandleClearOutput handles POST /output/clear.
func (h *Handler) HandleClearOutput(w http.ResponseWriter, r *http.Request) {
	ws, _, _ := h.workspaceFor(r)
	ws.ClearOutput()
	h.respond(w, http.StatusOK, ws, nil)
}
