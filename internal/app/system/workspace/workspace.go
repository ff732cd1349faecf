// internal/app/system/workspace/workspace.go
// Package workspace holds the editor state for one user in one scope: the
// active program, the unsaved code buffer, the selected language, and the
// output of the last run. Instances are explicit objects owned by a
// Registry; there is no process-wide editor state.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/codeprephub/internal/app/system/notify"
	"github.com/dalemusser/codeprephub/internal/app/system/runner"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrRunInProgress is returned by Run while a previous run on the same
// workspace has not finished.
var ErrRunInProgress = errors.New("a run is already in progress")

// Runner executes code. *runner.Adapter satisfies it.
type Runner interface {
	Run(ctx context.Context, lang models.Language, source string, scope runner.Scope) runner.Result
}

// Programs persists a buffer onto a stored program. Implementations
// enforce who may write and return the new updated_at.
type Programs interface {
	SaveSource(ctx context.Context, userID, programID primitive.ObjectID, code string, lang models.Language) (time.Time, error)
}

// RejectedError marks a save the store refused for a reason the user can
// act on. Only its message reaches the save notice; any other error is
// reported generically.
type RejectedError struct {
	Err error
}

func (e *RejectedError) Error() string { return e.Err.Error() }

func (e *RejectedError) Unwrap() error { return e.Err }

// Rejected wraps err as a RejectedError.
func Rejected(err error) error { return &RejectedError{Err: err} }

// saveFailedMessage is shown for storage failures that are not rejections.
const saveFailedMessage = "Failed to save: could not reach storage. Try again."

// ActivityRecorder appends to the activity feed.
type ActivityRecorder interface {
	Record(ctx context.Context, a models.Activity) error
}

// Deps are the collaborators shared by every workspace.
type Deps struct {
	Runner   Runner
	Programs Programs
	Activity ActivityRecorder
	Log      *zap.Logger
}

// Scope is personal (zero GroupID) or one group's shared workspace.
type Scope struct {
	GroupID primitive.ObjectID
}

func Personal() Scope { return Scope{} }

func Group(id primitive.ObjectID) Scope { return Scope{GroupID: id} }

func (s Scope) IsGroup() bool { return !s.GroupID.IsZero() }

func (s Scope) String() string {
	if s.IsGroup() {
		return "group:" + s.GroupID.Hex()
	}
	return "personal"
}

func (s Scope) runnerScope() runner.Scope {
	if s.IsGroup() {
		return runner.ScopeGroup
	}
	return runner.ScopePersonal
}

// State is a point-in-time copy of a workspace.
type State struct {
	Scope         string          `json:"scope"`
	ActiveProgram *models.Program `json:"active_program"`
	Code          string          `json:"code"`
	Language      models.Language `json:"language"`
	Output        string          `json:"output"`
	Running       bool            `json:"is_running"`
	Error         bool            `json:"error"`
}

// Workspace is safe for concurrent use. The mutex only protects memory;
// concurrent saves from different workspaces still race at the store and
// the last write wins.
type Workspace struct {
	deps  Deps
	scope Scope

	mu       sync.Mutex
	userID   primitive.ObjectID
	active   *models.Program
	code     string
	language models.Language
	output   string
	running  bool
	failed   bool
	lastUsed time.Time
}

// New returns a workspace showing the welcome snippet in JavaScript.
func New(scope Scope, userID primitive.ObjectID, deps Deps) *Workspace {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Workspace{
		deps:     deps,
		scope:    scope,
		userID:   userID,
		code:     models.WelcomeCode,
		language: models.LanguageJavaScript,
		lastUsed: time.Now(),
	}
}

func (w *Workspace) Scope() Scope { return w.scope }

// Snapshot returns a copy safe to render or serialize.
func (w *Workspace) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		Scope:         w.scope.String(),
		ActiveProgram: cloneProgram(w.active),
		Code:          w.code,
		Language:      w.language,
		Output:        w.output,
		Running:       w.running,
		Error:         w.failed,
	}
}

// SelectProgram makes p active and loads its stored code and language.
// Unsaved edits in the buffer are discarded.
func (w *Workspace) SelectProgram(p models.Program) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = cloneProgram(&p)
	w.code = p.Code
	w.language = p.Language
	w.output, w.failed = "", false
}

// ClearActiveProgram drops the selection and shows the JavaScript snippet.
func (w *Workspace) ClearActiveProgram() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = nil
	w.language = models.LanguageJavaScript
	w.code = models.LanguageJavaScript.DefaultCode()
	w.output, w.failed = "", false
}

func (w *Workspace) SetCode(code string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.code = code
}

// SetLanguage switches the buffer language. With no active program the
// buffer is replaced by the language's snippet; otherwise it is kept.
func (w *Workspace) SetLanguage(lang models.Language) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.language = lang
	if w.active == nil {
		w.code = lang.DefaultCode()
	}
}

func (w *Workspace) ClearOutput() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.output, w.failed = "", false
}

// SetUser records the signed-in user; ClearUser forgets it, after which
// Save is a no-op.
func (w *Workspace) SetUser(id primitive.ObjectID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.userID = id
}

func (w *Workspace) ClearUser() { w.SetUser(primitive.NilObjectID) }

// Save writes the buffer to the active program. Without an active program
// or a user it does nothing. A failed write is reported through n and
// returned; local state is left as it was.
func (w *Workspace) Save(ctx context.Context, n notify.Notifier) error {
	w.mu.Lock()
	active, userID := cloneProgram(w.active), w.userID
	code, lang := w.code, w.language
	w.mu.Unlock()

	if active == nil || userID.IsZero() {
		return nil
	}

	updatedAt, err := w.deps.Programs.SaveSource(ctx, userID, active.ID, code, lang)
	if err != nil {
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			n.Notify(notify.Error, "Failed to save: "+rejected.Error())
		} else {
			n.Notify(notify.Error, saveFailedMessage)
		}
		return err
	}

	w.mu.Lock()
	if w.active != nil && w.active.ID == active.ID {
		w.active.Code = code
		w.active.Language = lang
		w.active.UpdatedAt = updatedAt
	}
	w.mu.Unlock()

	entry := models.Activity{
		UserID:     userID,
		Action:     models.ActionEdited,
		TargetType: models.TargetProgram,
		TargetID:   &active.ID,
		TargetName: active.Title,
	}
	if active.IsGroupProgram && active.GroupID != nil {
		gid := *active.GroupID
		entry.GroupID = &gid
	}
	if w.deps.Activity != nil {
		if err := w.deps.Activity.Record(ctx, entry); err != nil {
			w.deps.Log.Warn("record edit activity failed",
				zap.String("program_id", active.ID.Hex()),
				zap.Error(err))
		}
	}

	n.Notify(notify.Success, "Program saved")
	return nil
}

// Run executes the buffer. The running flag is set before dispatch and
// cleared on every exit path.
func (w *Workspace) Run(ctx context.Context) (res runner.Result, err error) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return runner.Result{}, ErrRunInProgress
	}
	w.running = true
	w.output, w.failed = "", false
	code, lang := w.code, w.language
	w.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			w.deps.Log.Error("run panicked", zap.Any("panic", r))
			res = runner.Result{Output: fmt.Sprintf("Error: %v", r), Failed: true}
		}
		w.mu.Lock()
		w.output, w.failed = res.Output, res.Failed
		w.running = false
		w.mu.Unlock()
	}()

	return w.deps.Runner.Run(ctx, lang, code, w.scope.runnerScope()), nil
}

// forgetProgram clears the selection if id is the active program.
func (w *Workspace) forgetProgram(id primitive.ObjectID) bool {
	w.mu.Lock()
	isActive := w.active != nil && w.active.ID == id
	w.mu.Unlock()
	if isActive {
		w.ClearActiveProgram()
	}
	return isActive
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastUsed = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed, w.running
}

func cloneProgram(p *models.Program) *models.Program {
	if p == nil {
		return nil
	}
	cp := *p
	if p.FolderID != nil {
		id := *p.FolderID
		cp.FolderID = &id
	}
	if p.GroupID != nil {
		id := *p.GroupID
		cp.GroupID = &id
	}
	return &cp
}
