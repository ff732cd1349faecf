// internal/app/policy/programpolicy/writer.go
package programpolicy

import (
	"context"
	"errors"
	"time"

	programstore "github.com/dalemusser/codeprephub/internal/app/store/programs"
	"github.com/dalemusser/codeprephub/internal/app/system/workspace"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrForbidden is returned when the user may not write the program.
var ErrForbidden = errors.New("you do not have permission to edit this program")

// Writer saves workspace buffers, checking CanEdit against the stored
// program first. It satisfies workspace.Programs.
type Writer struct {
	db       *mongo.Database
	programs *programstore.Store
}

func NewWriter(db *mongo.Database) *Writer {
	return &Writer{db: db, programs: programstore.New(db)}
}

// SaveSource overwrites the program's code and language. The check and the
// write are separate operations; a concurrent save may land in between and
// the later write wins. A missing program or a failed check is returned as
// a workspace.RejectedError.
func (w *Writer) SaveSource(ctx context.Context, userID, programID primitive.ObjectID, code string, lang models.Language) (time.Time, error) {
	p, err := w.programs.GetByID(ctx, programID)
	if err == mongo.ErrNoDocuments {
		return time.Time{}, workspace.Rejected(programstore.ErrNotFound)
	}
	if err != nil {
		return time.Time{}, err
	}

	ok, err := CanEdit(ctx, w.db, p, userID)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, workspace.Rejected(ErrForbidden)
	}
	at, err := w.programs.UpdateSource(ctx, programID, code, lang)
	if errors.Is(err, programstore.ErrNotFound) {
		return time.Time{}, workspace.Rejected(err)
	}
	return at, err
}
