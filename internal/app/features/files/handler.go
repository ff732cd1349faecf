// internal/app/features/files/handler.go
package files

import (
	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	"github.com/dalemusser/codeprephub/internal/app/store/activity"
	folderstore "github.com/dalemusser/codeprephub/internal/app/store/folders"
	programstore "github.com/dalemusser/codeprephub/internal/app/store/programs"
	"github.com/dalemusser/codeprephub/internal/app/system/workspace"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the personal file explorer: folders and personal programs.
type Handler struct {
	DB         *mongo.Database
	Folders    *folderstore.Store
	Programs   *programstore.Store
	Activity   *activity.Store
	Workspaces *workspace.Registry
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, workspaces *workspace.Registry, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Folders:    folderstore.New(db),
		Programs:   programstore.New(db),
		Activity:   activity.New(db),
		Workspaces: workspaces,
		ErrLog:     errLog,
		Log:        logger,
	}
}
