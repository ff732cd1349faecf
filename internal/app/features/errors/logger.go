// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrorLogger logs unexpected failures and answers with a generic message
// and a reference the user can quote.
type ErrorLogger struct {
	log *zap.Logger
}

func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// LogServerError logs err with msg and request context, then writes 500
// with userMsg. The underlying error never reaches the client.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	ref := uuid.NewString()
	e.log.Error(msg,
		zap.String("ref", ref),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	if userMsg == "" {
		userMsg = "Something went wrong."
	}
	WriteJSON(w, http.StatusInternalServerError, Body{Error: userMsg, Ref: ref})
}
