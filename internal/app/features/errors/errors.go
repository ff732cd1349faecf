// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/codeprephub/internal/app/system/inputval"
	"github.com/dalemusser/codeprephub/internal/app/system/limits"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Ref   string `json:"ref,omitempty"`
}

// WriteJSON writes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func write(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Body{Error: msg})
}

// RenderBadRequest answers 400 for malformed input such as a bad ID or body.
func RenderBadRequest(w http.ResponseWriter, msg string) { write(w, http.StatusBadRequest, msg) }

func RenderUnauthorized(w http.ResponseWriter, msg string) { write(w, http.StatusUnauthorized, msg) }

func RenderForbidden(w http.ResponseWriter, msg string) { write(w, http.StatusForbidden, msg) }

func RenderNotFound(w http.ResponseWriter, msg string) { write(w, http.StatusNotFound, msg) }

func RenderConflict(w http.ResponseWriter, msg string) { write(w, http.StatusConflict, msg) }

func RenderTooManyRequests(w http.ResponseWriter, msg string) {
	write(w, http.StatusTooManyRequests, msg)
}

// RenderValidation answers 400 with the first failed rule and its field.
func RenderValidation(w http.ResponseWriter, res *inputval.Result) {
	WriteJSON(w, http.StatusBadRequest, Body{Error: res.First(), Field: res.FirstField()})
}

// DecodeJSON reads r's body into v. On failure it has already written a
// 400 and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.MaxJSONBody))
	if err := dec.Decode(v); err != nil {
		RenderBadRequest(w, "Request body must be valid JSON.")
		return false
	}
	return true
}
