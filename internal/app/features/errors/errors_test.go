package errors_test

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	"github.com/dalemusser/codeprephub/internal/app/system/inputval"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) uierrors.Body {
	t.Helper()
	var b uierrors.Body
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return b
}

func TestRenderers(t *testing.T) {
	tests := []struct {
		name   string
		render func(http.ResponseWriter, string)
		status int
	}{
		{"bad request", uierrors.RenderBadRequest, http.StatusBadRequest},
		{"unauthorized", uierrors.RenderUnauthorized, http.StatusUnauthorized},
		{"forbidden", uierrors.RenderForbidden, http.StatusForbidden},
		{"not found", uierrors.RenderNotFound, http.StatusNotFound},
		{"conflict", uierrors.RenderConflict, http.StatusConflict},
		{"too many", uierrors.RenderTooManyRequests, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.render(rec, "nope")
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if b := decode(t, rec); b.Error != "nope" {
				t.Errorf("error = %q, want nope", b.Error)
			}
		})
	}
}

func TestRenderValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	uierrors.RenderValidation(rec, &inputval.Result{Errors: []inputval.FieldError{{Field: "name", Message: "Name is required."}}})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	b := decode(t, rec)
	if b.Error != "Name is required." || b.Field != "name" {
		t.Errorf("unexpected body: %+v", b)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	rec := httptest.NewRecorder()
	ok := uierrors.DecodeJSON(rec, httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x"}`)), &dst)
	if !ok || dst.Name != "x" {
		t.Errorf("expected decode success, got ok=%v name=%q", ok, dst.Name)
	}

	rec = httptest.NewRecorder()
	ok = uierrors.DecodeJSON(rec, httptest.NewRequest("POST", "/", strings.NewReader(`{`)), &dst)
	if ok || rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad JSON, got ok=%v status=%d", ok, rec.Code)
	}
}

func TestLogServerError_HidesCause(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	el := uierrors.NewErrorLogger(zap.New(core))

	rec := httptest.NewRecorder()
	el.LogServerError(rec, httptest.NewRequest("GET", "/files", nil), "list files failed", stderrors.New("secret db detail"), "Unable to load files.")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	b := decode(t, rec)
	if b.Error != "Unable to load files." || b.Ref == "" {
		t.Errorf("unexpected body: %+v", b)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Error("error cause leaked to client")
	}

	entries := logs.All()
	if len(entries) != 1 || entries[0].Message != "list files failed" {
		t.Fatalf("expected one log entry, got %+v", entries)
	}
	if entries[0].ContextMap()["ref"] != b.Ref {
		t.Error("log ref does not match response ref")
	}
}
