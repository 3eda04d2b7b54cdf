package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"paytrack/internal/core"
	applog "paytrack/internal/log"
	"paytrack/internal/profile"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/payments/1").
		Body(map[string]string{"id": "1"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Location"); got != "/api/payments/1" {
		t.Errorf("Location = %q", got)
	}
	if w.Body.String() != "{\"id\":\"1\"}\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Body(map[string]any{"bad": make(chan int)}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestErrorResponseFor(t *testing.T) {
	ve := &core.ValidationErrors{}
	ve.Add(core.NewValidationError(core.FieldTitle, "title is required"))
	ve.Add(core.NewValidationError(core.FieldAmount, "amount is invalid"))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantFields []string
	}{
		{"malformed", malformed("bad body"), http.StatusBadRequest, nil},
		{"validation aggregate", fmt.Errorf("create: %w", ve), http.StatusUnprocessableEntity, []string{core.FieldTitle, core.FieldAmount}},
		{"single validation", core.NewValidationError(core.FieldPhotos, "too big"), http.StatusUnprocessableEntity, []string{core.FieldPhotos}},
		{"not found", fmt.Errorf("edit: %w", core.NewNotFoundError("payment", "x")), http.StatusNotFound, nil},
		{"credentials", profile.ErrInvalidCredentials, http.StatusUnauthorized, nil},
		{"token", fmt.Errorf("%w: expired", profile.ErrInvalidToken), http.StatusUnauthorized, nil},
		{"duplicate email", profile.ErrEmailExists, http.StatusConflict, nil},
		{"old password", profile.ErrInvalidOldPassword, http.StatusUnprocessableEntity, []string{core.FieldPassword}},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			errorResponseFor(tt.err).Write(w)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body errorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body.Error == "" {
				t.Error("error message is empty")
			}
			for _, f := range tt.wantFields {
				if _, ok := body.Fields[f]; !ok {
					t.Errorf("missing field %q in %v", f, body.Fields)
				}
			}
			if tt.wantStatus == http.StatusInternalServerError && body.Error != "internal error" {
				t.Errorf("internal error leaked detail: %q", body.Error)
			}
		})
	}
}

func TestUnauthorizedSetsChallenge(t *testing.T) {
	w := httptest.NewRecorder()
	UnauthorizedError("missing bearer token").Write(w)
	if got := w.Header().Get("WWW-Authenticate"); got != "Bearer" {
		t.Errorf("WWW-Authenticate = %q", got)
	}
}

func TestWriteErrorLogsServerFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Format: applog.FormatJSON, Output: &buf})

	r := httptest.NewRequest(http.MethodDelete, "/api/payments/p1", nil)
	r = r.WithContext(applog.WithLogger(r.Context(), logger))
	w := httptest.NewRecorder()
	writeError(w, r, errors.New("database is locked"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	for _, want := range []string{`"operation":"delete"`, `"error":"database is locked"`, `"path":"/api/payments/p1"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("%s missing from %s", want, buf.String())
		}
	}

	buf.Reset()
	writeError(httptest.NewRecorder(), r, core.NewNotFoundError("payment", "p1"))
	if buf.Len() != 0 {
		t.Errorf("client errors should not be logged here: %s", buf.String())
	}
}

func TestOperationFor(t *testing.T) {
	cases := map[string]string{
		http.MethodGet:    applog.OpRead,
		http.MethodPost:   applog.OpCreate,
		http.MethodPut:    applog.OpUpdate,
		http.MethodPatch:  applog.OpUpdate,
		http.MethodDelete: applog.OpDelete,
	}
	for method, want := range cases {
		if got := operationFor(method); got != want {
			t.Errorf("operationFor(%s) = %q, want %q", method, got, want)
		}
	}
}
