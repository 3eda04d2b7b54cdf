package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"paytrack/internal/core"
	applog "paytrack/internal/log"
	"paytrack/internal/profile"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body. A nil body writes none.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		slog.Error("Failed to encode response body", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n"))
}

// errorBody is the shape of every error response.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message).Header("WWW-Authenticate", "Bearer")
}

func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

// ValidationErrorResponse creates a 422 response listing each failing field.
func ValidationErrorResponse(fields map[string]string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		Body(errorBody{Error: "validation failed", Fields: fields})
}

// errorResponseFor maps a service error onto its HTTP response.
func errorResponseFor(err error) *JSONResponseBuilder {
	var multi *core.ValidationErrors
	var single *core.ValidationError
	var malformed *malformedRequestError

	switch {
	case errors.As(err, &malformed):
		return BadRequestError(malformed.Error())
	case errors.As(err, &multi):
		return ValidationErrorResponse(multi.Fields())
	case errors.As(err, &single):
		return ValidationErrorResponse(map[string]string{single.Field: single.Msg})
	case core.IsNotFound(err):
		return NotFoundError(err.Error())
	case errors.Is(err, profile.ErrInvalidCredentials), errors.Is(err, profile.ErrInvalidToken):
		return UnauthorizedError(err.Error())
	case errors.Is(err, profile.ErrEmailExists):
		return ErrorResponse(http.StatusConflict, err.Error())
	case errors.Is(err, profile.ErrInvalidOldPassword):
		return ValidationErrorResponse(map[string]string{core.FieldPassword: err.Error()})
	default:
		return InternalServerError()
	}
}

// writeError logs server-side failures and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponseFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		ctx := r.Context()
		fields := applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent())
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Request failed", err, operationFor(r.Method), fields)
	}
	resp.Write(w)
}

func operationFor(method string) string {
	switch method {
	case http.MethodPost:
		return applog.OpCreate
	case http.MethodPut, http.MethodPatch:
		return applog.OpUpdate
	case http.MethodDelete:
		return applog.OpDelete
	}
	return applog.OpRead
}
