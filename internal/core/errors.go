package core

import (
	"errors"
	"fmt"
	"strings"
)

// Field names used in validation errors.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldDate        = "date"
	FieldCategory    = "category"
	FieldPhotos      = "photos"
	FieldEmail       = "email"
	FieldDisplayName = "display_name"
	FieldPassword    = "password"
)

var ErrNotFound = errors.New("not found")

// NotFoundError reports a lookup by identifier that matched nothing.
type NotFoundError struct {
	Kind string
	ID   string
}

func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

type ValidationError struct {
	Field string
	Msg   string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// ValidationErrors collects every failing field of one submission.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (ve *ValidationErrors) Error() string {
	msgs := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

func (ve *ValidationErrors) Add(err *ValidationError) {
	ve.Errors = append(ve.Errors, err)
}

// Fields maps each failing field to its message.
func (ve *ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(ve.Errors))
	for _, err := range ve.Errors {
		out[err.Field] = err.Msg
	}
	return out
}

// OrNil returns nil when nothing was collected.
func (ve *ValidationErrors) OrNil() error {
	if ve == nil || len(ve.Errors) == 0 {
		return nil
	}
	return ve
}

func IsValidationError(err error) bool {
	var single *ValidationError
	var multi *ValidationErrors
	return errors.As(err, &multi) || errors.As(err, &single)
}
