package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/stockflow/pkg/models"
)

// Schema errors raised while reading or patching node configuration.
var (
	ErrUnknownField      = errors.New("field is not part of the node kind schema")
	ErrInvalidFieldValue = errors.New("invalid field value")
	ErrReadOnlyField     = errors.New("field is read-only")
	ErrMissingField      = errors.New("required field is missing")
)

// FieldError is a problem scoped to a single config field.
type FieldError struct {
	Kind  models.NodeKind
	Field string
	Msg   string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Kind, e.Field, e.Msg)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// FieldErrors collects the field errors of one operation.
type FieldErrors []*FieldError

func (e FieldErrors) Error() string {
	messages := make([]string, 0, len(e))
	for _, fieldErr := range e {
		messages = append(messages, fieldErr.Error())
	}

	return strings.Join(messages, "; ")
}

func (e FieldErrors) Unwrap() []error {
	errs := make([]error, 0, len(e))
	for _, fieldErr := range e {
		errs = append(errs, fieldErr)
	}

	return errs
}

// ErrOrNil returns nil for an empty collection so callers can return it
// as an error directly.
func (e FieldErrors) ErrOrNil() error {
	if len(e) == 0 {
		return nil
	}

	return e
}

// IsFieldError reports whether err carries at least one FieldError.
func IsFieldError(err error) bool {
	var fieldErr *FieldError

	return errors.As(err, &fieldErr)
}
