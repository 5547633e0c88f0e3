// Package services implements the workflow operations exposed by the API:
// storing definitions, editing their graphs and moving them through their
// lifecycle.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/persistence"
	"github.com/dukex/stockflow/pkg/registry"
	"github.com/dukex/stockflow/pkg/workflow"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

	// Validation Errors (400 Bad Request).
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidSortField  = errors.New("invalid sort field")
	ErrInvalidSortOrder  = errors.New("invalid sort order")
	ErrInvalidStatus     = workflow.ErrInvalidStatus
	ErrEmptyOwnerID      = errors.New("owner ID cannot be empty")
	ErrWorkflowNil       = errors.New("workflow cannot be nil")
	ErrInvalidDefinition = errors.New("invalid workflow definition")

	// Business Logic Conflicts (409 Conflict).
	ErrCannotModifyActive   = errors.New("cannot modify active workflow")
	ErrCannotModifyArchived = errors.New("cannot modify archived workflow")
	ErrInvalidTransition    = errors.New("invalid status transition")

	// ErrBlockedByIssues is returned when validation errors stop a save or
	// publish (422 Unprocessable Entity). The error is a *workflow.GateError.
	ErrBlockedByIssues = workflow.ErrBlockedByIssues
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrEmptyOwnerID) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrInvalidDefinition) ||
		models.IsStructural(err) ||
		registry.IsFieldError(err)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrCannotModifyActive) ||
		errors.Is(err, ErrCannotModifyArchived) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, models.ErrNodeNotFound) ||
		errors.Is(err, models.ErrEdgeNotFound)
}

// IsBlockedByIssues checks if validation errors stopped the operation.
func IsBlockedByIssues(err error) bool {
	return errors.Is(err, ErrBlockedByIssues)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
