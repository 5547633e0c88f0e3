package workflow

import (
	"errors"
	"fmt"

	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/validation"
)

var (
	ErrInvalidStatus   = errors.New("invalid workflow status")
	ErrBlockedByIssues = errors.New("workflow has validation errors")
)

// GateError lists the validation errors that stopped a save or publish.
type GateError struct {
	Op     string
	Issues []models.Issue
}

func (e *GateError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("%s: %s", e.Op, e.Issues[0].Message)
	}

	return fmt.Sprintf("%s: %d validation errors", e.Op, len(e.Issues))
}

func (e *GateError) Unwrap() error {
	return ErrBlockedByIssues
}

// CheckSave decides whether wf may be persisted given its validation report.
// Errors block a save only when the saved workflow would be active, the
// same condition CheckPublish enforces on publish. Draft and archived
// workflows are saved together with their issues, which the caller stores
// or returns alongside them. Warnings never block.
func CheckSave(wf *models.Workflow, report validation.Report) error {
	if !wf.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, wf.Status)
	}

	if wf.Status != models.WorkflowStatusActive || !report.HasErrors() {
		return nil
	}

	return &GateError{Op: "save as active", Issues: report.Errors()}
}

// CanPublish reports whether the workflow may move to active.
func CanPublish(report validation.Report) bool {
	return !report.HasErrors()
}

// CheckPublish is CanPublish returning the blocking issues.
func CheckPublish(report validation.Report) error {
	if CanPublish(report) {
		return nil
	}

	return &GateError{Op: "publish", Issues: report.Errors()}
}
