package web

import (
	"errors"

	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/services"
	"github.com/dukex/stockflow/pkg/workflow"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// issuesProblem is a problem document carrying the validation errors that
// blocked the request.
type issuesProblem struct {
	*problems.Problem

	Issues []models.Issue `json:"issues"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	var gate *workflow.GateError

	switch {
	// not found first: unknown node ids are also structural errors
	case errors.Is(err, services.ErrWorkflowNotFound):
		return notFound(c, "workflow_not_found", "workflow not found")

	case errors.Is(err, models.ErrNodeNotFound):
		return notFound(c, "node_not_found", err.Error())

	case errors.Is(err, models.ErrEdgeNotFound):
		return notFound(c, "edge_not_found", err.Error())

	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case errors.As(err, &gate):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("blocked_by_issues").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(issuesProblem{
			Problem: problem,
			Issues:  gate.Issues,
		})

	default:
		problem := problems.NewStatusProblem(500).
			WithInstance(c.Path()).
			WithType("internal_error").
			WithError(err)

		return c.Status(fiber.StatusInternalServerError).JSON(problem)
	}
}
