package web

import (
	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/services"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) GetWorkflowNode(c fiber.Ctx) error {
	workflow, err := h.workflowService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	nodeID := c.Params("nodeId")

	for _, node := range workflow.Nodes {
		if node.ID == nodeID {
			return c.JSON(node)
		}
	}

	return notFound(c, "node_not_found", "node not found")
}

func (h *APIHandlers) CreateWorkflowNode(c fiber.Ctx) error {
	var req CreateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	kind, err := models.ParseNodeKind(req.Type)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.nodeService.AddNode(c.Context(), c.Params("id"), kind, req.Position, models.Patch(req.Data))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toEditResponse(result))
}

func (h *APIHandlers) UpdateWorkflowNode(c fiber.Ctx) error {
	var req UpdateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.nodeService.UpdateNode(c.Context(), c.Params("id"), c.Params("nodeId"), models.Patch(req.Data))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(toEditResponse(result))
}

func (h *APIHandlers) DeleteWorkflowNode(c fiber.Ctx) error {
	result, err := h.nodeService.DeleteNode(c.Context(), c.Params("id"), c.Params("nodeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(toEditResponse(result))
}

func (h *APIHandlers) DuplicateWorkflowNode(c fiber.Ctx) error {
	result, err := h.nodeService.DuplicateNode(c.Context(), c.Params("id"), c.Params("nodeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toEditResponse(result))
}

func (h *APIHandlers) CreateWorkflowEdge(c fiber.Ctx) error {
	var req CreateEdgeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.nodeService.Connect(c.Context(), c.Params("id"), models.Connection{
		Source:       req.Source,
		Target:       req.Target,
		SourceHandle: req.SourceHandle,
		TargetHandle: req.TargetHandle,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toEditResponse(result))
}

func (h *APIHandlers) UpdateWorkflowEdge(c fiber.Ctx) error {
	var req UpdateEdgeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	result, err := h.nodeService.UpdateEdge(c.Context(), c.Params("id"), c.Params("edgeId"), req.Patch())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(toEditResponse(result))
}

func (h *APIHandlers) DeleteWorkflowEdge(c fiber.Ctx) error {
	result, err := h.nodeService.DeleteEdge(c.Context(), c.Params("id"), c.Params("edgeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(toEditResponse(result))
}

func toEditResponse(result *services.EditResult) EditResponse {
	return EditResponse{
		ID:         result.ID,
		Workflow:   result.Workflow,
		Validation: NewValidationResponse(result.Report),
	}
}
