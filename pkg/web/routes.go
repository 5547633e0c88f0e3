package web

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts the workflow, node, edge and kind endpoints.
func (h *APIHandlers) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HealthCheck)

	k := router.Group("/kinds")
	k.Get("/", h.GetKinds)
	k.Get("/:kind", h.GetKind)

	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Post("/validate", h.ValidateDefinition)
	w.Get("/:id", h.GetWorkflow)
	w.Patch("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Post("/:id/validate", h.ValidateWorkflow)
	w.Post("/:id/publish", h.PublishWorkflow)
	w.Post("/:id/unpublish", h.UnpublishWorkflow)
	w.Post("/:id/archive", h.ArchiveWorkflow)

	w.Post("/:id/nodes", h.CreateWorkflowNode)
	w.Get("/:id/nodes/:nodeId", h.GetWorkflowNode)
	w.Patch("/:id/nodes/:nodeId", h.UpdateWorkflowNode)
	w.Delete("/:id/nodes/:nodeId", h.DeleteWorkflowNode)
	w.Post("/:id/nodes/:nodeId/duplicate", h.DuplicateWorkflowNode)

	w.Post("/:id/edges", h.CreateWorkflowEdge)
	w.Patch("/:id/edges/:edgeId", h.UpdateWorkflowEdge)
	w.Delete("/:id/edges/:edgeId", h.DeleteWorkflowEdge)
}
