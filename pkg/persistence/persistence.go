// Package persistence defines how workflow definitions are stored.
package persistence

import (
	"context"

	"github.com/dukex/stockflow/pkg/models"
)

// Persistence is a storage backend for workflow definitions.
type Persistence interface {
	WorkflowRepository() WorkflowRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions in their wire format.
//
// GetByID returns nil and no error when the workflow does not exist.
type WorkflowRepository interface {
	ListWorkflows(ctx context.Context, opts ListWorkflowsOptions) (*WorkflowListResult, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// ListWorkflowsOptions filters, sorts and pages a workflow listing.
type ListWorkflowsOptions struct {
	Limit  int
	Offset int

	OwnerID string
	Status  *models.WorkflowStatus

	SortBy    string // created_at, updated_at or name
	SortOrder string // asc or desc
}

// WorkflowListResult is one page of a workflow listing.
type WorkflowListResult struct {
	Workflows   []*models.Workflow `json:"workflows"`
	TotalCount  int64              `json:"total_count"`
	HasNextPage bool               `json:"has_next_page"`
}
