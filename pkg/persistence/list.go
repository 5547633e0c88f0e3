package persistence

import (
	"slices"
	"strings"

	"github.com/dukex/stockflow/pkg/models"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// SortFields lists the fields a workflow listing can be ordered by.
var SortFields = []string{"created_at", "updated_at", "name"}

// Normalize fills in defaults and rejects sort parameters outside the
// allowlist. Backends that build queries from SortBy rely on this check.
func (o ListWorkflowsOptions) Normalize() (ListWorkflowsOptions, error) {
	if o.Limit <= 0 || o.Limit > MaxListLimit {
		o.Limit = DefaultListLimit
	}

	if o.Offset < 0 {
		o.Offset = 0
	}

	if o.SortBy == "" {
		o.SortBy = "created_at"
	}

	if o.SortOrder == "" {
		o.SortOrder = "desc"
	}

	o.SortOrder = strings.ToLower(o.SortOrder)

	if !slices.Contains(SortFields, o.SortBy) {
		return o, NewInvalidSortFieldError(o.SortBy)
	}

	if o.SortOrder != "asc" && o.SortOrder != "desc" {
		return o, NewInvalidSortFieldError(o.SortOrder)
	}

	if o.Status != nil && !o.Status.Valid() {
		return o, ErrInvalidWorkflowStatus
	}

	return o, nil
}

// Matches reports whether workflow passes the owner and status filters.
func (o ListWorkflowsOptions) Matches(workflow *models.Workflow) bool {
	if o.OwnerID != "" && workflow.Owner != o.OwnerID {
		return false
	}

	if o.Status != nil && workflow.Status != *o.Status {
		return false
	}

	return true
}

// Page filters, sorts and slices an in-memory listing. opts must already be
// normalized.
func Page(workflows []*models.Workflow, opts ListWorkflowsOptions) *WorkflowListResult {
	filtered := make([]*models.Workflow, 0, len(workflows))

	for _, workflow := range workflows {
		if opts.Matches(workflow) {
			filtered = append(filtered, workflow)
		}
	}

	sortWorkflows(filtered, opts.SortBy, opts.SortOrder)

	total := len(filtered)
	result := &WorkflowListResult{
		Workflows:  make([]*models.Workflow, 0),
		TotalCount: int64(total),
	}

	if opts.Offset >= total {
		return result
	}

	end := min(opts.Offset+opts.Limit, total)

	result.Workflows = filtered[opts.Offset:end]
	result.HasNextPage = end < total

	return result
}

func sortWorkflows(workflows []*models.Workflow, sortBy, sortOrder string) {
	slices.SortStableFunc(workflows, func(a, b *models.Workflow) int {
		var cmp int

		switch sortBy {
		case "updated_at":
			cmp = a.UpdatedAt.Compare(b.UpdatedAt)
		case "name":
			cmp = strings.Compare(a.Name, b.Name)
		default:
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		}

		if cmp == 0 {
			cmp = strings.Compare(a.ID, b.ID)
		}

		if sortOrder == "desc" {
			return -cmp
		}

		return cmp
	})
}
