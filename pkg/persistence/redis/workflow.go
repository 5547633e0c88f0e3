package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/persistence"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// WorkflowRepository keeps each workflow under <prefix>:workflow:<id> and
// the ids in the <prefix>:workflows set.
type WorkflowRepository struct {
	client *goredis.Client
	logger *slog.Logger
	prefix string
}

func NewWorkflowRepository(client *goredis.Client, logger *slog.Logger, prefix string) *WorkflowRepository {
	return &WorkflowRepository{client: client, logger: logger, prefix: prefix}
}

func (r *WorkflowRepository) key(id string) string {
	return r.prefix + ":workflow:" + id
}

func (r *WorkflowRepository) index() string {
	return r.prefix + ":workflows"
}

// ListWorkflows loads every indexed workflow and pages them in memory.
func (r *WorkflowRepository) ListWorkflows(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	ids, err := r.client.SMembers(ctx, r.index()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow ids: %w", err)
	}

	if len(ids) == 0 {
		return persistence.Page(nil, opts), nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, r.key(id))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load workflows: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(values))

	for i, value := range values {
		body, ok := value.(string)
		if !ok {
			// indexed but gone, e.g. deleted between SMEMBERS and MGET
			r.logger.WarnContext(ctx, "Indexed workflow is missing", "workflow_id", ids[i])

			continue
		}

		workflow, err := decode(body)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", ids[i], err)
		}

		workflows = append(workflows, workflow)
	}

	return persistence.Page(workflows, opts), nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	body, err := r.client.Get(ctx, r.key(id)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil //nolint:nilnil
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	workflow, err := decode(body)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow %s: %w", id, err)
	}

	return workflow, nil
}

// Save writes the document and indexes it in one transaction.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	if !workflow.Status.Valid() {
		return persistence.NewWorkflowError("Save", workflow.ID, persistence.ErrInvalidWorkflowStatus)
	}

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	body, err := json.Marshal(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, r.key(workflow.ID), body, 0)
		pipe.SAdd(ctx, r.index(), workflow.ID)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}

// Delete removes the document and its index entry. Deleting a missing
// workflow is not an error.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, r.key(id))
		pipe.SRem(ctx, r.index(), id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	return nil
}

func decode(body string) (*models.Workflow, error) {
	var workflow models.Workflow

	err := json.Unmarshal([]byte(body), &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow: %w", err)
	}

	return &workflow, nil
}
