// Package file stores workflow definitions as JSON documents on the local
// file system, one file per workflow.
package file

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dukex/stockflow/pkg/persistence"
)

type Persistence struct {
	root      string
	workflows *WorkflowRepository
}

// NewPersistence accepts a plain directory or a file:// URL.
func NewPersistence(root string) persistence.Persistence {
	dir := strings.TrimPrefix(root, "file://")

	return &Persistence{
		root:      dir,
		workflows: NewWorkflowRepository(dir),
	}
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflows
}

// HealthCheck fails when the root exists but is not a directory, or cannot
// be read. A missing root is created on the first save.
func (p *Persistence) HealthCheck(_ context.Context) error {
	info, err := os.Stat(p.root)
	if os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("file persistence: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("file persistence: %s is not a directory", p.root)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}
