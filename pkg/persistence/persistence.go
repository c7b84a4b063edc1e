// Package persistence provides data storage abstraction for workflow documents.
package persistence

import (
	"context"
	"errors"

	"github.com/dukex/ragline/pkg/models"
)

// ErrWorkflowNotFound is returned when no workflow with the requested id
// exists (or it was soft deleted).
var ErrWorkflowNotFound = errors.New("workflow not found")

type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
