// Package history stores per-workflow execution records so past runs can be
// inspected after the fact.
package history

import (
	"context"
	"time"

	"github.com/dukex/ragline/pkg/models"
)

// DefaultLimit caps how many records are kept per workflow.
const DefaultLimit = 100

// ExecutionRecord is one finished run of a workflow.
type ExecutionRecord struct {
	ID         string                  `json:"id"`
	WorkflowID string                  `json:"workflow_id"`
	Strategy   string                  `json:"strategy"`
	Question   string                  `json:"question"`
	Result     *models.ExecutionResult `json:"result,omitempty"`
	Error      string                  `json:"error,omitempty"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
}

// Store keeps execution records, newest first.
type Store interface {
	Append(ctx context.Context, record *ExecutionRecord) error
	List(ctx context.Context, workflowID string, limit int) ([]*ExecutionRecord, error)
	Close(ctx context.Context) error
}
