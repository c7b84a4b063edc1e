package services

import (
	"context"
	"fmt"

	"github.com/dukex/ragline/pkg/models"
	"github.com/dukex/ragline/pkg/persistence"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrWorkflowNotFound is re-exported so web handlers need only the service
// package.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Workflow handles workflow document operations and save-time validation.
type Workflow struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

func NewWorkflow(p persistence.Persistence) *Workflow {
	return &Workflow{
		persistence: p,
		validate:    validator.New(),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (w *Workflow) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := w.persistence.Workflows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return workflows, nil
}

func (w *Workflow) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	return w.persistence.WorkflowByID(ctx, id)
}

// SaveWorkflow validates and persists a workflow, assigning an id when the
// document has none.
func (w *Workflow) SaveWorkflow(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, validationError("SaveWorkflow", "workflow is nil", ErrWorkflowNil)
	}

	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	if err := w.validateWorkflow(workflow); err != nil {
		return nil, err
	}

	if err := w.persistence.SaveWorkflow(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	return workflow, nil
}

func (w *Workflow) DeleteWorkflow(ctx context.Context, id string) error {
	return w.persistence.DeleteWorkflow(ctx, id)
}

// validateWorkflow applies the save-time rules: struct tags, known node
// types, unique node ids, valid config shapes, connection endpoints that
// exist, and binding references that point at real nodes. Run-time
// resolution stays forgiving; save time is where malformed documents stop.
func (w *Workflow) validateWorkflow(workflow *models.Workflow) error {
	if err := w.validate.Struct(workflow); err != nil {
		return validationError("SaveWorkflow", err.Error(), ErrWorkflowNameRequired)
	}

	if len(workflow.Nodes) == 0 {
		return validationError("SaveWorkflow", "workflow has no nodes", ErrNodesRequired)
	}

	nodeIDs := make(map[string]bool, len(workflow.Nodes))

	for _, node := range workflow.Nodes {
		if !node.Type.Valid() {
			return validationError("SaveWorkflow",
				fmt.Sprintf("node %s has unknown type %q", node.ID, node.Type), ErrUnknownNodeType)
		}

		if nodeIDs[node.ID] {
			return validationError("SaveWorkflow",
				fmt.Sprintf("node id %s appears more than once", node.ID), ErrDuplicateNodeID)
		}

		nodeIDs[node.ID] = true

		if err := validateNodeConfig(node); err != nil {
			return validationError("SaveWorkflow", err.Error(), ErrInvalidNodeConfig)
		}
	}

	for _, conn := range workflow.Connections {
		if !nodeIDs[conn.From] || !nodeIDs[conn.To] {
			return validationError("SaveWorkflow",
				fmt.Sprintf("connection %s references unknown node (%s -> %s)", conn.ID, conn.From, conn.To),
				ErrInvalidConnection)
		}
	}

	for _, node := range workflow.Nodes {
		if err := validateBindings(node, nodeIDs); err != nil {
			return err
		}
	}

	return nil
}

func validateBindings(node *models.WorkflowNode, nodeIDs map[string]bool) error {
	raw, ok := node.Config["input_bindings"].(map[string]any)
	if !ok {
		return nil
	}

	for port, value := range raw {
		s, ok := value.(string)
		if !ok {
			return validationError("SaveWorkflow",
				fmt.Sprintf("node %s binding %s is not a string", node.ID, port), ErrInvalidBinding)
		}

		ref, ok := models.ParseBindingRef(s)
		if !ok {
			return validationError("SaveWorkflow",
				fmt.Sprintf("node %s binding %s is not of form nodeId.port: %q", node.ID, port, s), ErrInvalidBinding)
		}

		if !nodeIDs[ref.SourceNodeID] {
			return validationError("SaveWorkflow",
				fmt.Sprintf("node %s binding %s references unknown node %s", node.ID, port, ref.SourceNodeID), ErrInvalidBinding)
		}
	}

	return nil
}
