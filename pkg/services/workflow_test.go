package services

import (
	"context"
	"testing"

	"github.com/dukex/ragline/pkg/models"
	"github.com/dukex/ragline/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkflowService(t *testing.T) *Workflow {
	t.Helper()

	p, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	return NewWorkflow(p)
}

func validWorkflow() *models.Workflow {
	return &models.Workflow{
		Name: "support answers",
		Nodes: []*models.WorkflowNode{
			{ID: "in", Type: models.NodeTypeInput, Config: map[string]any{"user_input": "hi"}},
			{ID: "ds", Type: models.NodeTypeDataSource, Config: map[string]any{"selected_datasets": []any{"ds1"}}},
			{ID: "ret", Type: models.NodeTypeRetrieval, Config: map[string]any{"top_k": 4}},
		},
		Connections: []*models.Connection{
			{ID: "c1", From: "in", To: "ret", Type: models.ConnectionUnidirectional},
			{ID: "c2", From: "ret", To: "ds", Type: models.ConnectionBidirectional},
		},
	}
}

func TestSaveWorkflowAssignsID(t *testing.T) {
	svc := newWorkflowService(t)

	saved, err := svc.SaveWorkflow(context.Background(), validWorkflow())
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	loaded, err := svc.GetWorkflow(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "support answers", loaded.Name)
}

func TestSaveWorkflowRejectsNil(t *testing.T) {
	svc := newWorkflowService(t)

	_, err := svc.SaveWorkflow(context.Background(), nil)
	require.ErrorIs(t, err, ErrWorkflowNil)
	assert.True(t, IsValidationError(err))
}

func TestSaveWorkflowRejectsShortName(t *testing.T) {
	svc := newWorkflowService(t)

	workflow := validWorkflow()
	workflow.Name = "ab"

	_, err := svc.SaveWorkflow(context.Background(), workflow)
	require.ErrorIs(t, err, ErrWorkflowNameRequired)
}

func TestSaveWorkflowRejectsEmptyNodes(t *testing.T) {
	svc := newWorkflowService(t)

	workflow := validWorkflow()
	workflow.Nodes = nil
	workflow.Connections = nil

	_, err := svc.SaveWorkflow(context.Background(), workflow)
	require.ErrorIs(t, err, ErrNodesRequired)
}

func TestSaveWorkflowRejectsUnknownNodeType(t *testing.T) {
	svc := newWorkflowService(t)

	workflow := validWorkflow()
	workflow.Nodes[0].Type = "transmogrifier"

	_, err := svc.SaveWorkflow(context.Background(), workflow)
	require.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestSaveWorkflowRejectsDuplicateNodeID(t *testing.T) {
	svc := newWorkflowService(t)

	workflow := validWorkflow()
	workflow.Nodes[1].ID = "in"
	workflow.Connections = nil

	_, err := svc.SaveWorkflow(context.Background(), workflow)
	require.ErrorIs(t, err, ErrDuplicateNodeID)
}

func TestSaveWorkflowRejectsDanglingConnection(t *testing.T) {
	svc := newWorkflowService(t)

	workflow := validWorkflow()
	workflow.Connections[0].To = "ghost"

	_, err := svc.SaveWorkflow(context.Background(), workflow)
	require.ErrorIs(t, err, ErrInvalidConnection)
}

func TestSaveWorkflowRejectsBadConfigShape(t *testing.T) {
	svc := newWorkflowService(t)

	workflow := validWorkflow()
	workflow.Nodes[2].Config = map[string]any{"top_k": "six"}

	_, err := svc.SaveWorkflow(context.Background(), workflow)
	require.ErrorIs(t, err, ErrInvalidNodeConfig)
}

func TestSaveWorkflowRejectsMalformedBinding(t *testing.T) {
	svc := newWorkflowService(t)

	workflow := validWorkflow()
	workflow.Nodes[2].Config = map[string]any{
		"input_bindings": map[string]any{"datasets": "no-separator"},
	}

	_, err := svc.SaveWorkflow(context.Background(), workflow)
	require.ErrorIs(t, err, ErrInvalidBinding)
}

func TestSaveWorkflowRejectsBindingToUnknownNode(t *testing.T) {
	svc := newWorkflowService(t)

	workflow := validWorkflow()
	workflow.Nodes[2].Config = map[string]any{
		"input_bindings": map[string]any{"datasets": "ghost.datasets"},
	}

	_, err := svc.SaveWorkflow(context.Background(), workflow)
	require.ErrorIs(t, err, ErrInvalidBinding)
}

func TestSaveWorkflowAcceptsKeywordString(t *testing.T) {
	svc := newWorkflowService(t)

	workflow := validWorkflow()
	workflow.Nodes[2].Config = map[string]any{"keyword": "exact phrase"}

	_, err := svc.SaveWorkflow(context.Background(), workflow)
	require.NoError(t, err)
}

func TestDeleteWorkflow(t *testing.T) {
	svc := newWorkflowService(t)

	saved, err := svc.SaveWorkflow(context.Background(), validWorkflow())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteWorkflow(context.Background(), saved.ID))

	_, err = svc.GetWorkflow(context.Background(), saved.ID)
	require.ErrorIs(t, err, ErrWorkflowNotFound)
}
