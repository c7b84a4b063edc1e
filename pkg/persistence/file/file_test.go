package file

import (
	"context"
	"testing"

	"github.com/dukex/ragline/pkg/models"
	"github.com/dukex/ragline/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	p, err := NewPersistence(t.TempDir())
	require.NoError(t, err)

	return p
}

func sampleWorkflow(id string) *models.Workflow {
	return &models.Workflow{
		ID:   id,
		Name: "customer support rag",
		Nodes: []*models.WorkflowNode{
			{ID: "in", Type: models.NodeTypeInput, Config: map[string]any{"user_input": "hello"}},
			{ID: "ret", Type: models.NodeTypeRetrieval},
		},
		Connections: []*models.Connection{
			{ID: "c1", From: "in", To: "ret", Type: models.ConnectionUnidirectional},
		},
		Owner: "user-1",
	}
}

func TestSaveAndLoadWorkflow(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.SaveWorkflow(ctx, sampleWorkflow("wf-1")))

	loaded, err := p.WorkflowByID(ctx, "wf-1")
	require.NoError(t, err)

	assert.Equal(t, "customer support rag", loaded.Name)
	require.Len(t, loaded.Nodes, 2)
	assert.Equal(t, models.NodeTypeInput, loaded.Nodes[0].Type)
	assert.Equal(t, "hello", loaded.Nodes[0].Config["user_input"])
	require.Len(t, loaded.Connections, 1)
	assert.False(t, loaded.CreatedAt.IsZero())
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestWorkflowByIDNotFound(t *testing.T) {
	p := newTestPersistence(t)

	_, err := p.WorkflowByID(context.Background(), "missing")
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestWorkflowsListsAll(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.SaveWorkflow(ctx, sampleWorkflow("wf-1")))
	require.NoError(t, p.SaveWorkflow(ctx, sampleWorkflow("wf-2")))

	workflows, err := p.Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, workflows, 2)
}

func TestDeleteWorkflow(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	require.NoError(t, p.SaveWorkflow(ctx, sampleWorkflow("wf-1")))
	require.NoError(t, p.DeleteWorkflow(ctx, "wf-1"))

	_, err := p.WorkflowByID(ctx, "wf-1")
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

	require.ErrorIs(t, p.DeleteWorkflow(ctx, "wf-1"), persistence.ErrWorkflowNotFound)
}

func TestHealthCheck(t *testing.T) {
	p := newTestPersistence(t)

	require.NoError(t, p.HealthCheck(context.Background()))
}
