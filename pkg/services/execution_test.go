package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukex/ragline/pkg/engine"
	"github.com/dukex/ragline/pkg/history"
	"github.com/dukex/ragline/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRetriever struct {
	result *models.RetrievalResult
	err    error
}

func (r *fixedRetriever) Retrieve(_ context.Context, _ models.RetrievalRequest) (*models.RetrievalResult, error) {
	return r.result, r.err
}

type fixedCompleter struct {
	answer string
	ok     bool
}

func (c *fixedCompleter) Complete(_ context.Context, _ models.CompletionRequest) (string, bool) {
	return c.answer, c.ok
}

func newExecutionService(t *testing.T, retriever engine.Retriever) (*Execution, history.Store) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	registry := engine.NewRegistry(engine.Deps{
		Retrieval: retriever,
		Model:     &fixedCompleter{answer: "fine", ok: true},
		Logger:    logger,
	})

	workflows := newWorkflowService(t)
	store := history.NewMemoryStore(history.DefaultLimit)

	return NewExecution(registry, workflows, store, logger), store
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestExecuteWorkflowRecordsHistory(t *testing.T) {
	retriever := &fixedRetriever{result: &models.RetrievalResult{
		Documents: []models.Document{{Content: "X is Y", Metadata: models.DocumentMetadata{DocumentID: "d1", DocumentName: "doc1"}}},
		Scores:    []float64{0.9},
	}}

	svc, _ := newExecutionService(t, retriever)

	saved, err := svc.workflows.SaveWorkflow(context.Background(), validWorkflow())
	require.NoError(t, err)

	result, err := svc.ExecuteWorkflow(context.Background(), saved.ID, "what is X", "")
	require.NoError(t, err)
	require.NotNil(t, result.RetrievedContext)
	assert.Contains(t, *result.RetrievedContext, "X is Y")

	records, err := svc.History(context.Background(), saved.ID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, engine.StrategyGraph, records[0].Strategy)
	assert.Equal(t, "what is X", records[0].Question)
	assert.Empty(t, records[0].Error)
	require.NotNil(t, records[0].Result)
}

func TestExecuteWorkflowRecordsFailure(t *testing.T) {
	retriever := &fixedRetriever{err: errors.New("gateway unreachable")}

	svc, _ := newExecutionService(t, retriever)

	saved, err := svc.workflows.SaveWorkflow(context.Background(), validWorkflow())
	require.NoError(t, err)

	_, err = svc.ExecuteWorkflow(context.Background(), saved.ID, "what is X", "")
	require.Error(t, err)

	records, err := svc.History(context.Background(), saved.ID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, records[0].Error, "gateway unreachable")
	assert.Nil(t, records[0].Result)
}

func TestExecuteWorkflowUnknownWorkflow(t *testing.T) {
	svc, _ := newExecutionService(t, &fixedRetriever{result: &models.RetrievalResult{}})

	_, err := svc.ExecuteWorkflow(context.Background(), "missing", "q", "")
	require.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestExecuteWorkflowUnknownStrategy(t *testing.T) {
	svc, _ := newExecutionService(t, &fixedRetriever{result: &models.RetrievalResult{}})

	saved, err := svc.workflows.SaveWorkflow(context.Background(), validWorkflow())
	require.NoError(t, err)

	_, err = svc.ExecuteWorkflow(context.Background(), saved.ID, "q", "quantum")
	require.ErrorIs(t, err, ErrUnknownStrategy)
	assert.True(t, IsValidationError(err))
}

func TestExecuteAdHoc(t *testing.T) {
	retriever := &fixedRetriever{result: &models.RetrievalResult{
		Documents: []models.Document{{Content: "ad hoc context"}},
		Scores:    []float64{},
	}}

	svc, _ := newExecutionService(t, retriever)

	workflow := validWorkflow()

	result, err := svc.ExecuteAdHoc(context.Background(), models.ExecutionInput{
		Question:    "q",
		Nodes:       workflow.Nodes,
		Connections: workflow.Connections,
	}, engine.StrategyLinear)
	require.NoError(t, err)
	require.NotNil(t, result.RetrievedContext)
	assert.Equal(t, "ad hoc context", *result.RetrievedContext)
}
