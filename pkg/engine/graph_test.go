package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/ragline/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ragPipeline() ([]*models.WorkflowNode, []*models.Connection) {
	nodes := []*models.WorkflowNode{
		node("in", models.NodeTypeInput, map[string]any{"user_input": "What is X?"}),
		node("ds", models.NodeTypeDataSource, map[string]any{"selected_datasets": []any{"ds1"}}),
		node("ret", models.NodeTypeRetrieval, nil),
	}
	connections := []*models.Connection{edge("in", "ret"), edge("ret", "ds")}

	return nodes, connections
}

func TestGraphExecuteRetrievalPipeline(t *testing.T) {
	retriever := &stubRetriever{result: singleHit()}
	executor := NewGraphExecutor(testDeps(retriever, &stubCompleter{}))

	nodes, connections := ragPipeline()

	result, err := executor.Execute(context.Background(), models.ExecutionInput{
		Question:    "What is X?",
		Nodes:       nodes,
		Connections: connections,
	})
	require.NoError(t, err)

	require.NotNil(t, result.RetrievedContext)
	assert.Contains(t, *result.RetrievedContext, "X is Y")
	assert.Contains(t, *result.RetrievedContext, "【来源】doc1")
	assert.Nil(t, result.LLMOutput)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, []float64{0.9}, result.Scores)

	assert.Equal(t, 1, retriever.calls)
	assert.Equal(t, "What is X?", retriever.lastReq.Question)
	assert.Equal(t, []string{"ds1"}, retriever.lastReq.DatasetIDs)
	assert.InDelta(t, models.DefaultSimilarityThreshold, retriever.lastReq.SimilarityThreshold, 1e-9)
	assert.Equal(t, models.DefaultTopK, retriever.lastReq.TopK)

	assert.Contains(t, result.Timings, "node_ret")
	assert.Contains(t, result.Timings, "total")
}

func TestGraphExecuteWithBoundLLM(t *testing.T) {
	retriever := &stubRetriever{result: singleHit()}
	completer := &stubCompleter{answer: "42", ok: true}
	executor := NewGraphExecutor(testDeps(retriever, completer))

	nodes, connections := ragPipeline()
	nodes = append(nodes, node("llm", models.NodeTypeLLM, map[string]any{
		"prompt_template": "Q:{question} C:{retrieved_context}",
		"input_bindings":  map[string]any{"context": "ret.context"},
	}))

	result, err := executor.Execute(context.Background(), models.ExecutionInput{
		Question:    "What is X?",
		Nodes:       nodes,
		Connections: connections,
	})
	require.NoError(t, err)

	require.NotNil(t, result.LLMOutput)
	assert.Equal(t, "42", *result.LLMOutput)

	assert.Contains(t, completer.lastPrompt, "Q:What is X?")
	assert.Contains(t, completer.lastPrompt, "X is Y")
}

func TestGraphExecuteLLMFallbackToRenderedPrompt(t *testing.T) {
	retriever := &stubRetriever{result: singleHit()}
	completer := &stubCompleter{ok: false}
	executor := NewGraphExecutor(testDeps(retriever, completer))

	nodes, connections := ragPipeline()
	nodes = append(nodes, node("llm", models.NodeTypeLLM, map[string]any{
		"prompt_template": "Q:{question} C:{retrieved_context}",
		"input_bindings":  map[string]any{"context": "ret.context"},
	}))

	result, err := executor.Execute(context.Background(), models.ExecutionInput{
		Question:    "What is X?",
		Nodes:       nodes,
		Connections: connections,
	})
	require.NoError(t, err)

	require.NotNil(t, result.LLMOutput)
	assert.Equal(t, completer.lastPrompt, *result.LLMOutput)
	assert.Contains(t, *result.LLMOutput, "Q:What is X?")
}

func TestGraphExecuteRetrievalWithoutDatasets(t *testing.T) {
	retriever := &stubRetriever{result: singleHit()}
	executor := NewGraphExecutor(testDeps(retriever, &stubCompleter{}))

	result, err := executor.Execute(context.Background(), models.ExecutionInput{
		Question: "anything",
		Nodes:    []*models.WorkflowNode{node("ret", models.NodeTypeRetrieval, nil)},
	})
	require.NoError(t, err)

	require.NotNil(t, result.RetrievedContext)
	assert.Empty(t, *result.RetrievedContext)
	assert.Zero(t, result.Total)
	assert.Empty(t, result.Documents)
	assert.Empty(t, result.Scores)

	assert.Zero(t, retriever.calls, "gateway must not be called without datasets")
}

func TestGraphExecuteTwoNodeCycle(t *testing.T) {
	completer := &stubCompleter{answer: "ok", ok: true}
	executor := NewGraphExecutor(testDeps(&stubRetriever{}, completer))

	nodes := []*models.WorkflowNode{
		node("a", models.NodeTypeLLM, nil),
		node("b", models.NodeTypeLLM, nil),
	}
	connections := []*models.Connection{edge("a", "b"), edge("b", "a")}

	result, err := executor.Execute(context.Background(), models.ExecutionInput{
		Question:    "loop",
		Nodes:       nodes,
		Connections: connections,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, completer.calls)
	assert.Contains(t, result.Timings, "node_a")
	assert.Contains(t, result.Timings, "node_b")
}

func TestGraphExecutePropagatesGatewayError(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("upstream down")}
	executor := NewGraphExecutor(testDeps(retriever, &stubCompleter{}))

	nodes, connections := ragPipeline()

	_, err := executor.Execute(context.Background(), models.ExecutionInput{
		Question:    "What is X?",
		Nodes:       nodes,
		Connections: connections,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestGraphExecuteDatasetBindingOverridesTopology(t *testing.T) {
	retriever := &stubRetriever{result: singleHit()}
	executor := NewGraphExecutor(testDeps(retriever, &stubCompleter{}))

	nodes := []*models.WorkflowNode{
		node("ds", models.NodeTypeDataSource, map[string]any{"selected_datasets": []any{"bound1", "bound2"}}),
		node("ret", models.NodeTypeRetrieval, map[string]any{
			"input_bindings": map[string]any{"datasets": "ds.datasets"},
		}),
	}
	connections := []*models.Connection{edge("ds", "ret")}

	_, err := executor.Execute(context.Background(), models.ExecutionInput{
		Question:    "q",
		Nodes:       nodes,
		Connections: connections,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bound1", "bound2"}, retriever.lastReq.DatasetIDs)
}

func TestGraphExecuteUsesLastExecutedLLM(t *testing.T) {
	retriever := &stubRetriever{result: singleHit()}
	completer := &stubCompleter{ok: false}
	executor := NewGraphExecutor(testDeps(retriever, completer))

	// Two llm nodes in a chain; the result must come from the one that ran
	// last, not the first declared one.
	nodes := []*models.WorkflowNode{
		node("llm1", models.NodeTypeLLM, map[string]any{"prompt_template": "first {question}"}),
		node("llm2", models.NodeTypeLLM, map[string]any{"prompt_template": "second {question}"}),
	}
	connections := []*models.Connection{edge("llm1", "llm2")}

	result, err := executor.Execute(context.Background(), models.ExecutionInput{
		Question:    "q",
		Nodes:       nodes,
		Connections: connections,
	})
	require.NoError(t, err)

	require.NotNil(t, result.LLMOutput)
	assert.Contains(t, *result.LLMOutput, "second")
}

func TestGraphExecuteOutputNodeCollectsAnswer(t *testing.T) {
	completer := &stubCompleter{answer: "final answer", ok: true}
	executor := NewGraphExecutor(testDeps(&stubRetriever{}, completer))

	nodes := []*models.WorkflowNode{
		node("llm", models.NodeTypeLLM, nil),
		node("out", models.NodeTypeOutput, nil),
	}
	connections := []*models.Connection{edge("llm", "out")}

	result, err := executor.Execute(context.Background(), models.ExecutionInput{
		Question:    "q",
		Nodes:       nodes,
		Connections: connections,
	})
	require.NoError(t, err)

	msg, ok := result.Messages["out"][models.PortOutput]
	require.True(t, ok)
	assert.Equal(t, "final answer", msg.Payload)
}
