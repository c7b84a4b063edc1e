package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/ragline/pkg/events"
	"github.com/dukex/ragline/pkg/models"
	"github.com/dukex/ragline/pkg/prompt"
	"github.com/dukex/ragline/pkg/retrieval"
	"github.com/google/uuid"
)

// LinearExecutor runs the single hard-coded pipeline: one input feeds one
// dataSource feeds one retrieval feeds one optional llm node. It picks the
// first node of each type in declaration order and ignores the rest.
type LinearExecutor struct {
	retrieval Retriever
	model     Completer
	notifier  Notifier
	logger    *slog.Logger
}

func NewLinearExecutor(deps Deps) *LinearExecutor {
	return &LinearExecutor{
		retrieval: deps.Retrieval,
		model:     deps.Model,
		notifier:  deps.Events,
		logger:    deps.logger().With(slog.String("module", "engine.linear")),
	}
}

func (e *LinearExecutor) Strategy() string {
	return StrategyLinear
}

func (e *LinearExecutor) Execute(ctx context.Context, input models.ExecutionInput) (*models.ExecutionResult, error) {
	executionID := uuid.NewString()
	st := newRunState(input)

	publish(ctx, e.notifier, e.logger, events.ExecutionStarted{
		BaseEvent: baseEvent(events.ExecutionStartedEvent, executionID),
		Strategy:  StrategyLinear,
		Question:  st.question,
		NodeCount: len(input.Nodes),
	})

	for _, n := range input.Nodes {
		switch n.Type {
		case models.NodeTypeInput:
			if cfg := models.ParseInputConfig(n.Config); cfg.UserInput != "" {
				st.setMessage(n.ID, models.PortUser, models.Message{Type: models.MessageUser, Payload: cfg.UserInput})
			}
		case models.NodeTypeDataSource:
			if cfg := models.ParseDataSourceConfig(n.Config); len(cfg.SelectedDatasets) > 0 {
				st.setMessage(n.ID, models.PortDatasets, models.Message{Type: models.MessageJSON, Payload: cfg.SelectedDatasets})
			}
		}
	}

	retrievalNode := firstOfType(input.Nodes, models.NodeTypeRetrieval)
	if retrievalNode == nil {
		e.logger.DebugContext(ctx, "No retrieval node, returning empty result")

		return e.emptyResult(ctx, executionID, input.Question, st), nil
	}

	cfg := models.ParseRetrievalConfig(retrievalNode.Config)

	datasetIDs := retrieval.CollectLinkedDatasetIDs(retrievalNode.ID, input.Nodes, input.Connections)
	if ref, ok := cfg.Bindings[portDatasets]; ok {
		if msg, ok := st.resolveBinding(ref); ok {
			if bound, ok := payloadStringSlice(msg.Payload); ok {
				datasetIDs = bound
			}
		}
	}

	if len(datasetIDs) == 0 {
		e.logger.DebugContext(ctx, "No dataset ids resolved, returning empty result",
			slog.String("retrieval_node", retrievalNode.ID))

		return e.emptyResult(ctx, executionID, input.Question, st), nil
	}

	if ds := firstNeighborOfType(st, retrievalNode.ID, models.NodeTypeDataSource); ds != nil {
		st.setMessage(ds.ID, models.PortDatasets, models.Message{Type: models.MessageJSON, Payload: datasetIDs})
	}

	question := e.resolveQuestion(st, retrievalNode, cfg.Bindings)

	retStart := time.Now()

	result, err := e.retrieval.Retrieve(ctx, models.RetrievalRequest{
		Question:               question,
		DatasetIDs:             datasetIDs,
		SimilarityThreshold:    cfg.SimilarityThreshold,
		VectorSimilarityWeight: cfg.VectorSimilarityWeight,
		TopK:                   cfg.TopK,
		Keyword:                cfg.Keyword,
		Highlight:              cfg.Highlight,
	})
	if err != nil {
		publish(ctx, e.notifier, e.logger, events.ExecutionFailed{
			BaseEvent: baseEvent(events.ExecutionFailedEvent, executionID),
			Error:     err.Error(),
		})

		return nil, err
	}

	st.timings["retrieval"] = time.Since(retStart).Milliseconds()
	publishNodeFinished(ctx, e.notifier, e.logger, executionID, retrievalNode, time.Since(retStart))

	asmStart := time.Now()
	assembled := retrieval.AssembleContext(cfg, result)
	st.timings["context_assemble"] = time.Since(asmStart).Milliseconds()
	st.setMessage(retrievalNode.ID, models.PortContext, models.Message{Type: models.MessageContext, Payload: assembled})

	var llmOutput *string

	if llmNode := firstOfType(input.Nodes, models.NodeTypeLLM); llmNode != nil {
		llmStart := time.Now()
		answer := e.runLLM(ctx, st, llmNode, question, assembled)
		st.timings["llm"] = time.Since(llmStart).Milliseconds()
		st.setMessage(llmNode.ID, models.PortAnswer, models.Message{Type: models.MessageText, Payload: answer})
		publishNodeFinished(ctx, e.notifier, e.logger, executionID, llmNode, time.Since(llmStart))

		llmOutput = strptr(answer)
	}

	st.finish()

	publish(ctx, e.notifier, e.logger, events.ExecutionCompleted{
		BaseEvent: baseEvent(events.ExecutionCompletedEvent, executionID),
		TotalMS:   st.timings["total"],
		Total:     result.Total,
		HasAnswer: llmOutput != nil,
	})

	return &models.ExecutionResult{
		Question:         question,
		RetrievedContext: strptr(assembled),
		LLMOutput:        llmOutput,
		Total:            result.Total,
		Documents:        result.Documents,
		Scores:           result.Scores,
		Timings:          st.timings,
		Messages:         st.messages,
	}, nil
}

// resolveQuestion picks the retrieval question: explicit binding, then the
// user_input of a directly connected input node, then the top-level question.
func (e *LinearExecutor) resolveQuestion(st *runState, node *models.WorkflowNode, bindings map[string]models.BindingRef) string {
	if ref, ok := bindings[portQuestion]; ok {
		if msg, ok := st.resolveBinding(ref); ok {
			if s, ok := payloadString(msg.Payload); ok {
				return strings.TrimSpace(s)
			}
		}
	}

	if inputNode := firstNeighborOfType(st, node.ID, models.NodeTypeInput); inputNode != nil {
		if cfg := models.ParseInputConfig(inputNode.Config); cfg.UserInput != "" {
			st.setMessage(inputNode.ID, models.PortUser, models.Message{Type: models.MessageUser, Payload: cfg.UserInput})

			return cfg.UserInput
		}
	}

	return st.question
}

func (e *LinearExecutor) runLLM(ctx context.Context, st *runState, node *models.WorkflowNode, defaultQuestion, defaultContext string) string {
	cfg := models.ParseLLMConfig(node.Config)

	question := defaultQuestion
	if ref, ok := cfg.Bindings[portQuestion]; ok {
		if msg, ok := st.resolveBinding(ref); ok {
			if s, ok := payloadString(msg.Payload); ok {
				question = s
			}
		}
	}

	contextText := defaultContext
	if ref, ok := cfg.Bindings[portContext]; ok {
		if msg, ok := st.resolveBinding(ref); ok {
			if s, ok := msg.Payload.(string); ok && s != "" {
				contextText = s
			}
		}
	}

	rendered := prompt.Render(cfg.PromptTemplate, map[string]string{
		"question":          question,
		"retrieved_context": contextText,
	})

	answer, ok := e.model.Complete(ctx, models.CompletionRequest{
		Model:       cfg.Model,
		Prompt:      rendered,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if !ok || answer == "" {
		// Surface the rendered prompt instead of silently returning nothing.
		e.logger.DebugContext(ctx, "Model returned no answer, falling back to rendered prompt",
			slog.String("node", node.ID))

		return rendered
	}

	return answer
}

// emptyResult is the well-formed "nothing to retrieve" outcome: not an error,
// just null context and output with zero totals.
func (e *LinearExecutor) emptyResult(ctx context.Context, executionID, question string, st *runState) *models.ExecutionResult {
	publish(ctx, e.notifier, e.logger, events.ExecutionCompleted{
		BaseEvent: baseEvent(events.ExecutionCompletedEvent, executionID),
		TotalMS:   time.Since(st.start).Milliseconds(),
	})

	return &models.ExecutionResult{
		Question:  question,
		Documents: []models.Document{},
		Scores:    []float64{},
		Messages:  st.messages,
	}
}

func firstOfType(nodes []*models.WorkflowNode, t models.NodeType) *models.WorkflowNode {
	for _, n := range nodes {
		if n.Type == t {
			return n
		}
	}

	return nil
}

func firstNeighborOfType(st *runState, nodeID string, t models.NodeType) *models.WorkflowNode {
	for _, n := range st.neighbors(nodeID) {
		if n.Type == t {
			return n
		}
	}

	return nil
}
