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

// GraphExecutor schedules arbitrary node sets with Kahn's algorithm and
// dispatches every node by type. Nodes a cycle or disconnection keeps out of
// the topological order still run, via the fallback append in buildOrder, so
// every node executes exactly once per run.
type GraphExecutor struct {
	retrieval Retriever
	model     Completer
	notifier  Notifier
	logger    *slog.Logger
}

func NewGraphExecutor(deps Deps) *GraphExecutor {
	return &GraphExecutor{
		retrieval: deps.Retrieval,
		model:     deps.Model,
		notifier:  deps.Events,
		logger:    deps.logger().With(slog.String("module", "engine.graph")),
	}
}

func (e *GraphExecutor) Strategy() string {
	return StrategyGraph
}

func (e *GraphExecutor) Execute(ctx context.Context, input models.ExecutionInput) (*models.ExecutionResult, error) {
	executionID := uuid.NewString()
	st := newRunState(input)
	order := buildOrder(input.Nodes, input.Connections)

	publish(ctx, e.notifier, e.logger, events.ExecutionStarted{
		BaseEvent: baseEvent(events.ExecutionStartedEvent, executionID),
		Strategy:  StrategyGraph,
		Question:  st.question,
		NodeCount: len(input.Nodes),
	})

	e.logger.DebugContext(ctx, "Built execution order",
		slog.Int("node_count", len(input.Nodes)),
		slog.Any("order", order))

	for _, nodeID := range order {
		node, ok := st.byID[nodeID]
		if !ok {
			continue
		}

		nodeStart := time.Now()

		if err := e.executeNode(ctx, st, node); err != nil {
			publish(ctx, e.notifier, e.logger, events.ExecutionFailed{
				BaseEvent: baseEvent(events.ExecutionFailedEvent, executionID),
				Error:     err.Error(),
			})

			return nil, err
		}

		elapsed := time.Since(nodeStart)
		st.recordNode(nodeID, elapsed)
		publishNodeFinished(ctx, e.notifier, e.logger, executionID, node, elapsed)
	}

	st.finish()
	result := extractResult(st)

	publish(ctx, e.notifier, e.logger, events.ExecutionCompleted{
		BaseEvent: baseEvent(events.ExecutionCompletedEvent, executionID),
		TotalMS:   st.timings["total"],
		Total:     result.Total,
		HasAnswer: result.LLMOutput != nil,
	})

	return result, nil
}

// buildOrder runs Kahn's algorithm over the directed edge set. Nodes a cycle
// keeps from ever reaching in-degree zero, and nodes with no connections at
// all, are missing from the topological result; they are appended so the
// order still contains every node exactly once. input and dataSource
// stragglers go before the topological segment, everything else after.
func buildOrder(nodes []*models.WorkflowNode, connections []*models.Connection) []string {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	adjacency := make(map[string][]string, len(nodes))
	inDegree := make(map[string]int, len(nodes))

	for _, c := range connections {
		// Every connection contributes the single directed edge from -> to;
		// the bidirectional tag is an editing affordance, not a reverse edge.
		if !known[c.From] || !known[c.To] {
			continue
		}

		adjacency[c.From] = append(adjacency[c.From], c.To)
		inDegree[c.To]++
	}

	var queue, ordered []string

	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		ordered = append(ordered, current)

		for _, next := range adjacency[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	placed := make(map[string]bool, len(ordered))
	for _, id := range ordered {
		placed[id] = true
	}

	var before, after []string

	for _, n := range nodes {
		if placed[n.ID] {
			continue
		}

		if n.Type == models.NodeTypeInput || n.Type == models.NodeTypeDataSource {
			before = append(before, n.ID)
		} else {
			after = append(after, n.ID)
		}
	}

	final := make([]string, 0, len(nodes))
	final = append(final, before...)
	final = append(final, ordered...)
	final = append(final, after...)

	return final
}

func (e *GraphExecutor) executeNode(ctx context.Context, st *runState, node *models.WorkflowNode) error {
	switch node.Type {
	case models.NodeTypeInput:
		e.executeInput(st, node)
	case models.NodeTypeDataSource:
		e.executeDataSource(st, node)
	case models.NodeTypeRetrieval:
		return e.executeRetrieval(ctx, st, node)
	case models.NodeTypeLLM:
		e.executeLLM(ctx, st, node)
	case models.NodeTypeOutput:
		e.executeOutput(st, node)
	}

	return nil
}

func (e *GraphExecutor) executeInput(st *runState, node *models.WorkflowNode) {
	if cfg := models.ParseInputConfig(node.Config); cfg.UserInput != "" {
		st.setMessage(node.ID, models.PortUser, models.Message{Type: models.MessageUser, Payload: cfg.UserInput})
	}
}

func (e *GraphExecutor) executeDataSource(st *runState, node *models.WorkflowNode) {
	cfg := models.ParseDataSourceConfig(node.Config)

	datasetIDs := cfg.SelectedDatasets
	if bound, ok := payloadStringSlice(st.inputValue(node, portDatasets, cfg.Bindings, nil)); ok {
		datasetIDs = bound
	}

	if len(datasetIDs) > 0 {
		st.setMessage(node.ID, models.PortDatasets, models.Message{Type: models.MessageJSON, Payload: datasetIDs})
	}
}

func (e *GraphExecutor) executeRetrieval(ctx context.Context, st *runState, node *models.WorkflowNode) error {
	cfg := models.ParseRetrievalConfig(node.Config)

	question, resolved := payloadString(st.inputValue(node, portQuestion, cfg.Bindings, nil))
	if resolved {
		question = strings.TrimSpace(question)
	} else {
		question = st.question

		for _, upstream := range st.upstream(node.ID) {
			if upstream.Type != models.NodeTypeInput {
				continue
			}

			if inputCfg := models.ParseInputConfig(upstream.Config); inputCfg.UserInput != "" {
				question = inputCfg.UserInput
			}

			break
		}
	}

	datasetIDs, ok := payloadStringSlice(st.inputValue(node, portDatasets, cfg.Bindings, nil))
	if !ok {
		datasetIDs = retrieval.CollectLinkedDatasetIDs(node.ID, st.nodes, st.connections)
	}

	if len(datasetIDs) == 0 {
		// Missing data degrades, it does not fail: emit an empty context and
		// a zero-totals result without touching the gateway.
		e.logger.DebugContext(ctx, "Retrieval node has no datasets, skipping gateway call",
			slog.String("node", node.ID))

		st.setMessage(node.ID, models.PortContext, models.Message{Type: models.MessageContext, Payload: ""})
		st.setMessage(node.ID, models.PortRetrievalResult, models.Message{Type: models.MessageJSON, Payload: &models.RetrievalResult{
			Documents: []models.Document{},
			Scores:    []float64{},
		}})

		return nil
	}

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
		return err
	}

	assembled := retrieval.AssembleContext(cfg, result)

	st.setMessage(node.ID, models.PortContext, models.Message{Type: models.MessageContext, Payload: assembled})
	st.setMessage(node.ID, models.PortRetrievalResult, models.Message{Type: models.MessageJSON, Payload: result})

	return nil
}

func (e *GraphExecutor) executeLLM(ctx context.Context, st *runState, node *models.WorkflowNode) {
	cfg := models.ParseLLMConfig(node.Config)

	question := st.question
	if s, ok := payloadString(st.inputValue(node, portQuestion, cfg.Bindings, nil)); ok {
		question = s
	}

	contextText := ""
	if s, ok := st.inputValue(node, portContext, cfg.Bindings, "").(string); ok {
		contextText = s
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

		answer = rendered
	}

	st.setMessage(node.ID, models.PortAnswer, models.Message{Type: models.MessageText, Payload: answer})
}

func (e *GraphExecutor) executeOutput(st *runState, node *models.WorkflowNode) {
	cfg := models.ParseOutputConfig(node.Config)

	if v := st.inputValue(node, models.PortAnswer, cfg.Bindings, nil); v != nil {
		st.setMessage(node.ID, models.PortOutput, models.Message{Type: models.MessageText, Payload: v})
	}
}

// extractResult assembles the run's return value from the last llm and
// retrieval nodes that actually executed, falling back to the last declared
// node of each type when the path recorded none.
func extractResult(st *runState) *models.ExecutionResult {
	result := &models.ExecutionResult{
		Question: st.question,
		Timings:  st.timings,
		Messages: st.messages,
	}

	if llmNode := lastExecutedOfType(st, models.NodeTypeLLM); llmNode != nil {
		if msg, ok := st.message(llmNode.ID, models.PortAnswer); ok {
			if s, ok := msg.Payload.(string); ok {
				result.LLMOutput = strptr(s)
			}
		}
	}

	if retrievalNode := lastExecutedOfType(st, models.NodeTypeRetrieval); retrievalNode != nil {
		if msg, ok := st.message(retrievalNode.ID, models.PortContext); ok {
			if s, ok := msg.Payload.(string); ok {
				result.RetrievedContext = strptr(s)
			}
		}

		if msg, ok := st.message(retrievalNode.ID, models.PortRetrievalResult); ok {
			if ret, ok := msg.Payload.(*models.RetrievalResult); ok && ret != nil {
				result.Total = ret.Total
				result.Documents = ret.Documents
				result.Scores = ret.Scores
			}
		}
	}

	return result
}

// lastExecutedOfType returns the last node of the given type in the recorded
// execution path, or the last declared one if the path somehow has none.
func lastExecutedOfType(st *runState, t models.NodeType) *models.WorkflowNode {
	var lastDeclared *models.WorkflowNode

	for i := len(st.path) - 1; i >= 0; i-- {
		if n, ok := st.byID[st.path[i]]; ok && n.Type == t {
			return n
		}
	}

	for _, n := range st.nodes {
		if n.Type == t {
			lastDeclared = n
		}
	}

	return lastDeclared
}
