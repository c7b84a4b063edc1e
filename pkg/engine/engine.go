// Package engine runs workflow graphs. It owns execution ordering, input
// resolution, per-node-type dispatch, timing, and result assembly.
//
// Two strategies share the same primitives: the linear strategy walks the
// single input -> dataSource -> retrieval -> llm path, the graph strategy
// schedules arbitrary node sets topologically. The graph strategy is the
// default.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/ragline/pkg/events"
	"github.com/dukex/ragline/pkg/models"
	"github.com/google/uuid"
)

// Consumed port names. Nodes resolve these through bindings first, topology
// second.
const (
	portQuestion = "question"
	portContext  = "context"
	portDatasets = "datasets"
)

// Retriever is the engine's view of the retrieval gateway. Errors from it
// propagate out of Execute untouched.
type Retriever interface {
	Retrieve(ctx context.Context, req models.RetrievalRequest) (*models.RetrievalResult, error)
}

// Completer is the engine's view of the model gateway. ok=false means "no
// answer", which the engine degrades gracefully, never an error.
type Completer interface {
	Complete(ctx context.Context, req models.CompletionRequest) (string, bool)
}

// Notifier publishes execution lifecycle events. Optional; a nil Notifier
// disables event emission.
type Notifier interface {
	Publish(ctx context.Context, event events.Event) error
}

// Executor runs one workflow graph to completion.
type Executor interface {
	Execute(ctx context.Context, input models.ExecutionInput) (*models.ExecutionResult, error)
	Strategy() string
}

// Deps carries everything an executor needs. Retrieval and Model are
// required; Events is optional.
type Deps struct {
	Retrieval Retriever
	Model     Completer
	Events    Notifier
	Logger    *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}

	return slog.Default()
}

// publish sends an event when a notifier is configured. Event delivery
// failures are logged, never propagated: observability must not fail a run.
func publish(ctx context.Context, notifier Notifier, logger *slog.Logger, event events.Event) {
	if notifier == nil {
		return
	}

	if err := notifier.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish execution event",
			slog.String("event_type", string(event.GetType())),
			slog.Any("error", err))
	}
}

func baseEvent(eventType events.EventType, executionID string) events.BaseEvent {
	return events.BaseEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		ExecutionID: executionID,
	}
}

func publishNodeFinished(ctx context.Context, notifier Notifier, logger *slog.Logger, executionID string, node *models.WorkflowNode, elapsed time.Duration) {
	publish(ctx, notifier, logger, events.NodeFinished{
		BaseEvent: baseEvent(events.NodeFinishedEvent, executionID),
		NodeID:    node.ID,
		NodeType:  node.Type,
		ElapsedMS: elapsed.Milliseconds(),
	})
}

func strptr(s string) *string {
	return &s
}
