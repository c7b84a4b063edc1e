package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/ragline/pkg/engine"
	"github.com/dukex/ragline/pkg/history"
	"github.com/dukex/ragline/pkg/models"
	"github.com/dukex/ragline/pkg/otelhelper"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Execution runs workflows through the engine and records every run in the
// history store.
type Execution struct {
	registry  *engine.Registry
	workflows *Workflow
	history   history.Store
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewExecution(registry *engine.Registry, workflows *Workflow, store history.Store, logger *slog.Logger) *Execution {
	return &Execution{
		registry:  registry,
		workflows: workflows,
		history:   store,
		logger:    logger.With(slog.String("module", "execution_service")),
		tracer:    noop.NewTracerProvider().Tracer("execution"),
	}
}

// WithTracer replaces the no-op tracer, enabling execution spans.
func (s *Execution) WithTracer(tracer trace.Tracer) *Execution {
	s.tracer = tracer

	return s
}

// ExecuteWorkflow loads a stored workflow and runs it with the given
// question. An empty strategy selects the default.
func (s *Execution) ExecuteWorkflow(ctx context.Context, workflowID, question, strategy string) (*models.ExecutionResult, error) {
	workflow, err := s.workflows.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	executor, err := s.registry.Get(strategy)
	if err != nil {
		return nil, validationError("ExecuteWorkflow", err.Error(), ErrUnknownStrategy)
	}

	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "execute_workflow",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
		attribute.String(otelhelper.StrategyKey, executor.Strategy()),
		attribute.Int(otelhelper.QuestionLenKey, len(question)))
	defer span.End()

	record := &history.ExecutionRecord{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		Strategy:   executor.Strategy(),
		Question:   question,
		StartedAt:  time.Now().UTC(),
	}

	result, err := executor.Execute(ctx, models.ExecutionInput{
		Question:    question,
		Nodes:       workflow.Nodes,
		Connections: workflow.Connections,
	})

	record.FinishedAt = time.Now().UTC()

	if err != nil {
		record.Error = err.Error()
	} else {
		record.Result = result
	}

	if s.history != nil {
		if appendErr := s.history.Append(ctx, record); appendErr != nil {
			s.logger.WarnContext(ctx, "Failed to record execution",
				slog.String("workflow_id", workflowID),
				slog.Any("error", appendErr))
		}
	}

	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.WorkflowIDKey, workflowID))

		return nil, fmt.Errorf("execution failed: %w", err)
	}

	return result, nil
}

// ExecuteAdHoc runs a node/connection set that was never saved, e.g. a
// canvas being edited.
func (s *Execution) ExecuteAdHoc(ctx context.Context, input models.ExecutionInput, strategy string) (*models.ExecutionResult, error) {
	executor, err := s.registry.Get(strategy)
	if err != nil {
		return nil, validationError("ExecuteAdHoc", err.Error(), ErrUnknownStrategy)
	}

	return executor.Execute(ctx, input)
}

// History returns past runs for a workflow, newest first.
func (s *Execution) History(ctx context.Context, workflowID string, limit int) ([]*history.ExecutionRecord, error) {
	if s.history == nil {
		return []*history.ExecutionRecord{}, nil
	}

	return s.history.List(ctx, workflowID, limit)
}
