// Package schedule runs stored workflows on cron expressions kept in
// workflow metadata.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/ragline/pkg/models"
	"github.com/robfig/cron/v3"
)

// Metadata keys read from a workflow document. A workflow with no
// "schedule" entry is never scheduled.
const (
	MetadataKeySchedule = "schedule"
	MetadataKeyQuestion = "schedule_question"
	MetadataKeyStrategy = "schedule_strategy"
)

// DefaultSyncInterval is how often the scheduler reloads workflows to pick
// up added, changed, or removed schedules.
const DefaultSyncInterval = time.Minute

// Lister loads the workflow documents to scan for schedule metadata.
type Lister interface {
	ListWorkflows(ctx context.Context) ([]*models.Workflow, error)
}

// Runner executes a stored workflow by id.
type Runner interface {
	ExecuteWorkflow(ctx context.Context, workflowID, question, strategy string) (*models.ExecutionResult, error)
}

type entry struct {
	spec string
	id   cron.EntryID
}

// Scheduler watches stored workflows and triggers the ones carrying a cron
// expression in their metadata.
type Scheduler struct {
	workflows Lister
	runner    Runner
	logger    *slog.Logger
	interval  time.Duration

	cron    *cron.Cron
	mu      sync.Mutex
	entries map[string]entry
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewScheduler(workflows Lister, runner Runner, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		workflows: workflows,
		runner:    runner,
		logger:    logger.With(slog.String("module", "scheduler")),
		interval:  DefaultSyncInterval,
		entries:   make(map[string]entry),
	}
}

// Start registers every scheduled workflow and begins firing cron jobs. It
// keeps re-syncing against the store until Stop is called or ctx ends.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	if err := s.Sync(ctx); err != nil {
		return fmt.Errorf("failed to load scheduled workflows: %w", err)
	}

	s.cron.Start()

	syncCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.syncLoop(syncCtx)

	return nil
}

func (s *Scheduler) syncLoop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil {
				s.logger.WarnContext(ctx, "Failed to sync scheduled workflows", slog.Any("error", err))
			}
		}
	}
}

// Sync reconciles cron entries with the current workflow store: new
// schedules are added, changed expressions re-registered, and entries for
// deleted or unscheduled workflows removed.
func (s *Scheduler) Sync(ctx context.Context) error {
	workflows, err := s.workflows.ListWorkflows(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(workflows))

	for _, workflow := range workflows {
		spec := metadataString(workflow, MetadataKeySchedule)
		if spec == "" {
			continue
		}

		seen[workflow.ID] = true

		if existing, ok := s.entries[workflow.ID]; ok {
			if existing.spec == spec {
				continue
			}

			s.cron.Remove(existing.id)
			delete(s.entries, workflow.ID)
		}

		if _, err := cron.ParseStandard(spec); err != nil {
			s.logger.WarnContext(ctx, "Skipping workflow with invalid cron expression",
				slog.String("workflow_id", workflow.ID),
				slog.String("schedule", spec),
				slog.Any("error", err))

			continue
		}

		id, err := s.cron.AddFunc(spec, s.job(workflow))
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to register cron job",
				slog.String("workflow_id", workflow.ID),
				slog.Any("error", err))

			continue
		}

		s.entries[workflow.ID] = entry{spec: spec, id: id}

		s.logger.InfoContext(ctx, "Registered scheduled workflow",
			slog.String("workflow_id", workflow.ID),
			slog.String("schedule", spec))
	}

	for workflowID, existing := range s.entries {
		if seen[workflowID] {
			continue
		}

		s.cron.Remove(existing.id)
		delete(s.entries, workflowID)

		s.logger.InfoContext(ctx, "Removed scheduled workflow", slog.String("workflow_id", workflowID))
	}

	return nil
}

func (s *Scheduler) job(workflow *models.Workflow) func() {
	workflowID := workflow.ID
	question := metadataString(workflow, MetadataKeyQuestion)
	strategy := metadataString(workflow, MetadataKeyStrategy)

	return func() {
		ctx := context.Background()

		s.logger.InfoContext(ctx, "Running scheduled workflow", slog.String("workflow_id", workflowID))

		if _, err := s.runner.ExecuteWorkflow(ctx, workflowID, question, strategy); err != nil {
			s.logger.ErrorContext(ctx, "Scheduled workflow failed",
				slog.String("workflow_id", workflowID),
				slog.Any("error", err))
		}
	}
}

// Entries returns the ids of workflows currently registered with the cron
// runner.
func (s *Scheduler) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}

	return ids
}

// Stop halts the sync loop and waits for running jobs to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}

	if s.cron == nil {
		return nil
	}

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func metadataString(workflow *models.Workflow, key string) string {
	if workflow.Metadata == nil {
		return ""
	}

	value, _ := workflow.Metadata[key].(string)

	return value
}
