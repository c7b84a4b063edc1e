// Package main provides the ragline command: API server, one-shot workflow
// runs, and the cron scheduler.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/ragline/pkg/eventbus"
	"github.com/dukex/ragline/pkg/events"
	"github.com/dukex/ragline/pkg/log"
	"github.com/dukex/ragline/pkg/models"
	"github.com/dukex/ragline/pkg/otelhelper"
	"github.com/dukex/ragline/pkg/schedule"
	"github.com/dukex/ragline/pkg/services"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	root := &cli.Command{
		Name:                  "ragline",
		Usage:                 "Create, manage, and run RAG workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL, postgres:// or a directory path",
				Value:   "./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "retrieval-url",
				Usage:   "Base URL of the retrieval gateway",
				Value:   "http://localhost:8001/api/v1",
				Sources: cli.EnvVars("RETRIEVAL_API_URL"),
			},
			&cli.StringFlag{
				Name:    "retrieval-token",
				Usage:   "Bearer token for the retrieval gateway",
				Sources: cli.EnvVars("RETRIEVAL_API_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "model-url",
				Usage:   "Base URL of the model gateway",
				Value:   "http://localhost:8002/api/v1",
				Sources: cli.EnvVars("MODEL_API_URL"),
			},
			&cli.StringFlag{
				Name:    "model-token",
				Usage:   "Bearer token for the model gateway",
				Sources: cli.EnvVars("MODEL_API_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for execution history; empty keeps history in memory",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OpenTelemetry tracing",
				Sources: cli.EnvVars("OTEL_TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			apiCommand(),
			runCommand(),
			schedulerCommand(),
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// stack bundles everything a subcommand needs, built from the global flags.
type stack struct {
	workflows  *services.Workflow
	executions *services.Execution
	clients    gatewayClients
	bus        eventbus.EventBus
	strategies []string
	cleanup    func(ctx context.Context)
}

func buildStack(ctx context.Context, command *cli.Command, serviceName string) (*stack, error) {
	log.Setup(command.String("log-level"))
	logger := log.WithModule(serviceName)

	p, err := newPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize persistence: %w", err)
	}

	store, err := newHistoryStore(command.String("redis-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}

	bus, err := newEventBus(command.String("event-bus"), logger)
	if err != nil {
		return nil, err
	}

	clients := newGatewayClients(command, logger)
	workflowService := services.NewWorkflow(p)
	executionService, registry := newExecutionService(clients, bus, store, workflowService, logger)

	if command.Bool("tracing") {
		tracer, err := otelhelper.NewTracer(ctx, serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}

		executionService.WithTracer(tracer)
	}

	cleanup := func(ctx context.Context) {
		if err := bus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}

		if err := p.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}

	return &stack{
		workflows:  workflowService,
		executions: executionService,
		clients:    clients,
		bus:        bus,
		strategies: registry.Strategies(),
		cleanup:    cleanup,
	}, nil
}

func apiCommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the workflow API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Ragline API")

			s, err := buildStack(ctx, command, "ragline-api")
			if err != nil {
				return err
			}
			defer s.cleanup(ctx)

			if err := subscribeExecutionLog(ctx, s.bus, logger); err != nil {
				return err
			}

			api := NewAPI(logger, s.workflows, s.executions, s.clients.models, s.clients.retrieval, s.strategies)

			return api.Start(command.Int("port"))
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a workflow once and print the result",
		ArgsUsage: "<workflow-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "question",
				Aliases:  []string{"q"},
				Usage:    "Question to run the workflow with",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "Execution strategy (graph, linear); empty selects the default",
			},
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Run a workflow JSON document from disk instead of the store",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			workflowID := command.Args().First()
			workflowFile := command.String("file")

			if workflowID == "" && workflowFile == "" {
				return errors.New("a workflow id argument or --file is required")
			}

			s, err := buildStack(ctx, command, "ragline-run")
			if err != nil {
				return err
			}
			defer s.cleanup(ctx)

			var result *models.ExecutionResult

			if workflowFile != "" {
				workflow, err := readWorkflowFile(workflowFile)
				if err != nil {
					return err
				}

				result, err = s.executions.ExecuteAdHoc(ctx, models.ExecutionInput{
					Question:    command.String("question"),
					Nodes:       workflow.Nodes,
					Connections: workflow.Connections,
				}, command.String("strategy"))
				if err != nil {
					return err
				}
			} else {
				result, err = s.executions.ExecuteWorkflow(ctx, workflowID, command.String("question"), command.String("strategy"))
				if err != nil {
					return err
				}
			}

			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}

			fmt.Println(string(encoded))

			return nil
		},
	}
}

// subscribeExecutionLog consumes lifecycle events off the bus and writes
// them to the audit log.
func subscribeExecutionLog(ctx context.Context, bus eventbus.EventBus, logger *slog.Logger) error {
	bus.Handle(events.ExecutionCompletedEvent, func(ctx context.Context, event events.Event) error {
		if completed, ok := event.(events.ExecutionCompleted); ok {
			logger.InfoContext(ctx, "Execution completed",
				slog.String("execution_id", completed.ExecutionID),
				slog.Int64("total_ms", completed.TotalMS),
				slog.Bool("has_answer", completed.HasAnswer))
		}

		return nil
	})

	bus.Handle(events.ExecutionFailedEvent, func(ctx context.Context, event events.Event) error {
		if failed, ok := event.(events.ExecutionFailed); ok {
			logger.WarnContext(ctx, "Execution failed",
				slog.String("execution_id", failed.ExecutionID),
				slog.String("error", failed.Error))
		}

		return nil
	})

	return bus.Subscribe(ctx)
}

func readWorkflowFile(path string) (*models.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal(data, &workflow); err != nil {
		return nil, fmt.Errorf("failed to parse workflow file: %w", err)
	}

	return &workflow, nil
}

func schedulerCommand() *cli.Command {
	return &cli.Command{
		Name:  "scheduler",
		Usage: "Run workflows on the cron schedules kept in their metadata",
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("scheduler")
			logger.InfoContext(ctx, "Initializing Ragline scheduler")

			s, err := buildStack(ctx, command, "ragline-scheduler")
			if err != nil {
				return err
			}
			defer s.cleanup(ctx)

			scheduler := schedule.NewScheduler(s.workflows, s.executions, logger)
			if err := scheduler.Start(ctx); err != nil {
				return err
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			<-sigChan

			logger.InfoContext(ctx, "Shutting down scheduler")

			return scheduler.Stop(ctx)
		},
	}
}
