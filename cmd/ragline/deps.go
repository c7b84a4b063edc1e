package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/ragline/pkg/channels/gochannel"
	"github.com/dukex/ragline/pkg/channels/kafka"
	"github.com/dukex/ragline/pkg/engine"
	"github.com/dukex/ragline/pkg/eventbus"
	"github.com/dukex/ragline/pkg/gateway"
	"github.com/dukex/ragline/pkg/history"
	"github.com/dukex/ragline/pkg/persistence"
	"github.com/dukex/ragline/pkg/persistence/file"
	"github.com/dukex/ragline/pkg/persistence/postgresql"
	"github.com/dukex/ragline/pkg/services"
	cli "github.com/urfave/cli/v3"
)

const gatewayTimeout = 120 * time.Second

func newPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(databaseURL)
	}
}

func newHistoryStore(redisURL string) (history.Store, error) {
	if redisURL == "" {
		return history.NewMemoryStore(history.DefaultLimit), nil
	}

	return history.NewRedisStore(redisURL, history.DefaultLimit)
}

func newEventBus(provider string, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, "ragline")
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka channel: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "", "gochannel":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create gochannel channel: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}

type gatewayClients struct {
	retrieval *gateway.RetrievalClient
	model     *gateway.ModelClient
	models    *gateway.ModelsCache
}

func newGatewayClients(command *cli.Command, logger *slog.Logger) gatewayClients {
	retrieval := gateway.NewRetrievalClient(
		command.String("retrieval-url"),
		command.String("retrieval-token"),
		gatewayTimeout,
		logger,
	)
	model := gateway.NewModelClient(
		command.String("model-url"),
		command.String("model-token"),
		gatewayTimeout,
		logger,
	)

	return gatewayClients{
		retrieval: retrieval,
		model:     model,
		models:    gateway.NewModelsCache(model),
	}
}

func newExecutionService(
	clients gatewayClients,
	bus eventbus.EventBus,
	store history.Store,
	workflowService *services.Workflow,
	logger *slog.Logger,
) (*services.Execution, *engine.Registry) {
	registry := engine.NewRegistry(engine.Deps{
		Retrieval: clients.retrieval,
		Model:     clients.model,
		Events:    bus,
		Logger:    logger,
	})

	return services.NewExecution(registry, workflowService, store, logger), registry
}
