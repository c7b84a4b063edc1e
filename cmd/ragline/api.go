package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/ragline/pkg/services"
	"github.com/dukex/ragline/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type API struct {
	logger           *slog.Logger
	workflowService  *services.Workflow
	executionService *services.Execution
	modelCatalog     web.ModelCatalog
	datasetCatalog   web.DatasetCatalog
	strategies       []string
	validate         *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	workflowService *services.Workflow,
	executionService *services.Execution,
	modelCatalog web.ModelCatalog,
	datasetCatalog web.DatasetCatalog,
	strategies []string,
) *API {
	return &API{
		logger:           logger,
		workflowService:  workflowService,
		executionService: executionService,
		modelCatalog:     modelCatalog,
		datasetCatalog:   datasetCatalog,
		strategies:       strategies,
		validate:         validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(
		a.workflowService,
		a.executionService,
		a.modelCatalog,
		a.datasetCatalog,
		a.validate,
		a.strategies,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Ragline API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Put("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/execute", handlers.ExecuteWorkflow)
	w.Get("/:id/executions", handlers.GetExecutions)

	app.Post("/execute", handlers.ExecuteAdHoc)
	app.Get("/models", handlers.GetModels)
	app.Get("/datasets", handlers.GetDatasets)
	app.Get("/node-types", handlers.GetNodeTypes)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
