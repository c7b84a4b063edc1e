package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/ragline/pkg/gateway"
	"github.com/dukex/ragline/pkg/models"
	"github.com/dukex/ragline/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ModelCatalog serves the model list, usually through a cache in front of
// the model gateway.
type ModelCatalog interface {
	Get(ctx context.Context) ([]models.LLMModel, error)
	Invalidate()
}

// DatasetCatalog lists the datasets available for retrieval nodes.
type DatasetCatalog interface {
	ListDatasets(ctx context.Context) (*gateway.DatasetsResponse, error)
}

type APIHandlers struct {
	workflowService  *services.Workflow
	executionService *services.Execution
	modelCatalog     ModelCatalog
	datasetCatalog   DatasetCatalog
	validator        *validator.Validate
	strategies       []string
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	executionService *services.Execution,
	modelCatalog ModelCatalog,
	datasetCatalog DatasetCatalog,
	validator *validator.Validate,
	strategies []string,
) *APIHandlers {
	return &APIHandlers{
		workflowService:  workflowService,
		executionService: executionService,
		modelCatalog:     modelCatalog,
		datasetCatalog:   datasetCatalog,
		validator:        validator,
		strategies:       strategies,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.ListWorkflows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows": workflows,
		"total":     len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.GetWorkflow(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req SaveWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflowService.SaveWorkflow(c.Context(), &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Nodes:       req.Nodes,
		Connections: req.Connections,
		Metadata:    req.Metadata,
		Owner:       req.Owner,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateWorkflow replaces the full document. Canvas clients save whole
// snapshots, so there is no partial-update path.
func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	existing, err := h.workflowService.GetWorkflow(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	var req SaveWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.Nodes = req.Nodes
	existing.Connections = req.Connections
	existing.Metadata = req.Metadata

	if req.Owner != "" {
		existing.Owner = req.Owner
	}

	updated, err := h.workflowService.SaveWorkflow(c.Context(), existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.workflowService.DeleteWorkflow(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req ExecuteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.executionService.ExecuteWorkflow(c.Context(), id, req.Question, req.Strategy)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) ExecuteAdHoc(c fiber.Ctx) error {
	var req ExecuteAdHocRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.executionService.ExecuteAdHoc(c.Context(), models.ExecutionInput{
		Question:    req.Question,
		Nodes:       req.Nodes,
		Connections: req.Connections,
	}, req.Strategy)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	limit := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "Invalid limit: "+limitStr)
		}

		limit = parsed
	}

	records, err := h.executionService.History(c.Context(), id, limit)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions": records,
		"total":      len(records),
	})
}

func (h *APIHandlers) GetModels(c fiber.Ctx) error {
	if h.modelCatalog == nil {
		return c.JSON(fiber.Map{"models": []models.LLMModel{}})
	}

	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		h.modelCatalog.Invalidate()
	}

	list, err := h.modelCatalog.Get(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"models": list})
}

func (h *APIHandlers) GetDatasets(c fiber.Ctx) error {
	if h.datasetCatalog == nil {
		return c.JSON(gateway.DatasetsResponse{Datasets: []gateway.Dataset{}})
	}

	result, err := h.datasetCatalog.ListDatasets(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"node_types": nodeTypeDescriptors(),
		"strategies": h.strategies,
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Ragline API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Ragline API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func nodeTypeDescriptors() []NodeTypeDescriptor {
	return []NodeTypeDescriptor{
		{
			Type:          models.NodeTypeInput,
			Label:         "User Input",
			DefaultOutput: models.PortUser,
			ConsumedPorts: []string{},
		},
		{
			Type:          models.NodeTypeDataSource,
			Label:         "Data Source",
			DefaultOutput: models.PortDatasets,
			ConsumedPorts: []string{"datasets"},
		},
		{
			Type:          models.NodeTypeRetrieval,
			Label:         "Retrieval",
			DefaultOutput: models.PortContext,
			ConsumedPorts: []string{"question", "datasets"},
		},
		{
			Type:          models.NodeTypeLLM,
			Label:         "LLM",
			DefaultOutput: models.PortAnswer,
			ConsumedPorts: []string{"question", "context"},
		},
		{
			Type:          models.NodeTypeOutput,
			Label:         "Output",
			DefaultOutput: models.PortOutput,
			ConsumedPorts: []string{"answer"},
		},
	}
}
