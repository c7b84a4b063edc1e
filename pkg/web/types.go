// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/dukex/ragline/pkg/models"

// SaveWorkflowRequest represents the request body for creating or replacing
// a workflow document.
type SaveWorkflowRequest struct {
	Name        string                 `json:"name"                validate:"required,min=3"`
	Description string                 `json:"description"`
	Nodes       []*models.WorkflowNode `json:"nodes"               validate:"required,min=1"`
	Connections []*models.Connection   `json:"connections"`
	Metadata    map[string]any         `json:"metadata,omitempty"`
	Owner       string                 `json:"owner"`
}

// ExecuteRequest represents the request body for running a stored workflow.
// An empty strategy selects the default.
type ExecuteRequest struct {
	Question string `json:"question" validate:"required"`
	Strategy string `json:"strategy"`
}

// ExecuteAdHocRequest represents the request body for running a node set
// that was never saved.
type ExecuteAdHocRequest struct {
	Question    string                 `json:"question"`
	Strategy    string                 `json:"strategy"`
	Nodes       []*models.WorkflowNode `json:"nodes"       validate:"required,min=1"`
	Connections []*models.Connection   `json:"connections"`
}

// NodeTypeDescriptor documents one supported node type for canvas clients.
type NodeTypeDescriptor struct {
	Type          models.NodeType `json:"type"`
	Label         string          `json:"label"`
	DefaultOutput string          `json:"default_output_port"`
	ConsumedPorts []string        `json:"consumed_ports"`
}
