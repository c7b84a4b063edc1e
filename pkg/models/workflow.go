package models

import "time"

// Workflow is a stored workflow document: the node set, the authoritative
// connection set, and bookkeeping metadata.
type Workflow struct {
	ID          string           `json:"id"`
	Name        string           `json:"name" validate:"required,min=3"`
	Description string           `json:"description"`
	Nodes       []*WorkflowNode  `json:"nodes"`
	Connections []*Connection    `json:"connections"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	Owner       string           `json:"owner"`
	Version     string           `json:"version,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   *time.Time       `json:"deleted_at,omitempty"`
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *WorkflowNode {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n
		}
	}

	return nil
}
