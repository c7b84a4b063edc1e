// Package events defines lifecycle event types emitted during workflow runs.
package events

import (
	"time"

	"github.com/dukex/ragline/pkg/models"
)

type EventType string

// Topic is the bus topic all execution events are published on.
const Topic = "ragline.executions"

const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	NodeFinishedEvent       EventType = "node.finished"
)

// Event is implemented by every event published on the bus.
type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	WorkflowID  string    `json:"workflow_id,omitempty"`
	ExecutionID string    `json:"execution_id"`
}

type ExecutionStarted struct {
	BaseEvent

	Strategy  string `json:"strategy"`
	Question  string `json:"question"`
	NodeCount int    `json:"node_count"`
}

func (e ExecutionStarted) GetType() EventType { return ExecutionStartedEvent }

type NodeFinished struct {
	BaseEvent

	NodeID    string          `json:"node_id"`
	NodeType  models.NodeType `json:"node_type"`
	ElapsedMS int64           `json:"elapsed_ms"`
}

func (e NodeFinished) GetType() EventType { return NodeFinishedEvent }

type ExecutionCompleted struct {
	BaseEvent

	TotalMS   int64 `json:"total_ms"`
	Total     int   `json:"total"`
	HasAnswer bool  `json:"has_answer"`
}

func (e ExecutionCompleted) GetType() EventType { return ExecutionCompletedEvent }

type ExecutionFailed struct {
	BaseEvent

	Error string `json:"error"`
}

func (e ExecutionFailed) GetType() EventType { return ExecutionFailedEvent }
