// Package models defines the core graph models for RAG workflow execution.
package models

// NodeType identifies one of the fixed node kinds a workflow may contain.
type NodeType string

const (
	NodeTypeInput      NodeType = "input"
	NodeTypeDataSource NodeType = "dataSource"
	NodeTypeRetrieval  NodeType = "retrieval"
	NodeTypeLLM        NodeType = "llm"
	NodeTypeOutput     NodeType = "output"
)

// NodeTypes lists every supported node type.
var NodeTypes = []NodeType{
	NodeTypeInput,
	NodeTypeDataSource,
	NodeTypeRetrieval,
	NodeTypeLLM,
	NodeTypeOutput,
}

// Valid reports whether t is one of the supported node types.
func (t NodeType) Valid() bool {
	for _, known := range NodeTypes {
		if t == known {
			return true
		}
	}

	return false
}

// Well-known port names. Each node type produces its primary value on one of
// these ports; consumers address them through bindings or topology.
const (
	PortUser            = "user"
	PortDatasets        = "datasets"
	PortContext         = "context"
	PortAnswer          = "answer"
	PortOutput          = "output"
	PortRetrievalResult = "retrieval_result"
)

// DefaultOutputPort returns the port a node of the given type emits its
// primary value on when no explicit port is named.
func DefaultOutputPort(t NodeType) string {
	switch t {
	case NodeTypeInput:
		return PortUser
	case NodeTypeDataSource:
		return PortDatasets
	case NodeTypeRetrieval:
		return PortContext
	case NodeTypeLLM:
		return PortAnswer
	case NodeTypeOutput:
		return PortOutput
	default:
		return PortOutput
	}
}

// WorkflowNode represents a node instance in a workflow graph.
//
// Config is the open key/value bag as stored; consumers parse it into the
// typed config structs in config.go and substitute defaults for anything
// missing. Connections is a cached adjacency view kept for the canvas; the
// connection set on the workflow is the authoritative topology.
type WorkflowNode struct {
	ID          string         `json:"id"    validate:"required"`
	Type        NodeType       `json:"type"  validate:"required"`
	X           int            `json:"x"`
	Y           int            `json:"y"`
	Label       string         `json:"label"`
	Config      map[string]any `json:"config"`
	Connections []string       `json:"connections,omitempty"`
}

// ConnectionType declares how a connection was drawn on the canvas.
// Execution always treats a connection as the single directed edge From->To;
// "bidirectional" is an editing affordance, not a reverse data edge.
type ConnectionType string

const (
	ConnectionUnidirectional ConnectionType = "unidirectional"
	ConnectionBidirectional  ConnectionType = "bidirectional"
)

// ConnectionSide names the box side an edge is anchored to. Presentation only.
type ConnectionSide string

const (
	SideTop    ConnectionSide = "top"
	SideBottom ConnectionSide = "bottom"
	SideLeft   ConnectionSide = "left"
	SideRight  ConnectionSide = "right"
)

// Connection is a directed edge between two nodes.
type Connection struct {
	ID       string         `json:"id"`
	From     string         `json:"from" validate:"required"`
	To       string         `json:"to"   validate:"required"`
	FromSide ConnectionSide `json:"from_side,omitempty"`
	ToSide   ConnectionSide `json:"to_side,omitempty"`
	Type     ConnectionType `json:"type"`
}

// MessageType tags the payload kind of an inter-node message.
type MessageType string

const (
	MessageUser    MessageType = "user"
	MessageContext MessageType = "context"
	MessageText    MessageType = "text"
	MessageJSON    MessageType = "json"
)

// Message is the unit of data passed between nodes during one run. Created
// when a node finishes producing a port's value, discarded at the end of the
// run.
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}
