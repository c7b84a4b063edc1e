package engine

import (
	"strings"
	"time"

	"github.com/dukex/ragline/pkg/models"
)

// runState is the transient state of one execution run. Each Execute call
// builds its own; nothing is shared across concurrent runs.
type runState struct {
	question    string
	nodes       []*models.WorkflowNode
	connections []*models.Connection
	byID        map[string]*models.WorkflowNode
	messages    map[string]map[string]models.Message
	path        []string
	timings     map[string]int64
	start       time.Time
}

func newRunState(input models.ExecutionInput) *runState {
	byID := make(map[string]*models.WorkflowNode, len(input.Nodes))
	for _, n := range input.Nodes {
		byID[n.ID] = n
	}

	return &runState{
		question:    strings.TrimSpace(input.Question),
		nodes:       input.Nodes,
		connections: input.Connections,
		byID:        byID,
		messages:    make(map[string]map[string]models.Message),
		timings:     make(map[string]int64),
		start:       time.Now(),
	}
}

func (s *runState) setMessage(nodeID, port string, msg models.Message) {
	ports, ok := s.messages[nodeID]
	if !ok {
		ports = make(map[string]models.Message)
		s.messages[nodeID] = ports
	}

	ports[port] = msg
}

func (s *runState) message(nodeID, port string) (models.Message, bool) {
	msg, ok := s.messages[nodeID][port]

	return msg, ok
}

// resolveBinding returns the message a binding points at. A reference to a
// node or port with no message yet is simply unresolved, never an error.
func (s *runState) resolveBinding(ref models.BindingRef) (models.Message, bool) {
	return s.message(ref.SourceNodeID, ref.SourcePort)
}

// upstream returns the nodes with a directed edge into nodeID, in connection
// order.
func (s *runState) upstream(nodeID string) []*models.WorkflowNode {
	var result []*models.WorkflowNode

	for _, c := range s.connections {
		if c.To != nodeID || c.From == nodeID {
			continue
		}

		if n, ok := s.byID[c.From]; ok {
			result = append(result, n)
		}
	}

	return result
}

// neighbors returns every node sharing a connection with nodeID regardless of
// edge direction, in connection order.
func (s *runState) neighbors(nodeID string) []*models.WorkflowNode {
	var result []*models.WorkflowNode

	for _, c := range s.connections {
		otherID := ""

		switch nodeID {
		case c.From:
			otherID = c.To
		case c.To:
			otherID = c.From
		default:
			continue
		}

		if n, ok := s.byID[otherID]; ok {
			result = append(result, n)
		}
	}

	return result
}

// inputValue resolves the value a node consumes on the given port: explicit
// binding first, then the type-inferred default output port of any upstream
// neighbor, then the caller-supplied default.
func (s *runState) inputValue(node *models.WorkflowNode, port string, bindings map[string]models.BindingRef, fallback any) any {
	if ref, ok := bindings[port]; ok {
		if msg, ok := s.resolveBinding(ref); ok {
			return msg.Payload
		}
	}

	for _, source := range s.upstream(node.ID) {
		if msg, ok := s.message(source.ID, models.DefaultOutputPort(source.Type)); ok {
			return msg.Payload
		}
	}

	return fallback
}

func (s *runState) recordNode(nodeID string, elapsed time.Duration) {
	s.path = append(s.path, nodeID)
	s.timings["node_"+nodeID] = elapsed.Milliseconds()
}

func (s *runState) finish() {
	s.timings["total"] = time.Since(s.start).Milliseconds()
}

// payloadString coerces a message payload to a non-empty string.
func payloadString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}

	return s, true
}

// payloadStringSlice coerces a message payload to a non-empty string slice.
// JSON round-trips turn []string into []any, so both shapes are accepted.
func payloadStringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return nil, false
		}

		return t, true
	case []any:
		out := make([]string, 0, len(t))

		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		if len(out) == 0 {
			return nil, false
		}

		return out, true
	default:
		return nil, false
	}
}
