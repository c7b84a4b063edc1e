package models

import "strings"

// BindingRef points an input port at another node's output port. On the wire
// bindings are stored as "nodeId.port" strings inside node config; they are
// parsed into this struct once, at config-parse time.
type BindingRef struct {
	SourceNodeID string `json:"source_node_id"`
	SourcePort   string `json:"source_port"`
}

// ParseBindingRef parses a "nodeId.port" reference. Empty strings and strings
// without a separator are not bindings (the node falls back to topology).
func ParseBindingRef(ref string) (BindingRef, bool) {
	idx := strings.Index(ref, ".")
	if idx <= 0 || idx == len(ref)-1 {
		return BindingRef{}, false
	}

	return BindingRef{
		SourceNodeID: ref[:idx],
		SourcePort:   ref[idx+1:],
	}, true
}

func (b BindingRef) String() string {
	return b.SourceNodeID + "." + b.SourcePort
}

// ParseBindings extracts the input_bindings map from a raw node config.
// Malformed entries are dropped; resolution failures are handled later by
// falling through to default resolution, never by erroring.
func ParseBindings(config map[string]any) map[string]BindingRef {
	raw, ok := config["input_bindings"].(map[string]any)
	if !ok {
		return nil
	}

	bindings := make(map[string]BindingRef, len(raw))

	for port, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}

		ref, ok := ParseBindingRef(s)
		if !ok {
			continue
		}

		bindings[port] = ref
	}

	if len(bindings) == 0 {
		return nil
	}

	return bindings
}
