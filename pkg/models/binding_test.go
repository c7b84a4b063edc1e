package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBindingRef(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want BindingRef
		ok   bool
	}{
		{name: "node and port", ref: "node1.context", want: BindingRef{SourceNodeID: "node1", SourcePort: "context"}, ok: true},
		{name: "port with dot", ref: "node1.a.b", want: BindingRef{SourceNodeID: "node1", SourcePort: "a.b"}, ok: true},
		{name: "no separator", ref: "node1", ok: false},
		{name: "empty", ref: "", ok: false},
		{name: "missing node", ref: ".port", ok: false},
		{name: "missing port", ref: "node1.", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseBindingRef(tt.ref)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBindings(t *testing.T) {
	bindings := ParseBindings(map[string]any{
		"input_bindings": map[string]any{
			"context":  "ret.context",
			"question": "in.user",
			"broken":   "nodot",
			"number":   42,
		},
	})

	require.Len(t, bindings, 2)
	assert.Equal(t, BindingRef{SourceNodeID: "ret", SourcePort: "context"}, bindings["context"])
	assert.Equal(t, BindingRef{SourceNodeID: "in", SourcePort: "user"}, bindings["question"])
}

func TestParseBindingsAbsent(t *testing.T) {
	assert.Nil(t, ParseBindings(nil))
	assert.Nil(t, ParseBindings(map[string]any{}))
	assert.Nil(t, ParseBindings(map[string]any{"input_bindings": "not a map"}))
	assert.Nil(t, ParseBindings(map[string]any{"input_bindings": map[string]any{"x": "nodot"}}))
}

func TestBindingRefString(t *testing.T) {
	ref := BindingRef{SourceNodeID: "a", SourcePort: "answer"}

	assert.Equal(t, "a.answer", ref.String())
}
