package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRetrievalConfigDefaults(t *testing.T) {
	cfg := ParseRetrievalConfig(nil)

	assert.InDelta(t, 0.2, cfg.SimilarityThreshold, 1e-9)
	assert.InDelta(t, 0.3, cfg.VectorSimilarityWeight, 1e-9)
	assert.Equal(t, 6, cfg.TopK)
	assert.False(t, cfg.Keyword)
	assert.True(t, cfg.Highlight)
	assert.Equal(t, 3, cfg.ContextTopK)
	assert.Equal(t, 2000, cfg.ContextMaxChars)
	assert.True(t, cfg.ContextIncludeSource)
	assert.False(t, cfg.ContextIncludeScore)
	assert.False(t, cfg.ContextUseHighlight)
	assert.Equal(t, "\n---\n", cfg.ContextJoin)
	assert.Nil(t, cfg.Bindings)
}

func TestParseRetrievalConfigOverrides(t *testing.T) {
	// Values arrive as float64 after a JSON round-trip.
	cfg := ParseRetrievalConfig(map[string]any{
		"similarity_threshold": 0.5,
		"top_k":                float64(10),
		"highlight":            false,
		"context_join":         "",
		"context_max_chars":    100,
	})

	assert.InDelta(t, 0.5, cfg.SimilarityThreshold, 1e-9)
	assert.Equal(t, 10, cfg.TopK)
	assert.False(t, cfg.Highlight)
	assert.Empty(t, cfg.ContextJoin, "explicit empty join must be kept")
	assert.Equal(t, 100, cfg.ContextMaxChars)
}

func TestParseRetrievalConfigKeyword(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "bool true", value: true, want: true},
		{name: "bool false", value: false, want: false},
		{name: "query string", value: "search term", want: true},
		{name: "blank string", value: "   ", want: false},
		{name: "absent", value: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := map[string]any{}
			if tt.value != nil {
				config["keyword"] = tt.value
			}

			assert.Equal(t, tt.want, ParseRetrievalConfig(config).Keyword)
		})
	}
}

func TestParseLLMConfigDefaults(t *testing.T) {
	cfg := ParseLLMConfig(nil)

	assert.Empty(t, cfg.Model)
	assert.InDelta(t, 0.7, cfg.Temperature, 1e-9)
	assert.Equal(t, 2000, cfg.MaxTokens)
	assert.Equal(t, DefaultPromptTemplate, cfg.PromptTemplate)
}

func TestParseInputConfigTrims(t *testing.T) {
	cfg := ParseInputConfig(map[string]any{"user_input": "  hello  "})

	assert.Equal(t, "hello", cfg.UserInput)
}

func TestParseDataSourceConfig(t *testing.T) {
	cfg := ParseDataSourceConfig(map[string]any{
		"selected_datasets": []any{"a", "b", 3},
	})

	assert.Equal(t, []string{"a", "b"}, cfg.SelectedDatasets)
}

func TestDefaultOutputPort(t *testing.T) {
	assert.Equal(t, PortUser, DefaultOutputPort(NodeTypeInput))
	assert.Equal(t, PortDatasets, DefaultOutputPort(NodeTypeDataSource))
	assert.Equal(t, PortContext, DefaultOutputPort(NodeTypeRetrieval))
	assert.Equal(t, PortAnswer, DefaultOutputPort(NodeTypeLLM))
	assert.Equal(t, PortOutput, DefaultOutputPort(NodeTypeOutput))
	assert.Equal(t, PortOutput, DefaultOutputPort(NodeType("mystery")))
}

func TestNodeTypeValid(t *testing.T) {
	assert.True(t, NodeTypeRetrieval.Valid())
	assert.False(t, NodeType("actuator").Valid())
}
