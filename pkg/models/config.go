package models

import "strings"

// Default values for the node configuration surface. Config maps may omit any
// field; parsing substitutes these.
const (
	DefaultSimilarityThreshold    = 0.2
	DefaultVectorSimilarityWeight = 0.3
	DefaultTopK                   = 6
	DefaultContextTopK            = 3
	DefaultContextMaxChars        = 2000
	DefaultContextJoin            = "\n---\n"
	DefaultTemperature            = 0.7
	DefaultMaxTokens              = 2000

	DefaultPromptTemplate = "请基于上下文回答问题\n问题: {question}\n上下文:\n{retrieved_context}"
)

// InputConfig is the typed config of an input node.
type InputConfig struct {
	UserInput string
}

// DataSourceConfig is the typed config of a dataSource node.
type DataSourceConfig struct {
	SelectedDatasets []string
	Bindings         map[string]BindingRef
}

// RetrievalConfig is the typed config of a retrieval node, covering both the
// retrieval call and context assembly.
type RetrievalConfig struct {
	SimilarityThreshold    float64
	VectorSimilarityWeight float64
	TopK                   int
	Keyword                bool
	Highlight              bool

	ContextTopK          int
	ContextMaxChars      int
	ContextIncludeSource bool
	ContextIncludeScore  bool
	ContextUseHighlight  bool
	ContextJoin          string

	Bindings map[string]BindingRef
}

// LLMConfig is the typed config of an llm node.
type LLMConfig struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	PromptTemplate string
	Bindings       map[string]BindingRef
}

// OutputConfig is the typed config of an output node.
type OutputConfig struct {
	Format   string
	Bindings map[string]BindingRef
}

// ParseInputConfig parses an input node's config map.
func ParseInputConfig(config map[string]any) InputConfig {
	return InputConfig{
		UserInput: strings.TrimSpace(configString(config, "user_input", "")),
	}
}

// ParseDataSourceConfig parses a dataSource node's config map.
func ParseDataSourceConfig(config map[string]any) DataSourceConfig {
	return DataSourceConfig{
		SelectedDatasets: configStringSlice(config, "selected_datasets"),
		Bindings:         ParseBindings(config),
	}
}

// ParseRetrievalConfig parses a retrieval node's config map, substituting
// defaults for missing fields.
func ParseRetrievalConfig(config map[string]any) RetrievalConfig {
	return RetrievalConfig{
		SimilarityThreshold:    configFloat(config, "similarity_threshold", DefaultSimilarityThreshold),
		VectorSimilarityWeight: configFloat(config, "vector_similarity_weight", DefaultVectorSimilarityWeight),
		TopK:                   configInt(config, "top_k", DefaultTopK),
		Keyword:                configKeyword(config),
		Highlight:              configBool(config, "highlight", true),
		ContextTopK:            configInt(config, "context_top_k", DefaultContextTopK),
		ContextMaxChars:        configInt(config, "context_max_chars", DefaultContextMaxChars),
		ContextIncludeSource:   configBool(config, "context_include_source", true),
		ContextIncludeScore:    configBool(config, "context_include_score", false),
		ContextUseHighlight:    configBool(config, "context_use_highlight", false),
		ContextJoin:            configJoin(config),
		Bindings:               ParseBindings(config),
	}
}

// ParseLLMConfig parses an llm node's config map.
func ParseLLMConfig(config map[string]any) LLMConfig {
	return LLMConfig{
		Model:          configString(config, "model", ""),
		Temperature:    configFloat(config, "temperature", DefaultTemperature),
		MaxTokens:      configInt(config, "max_tokens", DefaultMaxTokens),
		PromptTemplate: configString(config, "prompt_template", DefaultPromptTemplate),
		Bindings:       ParseBindings(config),
	}
}

// ParseOutputConfig parses an output node's config map.
func ParseOutputConfig(config map[string]any) OutputConfig {
	return OutputConfig{
		Format:   configString(config, "format", "text"),
		Bindings: ParseBindings(config),
	}
}

// configKeyword normalizes the keyword field, which the canvas stores either
// as a boolean or as a query string (non-empty means enabled).
func configKeyword(config map[string]any) bool {
	switch v := config["keyword"].(type) {
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	default:
		return false
	}
}

// configJoin respects an explicit empty separator, unlike the other string
// fields where "" means unset.
func configJoin(config map[string]any) string {
	if v, ok := config["context_join"].(string); ok {
		return v
	}

	return DefaultContextJoin
}

func configString(config map[string]any, key, fallback string) string {
	if v, ok := config[key].(string); ok && v != "" {
		return v
	}

	return fallback
}

func configFloat(config map[string]any, key string, fallback float64) float64 {
	switch v := config[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

func configInt(config map[string]any, key string, fallback int) int {
	switch v := config[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func configBool(config map[string]any, key string, fallback bool) bool {
	if v, ok := config[key].(bool); ok {
		return v
	}

	return fallback
}

func configStringSlice(config map[string]any, key string) []string {
	switch v := config[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))

		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}
