package services

import (
	"fmt"
	"strings"

	"github.com/dukex/ragline/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// nodeConfigSchemas gives every node type a JSON schema its config map must
// satisfy at save time. The engine still tolerates missing fields at run
// time; the schemas only reject values of the wrong shape.
var nodeConfigSchemas = map[models.NodeType]string{
	models.NodeTypeInput: `{
		"type": "object",
		"properties": {
			"user_input": {"type": "string"},
			"input_bindings": {"type": "object", "additionalProperties": {"type": "string"}}
		}
	}`,
	models.NodeTypeDataSource: `{
		"type": "object",
		"properties": {
			"selected_datasets": {"type": "array", "items": {"type": "string"}},
			"input_bindings": {"type": "object", "additionalProperties": {"type": "string"}}
		}
	}`,
	models.NodeTypeRetrieval: `{
		"type": "object",
		"properties": {
			"similarity_threshold": {"type": "number", "minimum": 0, "maximum": 1},
			"vector_similarity_weight": {"type": "number", "minimum": 0, "maximum": 1},
			"top_k": {"type": "integer", "minimum": 1},
			"keyword": {"type": ["boolean", "string"]},
			"highlight": {"type": "boolean"},
			"context_top_k": {"type": "integer", "minimum": 1},
			"context_max_chars": {"type": "integer", "minimum": 1},
			"context_include_source": {"type": "boolean"},
			"context_include_score": {"type": "boolean"},
			"context_use_highlight": {"type": "boolean"},
			"context_join": {"type": "string"},
			"input_bindings": {"type": "object", "additionalProperties": {"type": "string"}}
		}
	}`,
	models.NodeTypeLLM: `{
		"type": "object",
		"properties": {
			"model": {"type": "string"},
			"temperature": {"type": "number", "minimum": 0, "maximum": 2},
			"max_tokens": {"type": "integer", "minimum": 1},
			"prompt_template": {"type": "string"},
			"input_bindings": {"type": "object", "additionalProperties": {"type": "string"}}
		}
	}`,
	models.NodeTypeOutput: `{
		"type": "object",
		"properties": {
			"format": {"type": "string"},
			"input_bindings": {"type": "object", "additionalProperties": {"type": "string"}}
		}
	}`,
}

// validateNodeConfig checks a node's config map against the schema for its
// type. A nil config is always valid.
func validateNodeConfig(node *models.WorkflowNode) error {
	schema, ok := nodeConfigSchemas[node.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNodeType, node.Type)
	}

	if node.Config == nil {
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(node.Config),
	)
	if err != nil {
		return fmt.Errorf("failed to validate config for node %s: %w", node.ID, err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}

	return fmt.Errorf("%w: node %s: %s", ErrInvalidNodeConfig, node.ID, strings.Join(details, "; "))
}
