// Package retrieval provides pure helpers for dataset collection and
// prompt-ready context assembly from ranked retrieval results.
package retrieval

import (
	"fmt"
	"strings"

	"github.com/dukex/ragline/pkg/models"
)

// CollectLinkedDatasetIDs returns the dataset ids configured on every
// dataSource node directly connected to the given retrieval node, de-duplicated
// in first-seen order. Connection direction is ignored here: the canvas lets
// users draw the edge either way.
func CollectLinkedDatasetIDs(retrievalNodeID string, nodes []*models.WorkflowNode, connections []*models.Connection) []string {
	byID := make(map[string]*models.WorkflowNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0)

	for _, c := range connections {
		if c.From != retrievalNodeID && c.To != retrievalNodeID {
			continue
		}

		otherID := c.From
		if c.From == retrievalNodeID {
			otherID = c.To
		}

		other := byID[otherID]
		if other == nil || other.Type != models.NodeTypeDataSource {
			continue
		}

		for _, id := range models.ParseDataSourceConfig(other.Config).SelectedDatasets {
			if _, dup := seen[id]; dup {
				continue
			}

			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	return ids
}

// AssembleContext builds the bounded context block handed to the llm stage
// from a ranked retrieval result. Deterministic for identical inputs.
//
// Truncation counts runes so multi-byte source markers are never split.
func AssembleContext(cfg models.RetrievalConfig, result *models.RetrievalResult) string {
	if result == nil {
		return ""
	}

	picked := result.Documents
	if len(picked) > cfg.ContextTopK {
		picked = picked[:cfg.ContextTopK]
	}

	blocks := make([]string, 0, len(picked))

	for _, doc := range picked {
		content := doc.Content
		if cfg.ContextUseHighlight && doc.Metadata.Highlight != "" {
			content = doc.Metadata.Highlight
		}

		parts := []string{content}

		if cfg.ContextIncludeSource && doc.Metadata.DocumentName != "" {
			parts = append(parts, "【来源】"+doc.Metadata.DocumentName)
		}

		if cfg.ContextIncludeScore && doc.Metadata.Similarity != nil {
			parts = append(parts, fmt.Sprintf("【分数】%.3f", *doc.Metadata.Similarity))
		}

		blocks = append(blocks, strings.Join(parts, "\n"))
	}

	assembled := strings.Join(blocks, cfg.ContextJoin)

	runes := []rune(assembled)
	if len(runes) > cfg.ContextMaxChars {
		assembled = string(runes[:cfg.ContextMaxChars]) + "..."
	}

	return assembled
}
