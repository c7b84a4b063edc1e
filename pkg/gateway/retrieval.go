package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/ragline/pkg/models"
)

// RetrievalClient calls the external knowledge-base retrieval service.
//
// Transport failures and non-2xx statuses are returned as errors; the engine
// propagates them to its caller without retrying.
type RetrievalClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// NewRetrievalClient creates a retrieval gateway rooted at baseURL
// (e.g. "http://host/api/v1/agent"). token may be empty.
func NewRetrievalClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *RetrievalClient {
	return &RetrievalClient{
		baseURL: trimBaseURL(baseURL),
		token:   token,
		client:  newHTTPClient(timeout),
		logger:  logger.With(slog.String("module", "retrieval_gateway")),
	}
}

// Retrieve queries the retrieval service with the given request and returns
// the ranked result.
func (c *RetrievalClient) Retrieve(ctx context.Context, req models.RetrievalRequest) (*models.RetrievalResult, error) {
	var result models.RetrievalResult

	c.logger.DebugContext(ctx, "Calling retrieval service",
		slog.Int("dataset_count", len(req.DatasetIDs)),
		slog.Int("top_k", req.TopK))

	err := postJSON(ctx, c.client, c.baseURL+"/retrieval", c.token, req, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ListDatasets fetches the datasets available for dataSource nodes.
func (c *RetrievalClient) ListDatasets(ctx context.Context) (*DatasetsResponse, error) {
	var result DatasetsResponse

	err := getJSON(ctx, c.client, c.baseURL+"/retrieval/datasets", c.token, &result)
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// DatasetsResponse lists the knowledge bases retrieval can target.
type DatasetsResponse struct {
	Datasets []Dataset `json:"datasets"`
	Total    int       `json:"total"`
}

// Dataset describes one knowledge base.
type Dataset struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	DocumentCount int    `json:"document_count,omitempty"`
	ChunkCount    int    `json:"chunk_count,omitempty"`
}
