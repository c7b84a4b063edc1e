package clients

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// KnowledgeClient manages knowledge bases on the backing service.
type KnowledgeClient struct {
	client
}

func NewKnowledgeClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *KnowledgeClient {
	return &KnowledgeClient{client: newClient(baseURL, token, timeout, logger, "knowledge_client")}
}

// Knowledge describes one knowledge base.
type Knowledge struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
	CreatedAt   int64          `json:"created_at,omitempty"`
	UpdatedAt   int64          `json:"updated_at,omitempty"`
}

// KnowledgeForm is the create/update payload.
type KnowledgeForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (c *KnowledgeClient) Create(ctx context.Context, form KnowledgeForm) (*Knowledge, error) {
	var result Knowledge

	if err := c.do(ctx, http.MethodPost, "/knowledge/create", form, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *KnowledgeClient) List(ctx context.Context) ([]Knowledge, error) {
	var result []Knowledge

	if err := c.do(ctx, http.MethodGet, "/knowledge/", nil, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *KnowledgeClient) GetByID(ctx context.Context, id string) (*Knowledge, error) {
	var result Knowledge

	if err := c.do(ctx, http.MethodGet, "/knowledge/"+id, nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *KnowledgeClient) Update(ctx context.Context, id string, form KnowledgeForm) (*Knowledge, error) {
	var result Knowledge

	if err := c.do(ctx, http.MethodPost, "/knowledge/"+id+"/update", form, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *KnowledgeClient) AddFile(ctx context.Context, id, fileID string) error {
	payload := map[string]string{"file_id": fileID}

	return c.do(ctx, http.MethodPost, "/knowledge/"+id+"/file/add", payload, nil)
}

func (c *KnowledgeClient) RemoveFile(ctx context.Context, id, fileID string) error {
	payload := map[string]string{"file_id": fileID}

	return c.do(ctx, http.MethodPost, "/knowledge/"+id+"/file/remove", payload, nil)
}

func (c *KnowledgeClient) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/knowledge/"+id+"/delete", nil, nil)
}

// LogEntry is one ingestion log line for a knowledge base.
type LogEntry struct {
	Timestamp int64  `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

func (c *KnowledgeClient) Logs(ctx context.Context, id string, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	var result []LogEntry

	path := "/knowledge/" + id + "/logs?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	return result, nil
}
