package clients

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// FilesClient uploads and manages files on the backing service.
type FilesClient struct {
	client
}

func NewFilesClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *FilesClient {
	return &FilesClient{client: newClient(baseURL, token, timeout, logger, "files_client")}
}

// File describes one stored file.
type File struct {
	ID        string         `json:"id"`
	Filename  string         `json:"filename"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt int64          `json:"created_at,omitempty"`
}

// Upload stores a file, optionally with metadata attached.
func (c *FilesClient) Upload(ctx context.Context, fileName string, file io.Reader, metadata map[string]any) (*File, error) {
	fields := map[string]string{}

	if metadata != nil {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return nil, err
		}

		fields["metadata"] = string(encoded)
	}

	var result File

	if err := c.upload(ctx, "/files/", "file", fileName, file, fields, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *FilesClient) List(ctx context.Context) ([]File, error) {
	var result []File

	if err := c.do(ctx, http.MethodGet, "/files/", nil, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *FilesClient) GetByID(ctx context.Context, id string) (*File, error) {
	var result File

	if err := c.do(ctx, http.MethodGet, "/files/"+id, nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ProcessStatus reports where a file is in the ingestion pipeline.
type ProcessStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (c *FilesClient) GetProcessStatus(ctx context.Context, id string) (*ProcessStatus, error) {
	var result ProcessStatus

	if err := c.do(ctx, http.MethodGet, "/files/"+id+"/process/status", nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *FilesClient) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/files/"+id, nil, nil)
}
