package clients

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// OCRClient drives the OCR service: upload a document, start a task, then
// poll until it finishes.
type OCRClient struct {
	client
}

func NewOCRClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *OCRClient {
	return &OCRClient{client: newClient(baseURL, token, timeout, logger, "ocr_client")}
}

type OCRUploadResponse struct {
	Status   string `json:"status"`
	FilePath string `json:"file_path"`
	FileType string `json:"file_type"`
	Message  string `json:"message,omitempty"`
}

type OCRTaskResponse struct {
	Status  string `json:"status"`
	TaskID  string `json:"task_id"`
	Message string `json:"message,omitempty"`
}

type OCRProgress struct {
	Status         string  `json:"status"`
	TotalPages     int     `json:"total_pages"`
	ProcessedPages int     `json:"processed_pages"`
	Progress       float64 `json:"progress"`
	Message        string  `json:"message"`
}

type OCRProgressResponse struct {
	Status string      `json:"status"`
	TaskID string      `json:"task_id"`
	State  OCRProgress `json:"state"`
}

type OCRResultResponse struct {
	Status    string   `json:"status"`
	TaskID    string   `json:"task_id"`
	State     string   `json:"state"`
	ResultDir string   `json:"result_dir"`
	Files     []string `json:"files"`
	Message   string   `json:"message,omitempty"`
}

func (c *OCRClient) Upload(ctx context.Context, fileName string, file io.Reader) (*OCRUploadResponse, error) {
	var result OCRUploadResponse

	if err := c.upload(ctx, "/api/upload", "file", fileName, file, nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *OCRClient) Start(ctx context.Context, filePath, fileType string) (*OCRTaskResponse, error) {
	payload := map[string]string{"file_path": filePath, "file_type": fileType}

	var result OCRTaskResponse

	if err := c.do(ctx, http.MethodPost, "/api/start", payload, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *OCRClient) Progress(ctx context.Context, taskID string) (*OCRProgressResponse, error) {
	var result OCRProgressResponse

	if err := c.do(ctx, http.MethodGet, "/api/progress/"+taskID, nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *OCRClient) Result(ctx context.Context, taskID string) (*OCRResultResponse, error) {
	var result OCRResultResponse

	if err := c.do(ctx, http.MethodGet, "/api/result/"+taskID, nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// PollUntilComplete polls task progress at the given interval until the task
// reports completed, finished, or error. Cancellation comes from ctx; there
// is no internal timeout.
func (c *OCRClient) PollUntilComplete(ctx context.Context, taskID string, interval time.Duration) (*OCRResultResponse, error) {
	if interval <= 0 {
		interval = 3 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		progress, err := c.Progress(ctx, taskID)
		if err != nil {
			return nil, err
		}

		status := progress.State.Status
		if status == "" {
			status = progress.Status
		}

		switch status {
		case "completed", "finished":
			return c.Result(ctx, taskID)
		case "error":
			message := progress.State.Message
			if message == "" {
				message = "task failed"
			}

			return nil, fmt.Errorf("ocr task %s failed: %s", taskID, message)
		}

		c.logger.DebugContext(ctx, "OCR task in progress",
			slog.String("task_id", taskID),
			slog.Int("processed", progress.State.ProcessedPages),
			slog.Int("total", progress.State.TotalPages))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
