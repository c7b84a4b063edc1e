package clients

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukex/ragline/pkg/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKnowledgeClientCreate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/knowledge/create", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var form KnowledgeForm

		require.NoError(t, json.NewDecoder(r.Body).Decode(&form))
		assert.Equal(t, "kb one", form.Name)

		_ = json.NewEncoder(w).Encode(Knowledge{ID: "kb1", Name: form.Name})
	}))
	defer server.Close()

	c := NewKnowledgeClient(server.URL, "tok", time.Second, discardLogger())

	created, err := c.Create(context.Background(), KnowledgeForm{Name: "kb one"})
	require.NoError(t, err)
	assert.Equal(t, "kb1", created.ID)
}

func TestKnowledgeClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	c := NewKnowledgeClient(server.URL, "", time.Second, discardLogger())

	_, err := c.List(context.Background())
	require.Error(t, err)

	var httpErr *gateway.HTTPError

	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
}

func TestOCRClientUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)

		defer func() { _ = file.Close() }()

		assert.Equal(t, "scan.pdf", header.Filename)

		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "pdf bytes", string(content))

		_ = json.NewEncoder(w).Encode(OCRUploadResponse{Status: "success", FilePath: "/tmp/scan.pdf", FileType: "pdf"})
	}))
	defer server.Close()

	c := NewOCRClient(server.URL, "", time.Second, discardLogger())

	resp, err := c.Upload(context.Background(), "scan.pdf", strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/scan.pdf", resp.FilePath)
}

func TestOCRClientPollUntilComplete(t *testing.T) {
	var polls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/progress/"):
			status := "processing"
			if polls.Add(1) >= 3 {
				status = "finished"
			}

			_ = json.NewEncoder(w).Encode(OCRProgressResponse{
				Status: "success",
				TaskID: "t1",
				State:  OCRProgress{Status: status, ProcessedPages: int(polls.Load())},
			})
		case strings.HasPrefix(r.URL.Path, "/api/result/"):
			_ = json.NewEncoder(w).Encode(OCRResultResponse{
				Status: "success", TaskID: "t1", State: "finished", Files: []string{"page1.md"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewOCRClient(server.URL, "", time.Second, discardLogger())

	result, err := c.PollUntilComplete(context.Background(), "t1", 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []string{"page1.md"}, result.Files)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestOCRClientPollReportsTaskError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(OCRProgressResponse{
			Status: "success",
			TaskID: "t2",
			State:  OCRProgress{Status: "error", Message: "page corrupted"},
		})
	}))
	defer server.Close()

	c := NewOCRClient(server.URL, "", time.Second, discardLogger())

	_, err := c.PollUntilComplete(context.Background(), "t2", 5*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page corrupted")
}

func TestTicketsClientList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tickets/", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("status"))

		_ = json.NewEncoder(w).Encode([]Ticket{{ID: "t1", Title: "broken retrieval", Status: "open"}})
	}))
	defer server.Close()

	c := NewTicketsClient(server.URL, "", time.Second, discardLogger())

	tickets, err := c.List(context.Background(), "open", 10)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "broken retrieval", tickets[0].Title)
}

func TestAnalyticsClientLogEventSwallowsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewAnalyticsClient(server.URL, "", time.Second, discardLogger())

	// Must not panic or propagate anything.
	c.LogEvent(context.Background(), "workflow_executed", map[string]any{"workflow_id": "wf-1"})
}
