package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/ragline/pkg/models"
)

// ModelClient calls the external language-model completion service.
//
// Unlike the retrieval gateway, every failure mode here collapses to
// "no answer": the engine substitutes a visible fallback instead of failing
// the run over a flaky model backend.
type ModelClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// NewModelClient creates a model gateway rooted at baseURL
// (e.g. "http://host/api/v1"). token may be empty.
func NewModelClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *ModelClient {
	return &ModelClient{
		baseURL: trimBaseURL(baseURL),
		token:   token,
		client:  newHTTPClient(timeout),
		logger:  logger.With(slog.String("module", "model_gateway")),
	}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
}

// Complete renders an answer for the prompt, trying the chat-completion
// endpoint first and the plain completion endpoint second. It returns
// ok=false when neither produced content; it never returns an error.
func (c *ModelClient) Complete(ctx context.Context, req models.CompletionRequest) (string, bool) {
	chatReq := chatCompletionRequest{
		Model:       req.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	var resp completionResponse

	err := postJSON(ctx, c.client, c.baseURL+"/chat/completions", c.token, chatReq, &resp)
	if err == nil && len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
		return resp.Choices[0].Message.Content, true
	}

	if err != nil {
		c.logger.DebugContext(ctx, "Chat completion failed, trying plain completion", slog.Any("error", err))
	}

	resp = completionResponse{}

	err = postJSON(ctx, c.client, c.baseURL+"/completions", c.token, req, &resp)
	if err == nil && len(resp.Choices) > 0 && resp.Choices[0].Text != "" {
		return resp.Choices[0].Text, true
	}

	if err != nil {
		c.logger.DebugContext(ctx, "Plain completion failed", slog.Any("error", err))
	}

	return "", false
}

// ListModels fetches the models available to llm nodes, trying the candidate
// endpoints in order and normalizing the payload shape.
func (c *ModelClient) ListModels(ctx context.Context) ([]models.LLMModel, error) {
	candidates := []string{
		c.baseURL + "/models",
		c.baseURL + "/api/v1/models",
	}

	var lastErr error

	for _, url := range candidates {
		var payload json.RawMessage

		if err := getJSON(ctx, c.client, url, c.token, &payload); err != nil {
			lastErr = err

			continue
		}

		return normalizeModelsPayload(payload), nil
	}

	return nil, lastErr
}

// normalizeModelsPayload accepts the model list under "models", "data",
// "items", or as a bare array, tolerating backends with different envelopes.
func normalizeModelsPayload(payload json.RawMessage) []models.LLMModel {
	var envelope struct {
		Models []models.LLMModel `json:"models"`
		Data   []models.LLMModel `json:"data"`
		Items  []models.LLMModel `json:"items"`
	}

	if err := json.Unmarshal(payload, &envelope); err == nil {
		switch {
		case len(envelope.Models) > 0:
			return envelope.Models
		case len(envelope.Data) > 0:
			return envelope.Data
		case len(envelope.Items) > 0:
			return envelope.Items
		}
	}

	var bare []models.LLMModel
	if err := json.Unmarshal(payload, &bare); err == nil {
		return bare
	}

	return []models.LLMModel{}
}
