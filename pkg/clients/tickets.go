package clients

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// TicketsClient tracks support tickets on the backing service.
type TicketsClient struct {
	client
}

func NewTicketsClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *TicketsClient {
	return &TicketsClient{client: newClient(baseURL, token, timeout, logger, "tickets_client")}
}

// Ticket is one support ticket.
type Ticket struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Assignee    string `json:"assignee,omitempty"`
	CreatedAt   int64  `json:"created_at,omitempty"`
	UpdatedAt   int64  `json:"updated_at,omitempty"`
}

// TicketForm is the create/update payload.
type TicketForm struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
}

func (c *TicketsClient) Create(ctx context.Context, form TicketForm) (*Ticket, error) {
	var result Ticket

	if err := c.do(ctx, http.MethodPost, "/tickets/", form, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// List returns tickets, optionally filtered by status, newest first.
func (c *TicketsClient) List(ctx context.Context, status string, limit int) ([]Ticket, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}

	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var result []Ticket

	if err := c.do(ctx, http.MethodGet, "/tickets/?"+params.Encode(), nil, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *TicketsClient) GetByID(ctx context.Context, id string) (*Ticket, error) {
	var result Ticket

	if err := c.do(ctx, http.MethodGet, "/tickets/"+id, nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *TicketsClient) Update(ctx context.Context, id string, form TicketForm) (*Ticket, error) {
	var result Ticket

	if err := c.do(ctx, http.MethodPut, "/tickets/"+id, form, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *TicketsClient) AddComment(ctx context.Context, id, content string) error {
	payload := map[string]string{"content": content}

	return c.do(ctx, http.MethodPost, "/tickets/"+id+"/comments", payload, nil)
}
