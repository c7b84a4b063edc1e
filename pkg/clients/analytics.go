package clients

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// AnalyticsClient reports usage events and fetches aggregated stats.
type AnalyticsClient struct {
	client
}

func NewAnalyticsClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *AnalyticsClient {
	return &AnalyticsClient{client: newClient(baseURL, token, timeout, logger, "analytics_client")}
}

// AnalyticsSummary aggregates usage over a window of days.
type AnalyticsSummary struct {
	TotalEvents  int            `json:"total_events"`
	ActiveUsers  int            `json:"active_users"`
	EventsByType map[string]int `json:"events_by_type,omitempty"`
}

// DailyStat is the event count for a single day.
type DailyStat struct {
	Date   string `json:"date"`
	Events int    `json:"events"`
	Users  int    `json:"users"`
}

func (c *AnalyticsClient) Summary(ctx context.Context, days int) (*AnalyticsSummary, error) {
	if days <= 0 {
		days = 30
	}

	var result AnalyticsSummary

	if err := c.do(ctx, http.MethodGet, "/analytics/summary?days="+strconv.Itoa(days), nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *AnalyticsClient) DailyStats(ctx context.Context, days int) ([]DailyStat, error) {
	if days <= 0 {
		days = 30
	}

	var result []DailyStat

	if err := c.do(ctx, http.MethodGet, "/analytics/daily?days="+strconv.Itoa(days), nil, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// LogEvent records one usage event. Failures are logged and swallowed so
// analytics can never break a caller.
func (c *AnalyticsClient) LogEvent(ctx context.Context, eventType string, payload map[string]any) {
	body := map[string]any{"event_type": eventType, "payload": payload}

	if err := c.do(ctx, http.MethodPost, "/analytics/log-event", body, nil); err != nil {
		c.logger.DebugContext(ctx, "Failed to log analytics event",
			slog.String("event_type", eventType),
			slog.Any("error", err))
	}
}
