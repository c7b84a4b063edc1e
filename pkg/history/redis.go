package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps execution records in Redis lists, one list per workflow,
// trimmed to the configured limit.
type RedisStore struct {
	client *redis.Client
	limit  int
}

func NewRedisStore(redisURL string, limit int) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	if limit <= 0 {
		limit = DefaultLimit
	}

	return &RedisStore{
		client: redis.NewClient(opts),
		limit:  limit,
	}, nil
}

func recordKey(workflowID string) string {
	return "ragline:executions:" + workflowID
}

func (s *RedisStore) Append(ctx context.Context, record *ExecutionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode execution record: %w", err)
	}

	key := recordKey(record.WorkflowID)

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(s.limit)-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store execution record: %w", err)
	}

	return nil
}

func (s *RedisStore) List(ctx context.Context, workflowID string, limit int) ([]*ExecutionRecord, error) {
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	raw, err := s.client.LRange(ctx, recordKey(workflowID), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load execution records: %w", err)
	}

	records := make([]*ExecutionRecord, 0, len(raw))

	for _, item := range raw {
		var record ExecutionRecord

		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("failed to decode execution record: %w", err)
		}

		records = append(records, &record)
	}

	return records, nil
}

func (s *RedisStore) Close(_ context.Context) error {
	return s.client.Close()
}
