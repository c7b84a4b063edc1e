package history

import (
	"context"
	"sync"
)

// MemoryStore keeps execution records in process memory. Used for
// development and tests; the redis store is the durable backend.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]*ExecutionRecord
	limit   int
}

func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &MemoryStore{
		records: make(map[string][]*ExecutionRecord),
		limit:   limit,
	}
}

func (s *MemoryStore) Append(_ context.Context, record *ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := append([]*ExecutionRecord{record}, s.records[record.WorkflowID]...)
	if len(records) > s.limit {
		records = records[:s.limit]
	}

	s.records[record.WorkflowID] = records

	return nil
}

func (s *MemoryStore) List(_ context.Context, workflowID string, limit int) ([]*ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.records[workflowID]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}

	out := make([]*ExecutionRecord, len(records))
	copy(out, records)

	return out, nil
}

func (s *MemoryStore) Close(_ context.Context) error {
	return nil
}
