package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAppendAndList(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	for i := range 3 {
		require.NoError(t, store.Append(ctx, &ExecutionRecord{
			ID:         fmt.Sprintf("exec-%d", i),
			WorkflowID: "wf-1",
			Strategy:   "graph",
		}))
	}

	records, err := store.List(ctx, "wf-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "exec-2", records[0].ID, "newest record comes first")

	records, err = store.List(ctx, "wf-1", 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = store.List(ctx, "wf-other", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMemoryStoreTrimsToLimit(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, store.Append(ctx, &ExecutionRecord{
			ID:         fmt.Sprintf("exec-%d", i),
			WorkflowID: "wf-1",
		}))
	}

	records, err := store.List(ctx, "wf-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "exec-4", records[0].ID)
	assert.Equal(t, "exec-3", records[1].ID)
}
