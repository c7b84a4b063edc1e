package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/ragline/pkg/models"
	"github.com/dukex/ragline/pkg/persistence"
	"github.com/dukex/ragline/pkg/persistence/postgresql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"workflows", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("ragline_test"),
			postgres.WithUsername("ragline"),
			postgres.WithPassword("ragline"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func testWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "integration test workflow",
		Description: "retrieval pipeline used by the integration test",
		Nodes: []*models.WorkflowNode{
			{ID: "in", Type: models.NodeTypeInput, Config: map[string]any{"user_input": "What is X?"}, X: 100, Y: 100},
			{ID: "ds", Type: models.NodeTypeDataSource, Config: map[string]any{"selected_datasets": []any{"ds1"}}, X: 300, Y: 100},
			{ID: "ret", Type: models.NodeTypeRetrieval, X: 500, Y: 100},
		},
		Connections: []*models.Connection{
			{ID: "c1", From: "in", To: "ret", Type: models.ConnectionUnidirectional},
			{ID: "c2", From: "ret", To: "ds", Type: models.ConnectionBidirectional},
		},
		Metadata: map[string]any{"schedule": "0 * * * *"},
		Owner:    "user-1",
	}
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	var exists bool

	err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = 'workflows')`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "workflows table should exist")
}

func TestWorkflowLifecycle(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := testWorkflow()
	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	loaded, err := p.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, loaded.Name)
	require.Len(t, loaded.Nodes, 3)
	assert.Equal(t, models.NodeTypeRetrieval, loaded.Nodes[2].Type)
	require.Len(t, loaded.Connections, 2)
	assert.Equal(t, models.ConnectionBidirectional, loaded.Connections[1].Type)
	assert.Equal(t, "0 * * * *", loaded.Metadata["schedule"])

	// Update keeps the same row.
	loaded.Name = "renamed workflow"
	require.NoError(t, p.SaveWorkflow(ctx, loaded))

	reloaded, err := p.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed workflow", reloaded.Name)

	all, err := p.Workflows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, p.DeleteWorkflow(ctx, workflow.ID))

	_, err = p.WorkflowByID(ctx, workflow.ID)
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)

	all, err = p.Workflows(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestHealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	require.NoError(t, p.HealthCheck(ctx))
}
