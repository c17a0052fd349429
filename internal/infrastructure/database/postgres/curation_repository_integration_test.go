//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/modelseed/kbutil/internal/config"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
)

func startPostgres(t *testing.T) config.DatabaseConfig {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "kbutil",
				"POSTGRES_PASSWORD": "kbutil",
				"POSTGRES_DB":       "kbutil",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "kbutil",
		Password: "kbutil",
		DBName:   "kbutil",
		SSLMode:  "disable",
	}
}

func TestCurationRepository(t *testing.T) {
	cfg := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(DSN(cfg), "file://../../../../migrations"))

	pool, err := NewPool(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer pool.Close()

	repo := NewCurationRepository(pool.Pgx(), logging.NewNop())

	curation := &Curation{
		ModelID:    "iTiny",
		EntityType: "compound",
		EntityID:   "glc__D_c",
		ProposedID: "cpd00027",
		Confidence: 0.92,
		Rationale:  "name and formula agree with D-Glucose",
		Backend:    "argo",
	}
	require.NoError(t, repo.Create(ctx, curation))
	require.NotEqual(t, curation.ID.String(), "00000000-0000-0000-0000-000000000000")

	fetched, err := repo.Get(ctx, curation.ID)
	require.NoError(t, err)
	assert.Equal(t, CurationPending, fetched.Status)
	assert.Equal(t, "cpd00027", fetched.ProposedID)
	assert.Nil(t, fetched.DecidedAt)

	found, err := repo.FindProposal(ctx, "iTiny", "compound", "glc__D_c")
	require.NoError(t, err)
	assert.Equal(t, curation.ID, found.ID)

	require.NoError(t, repo.Decide(ctx, curation.ID, true))
	decided, err := repo.Get(ctx, curation.ID)
	require.NoError(t, err)
	assert.Equal(t, CurationApproved, decided.Status)
	assert.NotNil(t, decided.DecidedAt)

	// Deciding twice is a conflict.
	err = repo.Decide(ctx, curation.ID, false)
	require.Error(t, err)

	listed, err := repo.ListByModel(ctx, "iTiny", CurationApproved)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	none, err := repo.ListByModel(ctx, "iTiny", CurationPending)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = repo.FindProposal(ctx, "iTiny", "reaction", fmt.Sprintf("HEX%d", 1))
	require.Error(t, err)
}
