package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/abdul-hamid-achik/colrun/packages/core/env"
)

// Integration test with PostgreSQL via testcontainers
func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Postgres container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := tc.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "colrun_test",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	}
	pg, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("skipping Postgres container test: %v", err)
	}
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	s, err := Open(fmt.Sprintf("postgres://test:test@%s:%s/colrun_test?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	e := &env.Environment{Name: "staging", Values: []env.Variable{
		{Key: "base", Value: "https://x.test", Enabled: true},
		{Key: "off", Value: "1", Enabled: false},
	}}
	require.NoError(t, s.SaveEnvironment(ctx, e))

	e.Set("token", "t")
	require.NoError(t, s.SaveEnvironment(ctx, e))

	loaded, err := s.LoadEnvironment(ctx, "staging")
	require.NoError(t, err)
	assert.Equal(t, e.Values, loaded.Values)

	summaries, err := s.ListEnvironments(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 3, summaries[0].Variables)

	require.NoError(t, s.DeleteEnvironment(ctx, "staging"))
	_, err = s.LoadEnvironment(ctx, "staging")
	assert.ErrorIs(t, err, ErrNotFound)
}
