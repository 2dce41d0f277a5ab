package testutils

import (
	"context"
	"testing"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupPostgresContainer(t *testing.T) {
	container, cleanup := SetupPostgresContainer(t)
	defer cleanup()

	require.NotNil(t, container.Engine)
	assert.Contains(t, container.ConnStr, "postgres://")
	assert.Contains(t, container.ConnStr, "sslmode=disable")

	ctx := context.Background()
	for _, table := range []string{"base_task", "task_chain", "chain_execution_config",
		"chain_execution_parameters", "execution_log", "log", "web_migrations"} {
		var exists bool
		err := container.Engine.ConfigDb.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_schema = 'timetable' AND table_name = $1)",
			table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "table %s should exist in timetable schema", table)
	}
	assert.True(t, container.Engine.IsReady(ctx))
}

func TestSetupPostgresContainerWithOptions(t *testing.T) {
	container, cleanup := SetupPostgresContainerWithOptions(t, func(opts *config.CmdOptions) {
		opts.ClientName = "custom_test_client"
	})
	defer cleanup()
	assert.Equal(t, "custom_test_client", container.Engine.ClientName)

	// migrations are idempotent
	assert.NoError(t, container.Engine.MigrateDb(context.Background()))
}
