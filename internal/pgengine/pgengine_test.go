package pgengine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/config"
	"github.com/cybertec-postgresql/pg_timetable_web/internal/log"
	"github.com/cybertec-postgresql/pg_timetable_web/internal/pgengine"
	"github.com/pashagolub/pgxmock/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mockPool pgxmock.PgxPoolIface

func initmockdb(t *testing.T) *pgengine.PgEngine {
	t.Helper()
	var err error
	mockPool, err = pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return pgengine.NewDB(mockPool, "-c", "pgengine_unit_test")
}

func TestNewDB(t *testing.T) {
	pge := initmockdb(t)
	assert.Equal(t, "pgengine_unit_test", pge.ClientName)
	assert.NotZero(t, pge.Getpid())

	mockPool.ExpectPing()
	assert.True(t, pge.IsReady(context.Background()))
	mockPool.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.False(t, pge.IsReady(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())

	pge.Finalize()
	assert.Nil(t, pge.ConfigDb)
	assert.False(t, pge.IsReady(context.Background()))
}

func TestFailedConnect(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for reconnect attempts")
	}
	c := config.NewCmdOptions("-h", "fake", "-c", "pgengine_test")
	ctx, cancel := context.WithTimeout(context.Background(), pgengine.WaitTime*2)
	defer cancel()
	_, err := pgengine.New(ctx, *c, log.Init(config.LoggingOpts{LogLevel: "error"}))
	assert.ErrorIs(t, err, ctx.Err())
}

func TestNewBadConnString(t *testing.T) {
	c := config.NewCmdOptions("--pgurl=foo://bar baz")
	_, err := pgengine.New(context.Background(), *c, log.Init(config.LoggingOpts{LogLevel: "error"}))
	assert.ErrorContains(t, err, "cannot parse connection string")
}

func TestCheckSchema(t *testing.T) {
	pge := initmockdb(t)
	ctx := context.Background()

	mockPool.ExpectQuery("SELECT to_regclass").WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	assert.NoError(t, pge.CheckSchema(ctx, false))

	mockPool.ExpectQuery("SELECT to_regclass").WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	assert.ErrorIs(t, pge.CheckSchema(ctx, false), pgengine.ErrSchemaMissing)

	mockPool.ExpectQuery("SELECT to_regclass").WillReturnError(errors.New("connection lost"))
	assert.Error(t, pge.CheckSchema(ctx, false))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestMigrateDbErrors(t *testing.T) {
	pge := initmockdb(t)
	ctx := context.Background()

	mockPool.ExpectExec("CREATE SCHEMA IF NOT EXISTS timetable").WillReturnError(errors.New("permission denied"))
	assert.EqualError(t, pge.CheckSchema(ctx, true), "permission denied")

	mockPool.ExpectExec("CREATE SCHEMA IF NOT EXISTS timetable").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mockPool.ExpectExec("CREATE TABLE IF NOT EXISTS timetable.web_migrations").WillReturnError(errors.New("permission denied"))
	assert.Error(t, pge.MigrateDb(ctx))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
