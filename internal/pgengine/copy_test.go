package pgengine_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/pgengine"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExecutionLog(t *testing.T) {
	pge := initmockdb(t)
	ctx := context.Background()
	started := time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery("FROM timetable.execution_log WHERE chain_execution_config").WithArgs(int64(1)).WillReturnRows(
		pgxmock.NewRows([]string{"chain_execution_config", "chain_id", "task_id", "name", "script", "kind",
			"last_run", "finished", "returncode", "pid"}).
			AddRow(int8v(1), int8v(1), int8v(10), "dump", text("pg_dump"), text("SHELL"),
				pgtype.Timestamptz{Time: started, Valid: true}, pgtype.Timestamptz{}, pgtype.Int4{}, int8v(42)))
	entries, err := pge.GetExecutionLog(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "dump", entries[0].Name)
	assert.True(t, entries[0].LastRun.Time.Equal(started))
	assert.False(t, entries[0].Finished.Valid)

	mockPool.ExpectQuery("FROM timetable.execution_log").WithArgs(int64(1)).WillReturnError(errors.New("relation does not exist"))
	_, err = pge.GetExecutionLog(ctx, 1)
	assert.Error(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestCopyExecutionLogAcquireFailed(t *testing.T) {
	pge := initmockdb(t)
	var b bytes.Buffer
	_, err := pge.CopyExecutionLog(context.Background(), &b, 1)
	assert.Error(t, err, "mock pool cannot acquire connections")
	assert.Zero(t, b.Len())
}

func TestNotifyChainStart(t *testing.T) {
	pge := initmockdb(t)
	ctx := context.Background()

	mockPool.ExpectQuery("SELECT client_name").WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"client_name"}).AddRow(text("worker")))
	mockPool.ExpectExec("SELECT pg_notify").WithArgs("worker", "1").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	assert.NoError(t, pge.NotifyChainStart(ctx, 1))

	mockPool.ExpectQuery("SELECT client_name").WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"client_name"}).AddRow(pgtype.Text{}))
	assert.ErrorIs(t, pge.NotifyChainStart(ctx, 2), pgengine.ErrNoClientName)

	mockPool.ExpectQuery("SELECT client_name").WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"client_name"}))
	assert.ErrorIs(t, pge.NotifyChainStart(ctx, 3), pgx.ErrNoRows)

	mockPool.ExpectQuery("SELECT client_name").WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"client_name"}).AddRow(text("worker")))
	mockPool.ExpectExec("SELECT pg_notify").WithArgs("worker", "1").WillReturnError(errors.New("connection lost"))
	assert.ErrorContains(t, pge.NotifyChainStart(ctx, 1), "cannot notify worker")
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
