package pgengine_test

import (
	"context"
	"testing"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/pgengine"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configColumns = []string{"chain_execution_config", "chain_id", "chain_name",
	"run_at_minute", "run_at_hour", "run_at_day", "run_at_month", "run_at_day_of_week", "max_instances",
	"live", "self_destruct", "exclusive_execution", "excluded_execution_configs", "client_name"}

var paramColumns = []string{"chain_execution_config", "chain_id", "order_id", "value"}

func int4v(i int32) pgtype.Int4 {
	return pgtype.Int4{Int32: i, Valid: true}
}

func configRow(rows *pgxmock.Rows, id int64, chainID pgtype.Int8, name string) *pgxmock.Rows {
	return rows.AddRow(id, chainID, name,
		int4v(15), pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{}, int4v(1), int4v(2),
		true, false, false, []int32{3, 4}, text("worker"))
}

func TestGetChainConfigs(t *testing.T) {
	pge := initmockdb(t)
	mockPool.ExpectQuery("FROM timetable.chain_execution_config ORDER BY chain_execution_config").
		WillReturnRows(configRow(pgxmock.NewRows(configColumns), 1, int8v(1), "backup"))
	configs, err := pge.GetChainConfigs(context.Background())
	require.NoError(t, err)
	require.Len(t, configs, 1)
	c := configs[0]
	assert.Equal(t, "backup", c.ChainName)
	assert.Equal(t, []int32{3, 4}, c.ExcludedExecutionConfigs)
	assert.Equal(t, "15 * * * 1", c.CronExpression())
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestGetChainConfig(t *testing.T) {
	pge := initmockdb(t)
	ctx := context.Background()

	mockPool.ExpectQuery("FROM timetable.chain_execution_config WHERE chain_execution_config").WithArgs(int64(1)).
		WillReturnRows(configRow(pgxmock.NewRows(configColumns), 1, int8v(1), "backup"))
	mockPool.ExpectQuery("WITH RECURSIVE").WithArgs(int64(1)).WillReturnRows(
		pgxmock.NewRows(treeColumns).
			AddRow(int64(1), pgtype.Int8{}, int64(10), pgtype.Text{}, pgtype.Int8{}, false, "dump", "SHELL", text("pg_dump")).
			AddRow(int64(2), int8v(1), int64(20), pgtype.Text{}, pgtype.Int8{}, false, "notify", "BUILTIN", pgtype.Text{}))
	mockPool.ExpectQuery("FROM timetable.chain_execution_parameters WHERE").WithArgs(int64(1)).WillReturnRows(
		pgxmock.NewRows(paramColumns).
			AddRow(int64(1), int64(1), int32(1), text(`["-Fc"]`)).
			AddRow(int64(1), int64(1), int32(2), text(`["mydb"]`)).
			AddRow(int64(1), int64(2), int32(1), text(`{"subject": "done"}`)))
	d, err := pge.GetChainConfig(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, d.Chain)
	assert.Len(t, d.Chain.Parameters, 2)
	require.Len(t, d.Chain.Children, 1)
	assert.Equal(t, "notify", d.Chain.Children[0].Task.Name)
	assert.Len(t, d.Chain.Children[0].Parameters, 1)

	mockPool.ExpectQuery("FROM timetable.chain_execution_config WHERE chain_execution_config").WithArgs(int64(2)).
		WillReturnRows(configRow(pgxmock.NewRows(configColumns), 2, pgtype.Int8{}, "empty"))
	d, err = pge.GetChainConfig(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, d.Chain, "config without chain has no tree")

	mockPool.ExpectQuery("FROM timetable.chain_execution_config WHERE chain_execution_config").WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(configColumns))
	_, err = pge.GetChainConfig(ctx, 3)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestInsertChainConfig(t *testing.T) {
	pge := initmockdb(t)
	ctx := context.Background()
	name := "backup"
	c := pgengine.ChainConfig{ChainName: name, ChainID: int8v(1), RunAtMinute: int4v(0), Live: true}

	mockPool.ExpectQuery("INSERT INTO timetable.chain_execution_config").
		WithArgs(&name, int8v(1), int4v(0), pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{},
			true, false, false, []int32(nil), pgtype.Text{}).
		WillReturnRows(pgxmock.NewRows([]string{"chain_execution_config"}).AddRow(int64(7)))
	id, err := pge.InsertChainConfig(ctx, c, pgtype.Int8{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	mockPool.ExpectQuery("WITH ins AS").
		WithArgs(int8v(5), &name, int4v(0), pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{},
			true, false, false, []int32(nil), pgtype.Text{}).
		WillReturnRows(pgxmock.NewRows([]string{"chain_execution_config"}).AddRow(int64(8)))
	id, err = pge.InsertChainConfig(ctx, c, int8v(5))
	require.NoError(t, err)
	assert.Equal(t, int64(8), id)

	mockPool.ExpectQuery("INSERT INTO timetable.chain_execution_config").
		WithArgs((*string)(nil), pgtype.Int8{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{},
			false, false, false, []int32(nil), pgtype.Text{}).
		WillReturnRows(pgxmock.NewRows([]string{"chain_execution_config"}))
	_, err = pge.InsertChainConfig(ctx, pgengine.ChainConfig{}, pgtype.Int8{})
	assert.ErrorContains(t, err, "cannot insert chain execution config")
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestUpdateDeleteChainConfig(t *testing.T) {
	pge := initmockdb(t)
	ctx := context.Background()
	name := "backup"
	c := pgengine.ChainConfig{ConfigID: 7, ChainName: name, ExcludedExecutionConfigs: []int32{1}}

	mockPool.ExpectExec("UPDATE timetable.chain_execution_config SET").
		WithArgs(&name, pgtype.Int8{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{},
			false, false, false, []int32{1}, pgtype.Text{}, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, pge.UpdateChainConfig(ctx, c))

	mockPool.ExpectExec("UPDATE timetable.chain_execution_config SET").
		WithArgs(&name, pgtype.Int8{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{}, pgtype.Int4{},
			false, false, false, []int32{1}, pgtype.Text{}, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, pge.UpdateChainConfig(ctx, c), pgx.ErrNoRows)

	mockPool.ExpectExec("DELETE FROM timetable.chain_execution_config").WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	assert.NoError(t, pge.DeleteChainConfig(ctx, 7))

	mockPool.ExpectExec("DELETE FROM timetable.chain_execution_config").WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, pge.DeleteChainConfig(ctx, 7), pgx.ErrNoRows)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
