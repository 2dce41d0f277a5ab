package pgengine

import (
	"context"
	"fmt"
	"io"
)

const sqlSelectExecutionLog = `SELECT chain_execution_config, chain_id, task_id, name, script, kind, 
last_run, finished, returncode, pid FROM timetable.execution_log`

// GetExecutionLog returns execution history of the config ordered by run time
func (pge *PgEngine) GetExecutionLog(ctx context.Context, configID int64) ([]ExecutionLogRow, error) {
	return queryAll[ExecutionLogRow](ctx, pge.ConfigDb,
		sqlSelectExecutionLog+" WHERE chain_execution_config = $1 ORDER BY last_run", configID)
}

// CopyExecutionLog streams execution history of the config into w as CSV with header
func (pge *PgEngine) CopyExecutionLog(ctx context.Context, w io.Writer, configID int64) (int64, error) {
	dbconn, err := pge.ConfigDb.Acquire(ctx)
	if err != nil {
		return -1, err
	}
	defer dbconn.Release()
	// COPY takes no bind parameters
	sql := fmt.Sprintf("COPY (%s WHERE chain_execution_config = %d ORDER BY last_run) TO STDOUT (FORMAT csv, HEADER)",
		sqlSelectExecutionLog, configID)
	res, err := dbconn.Conn().PgConn().CopyTo(ctx, w, sql)
	return res.RowsAffected(), err
}
