package pgengine

import (
	"context"
	"fmt"

	pgx "github.com/jackc/pgx/v5"
	pgconn "github.com/jackc/pgx/v5/pgconn"
)

type executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// queryAll runs sql and scans every row into T by column names
func queryAll[T any](ctx context.Context, db querier, sql string, args ...any) ([]T, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

// queryOne runs sql and scans exactly one row into T, pgx.ErrNoRows is returned for an empty result
func queryOne[T any](ctx context.Context, db querier, sql string, args ...any) (T, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[T])
}

// execAffecting runs sql and reports pgx.ErrNoRows when no row was touched
func execAffecting(ctx context.Context, db executor, sql string, args ...any) error {
	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const sqlSelectTask = `SELECT task_id, name, kind::text AS kind, script FROM timetable.base_task`

// GetTasks returns all tasks ordered by id
func (pge *PgEngine) GetTasks(ctx context.Context) ([]Task, error) {
	return queryAll[Task](ctx, pge.ConfigDb, sqlSelectTask+" ORDER BY task_id")
}

// GetTask returns the task by id
func (pge *PgEngine) GetTask(ctx context.Context, taskID int64) (Task, error) {
	t, err := queryOne[Task](ctx, pge.ConfigDb, sqlSelectTask+" WHERE task_id = $1", taskID)
	if err != nil {
		return t, fmt.Errorf("cannot get task %d: %w", taskID, err)
	}
	return t, nil
}

// InsertTask adds a new task and returns its id
func (pge *PgEngine) InsertTask(ctx context.Context, t Task) (id int64, err error) {
	err = pge.ConfigDb.QueryRow(ctx,
		`INSERT INTO timetable.base_task (name, kind, script) 
VALUES ($1, COALESCE($2::timetable.task_kind, 'SQL'), $3) RETURNING task_id`,
		nullIfEmpty(t.Name), nullIfEmpty(t.Kind), t.Script).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("cannot insert task: %w", err)
	}
	pge.l.WithField("task", id).Info("Task added")
	return id, nil
}

// UpdateTask changes name, kind and script of the task
func (pge *PgEngine) UpdateTask(ctx context.Context, t Task) error {
	err := execAffecting(ctx, pge.ConfigDb,
		`UPDATE timetable.base_task SET name = $1, kind = COALESCE($2::timetable.task_kind, kind), script = $3 
WHERE task_id = $4`,
		nullIfEmpty(t.Name), nullIfEmpty(t.Kind), t.Script, t.TaskID)
	if err != nil {
		return fmt.Errorf("cannot update task %d: %w", t.TaskID, err)
	}
	pge.l.WithField("task", t.TaskID).Info("Task updated")
	return nil
}

// DeleteTask removes the task, chain links using it are removed by the schema cascade
func (pge *PgEngine) DeleteTask(ctx context.Context, taskID int64) error {
	if err := execAffecting(ctx, pge.ConfigDb, "DELETE FROM timetable.base_task WHERE task_id = $1", taskID); err != nil {
		return fmt.Errorf("cannot delete task %d: %w", taskID, err)
	}
	pge.l.WithField("task", taskID).Info("Task deleted")
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
