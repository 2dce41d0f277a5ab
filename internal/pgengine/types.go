package pgengine

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Task kinds known to the scheduler
const (
	TaskKindSQL     = "SQL"
	TaskKindShell   = "SHELL"
	TaskKindBuiltin = "BUILTIN"
)

// TaskKinds lists values accepted by timetable.task_kind
var TaskKinds = []string{TaskKindSQL, TaskKindShell, TaskKindBuiltin}

// Task is a row of timetable.base_task
type Task struct {
	TaskID int64       `db:"task_id"`
	Name   string      `db:"name"`
	Kind   string      `db:"kind"`
	Script pgtype.Text `db:"script"`
}

// ChainLink is a row of timetable.task_chain
type ChainLink struct {
	ChainID            int64       `db:"chain_id"`
	ParentID           pgtype.Int8 `db:"parent_id"`
	TaskID             int64       `db:"task_id"`
	RunUID             pgtype.Text `db:"run_uid"`
	DatabaseConnection pgtype.Int8 `db:"database_connection"`
	IgnoreError        bool        `db:"ignore_error"`
}

// ChainNode is a chain link with its task, parameters and successors
type ChainNode struct {
	ChainLink
	Task       Task
	Parameters []Parameter
	Children   []*ChainNode
}

// Walk calls fn for the node and all its descendants in depth-first order
func (n *ChainNode) Walk(fn func(node *ChainNode, depth int)) {
	var walk func(*ChainNode, int)
	walk = func(node *ChainNode, depth int) {
		fn(node, depth)
		for _, child := range node.Children {
			walk(child, depth+1)
		}
	}
	walk(n, 0)
}

// ChainConfig is a row of timetable.chain_execution_config
type ChainConfig struct {
	ConfigID                 int64       `db:"chain_execution_config"`
	ChainID                  pgtype.Int8 `db:"chain_id"`
	ChainName                string      `db:"chain_name"`
	RunAtMinute              pgtype.Int4 `db:"run_at_minute"`
	RunAtHour                pgtype.Int4 `db:"run_at_hour"`
	RunAtDay                 pgtype.Int4 `db:"run_at_day"`
	RunAtMonth               pgtype.Int4 `db:"run_at_month"`
	RunAtDayOfWeek           pgtype.Int4 `db:"run_at_day_of_week"`
	MaxInstances             pgtype.Int4 `db:"max_instances"`
	Live                     bool        `db:"live"`
	SelfDestruct             bool        `db:"self_destruct"`
	ExclusiveExecution       bool        `db:"exclusive_execution"`
	ExcludedExecutionConfigs []int32     `db:"excluded_execution_configs"`
	ClientName               pgtype.Text `db:"client_name"`
}

// CronExpression renders schedule fields in cron notation, NULL fields become *
func (c ChainConfig) CronExpression() string {
	fields := []pgtype.Int4{c.RunAtMinute, c.RunAtHour, c.RunAtDay, c.RunAtMonth, c.RunAtDayOfWeek}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = "*"
		if f.Valid {
			parts[i] = fmt.Sprint(f.Int32)
		}
	}
	return strings.Join(parts, " ")
}

// ChainConfigDetails is a config with its chain tree
type ChainConfigDetails struct {
	ChainConfig
	Chain *ChainNode
}

// ParameterKey identifies a row of timetable.chain_execution_parameters
type ParameterKey struct {
	ConfigID int64 `db:"chain_execution_config"`
	ChainID  int64 `db:"chain_id"`
	OrderID  int32 `db:"order_id"`
}

func (k ParameterKey) String() string {
	return fmt.Sprintf("%d/%d/%d", k.ConfigID, k.ChainID, k.OrderID)
}

// Parameter is a chain execution parameter, Value holds jsonb as text
type Parameter struct {
	ParameterKey
	Value pgtype.Text `db:"value"`
}

// ExecutionLogRow is a row of timetable.execution_log
type ExecutionLogRow struct {
	ConfigID   pgtype.Int8        `db:"chain_execution_config"`
	ChainID    pgtype.Int8        `db:"chain_id"`
	TaskID     pgtype.Int8        `db:"task_id"`
	Name       string             `db:"name"`
	Script     pgtype.Text        `db:"script"`
	Kind       pgtype.Text        `db:"kind"`
	LastRun    pgtype.Timestamptz `db:"last_run"`
	Finished   pgtype.Timestamptz `db:"finished"`
	ReturnCode pgtype.Int4        `db:"returncode"`
	PID        pgtype.Int8        `db:"pid"`
}
