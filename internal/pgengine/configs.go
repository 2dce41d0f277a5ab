package pgengine

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

const sqlSelectChainConfig = `SELECT chain_execution_config, chain_id, chain_name, 
run_at_minute, run_at_hour, run_at_day, run_at_month, run_at_day_of_week, max_instances, 
COALESCE(live, false) AS live, COALESCE(self_destruct, false) AS self_destruct, 
COALESCE(exclusive_execution, false) AS exclusive_execution, excluded_execution_configs, client_name 
FROM timetable.chain_execution_config`

// GetChainConfigs returns all chain execution configs
func (pge *PgEngine) GetChainConfigs(ctx context.Context) ([]ChainConfig, error) {
	return queryAll[ChainConfig](ctx, pge.ConfigDb, sqlSelectChainConfig+" ORDER BY chain_execution_config")
}

// GetChainConfig returns the config together with its chain tree, tasks and parameters
func (pge *PgEngine) GetChainConfig(ctx context.Context, configID int64) (*ChainConfigDetails, error) {
	cfg, err := queryOne[ChainConfig](ctx, pge.ConfigDb, sqlSelectChainConfig+" WHERE chain_execution_config = $1", configID)
	if err != nil {
		return nil, fmt.Errorf("cannot get chain execution config %d: %w", configID, err)
	}
	details := &ChainConfigDetails{ChainConfig: cfg}
	if !cfg.ChainID.Valid {
		return details, nil
	}
	if details.Chain, err = pge.getChainTree(ctx, cfg.ChainID.Int64); err != nil {
		return nil, fmt.Errorf("cannot get chain %d of config %d: %w", cfg.ChainID.Int64, configID, err)
	}
	params, err := queryAll[Parameter](ctx, pge.ConfigDb,
		sqlSelectParameter+" WHERE chain_execution_config = $1 ORDER BY chain_id, order_id", configID)
	if err != nil {
		return nil, fmt.Errorf("cannot get parameters of config %d: %w", configID, err)
	}
	byChain := make(map[int64][]Parameter)
	for _, p := range params {
		byChain[p.ChainID] = append(byChain[p.ChainID], p)
	}
	details.Chain.Walk(func(node *ChainNode, _ int) {
		node.Parameters = byChain[node.ChainID]
	})
	return details, nil
}

const sqlConfigColumns = `chain_name, chain_id, run_at_minute, run_at_hour, run_at_day, run_at_month, 
run_at_day_of_week, max_instances, live, self_destruct, exclusive_execution, excluded_execution_configs, client_name`

// scheduleArgs returns values for $3..$13 of sqlConfigColumns
func scheduleArgs(c ChainConfig) []any {
	return []any{c.RunAtMinute, c.RunAtHour, c.RunAtDay, c.RunAtMonth, c.RunAtDayOfWeek, c.MaxInstances,
		c.Live, c.SelfDestruct, c.ExclusiveExecution, c.ExcludedExecutionConfigs, c.ClientName}
}

// InsertChainConfig adds a config. If taskID is valid, a new root link executing
// this task is created in the same statement and used as the config chain.
func (pge *PgEngine) InsertChainConfig(ctx context.Context, c ChainConfig, taskID pgtype.Int8) (id int64, err error) {
	sql := `INSERT INTO timetable.chain_execution_config (` + sqlConfigColumns + `) 
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING chain_execution_config`
	args := append([]any{nullIfEmpty(c.ChainName), c.ChainID}, scheduleArgs(c)...)
	if taskID.Valid {
		sql = `WITH ins AS (
	INSERT INTO timetable.task_chain (parent_id, task_id) VALUES (NULL, $1) RETURNING chain_id
) INSERT INTO timetable.chain_execution_config (` + sqlConfigColumns + `) 
SELECT $2::text, ins.chain_id, $3::integer, $4::integer, $5::integer, $6::integer, $7::integer, $8::integer, 
	$9::boolean, $10::boolean, $11::boolean, $12::integer[], $13::text 
FROM ins RETURNING chain_execution_config`
		args[0], args[1] = taskID, nullIfEmpty(c.ChainName)
	}
	if err = pge.ConfigDb.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("cannot insert chain execution config: %w", err)
	}
	pge.l.WithField("config", id).Info("Chain execution config added")
	return id, nil
}

// UpdateChainConfig changes every column of the config
func (pge *PgEngine) UpdateChainConfig(ctx context.Context, c ChainConfig) error {
	err := execAffecting(ctx, pge.ConfigDb,
		`UPDATE timetable.chain_execution_config SET (`+sqlConfigColumns+`) = 
($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) WHERE chain_execution_config = $14`,
		append(append([]any{nullIfEmpty(c.ChainName), c.ChainID}, scheduleArgs(c)...), c.ConfigID)...)
	if err != nil {
		return fmt.Errorf("cannot update chain execution config %d: %w", c.ConfigID, err)
	}
	pge.l.WithField("config", c.ConfigID).Info("Chain execution config updated")
	return nil
}

// DeleteChainConfig removes the config, its parameters are removed by the schema cascade
func (pge *PgEngine) DeleteChainConfig(ctx context.Context, configID int64) error {
	err := execAffecting(ctx, pge.ConfigDb,
		"DELETE FROM timetable.chain_execution_config WHERE chain_execution_config = $1", configID)
	if err != nil {
		return fmt.Errorf("cannot delete chain execution config %d: %w", configID, err)
	}
	pge.l.WithField("config", configID).Info("Chain execution config deleted")
	return nil
}
