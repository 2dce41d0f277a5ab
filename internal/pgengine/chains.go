package pgengine

import (
	"context"
	"fmt"

	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const sqlSelectChainLink = `SELECT chain_id, parent_id, task_id, run_uid, database_connection, 
COALESCE(ignore_error, false) AS ignore_error FROM timetable.task_chain`

// GetChains returns chain links, only roots of chains if onlyBase is set
func (pge *PgEngine) GetChains(ctx context.Context, onlyBase bool) ([]ChainLink, error) {
	sql := sqlSelectChainLink
	if onlyBase {
		sql += " WHERE parent_id IS NULL"
	}
	return queryAll[ChainLink](ctx, pge.ConfigDb, sql+" ORDER BY chain_id")
}

// GetChainTails returns links nobody refers to as parent, i.e. possible parents for a new link
func (pge *PgEngine) GetChainTails(ctx context.Context) ([]ChainLink, error) {
	return queryAll[ChainLink](ctx, pge.ConfigDb,
		`SELECT a.chain_id, a.parent_id, a.task_id, a.run_uid, a.database_connection, 
COALESCE(a.ignore_error, false) AS ignore_error 
FROM timetable.task_chain a LEFT JOIN timetable.task_chain b ON a.chain_id = b.parent_id 
WHERE b.parent_id IS NULL ORDER BY a.chain_id`)
}

// GetChainLink returns a single link without successors
func (pge *PgEngine) GetChainLink(ctx context.Context, chainID int64) (ChainLink, error) {
	c, err := queryOne[ChainLink](ctx, pge.ConfigDb, sqlSelectChainLink+" WHERE chain_id = $1", chainID)
	if err != nil {
		return c, fmt.Errorf("cannot get chain %d: %w", chainID, err)
	}
	return c, nil
}

// GetChain returns the link with the tree of its successors
func (pge *PgEngine) GetChain(ctx context.Context, chainID int64) (*ChainNode, error) {
	root, err := pge.getChainTree(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("cannot get chain %d: %w", chainID, err)
	}
	return root, nil
}

// InsertChain adds a link, zero or invalid ParentID makes it a root
func (pge *PgEngine) InsertChain(ctx context.Context, c ChainLink) (id int64, err error) {
	if c.ParentID.Valid && c.ParentID.Int64 == 0 {
		c.ParentID = pgtype.Int8{}
	}
	err = pge.ConfigDb.QueryRow(ctx,
		`INSERT INTO timetable.task_chain (parent_id, task_id, run_uid, database_connection, ignore_error) 
VALUES ($1, $2, $3, $4, $5) RETURNING chain_id`,
		c.ParentID, c.TaskID, c.RunUID, c.DatabaseConnection, c.IgnoreError).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("cannot insert chain link: %w", err)
	}
	pge.l.WithField("chain", id).Info("Chain link added")
	return id, nil
}

// UpdateChain changes every column of the link
func (pge *PgEngine) UpdateChain(ctx context.Context, c ChainLink) error {
	err := execAffecting(ctx, pge.ConfigDb,
		`UPDATE timetable.task_chain SET parent_id = $1, task_id = $2, run_uid = $3, database_connection = $4, ignore_error = $5 
WHERE chain_id = $6`,
		c.ParentID, c.TaskID, c.RunUID, c.DatabaseConnection, c.IgnoreError, c.ChainID)
	if err != nil {
		return fmt.Errorf("cannot update chain %d: %w", c.ChainID, err)
	}
	pge.l.WithField("chain", c.ChainID).Info("Chain link updated")
	return nil
}

// DeleteChain removes the link, successors are removed by the schema cascade
func (pge *PgEngine) DeleteChain(ctx context.Context, chainID int64) error {
	if err := execAffecting(ctx, pge.ConfigDb, "DELETE FROM timetable.task_chain WHERE chain_id = $1", chainID); err != nil {
		return fmt.Errorf("cannot delete chain %d: %w", chainID, err)
	}
	pge.l.WithField("chain", chainID).Info("Chain link deleted")
	return nil
}

const sqlChainTree = `WITH RECURSIVE tree (chain_id, parent_id, task_id, run_uid, database_connection, ignore_error, depth, path) AS (
	SELECT chain_id, parent_id, task_id, run_uid, database_connection, ignore_error, 1, ARRAY[chain_id]
	FROM timetable.task_chain WHERE chain_id = $1
	UNION ALL
	SELECT c.chain_id, c.parent_id, c.task_id, c.run_uid, c.database_connection, c.ignore_error, t.depth + 1, t.path || c.chain_id
	FROM timetable.task_chain c JOIN tree t ON c.parent_id = t.chain_id
	WHERE c.chain_id <> ALL(t.path)
)
SELECT t.chain_id, t.parent_id, t.task_id, t.run_uid, t.database_connection, 
	COALESCE(t.ignore_error, false) AS ignore_error, 
	b.name AS task_name, b.kind::text AS task_kind, b.script AS task_script
FROM tree t JOIN timetable.base_task b ON b.task_id = t.task_id
ORDER BY t.depth, t.chain_id`

type chainTreeRow struct {
	ChainLink
	TaskName   string      `db:"task_name"`
	TaskKind   string      `db:"task_kind"`
	TaskScript pgtype.Text `db:"task_script"`
}

// getChainTree fetches the link and all its descendants. The path carried by the
// recursive query stops on revisited links, so cyclic data terminates.
func (pge *PgEngine) getChainTree(ctx context.Context, chainID int64) (*ChainNode, error) {
	rows, err := queryAll[chainTreeRow](ctx, pge.ConfigDb, sqlChainTree, chainID)
	if err != nil {
		return nil, err
	}
	return buildChainTree(chainID, rows)
}

// buildChainTree assembles rows ordered by depth into a tree keeping all children of a node
func buildChainTree(rootID int64, rows []chainTreeRow) (*ChainNode, error) {
	nodes := make(map[int64]*ChainNode, len(rows))
	var root *ChainNode
	for _, r := range rows {
		if _, seen := nodes[r.ChainID]; seen {
			continue
		}
		node := &ChainNode{
			ChainLink: r.ChainLink,
			Task:      Task{TaskID: r.TaskID, Name: r.TaskName, Kind: r.TaskKind, Script: r.TaskScript},
		}
		nodes[r.ChainID] = node
		if r.ChainID == rootID {
			root = node
			continue
		}
		if parent, ok := nodes[r.ParentID.Int64]; ok && r.ParentID.Valid {
			parent.Children = append(parent.Children, node)
		}
	}
	if root == nil {
		return nil, pgx.ErrNoRows
	}
	return root, nil
}
