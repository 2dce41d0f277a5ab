package pgengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidParameter is returned for parameters rejected before reaching the database
var ErrInvalidParameter = errors.New("invalid chain execution parameter")

const sqlSelectParameter = `SELECT chain_execution_config, chain_id, order_id, value::text AS value 
FROM timetable.chain_execution_parameters`

const sqlUpsertParameter = `INSERT INTO timetable.chain_execution_parameters (chain_execution_config, chain_id, order_id, value) 
VALUES ($1, $2, $3, $4::jsonb) 
ON CONFLICT (chain_execution_config, chain_id, order_id) DO UPDATE SET value = EXCLUDED.value`

const sqlUpdateParameter = `UPDATE timetable.chain_execution_parameters SET value = $4::jsonb 
WHERE chain_execution_config = $1 AND chain_id = $2 AND order_id = $3`

// Validate checks order is positive and value, if any, is JSON
func (p Parameter) Validate() error {
	if p.OrderID <= 0 {
		return fmt.Errorf("%w: order must be positive, got %d", ErrInvalidParameter, p.OrderID)
	}
	if p.Value.Valid && !json.Valid([]byte(p.Value.String)) {
		return fmt.Errorf("%w: value is not valid JSON", ErrInvalidParameter)
	}
	return nil
}

// GetParameters returns all parameters
func (pge *PgEngine) GetParameters(ctx context.Context) ([]Parameter, error) {
	return queryAll[Parameter](ctx, pge.ConfigDb,
		sqlSelectParameter+" ORDER BY chain_execution_config, chain_id, order_id")
}

// GetParameter returns the parameter by key
func (pge *PgEngine) GetParameter(ctx context.Context, key ParameterKey) (Parameter, error) {
	p, err := queryOne[Parameter](ctx, pge.ConfigDb,
		sqlSelectParameter+" WHERE chain_execution_config = $1 AND chain_id = $2 AND order_id = $3",
		key.ConfigID, key.ChainID, key.OrderID)
	if err != nil {
		return p, fmt.Errorf("cannot get parameter %s: %w", key, err)
	}
	return p, nil
}

// UpsertParameter inserts the parameter or replaces the value of the existing one
func (pge *PgEngine) UpsertParameter(ctx context.Context, p Parameter) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := pge.ConfigDb.Exec(ctx, sqlUpsertParameter, p.ConfigID, p.ChainID, p.OrderID, p.Value); err != nil {
		return fmt.Errorf("cannot save parameter %s: %w", p.ParameterKey, err)
	}
	pge.l.WithField("config", p.ConfigID).WithField("chain", p.ChainID).Info("Parameter saved")
	return nil
}

// MoveParameter replaces parameter stored under oldKey with p. Both keys equal means a
// plain update of the value, otherwise the row is re-keyed in one transaction. A missing
// source row results in pgx.ErrNoRows.
func (pge *PgEngine) MoveParameter(ctx context.Context, oldKey ParameterKey, p Parameter) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if oldKey == p.ParameterKey {
		if err := execAffecting(ctx, pge.ConfigDb, sqlUpdateParameter, p.ConfigID, p.ChainID, p.OrderID, p.Value); err != nil {
			return fmt.Errorf("cannot update parameter %s: %w", oldKey, err)
		}
		pge.l.WithField("config", p.ConfigID).WithField("chain", p.ChainID).Info("Parameter updated")
		return nil
	}
	if err := pge.moveParameter(ctx, oldKey, p); err != nil {
		return fmt.Errorf("cannot move parameter %s to %s: %w", oldKey, p.ParameterKey, err)
	}
	pge.l.WithField("config", p.ConfigID).WithField("chain", p.ChainID).Info("Parameter moved")
	return nil
}

// DeleteParameter removes the parameter by key
func (pge *PgEngine) DeleteParameter(ctx context.Context, key ParameterKey) error {
	err := execAffecting(ctx, pge.ConfigDb,
		"DELETE FROM timetable.chain_execution_parameters WHERE chain_execution_config = $1 AND chain_id = $2 AND order_id = $3",
		key.ConfigID, key.ChainID, key.OrderID)
	if err != nil {
		return fmt.Errorf("cannot delete parameter %s: %w", key, err)
	}
	pge.l.WithField("config", key.ConfigID).WithField("chain", key.ChainID).Info("Parameter deleted")
	return nil
}

func (pge *PgEngine) moveParameter(ctx context.Context, oldKey ParameterKey, p Parameter) error {
	tx, err := pge.ConfigDb.Begin(ctx)
	if err != nil {
		return err
	}
	err = execAffecting(ctx, tx,
		"DELETE FROM timetable.chain_execution_parameters WHERE chain_execution_config = $1 AND chain_id = $2 AND order_id = $3",
		oldKey.ConfigID, oldKey.ChainID, oldKey.OrderID)
	if err == nil {
		_, err = tx.Exec(ctx, sqlUpsertParameter, p.ConfigID, p.ChainID, p.OrderID, p.Value)
	}
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			pge.l.WithError(rbErr).Error("Cannot rollback transaction")
		}
		return err
	}
	return tx.Commit(ctx)
}
