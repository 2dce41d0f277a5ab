package pgengine

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
)

// ErrNoClientName is returned when a chain start is requested for a config not bound to a scheduler
var ErrNoClientName = errors.New("chain execution config has no client name")

// NotifyChainStart asks the scheduler listening on the config client name to run the chain now
func (pge *PgEngine) NotifyChainStart(ctx context.Context, configID int64) error {
	var client pgtype.Text
	err := pge.ConfigDb.QueryRow(ctx,
		"SELECT client_name FROM timetable.chain_execution_config WHERE chain_execution_config = $1",
		configID).Scan(&client)
	if err != nil {
		return fmt.Errorf("cannot get chain execution config %d: %w", configID, err)
	}
	if !client.Valid || client.String == "" {
		return fmt.Errorf("cannot start chain of config %d: %w", configID, ErrNoClientName)
	}
	if _, err = pge.ConfigDb.Exec(ctx, "SELECT pg_notify($1, $2)", client.String, strconv.FormatInt(configID, 10)); err != nil {
		return fmt.Errorf("cannot notify %s: %w", client.String, err)
	}
	pge.l.WithField("config", configID).WithField("client", client.String).Info("Chain start requested")
	return nil
}
