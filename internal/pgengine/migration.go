package pgengine

import (
	"context"
	"fmt"

	migrator "github.com/cybertec-postgresql/pgx-migrator"
	pgx "github.com/jackc/pgx/v5"
)

const migrationsTable = "timetable.web_migrations"

func (pge *PgEngine) newMigrator() (*migrator.Migrator, error) {
	return migrator.New(
		migrator.TableName(migrationsTable),
		migrator.SetNotice(func(s string) {
			pge.l.Info(s)
		}),
		migrator.Migrations(
			&migrator.Migration{
				Name: "0001 Create configuration tables",
				Func: func(ctx context.Context, tx pgx.Tx) error {
					var exists bool
					err := tx.QueryRow(ctx, "SELECT to_regclass('timetable.base_task') IS NOT NULL").Scan(&exists)
					if err != nil || exists {
						return err
					}
					_, err = tx.Exec(ctx, sqlDDL)
					return err
				},
			},
			&migrator.Migration{
				Name: "0002 Index execution log by config",
				Func: func(ctx context.Context, tx pgx.Tx) error {
					_, err := tx.Exec(ctx, "CREATE INDEX IF NOT EXISTS execution_log_config_idx "+
						"ON timetable.execution_log (chain_execution_config, last_run)")
					return err
				},
			},
			// adding new migration here
		),
	)
}

// MigrateDb creates or upgrades panel tables
func (pge *PgEngine) MigrateDb(ctx context.Context) error {
	pge.l.Info("Upgrading database...")
	if _, err := pge.ConfigDb.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS timetable"); err != nil {
		return err
	}
	m, err := pge.newMigrator()
	if err != nil {
		return err
	}
	if err = m.Migrate(ctx, pge.ConfigDb); err != nil {
		return fmt.Errorf("cannot migrate database: %w", err)
	}
	return nil
}

// CheckSchema makes sure the configuration tables exist, creating them if init is set
func (pge *PgEngine) CheckSchema(ctx context.Context, init bool) error {
	if init {
		return pge.MigrateDb(ctx)
	}
	var exists bool
	err := pge.ConfigDb.QueryRow(ctx,
		"SELECT to_regclass('timetable.chain_execution_config') IS NOT NULL").Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSchemaMissing
	}
	return nil
}
