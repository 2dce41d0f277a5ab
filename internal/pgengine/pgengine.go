package pgengine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/config"
	"github.com/cybertec-postgresql/pg_timetable_web/internal/log"
	pgx "github.com/jackc/pgx/v5"
	pgconn "github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	retry "github.com/sethvargo/go-retry"
)

// WaitTime specifies amount of time in seconds to wait before reconnecting to DB
const WaitTime = 5 * time.Second

// maximum wait time before reconnect attempts
const maxWaitTime = WaitTime * 16

// create a new exponential backoff to be used in retry connect
var backoff = retry.WithMaxDuration(maxWaitTime, retry.NewExponential(WaitTime))

// ErrSchemaMissing is returned when the database has no timetable schema and --init was not given
var ErrSchemaMissing = errors.New("timetable schema not found, use --init to create it")

// PgxIface is common interface for every pgx class
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// PgxConnIface is interface representing pgx connection
type PgxConnIface interface {
	PgxIface
	Close(ctx context.Context) error
}

// PgxPoolIface is interface representing pgx pool
type PgxPoolIface interface {
	PgxIface
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

// PgEngine is responsible for every database-related action
type PgEngine struct {
	l        log.LoggerHookerIface
	ConfigDb PgxPoolIface
	config.CmdOptions
}

// Getpid returns the pid of the panel process used in log entries
func (pge *PgEngine) Getpid() int32 {
	return int32(os.Getpid())
}

func quoteConnValue(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}

// getConnString builds libpq connection string from options unless URL is provided
func (pge *PgEngine) getConnString() string {
	c := pge.Connection
	if c.PgURL != "" {
		return c.PgURL
	}
	return fmt.Sprintf("application_name=%s host=%s port=%d dbname=%s sslmode=%s user=%s password=%s",
		quoteConnValue(pge.ClientName),
		quoteConnValue(c.Host),
		c.Port,
		quoteConnValue(c.DBName),
		quoteConnValue(c.SSLMode),
		quoteConnValue(c.User),
		quoteConnValue(c.Password))
}

func (pge *PgEngine) getPgxConnConfig() (*pgxpool.Config, error) {
	connConfig, err := pgxpool.ParseConfig(pge.getConnString())
	if err != nil {
		return nil, fmt.Errorf("cannot parse connection string: %w", err)
	}
	connConfig.MaxConnIdleTime = 15 * time.Second
	connConfig.MaxConnLifetime = 15 * time.Minute
	tracelogger := &tracelog.TraceLog{
		Logger:   log.NewPgxLogger(pge.l),
		LogLevel: tracelog.LogLevelWarn,
	}
	if pge.Verbose() {
		tracelogger.LogLevel = tracelog.LogLevelDebug
	}
	connConfig.ConnConfig.Tracer = tracelogger
	return connConfig, nil
}

// New opens connection pool, retrying until --timeout, and checks the timetable schema
func New(ctx context.Context, cmdOpts config.CmdOptions, logger log.LoggerHookerIface) (*PgEngine, error) {
	pge := &PgEngine{
		l:          logger,
		ConfigDb:   nil,
		CmdOptions: cmdOpts,
	}
	pge.l.WithField("pid", pge.Getpid()).Info("Starting new session...")
	connConfig, err := pge.getPgxConnConfig()
	if err != nil {
		return nil, err
	}
	connctx, conncancel := context.WithTimeout(ctx, time.Duration(cmdOpts.Connection.Timeout)*time.Second)
	defer conncancel()
	err = retry.Do(connctx, backoff, func(ctx context.Context) error {
		pool, err := pgxpool.NewWithConfig(ctx, connConfig)
		if err == nil {
			if err = pool.Ping(ctx); err != nil {
				pool.Close()
			}
		}
		if err != nil {
			pge.l.WithError(err).Error("Connection failed")
			pge.l.Info("Sleeping before reconnecting...")
			return retry.RetryableError(err)
		}
		pge.ConfigDb = pool
		return nil
	})
	if err != nil {
		if connctx.Err() != nil {
			return nil, connctx.Err()
		}
		return nil, err
	}
	pge.l.Info("Database connection established")
	if err = pge.CheckSchema(ctx, cmdOpts.Start.Init); err != nil {
		pge.ConfigDb.Close()
		pge.ConfigDb = nil
		return nil, err
	}
	return pge, nil
}

// NewDB creates pgengine instance for already opened database connection
func NewDB(DB PgxPoolIface, args ...string) *PgEngine {
	return &PgEngine{
		l:          log.Init(config.LoggingOpts{LogLevel: "error"}),
		ConfigDb:   DB,
		CmdOptions: *config.NewCmdOptions(args...),
	}
}

// IsReady pings the database, used by readiness probe
func (pge *PgEngine) IsReady(ctx context.Context) bool {
	return pge.ConfigDb != nil && pge.ConfigDb.Ping(ctx) == nil
}

// Finalize closes session
func (pge *PgEngine) Finalize() {
	pge.l.Info("Closing session")
	if pge.ConfigDb != nil {
		pge.ConfigDb.Close()
	}
	pge.ConfigDb = nil
}
