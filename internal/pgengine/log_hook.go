package pgengine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	pgx "github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// LogHook stores panel log entries in timetable.log next to the scheduler ones
type LogHook struct {
	cacheLimit      int           // hold this number of entries before flush to database
	cacheTimeout    time.Duration // wait this amount of time before flush to database
	highLoadTimeout time.Duration // wait this amount of time before skip log entry
	db              PgxIface
	input           chan logrus.Entry
	ctx             context.Context
	lastError       chan error
	pid             int32
	client          string
	level           string
}

// NewHook creates a LogHook to be added to an instance of logger
func NewHook(ctx context.Context, pge *PgEngine, level string) *LogHook {
	cacheLimit := 100
	l := &LogHook{
		cacheLimit:      cacheLimit,
		cacheTimeout:    2 * time.Second,
		highLoadTimeout: 200 * time.Millisecond,
		db:              pge.ConfigDb,
		input:           make(chan logrus.Entry, cacheLimit),
		lastError:       make(chan error),
		ctx:             ctx,
		pid:             pge.Getpid(),
		client:          pge.ClientName,
		level:           level,
	}
	go l.poll(l.input)
	return l
}

// Fire adds logrus log message to the internal queue for processing
func (hook *LogHook) Fire(entry *logrus.Entry) error {
	if hook.ctx.Err() != nil {
		return nil
	}
	select {
	case hook.input <- *entry:
		// entry sent
	case <-time.After(hook.highLoadTimeout):
		// entry dropped due to a huge load, check stdout or file for detailed log
	}
	select {
	case err := <-hook.lastError:
		return err
	default:
		return nil
	}
}

// Levels returns the available logging levels
func (hook *LogHook) Levels() []logrus.Level {
	switch hook.level {
	case "debug":
		return logrus.AllLevels
	case "info":
		return []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
			logrus.WarnLevel,
			logrus.InfoLevel,
		}
	case "none":
		return []logrus.Level{}
	default:
		return []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		}
	}
}

// poll caches incoming entries until either the limit is reached or the timeout fires
func (hook *LogHook) poll(input <-chan logrus.Entry) {
	cache := make([]logrus.Entry, 0, hook.cacheLimit)
	tick := time.NewTicker(hook.cacheTimeout)
	defer tick.Stop()
	for {
		select {
		case entry := <-input:
			cache = append(cache, entry)
			if len(cache) < hook.cacheLimit {
				break
			}
			hook.send(cache)
			cache = cache[:0]
			tick.Reset(hook.cacheTimeout)
		case <-tick.C:
			hook.send(cache)
			cache = cache[:0]
		case <-hook.ctx.Done():
			return
		}
	}
}

// adaptEntryLevel maps logrus levels onto timetable.log_type
func adaptEntryLevel(level logrus.Level) string {
	switch level {
	case logrus.TraceLevel, logrus.DebugLevel:
		return "DEBUG"
	case logrus.InfoLevel:
		return "LOG"
	case logrus.WarnLevel:
		return "NOTICE"
	case logrus.ErrorLevel:
		return "ERROR"
	case logrus.FatalLevel, logrus.PanicLevel:
		return "PANIC"
	}
	return "USER"
}

// formatMessage appends entry fields to the message, the log table has no column for them
func formatMessage(e logrus.Entry) string {
	if len(e.Data) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(e.Message)
	for _, k := range keys {
		fmt.Fprintf(&b, " [%s:%v]", k, e.Data[k])
	}
	return b.String()
}

// send sends cached messages to the postgres server
func (hook *LogHook) send(cache []logrus.Entry) {
	if len(cache) == 0 {
		return // Nothing to do here.
	}
	_, err := hook.db.CopyFrom(
		hook.ctx,
		pgx.Identifier{"timetable", "log"},
		[]string{"ts", "client_name", "pid", "log_level", "message"},
		pgx.CopyFromSlice(len(cache),
			func(i int) ([]any, error) {
				return []any{cache[i].Time,
					hook.client,
					hook.pid,
					adaptEntryLevel(cache[i].Level),
					formatMessage(cache[i])}, nil
			}),
	)
	if err != nil {
		select {
		case hook.lastError <- err:
			//error sent to the logger
		default:
			//there is unprocessed error already
		}
	}
}
