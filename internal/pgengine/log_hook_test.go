package pgengine

import (
	"context"
	"errors"
	"testing"
	"time"

	pgx "github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogHook(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mockPool.ExpectCopyFrom(pgx.Identifier{"timetable", "log"},
		[]string{"ts", "client_name", "pid", "log_level", "message"}).WillReturnResult(2)
	h := &LogHook{ctx: ctx,
		db:              mockPool,
		cacheLimit:      2,
		cacheTimeout:    time.Hour,
		highLoadTimeout: time.Second,
		input:           make(chan logrus.Entry, 2),
		lastError:       make(chan error),
		client:          "test",
		level:           "debug",
	}
	go h.poll(h.input)

	// flushed by cacheLimit, the timeout never fires
	assert.NoError(t, h.Fire(&logrus.Entry{Level: logrus.DebugLevel, Message: "first", Time: time.Now()}))
	assert.NoError(t, h.Fire(&logrus.Entry{Level: logrus.InfoLevel, Message: "second", Time: time.Now()}))
	assert.Eventually(t, func() bool {
		return mockPool.ExpectationsWereMet() == nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestLogHookFlushOnTimeout(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mockPool.ExpectCopyFrom(pgx.Identifier{"timetable", "log"},
		[]string{"ts", "client_name", "pid", "log_level", "message"}).WillReturnError(errors.New("copy failed"))
	h := &LogHook{ctx: ctx,
		db:              mockPool,
		cacheLimit:      10,
		cacheTimeout:    50 * time.Millisecond,
		highLoadTimeout: time.Second,
		input:           make(chan logrus.Entry, 10),
		lastError:       make(chan error, 1),
		level:           "error",
	}
	go h.poll(h.input)

	assert.NoError(t, h.Fire(&logrus.Entry{Level: logrus.ErrorLevel, Message: "lonely", Time: time.Now()}))
	assert.Eventually(t, func() bool {
		return mockPool.ExpectationsWereMet() == nil
	}, 5*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return h.Fire(&logrus.Entry{Level: logrus.ErrorLevel}) != nil
	}, 5*time.Second, 10*time.Millisecond, "copy error should be reported by the next Fire")
}

func TestLogHookLevels(t *testing.T) {
	h := &LogHook{}
	for level, expected := range map[string]int{"debug": len(logrus.AllLevels), "info": 5, "error": 3, "foobar": 3, "none": 0} {
		h.level = level
		assert.Len(t, h.Levels(), expected, level)
	}
}

func TestAdaptEntryLevel(t *testing.T) {
	for level, expected := range map[logrus.Level]string{
		logrus.TraceLevel: "DEBUG",
		logrus.DebugLevel: "DEBUG",
		logrus.InfoLevel:  "LOG",
		logrus.WarnLevel:  "NOTICE",
		logrus.ErrorLevel: "ERROR",
		logrus.FatalLevel: "PANIC",
		logrus.PanicLevel: "PANIC",
		42:                "USER",
	} {
		assert.Equal(t, expected, adaptEntryLevel(level))
	}
}

func TestFormatMessage(t *testing.T) {
	assert.Equal(t, "plain", formatMessage(logrus.Entry{Message: "plain"}))
	assert.Equal(t, "Task added [method:POST] [task:5]", formatMessage(logrus.Entry{
		Message: "Task added",
		Data:    logrus.Fields{"task": 5, "method": "POST"},
	}))
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := NewHook(ctx, &PgEngine{}, "debug")
	assert.Equal(t, h.Levels(), logrus.AllLevels)
	assert.NoError(t, h.Fire(&logrus.Entry{}))
}

func TestFireError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHook(ctx, &PgEngine{}, "debug")
	err := errors.New("fire error")
	go func() { h.lastError <- err }()
	<-time.After(time.Second)
	assert.Equal(t, err, h.Fire(&logrus.Entry{}))
}
