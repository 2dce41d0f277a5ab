package log_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/config"
	"github.com/cybertec-postgresql/pg_timetable_web/internal/log"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	assert.NotNil(t, log.Init(config.LoggingOpts{LogLevel: "debug"}))
	l := log.Init(config.LoggingOpts{LogLevel: "foobar"})
	assert.Equal(t, l.(*logrus.Logger).Level, logrus.InfoLevel)
	pgxl := log.NewPgxLogger(l)
	assert.NotNil(t, pgxl)
	ctx := log.WithLogger(context.Background(), l)
	assert.True(t, log.GetLogger(ctx) == l)
	assert.True(t, log.GetLogger(context.Background()) == log.FallbackLogger)
}

func TestFileLogger(t *testing.T) {
	l := log.Init(config.LoggingOpts{LogLevel: "debug", LogFile: "test.log", LogFileFormat: "text"})
	assert.Equal(t, l.(*logrus.Logger).Level, logrus.DebugLevel)
	l.Info("test")
	assert.FileExists(t, "test.log", "Log file should be created")
	_ = os.Remove("test.log")
}

func TestPgxLog(t *testing.T) {
	pgxl := log.NewPgxLogger(log.Init(config.LoggingOpts{LogLevel: "trace"}))
	var level tracelog.LogLevel
	for level = tracelog.LogLevelNone; level <= tracelog.LogLevelTrace; level++ {
		pgxl.Log(context.Background(), level, "foo", map[string]interface{}{"func": "TestPgxLog"})
	}
}

func TestRotatedFileLogger(t *testing.T) {
	name := filepath.Join(t.TempDir(), "panel.log")
	l := log.Init(config.LoggingOpts{LogLevel: "info", LogFile: name, LogFileRotate: true, LogFileSize: 1})
	l.WithField("request_id", "42").Info("rotated")
	assert.FileExists(t, name, "Log file should be created by lumberjack")
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestWriter(t *testing.T) {
	var b syncBuffer
	l := logrus.New()
	l.SetOutput(&b)
	l.SetFormatter(&log.Formatter{NoColors: true, TimestampFormat: "-"})
	w := log.Writer(l, logrus.WarnLevel)
	_, err := w.Write([]byte("http: TLS handshake error\n"))
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.Eventually(t, func() bool {
		return strings.Contains(b.String(), "[WARN] http: TLS handshake error")
	}, time.Second, 10*time.Millisecond)
	assert.NotNil(t, log.Writer(l.WithField("a", 1), logrus.InfoLevel))
}
