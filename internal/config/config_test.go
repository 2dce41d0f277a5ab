package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cybertec-postgresql/pg_timetable_web/internal/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(name, []byte(content), 0600))
	return name
}

func TestConfig(t *testing.T) {
	cfgFile := writeConfig(t, `
clientname: panel01
connection:
  host: yamlhost
  port: 6543
web:
  http-port: 8081
`)
	os.Args = []string{0: "config_test", "--config=" + cfgFile}
	c, err := NewConfig(nil)
	assert.NoError(t, err)
	assert.NotNil(t, c)

	os.Args = []string{0: "config_test", "--unknown"}
	_, err = NewConfig(nil)
	assert.Error(t, err)

	os.Args = []string{0: "config_test", "--config=foo.boo.bar.baz.yaml"}
	_, err = NewConfig(nil)
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	c, err := newConfig(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "pg_timetable_web", c.ClientName)
	assert.Equal(t, "db", c.Connection.Host)
	assert.Equal(t, 5432, c.Connection.Port)
	assert.Equal(t, "postgres", c.Connection.DBName)
	assert.Equal(t, "postgres", c.Connection.User)
	assert.Equal(t, "", c.Connection.Password)
	assert.Equal(t, "disable", c.Connection.SSLMode)
	assert.Equal(t, 90, c.Connection.Timeout)
	assert.Equal(t, 5000, c.Web.Port)
	assert.Equal(t, "info", c.Logging.LogLevel)
	assert.Equal(t, "none", c.Logging.LogDBLevel)
	assert.Empty(t, c.UnknownEnv)
}

func TestConfigPrecedence(t *testing.T) {
	environ := []string{
		"PG_TIMETABLE_HOST=envhost",
		"PG_TIMETABLE_PORT=7000",
		"PG_TIMETABLE_DBNAME=envdb",
		"PG_TIMETABLE_HTTP_PORT=9000",
		"PG_TIMETABLE_LOGLEVEL=DEBUG",
		"PG_TIMETABLE_SOMETHING=else",
	}
	c, err := newConfig(nil, nil, environ)
	require.NoError(t, err)
	assert.Equal(t, "envhost", c.Connection.Host)
	assert.Equal(t, 7000, c.Connection.Port)
	assert.Equal(t, "envdb", c.Connection.DBName)
	assert.Equal(t, 9000, c.Web.Port)
	assert.Equal(t, "debug", c.Logging.LogLevel)
	assert.Equal(t, []string{"PG_TIMETABLE_SOMETHING"}, c.UnknownEnv)

	cfgFile := writeConfig(t, `
connection:
  host: yamlhost
  port: 6543
`)
	c, err = newConfig(nil, []string{"--config=" + cfgFile, "--port=6000"}, environ)
	require.NoError(t, err)
	assert.Equal(t, "yamlhost", c.Connection.Host, "config file wins over environment")
	assert.Equal(t, 6000, c.Connection.Port, "command line wins over config file")
	assert.Equal(t, "envdb", c.Connection.DBName, "environment fills the gaps")
}

func TestConfigInvalidEnvironment(t *testing.T) {
	_, err := newConfig(nil, nil, []string{"PG_TIMETABLE_PORT=70000"})
	var verr *envconfig.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = newConfig(nil, nil, []string{"PG_TIMETABLE_HTTP_PORT=abc"})
	var terr *envconfig.TransformationError
	assert.ErrorAs(t, err, &terr)

	_, err = newConfig(nil, nil, []string{"PG_TIMETABLE_SSLMODE=sometimes"})
	assert.Error(t, err)
}

func TestConfigEnvHelp(t *testing.T) {
	var b bytes.Buffer
	_, err := newConfig(&b, []string{"--env-help"}, []string{"PG_TIMETABLE_PORT=bad"})
	assert.ErrorIs(t, err, ErrHelpShown)
	assert.Contains(t, b.String(), "PG_TIMETABLE_HTTP_PORT")
	assert.Contains(t, b.String(), "PG_TIMETABLE_SSLMODE")
}
