package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFail(t *testing.T) {
	tests := [][]string{
		{0: "go-test", "--unknown-oprion"},
		{0: "go-test", "-c", "client01", "-f", "foo"},
		{0: "go-test", "--sslmode=foo"},
	}
	for _, d := range tests {
		os.Args = d
		_, err := Parse(nil)
		assert.Error(t, err)
	}
}

func TestParseSuccess(t *testing.T) {
	tests := [][]string{
		{0: "go-test", "non-optional-value"},
		{0: "go-test", "-h", "localhost", "-p", "6432", "--http-port=8080"},
	}
	for _, d := range tests {
		os.Args = d
		_, err := Parse(nil)
		assert.NoError(t, err)
	}
}

func TestParseNonOptionArgIsPgURL(t *testing.T) {
	p, err := parse(nil, []string{"postgres://foo@bar/baz"})
	require.NoError(t, err)
	opt := p.FindOptionByLongName("pgurl")
	require.NotNil(t, opt)
	assert.Equal(t, "postgres://foo@bar/baz", opt.Value())
}

func TestLogLevel(t *testing.T) {
	c := &CmdOptions{Logging: LoggingOpts{LogLevel: "debug"}}
	assert.True(t, c.Verbose())
	c = &CmdOptions{Logging: LoggingOpts{LogLevel: "info"}}
	assert.False(t, c.Verbose())
}

func TestVersionOnly(t *testing.T) {
	c := &CmdOptions{Version: true}
	os.Args = []string{0: "go-test", "-v"}
	assert.True(t, c.VersionOnly())
	c = &CmdOptions{Version: false}
	assert.False(t, c.VersionOnly())
}

func TestNewCmdOptions(t *testing.T) {
	c := NewCmdOptions("-c", "config_unit_test", "--password=somestrong")
	assert.NotNil(t, c)
	assert.Equal(t, "config_unit_test", c.ClientName)
	assert.Equal(t, "somestrong", c.Connection.Password)
	assert.Equal(t, "postgres", c.Connection.DBName, "environment defaults apply")
	assert.Equal(t, 5432, c.Connection.Port)

	c = NewCmdOptions("--unknown")
	assert.Equal(t, &CmdOptions{}, c)
}
