package config

import (
	"io"
	"os"

	flags "github.com/jessevdk/go-flags"
)

// ConnectionOpts specifies the database connection options. Values not given on the
// command line or in the config file are taken from the PG_TIMETABLE_* environment.
type ConnectionOpts struct {
	Host     string `short:"h" long:"host" mapstructure:"host" description:"PostgreSQL host"`
	Port     int    `short:"p" long:"port" mapstructure:"port" description:"PostgreSQL port"`
	DBName   string `short:"d" long:"dbname" mapstructure:"dbname" description:"PostgreSQL database name"`
	User     string `short:"u" long:"user" mapstructure:"user" description:"PostgreSQL user"`
	Password string `long:"password" mapstructure:"password" description:"PostgreSQL user password"`
	SSLMode  string `long:"sslmode" mapstructure:"sslmode" description:"Connection SSL mode" choice:"disable" choice:"allow" choice:"prefer" choice:"require" choice:"verify-ca" choice:"verify-full"`
	PgURL    string `long:"pgurl" mapstructure:"pgurl" description:"PostgreSQL connection URL"`
	Timeout  int    `long:"timeout" mapstructure:"timeout" description:"PostgreSQL connection timeout in seconds" default:"90"`
}

// LoggingOpts specifies the logging configuration
type LoggingOpts struct {
	LogLevel      string `long:"log-level" mapstructure:"log-level" description:"Verbosity level for stdout and log file" choice:"debug" choice:"info" choice:"warn" choice:"error"`
	LogDBLevel    string `long:"log-database-level" mapstructure:"log-database-level" description:"Verbosity level for database storing" choice:"debug" choice:"info" choice:"error" choice:"none" default:"none"`
	LogFile       string `long:"log-file" mapstructure:"log-file" description:"File name to store logs"`
	LogFileFormat string `long:"log-file-format" mapstructure:"log-file-format" description:"Format of file logs" choice:"json" choice:"text" default:"json"`
	LogFileRotate bool   `long:"log-file-rotate" mapstructure:"log-file-rotate" description:"Rotate log files"`
	LogFileSize   int    `long:"log-file-size" mapstructure:"log-file-size" description:"Maximum size in MB of the log file before it gets rotated" default:"100"`
	LogFileAge    int    `long:"log-file-age" mapstructure:"log-file-age" description:"Number of days to retain old log files, 0 means forever" default:"0"`
	LogFileNumber int    `long:"log-file-number" mapstructure:"log-file-number" description:"Maximum number of old log files to retain, 0 to retain all" default:"0"`
}

// WebOpts specifies the HTTP server options
type WebOpts struct {
	Port      int    `long:"http-port" mapstructure:"http-port" description:"HTTP port of the admin panel"`
	Address   string `long:"http-address" mapstructure:"http-address" description:"Address to bind the HTTP server to"`
	RateLimit int    `long:"rate-limit" mapstructure:"rate-limit" description:"Maximum number of requests per minute from one IP, 0 disables limiting" default:"0"`
}

// StartOpts specifies the application startup options
type StartOpts struct {
	Init    bool `long:"init" mapstructure:"init" description:"Create timetable schema if it doesn't exist"`
	EnvHelp bool `long:"env-help" mapstructure:"env-help" description:"Print supported environment variables and exit"`
}

// CmdOptions holds command line options passed
type CmdOptions struct {
	ClientName string         `short:"c" long:"clientname" mapstructure:"clientname" description:"Unique name for application instance" default:"pg_timetable_web"`
	Config     string         `long:"config" mapstructure:"config" description:"YAML configuration file"`
	Connection ConnectionOpts `group:"Connection" mapstructure:"Connection"`
	Logging    LoggingOpts    `group:"Logging" mapstructure:"Logging"`
	Web        WebOpts        `group:"Web" mapstructure:"Web"`
	Start      StartOpts      `group:"Start" mapstructure:"Start"`
	Version    bool           `short:"v" long:"version" mapstructure:"version" description:"Output detailed version information"`
	// UnknownEnv lists PG_TIMETABLE_* variables not recognized by the application
	UnknownEnv []string `no-flag:"true" mapstructure:"-"`
}

// Verbose returns true if the debug log is enabled
func (c CmdOptions) Verbose() bool {
	return c.Logging.LogLevel == "debug"
}

// VersionOnly returns true if the `--version` is the only argument
func (c CmdOptions) VersionOnly() bool {
	return len(os.Args) == 2 && c.Version
}

// NewCmdOptions returns a new instance of CmdOptions built from args and default values
func NewCmdOptions(args ...string) *CmdOptions {
	cmdOpts, err := newConfig(nil, args, nil)
	if err != nil {
		return new(CmdOptions)
	}
	return cmdOpts
}

// Parse will parse command line arguments
func Parse(writer io.Writer) (*flags.Parser, error) {
	return parse(writer, os.Args[1:])
}

func parse(writer io.Writer, args []string) (*flags.Parser, error) {
	cmdOpts := new(CmdOptions)
	parser := flags.NewParser(cmdOpts, flags.PrintErrors)
	nonOptionArgs, err := parser.ParseArgs(args)
	if err != nil {
		if !flags.WroteHelp(err) {
			parser.WriteHelp(writer)
			return nil, err
		}
	}
	//non-option arguments
	if len(nonOptionArgs) > 0 && cmdOpts.Connection.PgURL == "" {
		if opt := parser.FindOptionByLongName("pgurl"); opt != nil {
			if err := opt.Set(&nonOptionArgs[0]); err != nil {
				return nil, err
			}
		}
	}
	return parser, nil
}
