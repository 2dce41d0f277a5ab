package config

import "github.com/cybertec-postgresql/pg_timetable_web/internal/envconfig"

// EnvPrefix is the prefix of all environment variables understood by the application
const EnvPrefix = "PG_TIMETABLE"

// EnvSchema declares supported environment variables
var EnvSchema = envconfig.Schema{
	"DBNAME":   {Value: "postgres", Hint: "name of the database holding the timetable schema"},
	"USER":     {Value: "postgres", Hint: "database user"},
	"PASSWORD": {Value: "", Hint: "database password"},
	"HOST": {
		Value:     "db",
		Validator: envconfig.NotEmpty,
		Hint:      "database host name or address",
	},
	"PORT": {
		Value:       5432,
		Validator:   envconfig.IntRange(1, 65535),
		Transformer: envconfig.ToInt,
		Hint:        "database port, 1-65535",
	},
	"SSLMODE": {
		Value:       "disable",
		Validator:   envconfig.OneOf("disable", "allow", "prefer", "require", "verify-ca", "verify-full"),
		Transformer: envconfig.ToLower,
		Hint:        "libpq sslmode",
	},
	"HTTP_PORT": {
		Value:       5000,
		Validator:   envconfig.IntRange(1, 65535),
		Transformer: envconfig.ToInt,
		Hint:        "port the admin panel listens on",
	},
	"LOGLEVEL": {
		Value:       "info",
		Validator:   envconfig.OneOf("debug", "info", "warn", "error"),
		Transformer: envconfig.ToLower,
		Hint:        "debug, info, warn or error",
	},
}

// envKeys maps environment variables to viper keys
var envKeys = map[string]string{
	"DBNAME":    "Connection.dbname",
	"USER":      "Connection.user",
	"PASSWORD":  "Connection.password",
	"HOST":      "Connection.host",
	"PORT":      "Connection.port",
	"SSLMODE":   "Connection.sslmode",
	"HTTP_PORT": "Web.http-port",
	"LOGLEVEL":  "Logging.log-level",
}
