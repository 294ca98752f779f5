package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "pulseboard"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Env var names referenced outside struct tags (error messages, tests).
const (
	EnvAppEnv   = "PULSEBOARD_APP_ENV"
	EnvPort     = "PULSEBOARD_APP_PORT"
	EnvDBDSN    = "PULSEBOARD_DB_DSN"
	EnvDBHost   = "PULSEBOARD_DB_HOST"
	EnvDBUser   = "PULSEBOARD_DB_USER"
	EnvDBName   = "PULSEBOARD_DB_NAME"
	EnvRedisURL = "PULSEBOARD_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
