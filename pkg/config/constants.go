package config

// EnvPrefix scopes all environment variables consumed by envconfig.
const EnvPrefix = "serveteam"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "SERVETEAM_DB_DSN"
	EnvDBHost = "SERVETEAM_DB_HOST"
	EnvDBUser = "SERVETEAM_DB_USER"
	EnvDBName = "SERVETEAM_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
