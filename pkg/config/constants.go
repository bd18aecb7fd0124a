package config

const (
	EnvPrefix = "GREENBUDDY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvDBDSN  = "GREENBUDDY_DB_DSN"
	EnvDBHost = "GREENBUDDY_DB_HOST"
	EnvDBUser = "GREENBUDDY_DB_USER"
	EnvDBName = "GREENBUDDY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
