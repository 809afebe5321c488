package config

const (
	// EnvPrefix is the envconfig prefix shared by every section.
	EnvPrefix = "ECOCYCLE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ECOCYCLE_DB_DSN"
	EnvDBHost = "ECOCYCLE_DB_HOST"
	EnvDBUser = "ECOCYCLE_DB_USER"
	EnvDBName = "ECOCYCLE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
