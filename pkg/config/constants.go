package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for variables without a tag.
const EnvPrefix = "adesiva"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	GatewayModeReal = "real"
	GatewayModeMock = "mock"
)

const (
	EnvDBDSN  = "ADESIVA_DB_DSN"
	EnvDBHost = "ADESIVA_DB_HOST"
	EnvDBUser = "ADESIVA_DB_USER"
	EnvDBName = "ADESIVA_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
