package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// EWASTE_-prefixed tags so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "EWASTE_DB_DSN"
	EnvDBHost = "EWASTE_DB_HOST"
	EnvDBUser = "EWASTE_DB_USER"
	EnvDBName = "EWASTE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const (
	EnvAppEnv                 = "EWASTE_APP_ENV"
	EnvPort                   = "EWASTE_APP_PORT"
	EnvRedisURL               = "EWASTE_REDIS_URL"
	EnvJWTSecret              = "EWASTE_JWT_SECRET"
	EnvJWTIssuer              = "EWASTE_JWT_ISSUER"
	EnvJWTExpMins             = "EWASTE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "EWASTE_REFRESH_TOKEN_TTL_MINUTES"
)
