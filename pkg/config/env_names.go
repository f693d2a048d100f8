package config

// EnvPrefix namespaces every variable envconfig processes.
const EnvPrefix = "PIXOBE"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "PIXOBE_APP_ENV"
	EnvPort   = "PIXOBE_APP_PORT"

	EnvDBDSN  = "PIXOBE_DB_DSN"
	EnvDBHost = "PIXOBE_DB_HOST"
	EnvDBUser = "PIXOBE_DB_USER"
	EnvDBName = "PIXOBE_DB_NAME"

	EnvRedisURL = "PIXOBE_REDIS_URL"

	EnvShopifyAPIKey    = "PIXOBE_SHOPIFY_API_KEY"
	EnvShopifyAPISecret = "PIXOBE_SHOPIFY_API_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
