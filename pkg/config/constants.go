package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:storefront.db?cache=shared&_busy_timeout=5000"
)

// Environment variable names referenced outside of struct tags.
const (
	EnvAppEnv     = "STOREFRONT_APP_ENV"
	EnvPort       = "STOREFRONT_APP_PORT"
	EnvLogLevel   = "STOREFRONT_LOG_LEVEL"
	EnvDBDSN      = "STOREFRONT_DB_DSN"
	EnvDBDriver   = "STOREFRONT_DB_DRIVER"
	EnvDBHost     = "STOREFRONT_DB_HOST"
	EnvDBPort     = "STOREFRONT_DB_PORT"
	EnvDBUser     = "STOREFRONT_DB_USER"
	EnvDBPassword = "STOREFRONT_DB_PASSWORD"
	EnvDBName     = "STOREFRONT_DB_NAME"
	EnvUseSQLite  = "STOREFRONT_USE_SQLITE"
	EnvRedisURL   = "STOREFRONT_REDIS_URL"
	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvCheckoutMaxCharge = "STOREFRONT_CHECKOUT_MAX_CHARGE_AMOUNT"

	EnvGCPProjectID         = "STOREFRONT_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic    = "STOREFRONT_PUBSUB_ORDERS_TOPIC"
	EnvPubSubPaymentsTopic  = "STOREFRONT_PUBSUB_PAYMENTS_TOPIC"
	EnvOutboxMaxAttempts    = "STOREFRONT_OUTBOX_MAX_ATTEMPTS"
	EnvRateLimitPaymentUser = "STOREFRONT_RATE_LIMIT_PAYMENT_USER_LIMIT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
