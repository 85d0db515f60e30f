package config

const (
	EnvPrefix = "INVENTORYPRO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "INVENTORYPRO_APP_ENV"
	EnvPort     = "INVENTORYPRO_APP_PORT"
	EnvLogLevel = "INVENTORYPRO_LOG_LEVEL"

	EnvDBDSN    = "INVENTORYPRO_DB_DSN"
	EnvDBDriver = "INVENTORYPRO_DB_DRIVER"
	EnvDBHost   = "INVENTORYPRO_DB_HOST"
	EnvDBPort   = "INVENTORYPRO_DB_PORT"
	EnvDBUser   = "INVENTORYPRO_DB_USER"
	EnvDBPass   = "INVENTORYPRO_DB_PASSWORD"
	EnvDBName   = "INVENTORYPRO_DB_NAME"
	EnvDBSSL    = "INVENTORYPRO_DB_SSLMODE"

	EnvRedisURL = "INVENTORYPRO_REDIS_URL"

	EnvJWTSecret  = "INVENTORYPRO_JWT_SECRET"
	EnvJWTIssuer  = "INVENTORYPRO_JWT_ISSUER"
	EnvJWTExpMins = "INVENTORYPRO_JWT_EXPIRATION_MINUTES"

	EnvCookieSecure = "INVENTORYPRO_COOKIE_SECURE"

	EnvGCPProjectID    = "INVENTORYPRO_GCP_PROJECT_ID"
	EnvGCSAvatarBucket = "INVENTORYPRO_GCS_AVATAR_BUCKET"
	EnvAvatarMaxMB     = "INVENTORYPRO_AVATAR_MAX_UPLOAD_MB"

	EnvPubSubNotificationTopic = "INVENTORYPRO_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "INVENTORYPRO_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvOutboxMaxAttempts = "INVENTORYPRO_OUTBOX_MAX_ATTEMPTS"
	EnvResendAPIKey      = "INVENTORYPRO_RESEND_API_KEY"
	EnvCORSOrigins       = "INVENTORYPRO_CORS_ALLOWED_ORIGINS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
