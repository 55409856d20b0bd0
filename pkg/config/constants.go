package config

// EnvPrefix is empty because every field carries its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StoreDriverFile  = "file"
	StoreDriverSQL   = "sql"
	StoreDriverRedis = "redis"

	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const (
	EnvAppEnv               = "SONGQUEUE_APP_ENV"
	EnvPort                 = "SONGQUEUE_APP_PORT"
	EnvStoreDriver          = "SONGQUEUE_STORE_DRIVER"
	EnvStoreFilePath        = "SONGQUEUE_STORE_FILE_PATH"
	EnvStoreRedisKey        = "SONGQUEUE_STORE_REDIS_KEY"
	EnvDBDialect            = "SONGQUEUE_DB_DIALECT"
	EnvDBDSN                = "SONGQUEUE_DB_DSN"
	EnvRedisURL             = "SONGQUEUE_REDIS_URL"
	EnvOperatorPassword     = "SONGQUEUE_OPERATOR_PASSWORD"
	EnvOperatorPasswordHash = "SONGQUEUE_OPERATOR_PASSWORD_HASH"
	EnvJWTSecret            = "SONGQUEUE_JWT_SECRET"
	EnvJWTExpMins           = "SONGQUEUE_JWT_EXPIRATION_MINUTES"
	EnvCORSAllowedOrigins   = "SONGQUEUE_CORS_ALLOWED_ORIGINS"
	EnvGCPProjectID         = "SONGQUEUE_GCP_PROJECT_ID"
	EnvPubSubEnabled        = "SONGQUEUE_PUBSUB_ENABLED"
	EnvPubSubEventsTopic    = "SONGQUEUE_PUBSUB_EVENTS_TOPIC"
)
