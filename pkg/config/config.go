package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Store         StoreConfig
	DB            DBConfig
	Redis         RedisConfig
	Operator      OperatorConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the cross-field rules envconfig tags cannot express.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverFile:
		if strings.TrimSpace(c.Store.FilePath) == "" {
			return fmt.Errorf("%s is required for the file store", EnvStoreFilePath)
		}
	case StoreDriverSQL:
		if err := c.DB.validate(); err != nil {
			return err
		}
	case StoreDriverRedis:
		if strings.TrimSpace(c.Store.RedisKey) == "" {
			return fmt.Errorf("%s is required for the redis store", EnvStoreRedisKey)
		}
	default:
		return fmt.Errorf("unsupported %s %q (expected %s, %s or %s)", EnvStoreDriver, c.Store.Driver, StoreDriverFile, StoreDriverSQL, StoreDriverRedis)
	}

	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("%s is required", EnvJWTSecret)
	}
	if c.Operator.Password == "" && c.Operator.PasswordHash == "" {
		return fmt.Errorf("either %s or %s is required", EnvOperatorPassword, EnvOperatorPasswordHash)
	}
	if c.PubSub.Enabled {
		if strings.TrimSpace(c.GCP.ProjectID) == "" {
			return fmt.Errorf("%s is required when pubsub is enabled", EnvGCPProjectID)
		}
		if strings.TrimSpace(c.PubSub.EventsTopic) == "" {
			return fmt.Errorf("%s is required when pubsub is enabled", EnvPubSubEventsTopic)
		}
	}
	return nil
}

type AppConfig struct {
	Env                string   `envconfig:"SONGQUEUE_APP_ENV" default:"dev"`
	Port               string   `envconfig:"SONGQUEUE_APP_PORT" default:"3000"`
	LogLevel           string   `envconfig:"SONGQUEUE_LOG_LEVEL" default:"info"`
	LogFormat          string   `envconfig:"SONGQUEUE_LOG_FORMAT" default:"json"`
	LogWarnStack       bool     `envconfig:"SONGQUEUE_LOG_WARN_STACK" default:"false"`
	CORSAllowedOrigins []string `envconfig:"SONGQUEUE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StoreConfig selects where the queue document lives.
type StoreConfig struct {
	Driver      string        `envconfig:"SONGQUEUE_STORE_DRIVER" default:"file"`
	FilePath    string        `envconfig:"SONGQUEUE_STORE_FILE_PATH" default:"db.json"`
	LockTimeout time.Duration `envconfig:"SONGQUEUE_STORE_LOCK_TIMEOUT" default:"5s"`
	RedisKey    string        `envconfig:"SONGQUEUE_STORE_REDIS_KEY" default:"queue:document"`
}

type DBConfig struct {
	Dialect string `envconfig:"SONGQUEUE_DB_DIALECT" default:"sqlite"`
	DSN     string `envconfig:"SONGQUEUE_DB_DSN" default:"songqueue.db"`

	MaxOpenConns    int           `envconfig:"SONGQUEUE_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"SONGQUEUE_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"SONGQUEUE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SONGQUEUE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) validate() error {
	switch db.Dialect {
	case DialectPostgres, DialectSQLite:
	default:
		return fmt.Errorf("unsupported %s %q (expected %s or %s)", EnvDBDialect, db.Dialect, DialectPostgres, DialectSQLite)
	}
	if strings.TrimSpace(db.DSN) == "" {
		return fmt.Errorf("%s is required for the sql store", EnvDBDSN)
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SONGQUEUE_REDIS_URL"`
	Address      string        `envconfig:"SONGQUEUE_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"SONGQUEUE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SONGQUEUE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SONGQUEUE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SONGQUEUE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SONGQUEUE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SONGQUEUE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SONGQUEUE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// OperatorConfig holds the shared operator credential. PasswordHash is an
// argon2id string; Password is hashed at boot when no hash is supplied.
type OperatorConfig struct {
	Password     string `envconfig:"SONGQUEUE_OPERATOR_PASSWORD"`
	PasswordHash string `envconfig:"SONGQUEUE_OPERATOR_PASSWORD_HASH"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SONGQUEUE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SONGQUEUE_JWT_ISSUER" default:"songqueue"`
	ExpirationMinutes int    `envconfig:"SONGQUEUE_JWT_EXPIRATION_MINUTES" default:"720"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SONGQUEUE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SONGQUEUE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SONGQUEUE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SONGQUEUE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SONGQUEUE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow  time.Duration `envconfig:"SONGQUEUE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit int           `envconfig:"SONGQUEUE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SONGQUEUE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SONGQUEUE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	Enabled        bool          `envconfig:"SONGQUEUE_PUBSUB_ENABLED" default:"false"`
	EventsTopic    string        `envconfig:"SONGQUEUE_PUBSUB_EVENTS_TOPIC" default:"song-request-events"`
	PublishTimeout time.Duration `envconfig:"SONGQUEUE_PUBSUB_PUBLISH_TIMEOUT" default:"5s"`
}
