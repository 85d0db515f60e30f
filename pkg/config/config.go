package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Cookie        CookieConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	Inventory     InventoryConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Avatar        AvatarConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Email         EmailConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.App.IsProd() {
		cfg.Cookie.Secure = true
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"INVENTORYPRO_APP_ENV" required:"true"`
	Port         string `envconfig:"INVENTORYPRO_APP_PORT" default:"8080"`
	PublicURL    string `envconfig:"INVENTORYPRO_APP_PUBLIC_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"INVENTORYPRO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"INVENTORYPRO_LOG_WARN_STACK" default:"false"`

	ReadTimeout     time.Duration `envconfig:"INVENTORYPRO_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"INVENTORYPRO_HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"INVENTORYPRO_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"INVENTORYPRO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"INVENTORYPRO_DB_DSN"`
	Driver string `envconfig:"INVENTORYPRO_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"INVENTORYPRO_DB_HOST"`
	Port     int    `envconfig:"INVENTORYPRO_DB_PORT" default:"5432"`
	User     string `envconfig:"INVENTORYPRO_DB_USER"`
	Password string `envconfig:"INVENTORYPRO_DB_PASSWORD"`
	Name     string `envconfig:"INVENTORYPRO_DB_NAME"`
	SSLMode  string `envconfig:"INVENTORYPRO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INVENTORYPRO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INVENTORYPRO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INVENTORYPRO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INVENTORYPRO_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"INVENTORYPRO_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

// IsSQLite reports whether the embedded sqlite driver was requested.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"INVENTORYPRO_REDIS_URL"`
	Address      string        `envconfig:"INVENTORYPRO_REDIS_ADDR"`
	Password     string        `envconfig:"INVENTORYPRO_REDIS_PASSWORD"`
	DB           int           `envconfig:"INVENTORYPRO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INVENTORYPRO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INVENTORYPRO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INVENTORYPRO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INVENTORYPRO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INVENTORYPRO_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"INVENTORYPRO_REDIS_KEY_PREFIX" default:"inv"`
}

type JWTConfig struct {
	Secret            string `envconfig:"INVENTORYPRO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"INVENTORYPRO_JWT_ISSUER" default:"inventorypro"`
	ExpirationMinutes int    `envconfig:"INVENTORYPRO_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type CookieConfig struct {
	Name   string `envconfig:"INVENTORYPRO_COOKIE_NAME" default:"auth-token"`
	Domain string `envconfig:"INVENTORYPRO_COOKIE_DOMAIN"`
	Secure bool   `envconfig:"INVENTORYPRO_COOKIE_SECURE" default:"false"`
}

type PasswordConfig struct {
	MinLength        int `envconfig:"INVENTORYPRO_PASSWORD_MIN_LENGTH" default:"6"`
	ArgonMemoryKB    int `envconfig:"INVENTORYPRO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"INVENTORYPRO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"INVENTORYPRO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"INVENTORYPRO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"INVENTORYPRO_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow          time.Duration `envconfig:"INVENTORYPRO_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIdentityLimit   int           `envconfig:"INVENTORYPRO_AUTH_RATE_LIMIT_LOGIN_IDENTITY_LIMIT" default:"5"`
	LoginIPLimit         int           `envconfig:"INVENTORYPRO_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow         time.Duration `envconfig:"INVENTORYPRO_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupIdentityLimit  int           `envconfig:"INVENTORYPRO_AUTH_RATE_LIMIT_SIGNUP_IDENTITY_LIMIT" default:"3"`
	SignupIPLimit        int           `envconfig:"INVENTORYPRO_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"INVENTORYPRO_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	ConsumerIdempotencyTTL time.Duration `envconfig:"INVENTORYPRO_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type InventoryConfig struct {
	DefaultLowStockLimit int `envconfig:"INVENTORYPRO_DEFAULT_LOW_STOCK_LIMIT" default:"5"`
	AdjustmentMaxRetries int `envconfig:"INVENTORYPRO_ADJUSTMENT_MAX_RETRIES" default:"3"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"INVENTORYPRO_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"INVENTORYPRO_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"INVENTORYPRO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	AvatarBucket  string `envconfig:"INVENTORYPRO_GCS_AVATAR_BUCKET"`
	PublicBaseURL string `envconfig:"INVENTORYPRO_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

type AvatarConfig struct {
	MaxUploadMB int `envconfig:"INVENTORYPRO_AVATAR_MAX_UPLOAD_MB" default:"5"`
}

// MaxBytes returns the avatar upload limit in bytes.
func (a AvatarConfig) MaxBytes() int64 {
	if a.MaxUploadMB <= 0 {
		return 5 << 20
	}
	return int64(a.MaxUploadMB) << 20
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"INVENTORYPRO_PUBSUB_NOTIFICATION_TOPIC" default:"inventorypro-notifications"`
	NotificationSubscription string `envconfig:"INVENTORYPRO_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"inventorypro-notifications-email"`
}

type OutboxConfig struct {
	BatchSize        int `envconfig:"INVENTORYPRO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS   int `envconfig:"INVENTORYPRO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts      int `envconfig:"INVENTORYPRO_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays    int `envconfig:"INVENTORYPRO_OUTBOX_RETENTION_DAYS" default:"30"`
	DLQRetentionDays int `envconfig:"INVENTORYPRO_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
}

type EmailConfig struct {
	ResendAPIKey string `envconfig:"INVENTORYPRO_RESEND_API_KEY"`
	From         string `envconfig:"INVENTORYPRO_EMAIL_FROM" default:"Inventory Alerts <onboarding@resend.dev>"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"INVENTORYPRO_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DBDriverSQLite)
	}

	missing := []string{}
	discreteValues := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if discreteValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
