package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Shopify      ShopifyConfig
	Designer     DesignerConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PIXOBE_APP_ENV" required:"true"`
	Port         string `envconfig:"PIXOBE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PIXOBE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PIXOBE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PIXOBE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PIXOBE_DB_DSN"`
	Driver string `envconfig:"PIXOBE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PIXOBE_DB_HOST"`
	LegacyPort     int    `envconfig:"PIXOBE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PIXOBE_DB_USER"`
	LegacyPassword string `envconfig:"PIXOBE_DB_PASSWORD"`
	LegacyName     string `envconfig:"PIXOBE_DB_NAME"`
	LegacySSLMode  string `envconfig:"PIXOBE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PIXOBE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PIXOBE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PIXOBE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PIXOBE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PIXOBE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PIXOBE_REDIS_ADDR"`
	Password     string        `envconfig:"PIXOBE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PIXOBE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PIXOBE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PIXOBE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PIXOBE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PIXOBE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PIXOBE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ShopifyConfig holds the embedded-app credentials and admin API settings.
type ShopifyConfig struct {
	APIKey        string        `envconfig:"PIXOBE_SHOPIFY_API_KEY" required:"true"`
	APISecret     string        `envconfig:"PIXOBE_SHOPIFY_API_SECRET" required:"true"`
	APIVersion    string        `envconfig:"PIXOBE_SHOPIFY_API_VERSION" default:"2025-01"`
	Timeout       time.Duration `envconfig:"PIXOBE_SHOPIFY_TIMEOUT" default:"30s"`
	RetryAttempts int           `envconfig:"PIXOBE_SHOPIFY_RETRY_ATTEMPTS" default:"3"`
}

// DesignerConfig pins the metafield/metaobject identifiers the app owns.
type DesignerConfig struct {
	MetafieldNamespace string        `envconfig:"PIXOBE_DESIGNER_METAFIELD_NAMESPACE" default:"pixobe"`
	MediaMetafieldKey  string        `envconfig:"PIXOBE_DESIGNER_MEDIA_KEY" default:"designer_media"`
	SettingsKey        string        `envconfig:"PIXOBE_DESIGNER_SETTINGS_KEY" default:"settings"`
	MetaobjectType     string        `envconfig:"PIXOBE_DESIGNER_METAOBJECT_TYPE" default:"pixobe_designer_config"`
	HandlePrefix       string        `envconfig:"PIXOBE_DESIGNER_HANDLE_PREFIX" default:"pixobe-design"`
	SettingsCacheTTL   time.Duration `envconfig:"PIXOBE_DESIGNER_SETTINGS_CACHE_TTL" default:"5m"`
}

type RateLimitConfig struct {
	Window   time.Duration `envconfig:"PIXOBE_RATE_LIMIT_WINDOW" default:"1m"`
	Requests int           `envconfig:"PIXOBE_RATE_LIMIT_REQUESTS" default:"120"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PIXOBE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PIXOBE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PIXOBE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PIXOBE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PIXOBE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	SweepTopic        string `envconfig:"PIXOBE_PUBSUB_SWEEP_TOPIC" default:"pixobe-designer-sweep"`
	SweepSubscription string `envconfig:"PIXOBE_PUBSUB_SWEEP_SUBSCRIPTION"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
