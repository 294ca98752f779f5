package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Analytics AnalyticsConfig
	Ingest    IngestConfig
	Flags     FeatureFlagsConfig
	CORS      CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Flags.UseSQLite {
		cfg.DB.Driver = "sqlite"
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = "file:pulseboard.db?cache=shared"
		}
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PULSEBOARD_APP_ENV" required:"true"`
	Port         string `envconfig:"PULSEBOARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PULSEBOARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PULSEBOARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PULSEBOARD_DB_DSN"`
	Driver string `envconfig:"PULSEBOARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PULSEBOARD_DB_HOST"`
	LegacyPort     int    `envconfig:"PULSEBOARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PULSEBOARD_DB_USER"`
	LegacyPassword string `envconfig:"PULSEBOARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"PULSEBOARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"PULSEBOARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PULSEBOARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PULSEBOARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PULSEBOARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PULSEBOARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PULSEBOARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PULSEBOARD_REDIS_ADDR"`
	Password     string        `envconfig:"PULSEBOARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"PULSEBOARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PULSEBOARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PULSEBOARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PULSEBOARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PULSEBOARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PULSEBOARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RateLimitConfig throttles the expensive analytics routes. Segmentation
// re-runs clustering on every call, so it gets a tighter budget.
type RateLimitConfig struct {
	Window        time.Duration `envconfig:"PULSEBOARD_RATE_LIMIT_WINDOW" default:"1m"`
	QueryLimit    int           `envconfig:"PULSEBOARD_RATE_LIMIT_QUERY_LIMIT" default:"120"`
	ClusterLimit  int           `envconfig:"PULSEBOARD_RATE_LIMIT_CLUSTER_LIMIT" default:"20"`
	IngestLimit   int           `envconfig:"PULSEBOARD_RATE_LIMIT_INGEST_LIMIT" default:"60"`
	TrustProxyIP  bool          `envconfig:"PULSEBOARD_RATE_LIMIT_TRUST_PROXY_IP" default:"false"`
	FailOpenRedis bool          `envconfig:"PULSEBOARD_RATE_LIMIT_FAIL_OPEN" default:"true"`
}

// AnalyticsConfig carries the metric knobs that have agreed product
// defaults: 30-day retention horizon, 60-day churn window, four RFM
// segments clustered with a fixed seed.
type AnalyticsConfig struct {
	RetentionHorizonDays int `envconfig:"PULSEBOARD_ANALYTICS_RETENTION_DAYS" default:"30"`
	ChurnInactiveDays    int `envconfig:"PULSEBOARD_ANALYTICS_CHURN_DAYS" default:"60"`
	SegmentCount         int `envconfig:"PULSEBOARD_ANALYTICS_SEGMENTS" default:"4"`
	SegmentSeed          int `envconfig:"PULSEBOARD_ANALYTICS_SEGMENT_SEED" default:"42"`
	MovingAverageDays    int `envconfig:"PULSEBOARD_ANALYTICS_MOVING_AVERAGE_DAYS" default:"7"`
}

type IngestConfig struct {
	MaxBatchSize int `envconfig:"PULSEBOARD_INGEST_MAX_BATCH" default:"5000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PULSEBOARD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PULSEBOARD_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PULSEBOARD_CORS_ALLOWED_ORIGINS" default:"*"`
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
