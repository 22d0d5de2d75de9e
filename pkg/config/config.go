package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the platform reads.
	EnvPrefix = "AARYA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"AARYA_APP_ENV" required:"true"`
	Port         string `envconfig:"AARYA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AARYA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AARYA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AARYA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"AARYA_DB_DSN"`

	Host     string `envconfig:"AARYA_DB_HOST"`
	Port     int    `envconfig:"AARYA_DB_PORT" default:"5432"`
	User     string `envconfig:"AARYA_DB_USER"`
	Password string `envconfig:"AARYA_DB_PASSWORD"`
	Name     string `envconfig:"AARYA_DB_NAME"`
	SSLMode  string `envconfig:"AARYA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AARYA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AARYA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AARYA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AARYA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	if db.Host == "" {
		missing = append(missing, "AARYA_DB_HOST")
	}
	if db.User == "" {
		missing = append(missing, "AARYA_DB_USER")
	}
	if db.Name == "" {
		missing = append(missing, "AARYA_DB_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("database config incomplete: set AARYA_DB_DSN or %s", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:     db.Name,
		RawQuery: url.Values{"sslmode": []string{db.SSLMode}}.Encode(),
	}
	db.DSN = dsn.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"AARYA_REDIS_URL"`
	Address      string        `envconfig:"AARYA_REDIS_ADDR"`
	Password     string        `envconfig:"AARYA_REDIS_PASSWORD"`
	DB           int           `envconfig:"AARYA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AARYA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AARYA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AARYA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AARYA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AARYA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CheckoutConfig bounds the reservation and payment windows. The exact numbers
// are product decisions surfaced as configuration.
type CheckoutConfig struct {
	ReservationTTL  time.Duration `envconfig:"AARYA_RESERVATION_TTL" default:"15m"`
	PaymentTimeout  time.Duration `envconfig:"AARYA_PAYMENT_TIMEOUT" default:"30m"`
	SweepInterval   time.Duration `envconfig:"AARYA_SWEEP_INTERVAL" default:"1m"`
	CartTTL         time.Duration `envconfig:"AARYA_CART_TTL" default:"168h"`
	CartLockTTL     time.Duration `envconfig:"AARYA_CART_LOCK_TTL" default:"3s"`
	CartLockRetry   time.Duration `envconfig:"AARYA_CART_LOCK_RETRY" default:"25ms"`
	DefaultCurrency string        `envconfig:"AARYA_DEFAULT_CURRENCY" default:"INR"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AARYA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AARYA_AUTO_MIGRATE" default:"false"`
}
