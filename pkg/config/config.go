package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"github.com/sweetfrozen/storefront/pkg/enums"
)

const (
	EnvPrefix = "SWEETFROZEN"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv          = "SWEETFROZEN_APP_ENV"
	EnvPort            = "SWEETFROZEN_APP_PORT"
	EnvStorageDriver   = "SWEETFROZEN_STORAGE_DRIVER"
	EnvDBDSN           = "SWEETFROZEN_DB_DSN"
	EnvDBDriver        = "SWEETFROZEN_DB_DRIVER"
	EnvDBHost          = "SWEETFROZEN_DB_HOST"
	EnvDBUser          = "SWEETFROZEN_DB_USER"
	EnvDBName          = "SWEETFROZEN_DB_NAME"
	EnvRedisURL        = "SWEETFROZEN_REDIS_URL"
	EnvJWTSecret       = "SWEETFROZEN_JWT_SECRET"
	EnvJWTIssuer       = "SWEETFROZEN_JWT_ISSUER"
	EnvJWTExpMins      = "SWEETFROZEN_JWT_EXPIRATION_MINUTES"
	EnvFreeShipping    = "SWEETFROZEN_PRICING_FREE_SHIPPING_THRESHOLD"
	EnvShippingFee     = "SWEETFROZEN_PRICING_SHIPPING_FEE"
	EnvCatalogTimeout  = "SWEETFROZEN_CATALOG_LOAD_TIMEOUT"
	EnvProductsURL     = "SWEETFROZEN_CATALOG_PRODUCTS_URL"
	EnvCouponsURL      = "SWEETFROZEN_CATALOG_COUPONS_URL"
	EnvKafkaBrokers    = "SWEETFROZEN_EVENTS_KAFKA_BROKERS"
	EnvPaymentLatency  = "SWEETFROZEN_PAYMENT_LATENCY"
	EnvAutoMigrate     = "SWEETFROZEN_AUTO_MIGRATE"
	EnvOrdersTopicName = "SWEETFROZEN_EVENTS_ORDERS_TOPIC"
)

type Config struct {
	App      AppConfig
	Storage  StorageConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Pricing  PricingConfig
	Catalog  CatalogConfig
	Payment  PaymentConfig
	Events   EventsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if cfg.Storage.Driver == enums.StorageDriverSQL {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if cfg.Storage.Driver == enums.StorageDriverRedis && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("%s is required when storage driver is redis", EnvRedisURL)
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SWEETFROZEN_APP_ENV" required:"true"`
	Port         string `envconfig:"SWEETFROZEN_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SWEETFROZEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SWEETFROZEN_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"SWEETFROZEN_AUTO_MIGRATE" default:"false"`

	CORSOrigins     []string      `envconfig:"SWEETFROZEN_CORS_ORIGINS"`
	ShutdownTimeout time.Duration `envconfig:"SWEETFROZEN_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorageConfig selects the key-value backend that replaces browser storage.
type StorageConfig struct {
	Driver    enums.StorageDriver `envconfig:"SWEETFROZEN_STORAGE_DRIVER" default:"memory"`
	KeyPrefix string              `envconfig:"SWEETFROZEN_STORAGE_KEY_PREFIX" default:"sf"`
}

func (s StorageConfig) validate() error {
	if !s.Driver.IsValid() {
		return fmt.Errorf("invalid storage driver %q", s.Driver)
	}
	return nil
}

type DBConfig struct {
	DSN    string `envconfig:"SWEETFROZEN_DB_DSN"`
	Driver string `envconfig:"SWEETFROZEN_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SWEETFROZEN_DB_HOST"`
	Port     int    `envconfig:"SWEETFROZEN_DB_PORT" default:"5432"`
	User     string `envconfig:"SWEETFROZEN_DB_USER"`
	Password string `envconfig:"SWEETFROZEN_DB_PASSWORD"`
	Name     string `envconfig:"SWEETFROZEN_DB_NAME"`
	SSLMode  string `envconfig:"SWEETFROZEN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SWEETFROZEN_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SWEETFROZEN_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SWEETFROZEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SWEETFROZEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the DSN targets the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"SWEETFROZEN_REDIS_URL"`
	Address      string        `envconfig:"SWEETFROZEN_REDIS_ADDR"`
	Password     string        `envconfig:"SWEETFROZEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"SWEETFROZEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SWEETFROZEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SWEETFROZEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SWEETFROZEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SWEETFROZEN_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"SWEETFROZEN_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SWEETFROZEN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SWEETFROZEN_JWT_ISSUER" default:"sweetfrozen"`
	ExpirationMinutes int    `envconfig:"SWEETFROZEN_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SWEETFROZEN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SWEETFROZEN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SWEETFROZEN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SWEETFROZEN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SWEETFROZEN_ARGON_KEY_LEN" default:"32"`
}

// PricingConfig holds the shipping policy applied to every cart.
type PricingConfig struct {
	FreeShippingThreshold decimal.Decimal `envconfig:"SWEETFROZEN_PRICING_FREE_SHIPPING_THRESHOLD" default:"800"`
	ShippingFee           decimal.Decimal `envconfig:"SWEETFROZEN_PRICING_SHIPPING_FEE" default:"50"`
}

func (p PricingConfig) validate() error {
	if p.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("%s must be non-negative", EnvFreeShipping)
	}
	if p.ShippingFee.IsNegative() {
		return fmt.Errorf("%s must be non-negative", EnvShippingFee)
	}
	return nil
}

// CatalogConfig points at the seed JSON documents. Empty URLs skip the remote tier.
type CatalogConfig struct {
	ProductsURL string        `envconfig:"SWEETFROZEN_CATALOG_PRODUCTS_URL"`
	CouponsURL  string        `envconfig:"SWEETFROZEN_CATALOG_COUPONS_URL"`
	LoadTimeout time.Duration `envconfig:"SWEETFROZEN_CATALOG_LOAD_TIMEOUT" default:"5s"`
}

type PaymentConfig struct {
	Latency time.Duration `envconfig:"SWEETFROZEN_PAYMENT_LATENCY" default:"600ms"`
}

type EventsConfig struct {
	KafkaBrokers []string      `envconfig:"SWEETFROZEN_EVENTS_KAFKA_BROKERS"`
	OrdersTopic  string        `envconfig:"SWEETFROZEN_EVENTS_ORDERS_TOPIC" default:"sweetfrozen.orders"`
	WriteTimeout time.Duration `envconfig:"SWEETFROZEN_EVENTS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether order events should be published.
func (e EventsConfig) Enabled() bool {
	for _, broker := range e.KafkaBrokers {
		if strings.TrimSpace(broker) != "" {
			return true
		}
	}
	return false
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:sweetfrozen.db?cache=shared"
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range []string{EnvDBHost, EnvDBUser, EnvDBName} {
		if values[env] == "" {
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
