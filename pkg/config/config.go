package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	Checkout     CheckoutConfig
	Razorpay     RazorpayConfig
	Payments     PaymentsConfig
	PubSub       PubSubConfig
	Sendgrid     SendgridConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TOKRI_APP_ENV" required:"true"`
	Port         string `envconfig:"TOKRI_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TOKRI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TOKRI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TOKRI_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TOKRI_DB_DSN"`
	Driver string `envconfig:"TOKRI_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TOKRI_DB_HOST"`
	LegacyPort     int    `envconfig:"TOKRI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TOKRI_DB_USER"`
	LegacyPassword string `envconfig:"TOKRI_DB_PASSWORD"`
	LegacyName     string `envconfig:"TOKRI_DB_NAME"`
	LegacySSLMode  string `envconfig:"TOKRI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TOKRI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TOKRI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TOKRI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TOKRI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TOKRI_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TOKRI_REDIS_ADDR"`
	Password     string        `envconfig:"TOKRI_REDIS_PASSWORD"`
	DB           int           `envconfig:"TOKRI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TOKRI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TOKRI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TOKRI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TOKRI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TOKRI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TOKRI_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TOKRI_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TOKRI_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token TTL configured in minutes.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TOKRI_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TOKRI_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"TOKRI_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

// CheckoutConfig carries the pricing knobs. Amounts are parsed from strings
// so they stay decimal-exact instead of round-tripping through float64.
type CheckoutConfig struct {
	FreeDeliveryThreshold string `envconfig:"TOKRI_CHECKOUT_FREE_DELIVERY_THRESHOLD" default:"999"`
	FlatDeliveryCharge    string `envconfig:"TOKRI_CHECKOUT_FLAT_DELIVERY_CHARGE" default:"99"`
	CODSurcharge          string `envconfig:"TOKRI_CHECKOUT_COD_SURCHARGE" default:"49"`
	Currency              string `envconfig:"TOKRI_CHECKOUT_CURRENCY" default:"INR"`
}

func (c CheckoutConfig) validate() error {
	for name, raw := range map[string]string{
		EnvCheckoutFreeDeliveryThreshold: c.FreeDeliveryThreshold,
		EnvCheckoutFlatDeliveryCharge:    c.FlatDeliveryCharge,
		EnvCheckoutCODSurcharge:          c.CODSurcharge,
	} {
		if _, err := decimal.NewFromString(raw); err != nil {
			return fmt.Errorf("%s: invalid decimal %q: %w", name, raw, err)
		}
	}
	return nil
}

// FreeDeliveryThresholdAmount returns the subtotal above which delivery is free.
func (c CheckoutConfig) FreeDeliveryThresholdAmount() decimal.Decimal {
	return decimal.RequireFromString(c.FreeDeliveryThreshold)
}

func (c CheckoutConfig) FlatDeliveryChargeAmount() decimal.Decimal {
	return decimal.RequireFromString(c.FlatDeliveryCharge)
}

func (c CheckoutConfig) CODSurchargeAmount() decimal.Decimal {
	return decimal.RequireFromString(c.CODSurcharge)
}

type RazorpayConfig struct {
	KeyID     string `envconfig:"TOKRI_RAZORPAY_KEY_ID"`
	KeySecret string `envconfig:"TOKRI_RAZORPAY_KEY_SECRET"`
}

type PaymentsConfig struct {
	PendingTTL time.Duration `envconfig:"TOKRI_PAYMENT_PENDING_TTL" default:"24h"`
}

type PubSubConfig struct {
	ProjectID                string `envconfig:"TOKRI_PUBSUB_PROJECT_ID" required:"true"`
	OrdersTopic              string `envconfig:"TOKRI_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription       string `envconfig:"TOKRI_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"TOKRI_PUBSUB_NOTIFICATION_TOPIC" default:"tokri-notification-events"`
	NotificationSubscription string `envconfig:"TOKRI_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"TOKRI_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"TOKRI_SENDGRID_FROM_EMAIL"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TOKRI_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TOKRI_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TOKRI_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
