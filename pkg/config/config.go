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
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	AbacatePay   AbacatePayConfig
	Stripe       StripeConfig
	Checkout     CheckoutConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Reconcile    ReconcileConfig
	Outbox       OutboxConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	// The mock gateway fabricates PAID statuses; letting it reach a
	// production reconciler would mint confirmed orders.
	if cfg.AbacatePay.IsMock() && cfg.App.IsProd() {
		return nil, fmt.Errorf("abacatepay mock mode is not allowed in production")
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ADESIVA_APP_ENV" required:"true"`
	Port         string `envconfig:"ADESIVA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ADESIVA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ADESIVA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ADESIVA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ADESIVA_DB_DSN"`
	Driver string `envconfig:"ADESIVA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"ADESIVA_DB_HOST"`
	Port     int    `envconfig:"ADESIVA_DB_PORT" default:"5432"`
	User     string `envconfig:"ADESIVA_DB_USER"`
	Password string `envconfig:"ADESIVA_DB_PASSWORD"`
	Name     string `envconfig:"ADESIVA_DB_NAME"`
	SSLMode  string `envconfig:"ADESIVA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ADESIVA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ADESIVA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ADESIVA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ADESIVA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ADESIVA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ADESIVA_REDIS_ADDR"`
	Password     string        `envconfig:"ADESIVA_REDIS_PASSWORD"`
	DB           int           `envconfig:"ADESIVA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ADESIVA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ADESIVA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ADESIVA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ADESIVA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ADESIVA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ADESIVA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ADESIVA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ADESIVA_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ADESIVA_AUTO_MIGRATE" default:"false"`
}

// AbacatePayConfig configures the PIX/boleto gateway client. Mode selects the
// real HTTP client or the deterministic fake at startup.
type AbacatePayConfig struct {
	APIKey        string        `envconfig:"ADESIVA_ABACATEPAY_API_KEY"`
	BaseURL       string        `envconfig:"ADESIVA_ABACATEPAY_BASE_URL" default:"https://api.abacatepay.com/v1"`
	WebhookSecret string        `envconfig:"ADESIVA_ABACATEPAY_WEBHOOK_SECRET"`
	Mode          string        `envconfig:"ADESIVA_ABACATEPAY_MODE" default:"real"`
	Timeout       time.Duration `envconfig:"ADESIVA_ABACATEPAY_TIMEOUT" default:"15s"`
	PixExpiryMin  int           `envconfig:"ADESIVA_ABACATEPAY_PIX_EXPIRY_MINUTES" default:"30"`
}

// IsMock reports whether the fake gateway was requested.
func (a AbacatePayConfig) IsMock() bool {
	return strings.EqualFold(strings.TrimSpace(a.Mode), GatewayModeMock)
}

type StripeConfig struct {
	APIKey string `envconfig:"ADESIVA_STRIPE_API_KEY"`
	Secret string `envconfig:"ADESIVA_STRIPE_SECRET"`
	Env    string `envconfig:"ADESIVA_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// CheckoutConfig carries the storefront URLs the payment providers redirect
// the shopper back to.
type CheckoutConfig struct {
	StorefrontURL string `envconfig:"ADESIVA_STOREFRONT_URL" default:"https://loja.adesiva.com.br"`
}

// SuccessURL is where the processor sends the shopper after payment.
func (c CheckoutConfig) SuccessURL(orderID string) string {
	return c.StorefrontURL + "/pedidos/" + orderID + "?status=success"
}

// CancelURL is where the processor sends the shopper after abandoning payment.
func (c CheckoutConfig) CancelURL(orderID string) string {
	return c.StorefrontURL + "/pedidos/" + orderID + "?status=cancelled"
}

type GCPConfig struct {
	ProjectID string `envconfig:"ADESIVA_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	NotificationTopic string `envconfig:"ADESIVA_PUBSUB_NOTIFICATION_TOPIC" default:"adesiva-notification-events"`
}

type ReconcileConfig struct {
	Interval      time.Duration `envconfig:"ADESIVA_RECONCILE_INTERVAL" default:"30s"`
	PendingSweep  time.Duration `envconfig:"ADESIVA_PENDING_SWEEP_INTERVAL" default:"5m"`
	LockTTL       time.Duration `envconfig:"ADESIVA_RECONCILE_LOCK_TTL" default:"2m"`
	SweepBatch    int           `envconfig:"ADESIVA_RECONCILE_SWEEP_BATCH" default:"100"`
	StaleAfterMin int           `envconfig:"ADESIVA_RECONCILE_STALE_AFTER_MINUTES" default:"1"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ADESIVA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ADESIVA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ADESIVA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type RateLimitConfig struct {
	RefreshWindow time.Duration `envconfig:"ADESIVA_RATE_LIMIT_REFRESH_WINDOW" default:"1m"`
	RefreshLimit  int           `envconfig:"ADESIVA_RATE_LIMIT_REFRESH_LIMIT" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
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
