package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Cart      CartConfig
	Storage   StorageConfig
	Checkout  CheckoutConfig
	Webpay    WebpayConfig
	Kafka     KafkaConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// Snapshot backends for cart persistence
const (
	SnapshotBackendMemory   = "memory"
	SnapshotBackendRedis    = "redis"
	SnapshotBackendDatabase = "database"
	SnapshotBackendS3       = "s3"
)

// CartConfig holds cart persistence and session settings
type CartConfig struct {
	SnapshotBackend    string        // memory, redis, database, s3
	SnapshotKeyPrefix  string        // durable slot key prefix, one key per session
	SnapshotTTL        time.Duration // how long an untouched snapshot is kept (redis, memory)
	SessionIdleTimeout time.Duration // idle carts are dropped from memory after this
	SessionCookie      string
	SessionHeader      string
	SessionSecret      string
	SessionTTL         time.Duration
	CookieSecure       bool
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
}

// Payment gateways
const (
	GatewaySimulated = "simulated"
	GatewayWebpay    = "webpay"
)

// CheckoutConfig holds checkout flow settings
type CheckoutConfig struct {
	Gateway    string // simulated or webpay
	ReturnURL  string // where the gateway sends the shopper back with token_ws
	SuccessURL string
	FailureURL string
	RateLimit  int           // checkout starts per client IP and window; negative disables
	RateWindow time.Duration // window of RateLimit
}

// WebpayConfig holds Transbank Webpay Plus credentials
type WebpayConfig struct {
	BaseURL      string
	CommerceCode string
	APIKey       string
	Timeout      time.Duration
}

// KafkaConfig holds order event publishing settings
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled               bool    // Whether to enable OpenTelemetry
	CollectorEndpoint     string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio         float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName           string  // Service name for traces
	Insecure              bool    // Use insecure (non-TLS) connection (development only)
	MetricsExportInterval time.Duration
	LogsEnabled           bool // Export logs through the OTLP pipeline
	ProfilingEnabled      bool
	PyroscopeEndpoint     string
	DBTraceEnabled        bool // Enable database query tracing (otelgorm)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STOREFRONT_ prefix (e.g., STOREFRONT_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Cart: CartConfig{
			SnapshotBackend:    v.GetString("cart.snapshot_backend"),
			SnapshotKeyPrefix:  v.GetString("cart.snapshot_key_prefix"),
			SnapshotTTL:        v.GetDuration("cart.snapshot_ttl"),
			SessionIdleTimeout: v.GetDuration("cart.session_idle_timeout"),
			SessionCookie:      v.GetString("cart.session_cookie"),
			SessionHeader:      v.GetString("cart.session_header"),
			SessionSecret:      v.GetString("cart.session_secret"),
			SessionTTL:         v.GetDuration("cart.session_ttl"),
			CookieSecure:       v.GetBool("cart.cookie_secure"),
		},
		Storage: StorageConfig{
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			Bucket:       v.GetString("storage.bucket"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			UseSSL:       v.GetBool("storage.use_ssl"),
			UsePathStyle: v.GetBool("storage.use_path_style"),
		},
		Checkout: CheckoutConfig{
			Gateway:    v.GetString("checkout.gateway"),
			ReturnURL:  v.GetString("checkout.return_url"),
			SuccessURL: v.GetString("checkout.success_url"),
			FailureURL: v.GetString("checkout.failure_url"),
			RateLimit:  v.GetInt("checkout.rate_limit"),
			RateWindow: v.GetDuration("checkout.rate_window"),
		},
		Webpay: WebpayConfig{
			BaseURL:      v.GetString("webpay.base_url"),
			CommerceCode: v.GetString("webpay.commerce_code"),
			APIKey:       v.GetString("webpay.api_key"),
			Timeout:      v.GetDuration("webpay.timeout"),
		},
		Kafka: KafkaConfig{
			Enabled:      v.GetBool("kafka.enabled"),
			Brokers:      v.GetStringSlice("kafka.brokers"),
			Topic:        v.GetString("kafka.topic"),
			WriteTimeout: v.GetDuration("kafka.write_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:               v.GetBool("telemetry.enabled"),
			CollectorEndpoint:     v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:         v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:           v.GetString("telemetry.service_name"),
			Insecure:              v.GetBool("telemetry.insecure"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
			LogsEnabled:           v.GetBool("telemetry.logs_enabled"),
			ProfilingEnabled:      v.GetBool("telemetry.profiling_enabled"),
			PyroscopeEndpoint:     v.GetString("telemetry.pyroscope_endpoint"),
			DBTraceEnabled:        v.GetBool("telemetry.db_trace_enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "jhk-storefront"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "jhk"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "storefront.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// WriteTimeout stays 0 unless configured: SSE streams hold the response open.
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	// An empty origin list means no cross-origin requests until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID", "X-Cart-Session"}
	}
	if cfg.Cart.SnapshotBackend == "" {
		cfg.Cart.SnapshotBackend = SnapshotBackendMemory
	}
	if cfg.Cart.SnapshotKeyPrefix == "" {
		cfg.Cart.SnapshotKeyPrefix = "jerkhome_cart"
	}
	if cfg.Cart.SnapshotTTL == 0 {
		cfg.Cart.SnapshotTTL = 30 * 24 * time.Hour
	}
	if cfg.Cart.SessionIdleTimeout == 0 {
		cfg.Cart.SessionIdleTimeout = 30 * time.Minute
	}
	if cfg.Cart.SessionCookie == "" {
		cfg.Cart.SessionCookie = "cart_session"
	}
	if cfg.Cart.SessionHeader == "" {
		cfg.Cart.SessionHeader = "X-Cart-Session"
	}
	if cfg.Cart.SessionTTL == 0 {
		cfg.Cart.SessionTTL = 30 * 24 * time.Hour
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "jhk-carts"
	}
	if cfg.Checkout.Gateway == "" {
		cfg.Checkout.Gateway = GatewaySimulated
	}
	if cfg.Checkout.ReturnURL == "" {
		cfg.Checkout.ReturnURL = "http://localhost:3000/webpay/callback"
	}
	if cfg.Checkout.SuccessURL == "" {
		cfg.Checkout.SuccessURL = "http://localhost:3000/checkout/exito"
	}
	if cfg.Checkout.FailureURL == "" {
		cfg.Checkout.FailureURL = "http://localhost:3000/checkout/error"
	}
	if cfg.Checkout.RateLimit == 0 {
		cfg.Checkout.RateLimit = 10
	}
	if cfg.Checkout.RateWindow <= 0 {
		cfg.Checkout.RateWindow = time.Minute
	}
	if cfg.Webpay.BaseURL == "" {
		cfg.Webpay.BaseURL = "https://webpay3gint.transbank.cl"
	}
	if cfg.Webpay.Timeout == 0 {
		cfg.Webpay.Timeout = 30 * time.Second
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "storefront.orders.paid"
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = 10 * time.Second
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 60 * time.Second
	}
	if cfg.Telemetry.PyroscopeEndpoint == "" {
		cfg.Telemetry.PyroscopeEndpoint = "http://localhost:4040"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Cart.SnapshotBackend {
	case SnapshotBackendMemory, SnapshotBackendRedis, SnapshotBackendDatabase, SnapshotBackendS3:
	default:
		return fmt.Errorf("cart.snapshot_backend must be one of memory, redis, database, s3, got %q", c.Cart.SnapshotBackend)
	}

	switch c.Checkout.Gateway {
	case GatewaySimulated, GatewayWebpay:
	default:
		return fmt.Errorf("checkout.gateway must be simulated or webpay, got %q", c.Checkout.Gateway)
	}
	if c.Checkout.Gateway == GatewayWebpay && (c.Webpay.CommerceCode == "" || c.Webpay.APIKey == "") {
		return fmt.Errorf("webpay.commerce_code and webpay.api_key are required when checkout.gateway is webpay")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if len(c.Cart.SessionSecret) < 32 {
			return fmt.Errorf("cart.session_secret must be at least 32 characters in production")
		}
		if c.Database.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		if !c.Cart.CookieSecure {
			return fmt.Errorf("cart.cookie_secure must be true in production (HTTPS required for secure cookies)")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Checkout.Gateway == GatewaySimulated {
			return fmt.Errorf("checkout.gateway cannot be 'simulated' in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns host:port for the Redis client
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
