package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata" // report periods are computed in Europe/Berlin

	"github.com/spf13/viper"

	"github.com/m13/backoffice/internal/infrastructure/ecommerce"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Scheduler  SchedulerConfig
	Storage    StorageConfig
	Telemetry  TelemetryConfig
	Feed       FeedConfig
	Accounting AccountingConfig

	Otto     ecommerce.OttoConfig
	Zalando  ecommerce.ZalandoConfig
	AboutYou ecommerce.AboutYouConfig
	Etsy     ecommerce.EtsyConfig
	TikTok   ecommerce.TikTokConfig
	Mirapodo ecommerce.MirapodoConfig
	Galaxus  ecommerce.GalaxusConfig
	Galeria  GaleriaConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name     string
	Env      string
	Port     string
	Timezone string
}

// Location returns the configured time zone, UTC when unknown
func (a AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings.
// An empty host disables the token cache.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds the settings of the API bearer tokens
type JWTConfig struct {
	Secret                string
	Issuer                string
	AccessTokenExpiration time.Duration
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// SchedulerConfig holds the sync job runner configuration
type SchedulerConfig struct {
	Enabled           bool
	Interval          time.Duration
	Jobs              []string // trigger rules: "type", "type:target", "type@HH:MM"
	MaxConcurrentJobs int
	QueueSize         int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	JobRetentionDays  int
}

// StorageConfig holds the file archive configuration.
// Backend "local" writes below LocalDir, "s3" uses the bucket settings.
type StorageConfig struct {
	Backend           string
	LocalDir          string
	Endpoint          string
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	LogsEnabled       bool
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings
	// Continuous profiling (Pyroscope)
	ProfilingEnabled bool
	ProfilingAddress string
	SpanProfiles     bool // attach span ids to CPU profiles
}

// FeedConfig holds the shop feed sources
type FeedConfig struct {
	ShopFeedURL     string
	JSONStockURL    string
	Blacklist       []string
	DownloadTimeout time.Duration
}

// GaleriaConfig holds the Galeria feed settings
type GaleriaConfig struct {
	Enabled bool
	FeedURL string
}

// AccountingConfig holds the DATEV account numbers of the Zalando export
type AccountingConfig struct {
	ZalandoOffsetAccount  int
	ZalandoRevenueAccount int
	OnlineFeeAccount      int
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with M13_ prefix (e.g., M13_OTTO_PASSWORD)
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
	}

	v.SetEnvPrefix("M13")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			Port:     v.GetString("app.port"),
			Timezone: v.GetString("app.timezone"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
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
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			Issuer:                v.GetString("jwt.issuer"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Scheduler: SchedulerConfig{
			Enabled:           v.GetBool("scheduler.enabled"),
			Interval:          v.GetDuration("scheduler.interval"),
			Jobs:              v.GetStringSlice("scheduler.jobs"),
			MaxConcurrentJobs: v.GetInt("scheduler.max_concurrent_jobs"),
			QueueSize:         v.GetInt("scheduler.queue_size"),
			JobTimeout:        v.GetDuration("scheduler.job_timeout"),
			RetryAttempts:     v.GetInt("scheduler.retry_attempts"),
			RetryDelay:        v.GetDuration("scheduler.retry_delay"),
			JobRetentionDays:  v.GetInt("scheduler.job_retention_days"),
		},
		Storage: StorageConfig{
			Backend:           v.GetString("storage.backend"),
			LocalDir:          v.GetString("storage.local_dir"),
			Endpoint:          v.GetString("storage.endpoint"),
			Region:            v.GetString("storage.region"),
			Bucket:            v.GetString("storage.bucket"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			ProfilingAddress:  v.GetString("telemetry.profiling_address"),
			SpanProfiles:      v.GetBool("telemetry.span_profiles"),
		},
		Feed: FeedConfig{
			ShopFeedURL:     v.GetString("feed.shop_feed_url"),
			JSONStockURL:    v.GetString("feed.json_stock_url"),
			Blacklist:       v.GetStringSlice("feed.blacklist"),
			DownloadTimeout: v.GetDuration("feed.download_timeout"),
		},
		Accounting: AccountingConfig{
			ZalandoOffsetAccount:  v.GetInt("accounting.zalando_offset_account"),
			ZalandoRevenueAccount: v.GetInt("accounting.zalando_revenue_account"),
			OnlineFeeAccount:      v.GetInt("accounting.online_fee_account"),
		},
		Otto: ecommerce.OttoConfig{
			Enabled:           v.GetBool("otto.enabled"),
			BaseURL:           v.GetString("otto.base_url"),
			Username:          v.GetString("otto.username"),
			Password:          v.GetString("otto.password"),
			FallbackEmail:     v.GetString("otto.fallback_email"),
			OrderLookbackDays: v.GetInt("otto.order_lookback_days"),
			RequestsPerSecond: v.GetFloat64("otto.requests_per_second"),
			TimeoutSeconds:    v.GetInt("otto.timeout_seconds"),
		},
		Zalando: ecommerce.ZalandoConfig{
			Enabled:        v.GetBool("zalando.enabled"),
			ImporterURL:    v.GetString("zalando.importer_url"),
			ClientID:       v.GetString("zalando.client_id"),
			APIKey:         v.GetString("zalando.api_key"),
			WebhookToken:   v.GetString("zalando.webhook_token"),
			TimeoutSeconds: v.GetInt("zalando.timeout_seconds"),
		},
		AboutYou: ecommerce.AboutYouConfig{
			Enabled:           v.GetBool("aboutyou.enabled"),
			BaseURL:           v.GetString("aboutyou.base_url"),
			APIKey:            v.GetString("aboutyou.api_key"),
			CarrierKey:        v.GetString("aboutyou.carrier_key"),
			CountryCode:       v.GetString("aboutyou.country_code"),
			RequestsPerSecond: v.GetFloat64("aboutyou.requests_per_second"),
			TimeoutSeconds:    v.GetInt("aboutyou.timeout_seconds"),
		},
		Etsy: ecommerce.EtsyConfig{
			Enabled:           v.GetBool("etsy.enabled"),
			BaseURL:           v.GetString("etsy.base_url"),
			AuthURL:           v.GetString("etsy.auth_url"),
			APIKey:            v.GetString("etsy.api_key"),
			ShopID:            v.GetString("etsy.shop_id"),
			OrderLookbackDays: v.GetInt("etsy.order_lookback_days"),
			MaxQuantity:       v.GetInt("etsy.max_quantity"),
			RequestsPerSecond: v.GetFloat64("etsy.requests_per_second"),
			TimeoutSeconds:    v.GetInt("etsy.timeout_seconds"),
		},
		TikTok: ecommerce.TikTokConfig{
			Enabled:            v.GetBool("tiktok.enabled"),
			AppKey:             v.GetString("tiktok.app_key"),
			AppSecret:          v.GetString("tiktok.app_secret"),
			APIBaseURL:         v.GetString("tiktok.api_base_url"),
			AuthBaseURL:        v.GetString("tiktok.auth_base_url"),
			ShippingProviderID: v.GetString("tiktok.shipping_provider_id"),
			PageSize:           v.GetInt("tiktok.page_size"),
			RequestsPerSecond:  v.GetFloat64("tiktok.requests_per_second"),
			TimeoutSeconds:     v.GetInt("tiktok.timeout_seconds"),
		},
		Mirapodo: ecommerce.MirapodoConfig{
			Enabled:        v.GetBool("mirapodo.enabled"),
			OrderImportURL: v.GetString("mirapodo.order_import_url"),
			MessagesURL:    v.GetString("mirapodo.messages_url"),
			HNR:            v.GetString("mirapodo.hnr"),
			Username:       v.GetString("mirapodo.username"),
			Password:       v.GetString("mirapodo.password"),
			Carrier:        v.GetString("mirapodo.carrier"),
			DeliveryFee:    v.GetString("mirapodo.delivery_fee"),
			FallbackEmail:  v.GetString("mirapodo.fallback_email"),
			TimeoutSeconds: v.GetInt("mirapodo.timeout_seconds"),
		},
		Galaxus: ecommerce.GalaxusConfig{
			Enabled:        v.GetBool("galaxus.enabled"),
			Host:           v.GetString("galaxus.host"),
			Port:           v.GetInt("galaxus.port"),
			Username:       v.GetString("galaxus.username"),
			Password:       v.GetString("galaxus.password"),
			HostKey:        v.GetString("galaxus.host_key"),
			Environment:    v.GetString("galaxus.environment"),
			DeliveryFee:    v.GetString("galaxus.delivery_fee"),
			FallbackEmail:  v.GetString("galaxus.fallback_email"),
			TimeoutSeconds: v.GetInt("galaxus.timeout_seconds"),
		},
		Galeria: GaleriaConfig{
			Enabled: v.GetBool("galeria.enabled"),
			FeedURL: v.GetString("galeria.feed_url"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields.
// Marketplace sections get their defaults from the adapter Validate methods.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "m13-backoffice"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Timezone == "" {
		cfg.App.Timezone = "Europe/Berlin"
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
		cfg.Database.DBName = "m13"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
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
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "m13-backoffice"
	}
	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 12 * time.Hour
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
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 120 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 32 << 20 // report files can be large
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// no CORS origin fallback: an empty list allows no cross-origin requests
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = time.Hour
	}
	if len(cfg.Scheduler.Jobs) == 0 {
		cfg.Scheduler.Jobs = []string{"order_import", "stock_sync", "report_import@06:30"}
	}
	if cfg.Scheduler.MaxConcurrentJobs == 0 {
		cfg.Scheduler.MaxConcurrentJobs = 3
	}
	if cfg.Scheduler.QueueSize == 0 {
		cfg.Scheduler.QueueSize = 100
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 30 * time.Minute
	}
	if cfg.Scheduler.RetryAttempts == 0 {
		cfg.Scheduler.RetryAttempts = 3
	}
	if cfg.Scheduler.RetryDelay == 0 {
		cfg.Scheduler.RetryDelay = time.Minute
	}
	if cfg.Scheduler.JobRetentionDays == 0 {
		cfg.Scheduler.JobRetentionDays = 30
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "local"
	}
	if cfg.Storage.LocalDir == "" {
		cfg.Storage.LocalDir = "./data"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "eu-central-1"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "m13-backoffice"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Feed.DownloadTimeout == 0 {
		cfg.Feed.DownloadTimeout = 2 * time.Minute
	}
	if cfg.Accounting.ZalandoOffsetAccount == 0 {
		cfg.Accounting.ZalandoOffsetAccount = 11600
	}
	if cfg.Accounting.ZalandoRevenueAccount == 0 {
		cfg.Accounting.ZalandoRevenueAccount = 8405
	}
	if cfg.Accounting.OnlineFeeAccount == 0 {
		cfg.Accounting.OnlineFeeAccount = 3101
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
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

	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("storage.backend must be local or s3, got %q", c.Storage.Backend)
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Zalando.Enabled && c.Zalando.WebhookToken == "" {
			return fmt.Errorf("zalando.webhook_token is required in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.ProfilingEnabled && c.Telemetry.ProfilingAddress == "" {
		return fmt.Errorf("telemetry.profiling_address is required when profiling is enabled")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
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
