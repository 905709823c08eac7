package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig
	HTTP         HTTPConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Log          LogConfig
	Telemetry    TelemetryConfig
	JWT          JWTConfig
	Billing      BillingConfig
	Reminder     ReminderConfig
	Notification NotificationConfig
	Receipt      ReceiptConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxHeaderBytes    int
	SwaggerEnabled    bool
	SwaggerAllowedIPs []string
	TrustedProxies    []string
	CORSOrigins       []string
	MaxBodyBytes      int64
	RateLimit         float64 // requests per second per client, 0 disables limiting
	RateBurst         int
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
	LogLevel        string
	// AutoMigrate applies the embedded schema migrations at server start
	AutoMigrate bool
}

// RedisConfig holds Redis connection settings.
// An empty Host disables Redis and the in-process lock is used instead.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	MetricsInterval   time.Duration
	LogExportEnabled  bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration
}

// JWTConfig holds bearer token verification settings.
// An empty Secret turns authentication off and actors are taken from headers.
type JWTConfig struct {
	Secret string
	Issuer string
}

// BillingConfig holds ledger defaults
type BillingConfig struct {
	Locale             string
	HostelName         string
	HostelPhone        string
	HostelEmail        string
	PaymentLinkBaseURL string
}

// ReminderConfig holds scheduler driver settings
type ReminderConfig struct {
	Enabled        bool
	HourlySchedule string
	DailySchedule  string
	BatchSize      int
	Workers        int
	QueueSize      int
	JobTimeout     time.Duration
	LockTTL        time.Duration
	FailureBackoff time.Duration
}

// NotificationConfig holds outbound notification settings
type NotificationConfig struct {
	Timeout         time.Duration
	RateLimit       float64 // messages per second, 0 disables limiting
	RateBurst       int
	LogOnly         bool
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPassword    string
	SMTPFrom        string
	SMSGatewayURL   string
	SMSGatewayToken string
	SMSSender       string
}

// Storage backends for receipt artifacts
const (
	StorageBackendFilesystem = "filesystem"
	StorageBackendS3         = "s3"
)

// ReceiptConfig holds receipt artifact rendering and storage settings
type ReceiptConfig struct {
	RenderTimeout  time.Duration
	ChromePath     string
	MaxTabs        int
	Paper          string
	StorageBackend string
	BasePath       string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3PathStyle    bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with HOSTEL_ prefix (e.g., HOSTEL_DATABASE_PASSWORD)
// 2. .env file in the working directory
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/hostel")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("HOSTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Reminders run unless explicitly switched off
	v.SetDefault("reminder.enabled", true)
	// An explicit zero turns the failure back-off off
	v.SetDefault("reminder.failure_backoff", 30*time.Minute)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			SwaggerEnabled:    v.GetBool("http.swagger_enabled"),
			SwaggerAllowedIPs: v.GetStringSlice("http.swagger_allowed_ips"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
			CORSOrigins:       v.GetStringSlice("http.cors_origins"),
			MaxBodyBytes:      v.GetInt64("http.max_body_bytes"),
			RateLimit:         v.GetFloat64("http.rate_limit"),
			RateBurst:         v.GetInt("http.rate_burst"),
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
			LogLevel:        v.GetString("database.log_level"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
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
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogExportEnabled:  v.GetBool("telemetry.log_export_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Billing: BillingConfig{
			Locale:             v.GetString("billing.locale"),
			HostelName:         v.GetString("billing.hostel_name"),
			HostelPhone:        v.GetString("billing.hostel_phone"),
			HostelEmail:        v.GetString("billing.hostel_email"),
			PaymentLinkBaseURL: v.GetString("billing.payment_link_base_url"),
		},
		Reminder: ReminderConfig{
			Enabled:        v.GetBool("reminder.enabled"),
			HourlySchedule: v.GetString("reminder.hourly_schedule"),
			DailySchedule:  v.GetString("reminder.daily_schedule"),
			BatchSize:      v.GetInt("reminder.batch_size"),
			Workers:        v.GetInt("reminder.workers"),
			QueueSize:      v.GetInt("reminder.queue_size"),
			JobTimeout:     v.GetDuration("reminder.job_timeout"),
			LockTTL:        v.GetDuration("reminder.lock_ttl"),
			FailureBackoff: v.GetDuration("reminder.failure_backoff"),
		},
		Notification: NotificationConfig{
			Timeout:         v.GetDuration("notification.timeout"),
			RateLimit:       v.GetFloat64("notification.rate_limit"),
			RateBurst:       v.GetInt("notification.rate_burst"),
			LogOnly:         v.GetBool("notification.log_only"),
			SMTPHost:        v.GetString("notification.smtp_host"),
			SMTPPort:        v.GetInt("notification.smtp_port"),
			SMTPUser:        v.GetString("notification.smtp_user"),
			SMTPPassword:    v.GetString("notification.smtp_password"),
			SMTPFrom:        v.GetString("notification.smtp_from"),
			SMSGatewayURL:   v.GetString("notification.sms_gateway_url"),
			SMSGatewayToken: v.GetString("notification.sms_gateway_token"),
			SMSSender:       v.GetString("notification.sms_sender"),
		},
		Receipt: ReceiptConfig{
			RenderTimeout:  v.GetDuration("receipt.render_timeout"),
			ChromePath:     v.GetString("receipt.chrome_path"),
			MaxTabs:        v.GetInt("receipt.max_tabs"),
			Paper:          v.GetString("receipt.paper"),
			StorageBackend: v.GetString("receipt.storage_backend"),
			BasePath:       v.GetString("receipt.base_path"),
			S3Bucket:       v.GetString("receipt.s3_bucket"),
			S3Region:       v.GetString("receipt.s3_region"),
			S3Endpoint:     v.GetString("receipt.s3_endpoint"),
			S3AccessKey:    v.GetString("receipt.s3_access_key"),
			S3SecretKey:    v.GetString("receipt.s3_secret_key"),
			S3PathStyle:    v.GetBool("receipt.s3_path_style"),
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
		cfg.App.Name = "hostel-billing"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodyBytes == 0 {
		cfg.HTTP.MaxBodyBytes = 1 << 20
	}
	if cfg.HTTP.RateLimit > 0 && cfg.HTTP.RateBurst == 0 {
		cfg.HTTP.RateBurst = int(cfg.HTTP.RateLimit) * 2
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
		cfg.Database.DBName = "hostel"
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
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
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

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "hostel-billing"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}

	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "hostel-billing"
	}

	if cfg.Billing.Locale == "" {
		cfg.Billing.Locale = "en-IN"
	}

	if cfg.Reminder.HourlySchedule == "" {
		cfg.Reminder.HourlySchedule = "0 * * * *"
	}
	if cfg.Reminder.DailySchedule == "" {
		cfg.Reminder.DailySchedule = "0 9 * * *"
	}
	if cfg.Reminder.BatchSize == 0 {
		cfg.Reminder.BatchSize = 200
	}
	if cfg.Reminder.Workers == 0 {
		cfg.Reminder.Workers = 4
	}
	if cfg.Reminder.QueueSize == 0 {
		cfg.Reminder.QueueSize = 1000
	}
	if cfg.Reminder.JobTimeout == 0 {
		cfg.Reminder.JobTimeout = 2 * time.Minute
	}
	if cfg.Reminder.LockTTL == 0 {
		cfg.Reminder.LockTTL = 5 * time.Minute
	}

	if cfg.Notification.Timeout == 0 {
		cfg.Notification.Timeout = 10 * time.Second
	}
	if cfg.Notification.RateBurst == 0 {
		cfg.Notification.RateBurst = 10
	}
	if cfg.Notification.SMTPPort == 0 {
		cfg.Notification.SMTPPort = 587
	}

	if cfg.Receipt.RenderTimeout == 0 {
		cfg.Receipt.RenderTimeout = 10 * time.Second
	}
	if cfg.Receipt.MaxTabs == 0 {
		cfg.Receipt.MaxTabs = 4
	}
	if cfg.Receipt.Paper == "" {
		cfg.Receipt.Paper = "receipt80"
	}
	if cfg.Receipt.StorageBackend == "" {
		cfg.Receipt.StorageBackend = StorageBackendFilesystem
	}
	if cfg.Receipt.BasePath == "" {
		cfg.Receipt.BasePath = "./data/receipts"
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

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.Reminder.BatchSize <= 0 {
		return fmt.Errorf("reminder.batch_size must be positive")
	}
	if c.Reminder.Workers <= 0 {
		return fmt.Errorf("reminder.workers must be positive")
	}
	if c.Reminder.FailureBackoff < 0 {
		return fmt.Errorf("reminder.failure_backoff cannot be negative")
	}
	if c.Reminder.QueueSize <= 0 {
		return fmt.Errorf("reminder.queue_size must be positive")
	}
	if strings.TrimSpace(c.Reminder.HourlySchedule) == "" || strings.TrimSpace(c.Reminder.DailySchedule) == "" {
		return fmt.Errorf("reminder schedules cannot be empty")
	}

	if c.Notification.RateLimit < 0 {
		return fmt.Errorf("notification.rate_limit cannot be negative")
	}

	if c.Receipt.MaxTabs < 0 {
		return fmt.Errorf("receipt.max_tabs cannot be negative")
	}

	switch strings.ToLower(c.Receipt.Paper) {
	case "a4", "a5", "receipt80":
	default:
		return fmt.Errorf("receipt.paper must be a4, a5 or receipt80, got %q", c.Receipt.Paper)
	}

	switch c.Receipt.StorageBackend {
	case StorageBackendFilesystem:
	case StorageBackendS3:
		if c.Receipt.S3Bucket == "" {
			return fmt.Errorf("receipt.s3_bucket is required when receipt.storage_backend is s3")
		}
	default:
		return fmt.Errorf("receipt.storage_backend must be %q or %q, got %q",
			StorageBackendFilesystem, StorageBackendS3, c.Receipt.StorageBackend)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.JWT.Secret != "" && len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	return nil
}

// IsProduction reports whether the service runs in production mode
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

// Addr returns the host:port address of the Redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Enabled reports whether a Redis server is configured
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}
