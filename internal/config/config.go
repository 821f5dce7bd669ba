// Package config loads design-drop settings from config files, .env and
// the environment.
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Store     StoreConfig     `mapstructure:"store"`
	Backup    BackupConfig    `mapstructure:"backup"`
	Mail      MailConfig      `mapstructure:"mail"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type AppConfig struct {
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
}

type HTTPConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	StaticDir         string        `mapstructure:"static_dir"` // pre-built front-end bundle, optional
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// UploadConfig bounds what a single request may buffer in memory.
type UploadConfig struct {
	MaxFiles        int   `mapstructure:"max_files"`
	MaxFileBytes    int64 `mapstructure:"max_file_bytes"`
	MaxRequestBytes int64 `mapstructure:"max_request_bytes"`
}

// StoreConfig selects the submission log backend.
type StoreConfig struct {
	Driver        string `mapstructure:"driver"` // file | postgres | redis
	Path          string `mapstructure:"path"`
	DatabaseURL   string `mapstructure:"database_url"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisKey      string `mapstructure:"redis_key"`
}

// BackupConfig controls periodic snapshots of the submission log to S3/MinIO.
type BackupConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	Endpoint  string        `mapstructure:"endpoint"`
	AccessKey string        `mapstructure:"access_key"`
	SecretKey string        `mapstructure:"secret_key"`
	Bucket    string        `mapstructure:"bucket"`
	Prefix    string        `mapstructure:"prefix"`
}

// MailConfig selects and configures the outbound email provider.
type MailConfig struct {
	Provider     string `mapstructure:"provider"` // resend | ses | smtp | log
	ResendAPIKey string `mapstructure:"resend_api_key"`
	SESRegion    string `mapstructure:"ses_region"`
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
}

// NotifyConfig holds the addresses and branding of the two messages sent
// per submission.
type NotifyConfig struct {
	From       string `mapstructure:"from"`
	OperatorTo string `mapstructure:"operator_to"`
	Brand      string `mapstructure:"brand"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"` // 0 disables the limiter
	Window   time.Duration `mapstructure:"window"`
}

// Store drivers.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Mail providers.
const (
	MailResend = "resend"
	MailSES    = "ses"
	MailSMTP   = "smtp"
	MailLog    = "log"
)

// IsProduction reports whether the app runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// LogFormat returns the effective log encoding; production always logs JSON.
func (c *Config) LogFormat() string {
	if c.IsProduction() {
		return "json"
	}
	return c.Log.Format
}
