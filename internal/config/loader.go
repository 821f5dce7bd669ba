package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// DDROP_STORE_DRIVER overrides store.driver.
const EnvPrefix = "DDROP"

// Load reads configuration in this order: defaults, config file (if any),
// .env file (if any), environment variables. configFile may be empty.
func Load(configFile string) (*Config, error) {
	// .env is optional; the process environment always wins over it.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyLegacyEnv(&cfg, v.InConfig("mail.provider"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "dev")

	v.SetDefault("http.addr", ":3000")
	v.SetDefault("http.read_header_timeout", 5*time.Second)
	v.SetDefault("http.static_dir", "")

	v.SetDefault("cors.allowed_origins", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("upload.max_files", 10)
	v.SetDefault("upload.max_file_bytes", 25<<20)
	v.SetDefault("upload.max_request_bytes", 100<<20)

	v.SetDefault("store.driver", StoreFile)
	v.SetDefault("store.path", "uploads-log.jsonl")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.redis_key", "design-drop:submissions")

	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.interval", time.Hour)
	v.SetDefault("backup.endpoint", "")
	v.SetDefault("backup.access_key", "")
	v.SetDefault("backup.secret_key", "")
	v.SetDefault("backup.bucket", "")
	v.SetDefault("backup.prefix", "submission-log/")

	v.SetDefault("mail.provider", MailLog)
	v.SetDefault("mail.resend_api_key", "")
	v.SetDefault("mail.ses_region", "us-east-1")
	v.SetDefault("mail.smtp_host", "")
	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.smtp_user", "")
	v.SetDefault("mail.smtp_password", "")

	v.SetDefault("notify.from", "noreply@example.com")
	v.SetDefault("notify.operator_to", "")
	v.SetDefault("notify.brand", "Design Drop")

	v.SetDefault("ratelimit.requests", 0)
	v.SetDefault("ratelimit.window", time.Minute)
}

// applyLegacyEnv honors the unprefixed variables existing deployments set.
// Prefixed variables take precedence because viper already applied them.
// A bare RESEND_API_KEY also selects the Resend provider unless a provider
// was chosen in the config file or environment.
func applyLegacyEnv(cfg *Config, providerInFile bool) {
	if port := os.Getenv("PORT"); port != "" && os.Getenv(EnvPrefix+"_HTTP_ADDR") == "" {
		cfg.HTTP.Addr = ":" + port
	}
	if key := os.Getenv("RESEND_API_KEY"); key != "" && cfg.Mail.ResendAPIKey == "" {
		cfg.Mail.ResendAPIKey = key
		if !providerInFile && os.Getenv(EnvPrefix+"_MAIL_PROVIDER") == "" {
			cfg.Mail.Provider = MailResend
		}
	}
}
