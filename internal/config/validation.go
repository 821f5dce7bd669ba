// validation.go - Configuration validation for design-drop.
//
// Validates every setting at startup to fail fast with clear error messages
// rather than runtime failures on the first upload.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// Validator collects validation errors so all of them are reported at once.
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{errors: make([]ValidationError, 0)}
}

// AddError adds a validation error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ErrorString returns a formatted string of all errors.
func (v *Validator) ErrorString() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d error(s):\n", len(v.errors)))
	for i, err := range v.errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Required records an error when value is empty.
func (v *Validator) Required(key, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(key, "required")
	}
}

// Addr validates a listen address of the form "host:port" or ":port".
func (v *Validator) Addr(key, value string) {
	if value == "" {
		v.AddError(key, "required")
		return
	}
	i := strings.LastIndex(value, ":")
	if i < 0 {
		v.AddError(key, "must be host:port or :port")
		return
	}
	port, err := strconv.Atoi(value[i+1:])
	if err != nil {
		v.AddError(key, "port must be a number")
		return
	}
	if port < 1 || port > 65535 {
		v.AddError(key, "port must be between 1 and 65535")
	}
}

// Port validates a numeric port.
func (v *Validator) Port(key string, port int) {
	if port < 1 || port > 65535 {
		v.AddError(key, "port must be between 1 and 65535")
	}
}

// Enum validates that a value is one of allowed options.
func (v *Validator) Enum(key, value string, allowed []string) {
	for _, opt := range allowed {
		if value == opt {
			return
		}
	}
	v.AddError(key, fmt.Sprintf("must be one of: %s (got: %s)", strings.Join(allowed, ", "), value))
}

// Positive validates that n is greater than zero.
func (v *Validator) Positive(key string, n int64) {
	if n <= 0 {
		v.AddError(key, "must be a positive integer")
	}
}

// EmailAddress validates basic email format. The submitter's address is
// never validated; this only guards operator-supplied configuration.
func (v *Validator) EmailAddress(key, value string) {
	if value == "" {
		return
	}
	at := strings.LastIndex(value, "@")
	if at <= 0 || !strings.Contains(value[at:], ".") {
		v.AddError(key, "must be a valid email address")
	}
}

// Origin validates a CORS origin (scheme://host[:port], or "*").
func (v *Validator) Origin(key, value string) {
	if value == "*" {
		return
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		v.AddError(key, fmt.Sprintf("invalid origin %q", value))
		return
	}
	if u.Path != "" && u.Path != "/" {
		v.AddError(key, fmt.Sprintf("origin %q must not contain a path", value))
	}
}

// Validate checks the whole configuration and returns one aggregated error.
func (c *Config) Validate() error {
	v := NewValidator()

	v.Enum("app.environment", c.App.Environment, []string{"development", "staging", "production"})
	v.Addr("http.addr", c.HTTP.Addr)
	if c.HTTP.ReadHeaderTimeout <= 0 {
		v.AddError("http.read_header_timeout", "must be positive")
	}

	for _, origin := range c.CORS.AllowedOrigins {
		v.Origin("cors.allowed_origins", origin)
	}

	v.Enum("log.level", c.Log.Level, []string{"debug", "info", "warn", "error"})
	v.Enum("log.format", c.Log.Format, []string{"json", "text"})

	v.Positive("upload.max_files", int64(c.Upload.MaxFiles))
	v.Positive("upload.max_file_bytes", c.Upload.MaxFileBytes)
	v.Positive("upload.max_request_bytes", c.Upload.MaxRequestBytes)
	if c.Upload.MaxFileBytes > c.Upload.MaxRequestBytes {
		v.AddError("upload.max_file_bytes", "must not exceed upload.max_request_bytes")
	}

	v.Enum("store.driver", c.Store.Driver, []string{StoreFile, StorePostgres, StoreRedis})
	switch c.Store.Driver {
	case StoreFile:
		v.Required("store.path", c.Store.Path)
	case StorePostgres:
		v.Required("store.database_url", c.Store.DatabaseURL)
		if c.Store.DatabaseURL != "" &&
			!strings.HasPrefix(c.Store.DatabaseURL, "postgres://") &&
			!strings.HasPrefix(c.Store.DatabaseURL, "postgresql://") {
			v.AddError("store.database_url", "must be a valid PostgreSQL connection string")
		}
	case StoreRedis:
		v.Required("store.redis_addr", c.Store.RedisAddr)
		v.Required("store.redis_key", c.Store.RedisKey)
	}

	if c.Backup.Enabled {
		v.Required("backup.endpoint", c.Backup.Endpoint)
		v.Required("backup.access_key", c.Backup.AccessKey)
		v.Required("backup.secret_key", c.Backup.SecretKey)
		v.Required("backup.bucket", c.Backup.Bucket)
		if c.Backup.Interval <= 0 {
			v.AddError("backup.interval", "must be positive")
		}
	}

	v.Enum("mail.provider", c.Mail.Provider, []string{MailResend, MailSES, MailSMTP, MailLog})
	switch c.Mail.Provider {
	case MailResend:
		v.Required("mail.resend_api_key", c.Mail.ResendAPIKey)
	case MailSES:
		v.Required("mail.ses_region", c.Mail.SESRegion)
	case MailSMTP:
		v.Required("mail.smtp_host", c.Mail.SMTPHost)
		v.Port("mail.smtp_port", c.Mail.SMTPPort)
	}

	v.Required("notify.from", c.Notify.From)
	v.EmailAddress("notify.from", c.Notify.From)
	v.Required("notify.operator_to", c.Notify.OperatorTo)
	v.EmailAddress("notify.operator_to", c.Notify.OperatorTo)

	if c.RateLimit.Requests < 0 {
		v.AddError("ratelimit.requests", "must not be negative")
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		v.AddError("ratelimit.window", "must be positive when the limiter is enabled")
	}

	if v.HasErrors() {
		return fmt.Errorf("%s", v.ErrorString())
	}
	return nil
}
