package internal

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBCryptCost    = 10
	DefaultSessionTTL    = 365 * 24 * time.Hour
	DefaultResetTokenTTL = time.Hour
	DefaultCookieName    = "token"
)

type Config struct {
	Environment   string              `mapstructure:"environment"`
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Mail          MailConfig          `mapstructure:"mail"`
	Frontend      FrontendConfig      `mapstructure:"frontend"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	SessionSecret string        `mapstructure:"session_secret" validate:"required,min=32"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	BCryptCost    int           `mapstructure:"bcrypt_cost" validate:"required,min=4,max=15"`
	ResetTokenTTL time.Duration `mapstructure:"reset_token_ttl"`
	// ResetTokenGrace widens the accepted window past the stored expiry.
	ResetTokenGrace time.Duration `mapstructure:"reset_token_grace"`
	Cookie          CookieConfig  `mapstructure:"cookie"`
}

type CookieConfig struct {
	Name     string `mapstructure:"name"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site" validate:"oneof=lax strict none"`
	Domain   string `mapstructure:"domain"`
}

type MailConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	From        string        `mapstructure:"from"`
	FromName    string        `mapstructure:"from_name"`
	Workers     int           `mapstructure:"workers"`
	QueueSize   int           `mapstructure:"queue_size"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

type FrontendConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// SetDefaults registers default values on a viper instance before the config file is read.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("http_server.port", 4444)
	v.SetDefault("http_server.read_header_timeout", 5*time.Second)
	v.SetDefault("http_server.read_timeout", 15*time.Second)
	v.SetDefault("http_server.write_timeout", 15*time.Second)
	v.SetDefault("http_server.idle_timeout", 60*time.Second)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 5*time.Minute)
	v.SetDefault("security.session_ttl", DefaultSessionTTL)
	v.SetDefault("security.bcrypt_cost", DefaultBCryptCost)
	v.SetDefault("security.reset_token_ttl", DefaultResetTokenTTL)
	v.SetDefault("security.cookie.name", DefaultCookieName)
	v.SetDefault("security.cookie.same_site", "lax")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "no-reply@storefront.local")
	v.SetDefault("mail.from_name", "Storefront")
	v.SetDefault("mail.workers", 2)
	v.SetDefault("mail.queue_size", 100)
	v.SetDefault("mail.send_timeout", 10*time.Second)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "text")
}

// ApplyDefaults fills zero values left by sources that bypass viper.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 4444
	}
	if c.Security.SessionTTL <= 0 {
		c.Security.SessionTTL = DefaultSessionTTL
	}
	if c.Security.BCryptCost == 0 {
		c.Security.BCryptCost = DefaultBCryptCost
	}
	if c.Security.ResetTokenTTL <= 0 {
		c.Security.ResetTokenTTL = DefaultResetTokenTTL
	}
	if c.Security.Cookie.Name == "" {
		c.Security.Cookie.Name = DefaultCookieName
	}
	if c.Security.Cookie.SameSite == "" {
		c.Security.Cookie.SameSite = "lax"
	}
	if c.Mail.Workers <= 0 {
		c.Mail.Workers = 2
	}
	if c.Mail.QueueSize <= 0 {
		c.Mail.QueueSize = 100
	}
	if c.Mail.SendTimeout <= 0 {
		c.Mail.SendTimeout = 10 * time.Second
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// LoadConfigFromEnv builds the configuration from plain environment variables (container deployments).
func LoadConfigFromEnv() *Config {
	cfg := &Config{
		Environment: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:              getEnvAsInt("PORT", 4444),
			BaseURL:           getEnv("BASE_URL", ""),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", ""),
			ReadHeaderTimeout: getEnvAsDuration("READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Source:          getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Security: SecurityConfig{
			SessionSecret:   getEnv("APP_SECRET", ""),
			SessionTTL:      getEnvAsDuration("SESSION_TTL", DefaultSessionTTL),
			BCryptCost:      getEnvAsInt("BCRYPT_COST", DefaultBCryptCost),
			ResetTokenTTL:   getEnvAsDuration("RESET_TOKEN_TTL", DefaultResetTokenTTL),
			ResetTokenGrace: getEnvAsDuration("RESET_TOKEN_GRACE", 0),
			Cookie: CookieConfig{
				Name:     getEnv("COOKIE_NAME", DefaultCookieName),
				Secure:   getEnv("COOKIE_SECURE", "false") == "true",
				SameSite: getEnv("COOKIE_SAME_SITE", "lax"),
				Domain:   getEnv("COOKIE_DOMAIN", ""),
			},
		},
		Mail: MailConfig{
			Host:        getEnv("MAIL_HOST", ""),
			Port:        getEnvAsInt("MAIL_PORT", 587),
			Username:    getEnv("MAIL_USER", ""),
			Password:    getEnv("MAIL_PASS", ""),
			From:        getEnv("MAIL_FROM", "no-reply@storefront.local"),
			FromName:    getEnv("MAIL_FROM_NAME", "Storefront"),
			Workers:     getEnvAsInt("MAIL_WORKERS", 2),
			QueueSize:   getEnvAsInt("MAIL_QUEUE_SIZE", 100),
			SendTimeout: getEnvAsDuration("MAIL_SEND_TIMEOUT", 10*time.Second),
		},
		Frontend: FrontendConfig{
			BaseURL: getEnv("FRONTEND_URL", ""),
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnv("METRICS_ENABLED", "true") == "true",
				Path:    getEnv("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Mail.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("mail config: %v", err))
	}

	if err := c.Frontend.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("frontend config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		for _, origin := range c.Origins() {
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// Origins splits AllowedOrigins on commas.
func (c *ServerConfig) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 characters")
	}
	if c.BCryptCost < 4 || c.BCryptCost > 15 {
		return fmt.Errorf("bcrypt_cost %d out of range [4,15]", c.BCryptCost)
	}
	if c.SessionTTL <= 0 {
		return errors.New("session_ttl must be positive")
	}
	if c.ResetTokenTTL <= 0 {
		return errors.New("reset_token_ttl must be positive")
	}
	if c.ResetTokenGrace < 0 {
		return errors.New("reset_token_grace cannot be negative")
	}
	switch strings.ToLower(c.Cookie.SameSite) {
	case "", "lax", "strict", "none":
	default:
		return fmt.Errorf("invalid cookie same_site %q", c.Cookie.SameSite)
	}
	return nil
}

// SameSiteMode converts the configured same_site string to its net/http value.
func (c *CookieConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (c *MailConfig) Validate() error {
	if c.Host == "" {
		return nil
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid mail port %d", c.Port)
	}
	if c.From == "" {
		return errors.New("mail from address is required when host is set")
	}
	return nil
}

// Enabled reports whether an SMTP relay is configured.
func (c *MailConfig) Enabled() bool {
	return c.Host != ""
}

func (c *FrontendConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("frontend base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid frontend base_url %q", c.BaseURL)
	}
	return nil
}
