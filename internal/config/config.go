package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Cookie    CookieConfig    `mapstructure:"cookie"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Email     EmailConfig     `mapstructure:"email"`
	Booking   BookingConfig   `mapstructure:"booking"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Log       LogConfig       `mapstructure:"log"`
	Security  SecurityConfig  `mapstructure:"security"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the connection string, preferring an explicit URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.ExpiryHours) * time.Hour
}

type CookieConfig struct {
	Secure bool   `mapstructure:"secure"`
	Domain string `mapstructure:"domain"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	AuthPerMinute     int     `mapstructure:"auth_per_minute"`
	OTPPerHour        int     `mapstructure:"otp_per_hour"`
}

type PaymentConfig struct {
	KeyID     string `mapstructure:"key_id"`
	KeySecret string `mapstructure:"key_secret"`
	Currency  string `mapstructure:"currency"`
	MaxAmount int64  `mapstructure:"max_amount"`
}

type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type BookingConfig struct {
	HoldDuration time.Duration `mapstructure:"hold_duration"`
	// TimeZone is the IANA zone slot dates and times are written in.
	TimeZone string `mapstructure:"time_zone"`
}

// Location resolves TimeZone, defaulting to UTC when unset.
func (b BookingConfig) Location() (*time.Location, error) {
	if b.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(b.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("booking time_zone: %w", err)
	}
	return loc, nil
}

type WorkerConfig struct {
	HoldReleaseInterval  time.Duration `mapstructure:"hold_release_interval"`
	AuditRetentionDays   int           `mapstructure:"audit_retention_days"`
	AuditCleanupInterval time.Duration `mapstructure:"audit_cleanup_interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type SecurityConfig struct {
	EncryptionKey  string   `mapstructure:"encryption_key"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EncryptionKeyBytes decodes the hex encoded AES key. An empty key yields nil.
func (s SecurityConfig) EncryptionKeyBytes() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// secrets are never read from config files.
type secrets struct {
	JWTSecret         string `envconfig:"JWT_SECRET"`
	DatabaseURL       string `envconfig:"DATABASE_URL"`
	RedisURL          string `envconfig:"REDIS_URL"`
	RazorpayKeyID     string `envconfig:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `envconfig:"RAZORPAY_KEY_SECRET"`
	SMTPPassword      string `envconfig:"SMTP_PASSWORD"`
	EncryptionKey     string `envconfig:"ENCRYPTION_KEY"`
}

const envPrefix = "QC"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("jwt.expiry_hours", 168)

	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.auth_per_minute", 10)
	v.SetDefault("rate_limit.otp_per_hour", 5)

	v.SetDefault("payment.currency", "INR")
	v.SetDefault("payment.max_amount", 10000000)

	v.SetDefault("email.port", 587)
	v.SetDefault("email.from", "no-reply@quickclinic.local")

	v.SetDefault("booking.hold_duration", 15*time.Minute)
	v.SetDefault("booking.time_zone", "UTC")

	v.SetDefault("worker.hold_release_interval", time.Minute)
	v.SetDefault("worker.audit_retention_days", 365)
	v.SetDefault("worker.audit_cleanup_interval", 24*time.Hour)

	v.SetDefault("log.level", "info")
}

// LoadConfig reads .env, then config.yml, then overlays QC_* secrets.
func LoadConfig() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")
	v.AddConfigPath("/app/config")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.applySecrets(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applySecrets() error {
	var s secrets
	if err := envconfig.Process(envPrefix, &s); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	override := func(dst *string, value string) {
		if value != "" {
			*dst = value
		}
	}
	override(&c.JWT.Secret, s.JWTSecret)
	override(&c.Database.URL, s.DatabaseURL)
	override(&c.Redis.URL, s.RedisURL)
	override(&c.Payment.KeyID, s.RazorpayKeyID)
	override(&c.Payment.KeySecret, s.RazorpayKeySecret)
	override(&c.Email.Password, s.SMTPPassword)
	override(&c.Security.EncryptionKey, s.EncryptionKey)
	return nil
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.JWT.Secret == "" {
		problems = append(problems, "jwt secret is required (QC_JWT_SECRET)")
	} else if len(c.JWT.Secret) < 32 {
		problems = append(problems, "jwt secret must be at least 32 characters")
	}
	if c.JWT.ExpiryHours <= 0 {
		problems = append(problems, "jwt expiry_hours must be positive")
	}
	if c.Database.URL == "" && (c.Database.Host == "" || c.Database.Name == "") {
		problems = append(problems, "database url or host/name is required")
	}
	if c.Payment.MaxAmount <= 0 {
		problems = append(problems, "payment max_amount must be positive")
	}
	if len(c.Payment.Currency) != 3 {
		problems = append(problems, "payment currency must be a 3 letter code")
	}
	if c.Booking.HoldDuration <= 0 {
		problems = append(problems, "booking hold_duration must be positive")
	}
	if _, err := c.Booking.Location(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := c.Security.EncryptionKeyBytes(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
