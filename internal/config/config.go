package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configuration is the complete process configuration.
type Configuration struct {
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Postgres    PostgresConfig    `mapstructure:"postgres" validate:"required"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Storage     StorageConfig     `mapstructure:"storage" validate:"required"`
	SMTP        SMTPConfig        `mapstructure:"smtp"`
	MercadoPago MercadoPagoConfig `mapstructure:"mercadopago"`
	PDF         PDFConfig         `mapstructure:"pdf"`
	Jobs        JobsConfig        `mapstructure:"jobs"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Address       string        `mapstructure:"address" validate:"required"`
	JWTSecret     string        `mapstructure:"jwt_secret" validate:"required,min=16"`
	TokenTTL      time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
	AllowedOrigin string        `mapstructure:"allowed_origin"`
	PublicURL     string        `mapstructure:"public_url" validate:"required"`
}

type PostgresConfig struct {
	DSN      string `mapstructure:"dsn" validate:"required"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type StorageConfig struct {
	Endpoint   string        `mapstructure:"endpoint" validate:"required"`
	AccessKey  string        `mapstructure:"access_key" validate:"required"`
	SecretKey  string        `mapstructure:"secret_key" validate:"required"`
	Bucket     string        `mapstructure:"bucket" validate:"required"`
	UseSSL     bool          `mapstructure:"use_ssl"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from" validate:"required_if=Enabled true"`
}

type MercadoPagoConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	RedirectURI  string        `mapstructure:"redirect_uri"`
	AuthURL      string        `mapstructure:"auth_url" validate:"required,url"`
	APIURL       string        `mapstructure:"api_url" validate:"required,url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	RetryMax     int           `mapstructure:"retry_max" validate:"gte=0,lte=5"`
}

type PDFConfig struct {
	TemplatePath string `mapstructure:"template_path"`
	Flatten      bool   `mapstructure:"flatten"`
}

type JobsConfig struct {
	Enabled                   bool          `mapstructure:"enabled"`
	RecoveryInterval          time.Duration `mapstructure:"recovery_interval"`
	CredentialRefreshInterval time.Duration `mapstructure:"credential_refresh_interval"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

type RateLimitConfig struct {
	BillCreationsPerMinute int `mapstructure:"bill_creations_per_minute" validate:"gte=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.token_ttl", 24*time.Hour)
	v.SetDefault("server.allowed_origin", "http://localhost:5173")
	v.SetDefault("server.public_url", "http://localhost:8080")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.bucket", "billdesk")
	v.SetDefault("storage.presign_ttl", 15*time.Minute)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("mercadopago.auth_url", "https://auth.mercadopago.com.ar/authorization")
	v.SetDefault("mercadopago.api_url", "https://api.mercadopago.com")
	v.SetDefault("mercadopago.timeout", 10*time.Second)
	v.SetDefault("mercadopago.retry_max", 2)
	v.SetDefault("pdf.flatten", true)
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.recovery_interval", 5*time.Minute)
	v.SetDefault("jobs.credential_refresh_interval", 30*time.Minute)
	v.SetDefault("logging.level", "info")
	v.SetDefault("rate_limit.bill_creations_per_minute", 30)
}

// NewConfig loads .env (when present), config.toml from the usual search
// paths and BILLDESK_* environment overrides, then validates the result.
func NewConfig() (*Configuration, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/billdesk")

	v.SetEnvPrefix("BILLDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags of the configuration.
func (c Configuration) Validate() error {
	return validator.New().Struct(c)
}

// bindEnv registers keys that have no default so AutomaticEnv can see them
// during Unmarshal.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"server.jwt_secret",
		"postgres.dsn",
		"redis.password", "redis.db",
		"storage.access_key", "storage.secret_key", "storage.use_ssl",
		"smtp.enabled", "smtp.host", "smtp.username", "smtp.password", "smtp.from",
		"mercadopago.client_id", "mercadopago.client_secret", "mercadopago.redirect_uri",
		"pdf.template_path",
	} {
		_ = v.BindEnv(key)
	}
}
