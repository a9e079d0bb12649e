package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Upstream  UpstreamConfig
	RateLimit RateLimitConfig
	MongoDB   MongoDBConfig
	LogLevel  string
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

type JWTConfig struct {
	Secret          string
	Algorithm       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// UpstreamConfig locates the accounts and notification services.
type UpstreamConfig struct {
	AccountRegisterURL  string
	AccountLoginURL     string
	NotificationCodeURL string
	// UnverifiedStatus is the status the accounts service answers a login with when the
	// account exists but has not been verified yet.
	UnverifiedStatus int
	Timeout          time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// MongoDBConfig is optional; when URI is empty session events are only logged.
type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// SupportedAlgorithms lists the shared-secret signing algorithms the gateway accepts.
var SupportedAlgorithms = []string{"HS256", "HS384", "HS512"}

var required = []string{
	"JWT_SECRET_KEY",
	"JWT_ALGORITHM",
	"REDIS_HOST",
	"REDIS_PORT",
	"ACCESS_TOKEN_TTL",
	"REFRESH_TOKEN_TTL",
	"ACCOUNT_REGISTER_URL",
	"ACCOUNT_LOGIN_URL",
}

// LoadConfig loads configuration from environment variables and an optional .env file.
// Missing or invalid values are reported here so the process fails at startup.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("REDIS_DB", 1)
	v.SetDefault("ACCOUNT_UNVERIFIED_STATUS", 455)
	v.SetDefault("UPSTREAM_TIMEOUT", 10)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("MONGODB_DATABASE", "authgw")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("LOG_LEVEL", "info")

	var missing []string
	for _, k := range required {
		if strings.TrimSpace(v.GetString(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  time.Duration(v.GetInt("SERVER_READ_TIMEOUT")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET_KEY"),
			Algorithm:       strings.ToUpper(strings.TrimSpace(v.GetString("JWT_ALGORITHM"))),
			AccessTokenTTL:  time.Duration(v.GetInt("ACCESS_TOKEN_TTL")) * time.Second,
			RefreshTokenTTL: time.Duration(v.GetInt("REFRESH_TOKEN_TTL")) * time.Second,
		},
		Upstream: UpstreamConfig{
			AccountRegisterURL:  v.GetString("ACCOUNT_REGISTER_URL"),
			AccountLoginURL:     v.GetString("ACCOUNT_LOGIN_URL"),
			NotificationCodeURL: v.GetString("NOTIFICATION_CODE_URL"),
			UnverifiedStatus:    v.GetInt("ACCOUNT_UNVERIFIED_STATUS"),
			Timeout:             time.Duration(v.GetInt("UPSTREAM_TIMEOUT")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the rest of the gateway relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY must not be empty"))
	}
	if !supportedAlgorithm(c.JWT.Algorithm) {
		errs = append(errs, fmt.Errorf("JWT_ALGORITHM %q is not supported (want one of %s)", c.JWT.Algorithm, strings.Join(SupportedAlgorithms, ", ")))
	}
	if c.JWT.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be a positive number of seconds"))
	}
	if c.JWT.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be a positive number of seconds"))
	}
	if c.JWT.AccessTokenTTL > 0 && c.JWT.RefreshTokenTTL > 0 && c.JWT.AccessTokenTTL >= c.JWT.RefreshTokenTTL {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL"))
	}
	if c.Redis.Host == "" || c.Redis.Port == "" {
		errs = append(errs, errors.New("REDIS_HOST and REDIS_PORT are required"))
	} else if p, err := strconv.Atoi(c.Redis.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT %q is not a valid port", c.Redis.Port))
	}
	for name, raw := range map[string]string{
		"ACCOUNT_REGISTER_URL":  c.Upstream.AccountRegisterURL,
		"ACCOUNT_LOGIN_URL":     c.Upstream.AccountLoginURL,
		"NOTIFICATION_CODE_URL": c.Upstream.NotificationCodeURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s %q is not an absolute URL", name, raw))
		}
	}
	if c.Upstream.UnverifiedStatus < 400 || c.Upstream.UnverifiedStatus > 599 {
		errs = append(errs, fmt.Errorf("ACCOUNT_UNVERIFIED_STATUS %d must be an error status", c.Upstream.UnverifiedStatus))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 0) {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must be positive and RATE_LIMIT_BURST non-negative"))
	}
	return errors.Join(errs...)
}

func supportedAlgorithm(alg string) bool {
	for _, a := range SupportedAlgorithms {
		if a == alg {
			return true
		}
	}
	return false
}
