package config

import (
	"errors"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the API server and wmsctl need at startup.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Stock    StockConfig    `mapstructure:"stock"`
}

type AppConfig struct {
	Port          string        `mapstructure:"port"`
	Environment   string        `mapstructure:"environment"`
	ServiceName   string        `mapstructure:"service_name"`
	LogLevel      string        `mapstructure:"log_level"`
	DefaultLocale string        `mapstructure:"default_locale"`
	Timezone      string        `mapstructure:"timezone"` // report day boundaries
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig is the connection pool configuration.
//
// WARNING: URL usually carries credentials and must not be logged.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectAttempts uint          `mapstructure:"connect_attempts"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"` // Secret
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Required  bool          `mapstructure:"required"`
}

type StockConfig struct {
	ReservationTTL time.Duration `mapstructure:"reservation_ttl"`
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Auth.Required && c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when AUTH_REQUIRED is enabled")
	}
	return nil
}

// Load reads an optional .env file and then the process environment.
// Variables already present in the environment win over the file.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	return LoadEnv()
}

// LoadEnv builds the config from environment variables and defaults only.
func LoadEnv() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var defaults = map[string]any{
	"app.port":                   "8080",
	"app.environment":            "development",
	"app.service_name":           "wms-api",
	"app.log_level":              "info",
	"app.default_locale":         "ko",
	"app.timezone":               "Asia/Seoul",
	"app.read_timeout":           "15s",
	"app.write_timeout":          "15s",
	"database.max_open_conns":    25,
	"database.max_idle_conns":    5,
	"database.conn_max_lifetime": "5m",
	"database.connect_attempts":  5,
	"auth.token_ttl":             "24h",
	"auth.required":              false,
	"stock.reservation_ttl":      "24h",
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// envBindings maps a config key to the environment variables that may provide it.
// The first name is preferred; later names are accepted for older deployments.
var envBindings = map[string][]string{
	"app.port":                   {"APP_PORT", "PORT"},
	"app.environment":            {"APP_ENV"},
	"app.service_name":           {"SERVICE_NAME"},
	"app.log_level":              {"LOG_LEVEL"},
	"app.default_locale":         {"DEFAULT_LOCALE"},
	"app.timezone":               {"APP_TIMEZONE", "TZ"},
	"app.read_timeout":           {"HTTP_READ_TIMEOUT"},
	"app.write_timeout":          {"HTTP_WRITE_TIMEOUT"},
	"database.url":               {"DATABASE_URL"},
	"database.max_open_conns":    {"DB_MAX_OPEN_CONNS"},
	"database.max_idle_conns":    {"DB_MAX_IDLE_CONNS"},
	"database.conn_max_lifetime": {"DB_CONN_MAX_LIFETIME"},
	"database.connect_attempts":  {"DB_CONNECT_ATTEMPTS"},
	"auth.jwt_secret":            {"JWT_SECRET"},
	"auth.token_ttl":             {"JWT_TTL"},
	"auth.required":              {"AUTH_REQUIRED"},
	"stock.reservation_ttl":      {"RESERVATION_TTL"},
}

func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		inputs := slices.Insert(slices.Clone(envs), 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}
	return nil
}
