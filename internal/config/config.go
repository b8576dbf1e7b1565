// Package config carga la configuración del API: defaults, config.yml
// opcional, .env y variables de entorno (en ese orden de prioridad creciente).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"vet-clinic/internal/platform/clinicaltime"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Clinic   ClinicConfig   `mapstructure:"clinic"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Odin     OdinConfig     `mapstructure:"odin"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// Intentos de POST /auth/session por minuto e IP.
	LoginRatePerMinute int `mapstructure:"login_rate_per_minute"`
	// TrustProxy toma la IP de X-Forwarded-For / X-Real-IP. Sólo detrás de un proxy propio.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

type DatabaseConfig struct {
	DSN          string        `mapstructure:"dsn"`
	StoreTimeout time.Duration `mapstructure:"store_timeout"`
}

type SessionConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type ClinicConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	Channel  string `mapstructure:"channel"`
}

type OdinConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// envKeys mapea cada clave a su variable de entorno histórica.
var envKeys = map[string]string{
	"app.name":                     "APP_NAME",
	"app.env":                      "APP_ENV",
	"server.port":                  "PORT",
	"server.login_rate_per_minute": "LOGIN_RATE_PER_MINUTE",
	"server.trust_proxy":           "TRUST_PROXY",
	"database.dsn":                 "DB_DSN",
	"database.store_timeout":       "STORE_TIMEOUT",
	"session.secret":               "SESSION_SECRET",
	"session.ttl":                  "SESSION_TTL",
	"clinic.timezone":              "CLINIC_TIMEZONE",
	"redis.addr":                   "REDIS_ADDR",
	"redis.password":               "REDIS_PASSWORD",
	"redis.channel":                "REDIS_CHANNEL",
	"odin.base_url":                "ODIN_BASE_URL",
	"odin.api_key":                 "ODIN_API_KEY",
	"logging.level":                "LOG_LEVEL",
	"logging.format":               "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "vet-clinic")
	v.SetDefault("app.env", "development")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.login_rate_per_minute", 10)
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("database.store_timeout", 5*time.Second)
	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("clinic.timezone", "America/Santiago")
	v.SetDefault("redis.channel", "vet-clinic:role-changed")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load lee dir/.env (si existe), dir/config.yml (si existe) y el entorno.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = "."
	}
	// .env es opcional; las variables ya presentes no se pisan
	_ = godotenv.Load(strings.TrimRight(dir, "/") + "/.env")

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

// DevMode habilita el verifier dev:<uid> y los headers X-Debug-*.
func (c *Config) DevMode() bool {
	return !c.IsProduction()
}

func (c *Config) Location() (*time.Location, error) {
	return clinicaltime.LoadLocation(c.Clinic.Timezone)
}

func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: invalid port %d", c.Server.Port))
	}
	if c.Server.LoginRatePerMinute <= 0 {
		errs = append(errs, "server: login_rate_per_minute must be > 0")
	}
	if c.Database.StoreTimeout <= 0 {
		errs = append(errs, "database: store_timeout must be > 0")
	}
	if len(c.Session.Secret) < 16 {
		errs = append(errs, "session: secret must be at least 16 characters")
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, "session: ttl must be > 0")
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("clinic: %v", err))
	}
	if c.IsProduction() && strings.TrimSpace(c.Odin.BaseURL) == "" {
		errs = append(errs, "odin: base_url is required in production")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("logging: unknown format %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
