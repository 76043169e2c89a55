package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every application setting.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"` // `mapstructure` tags bind viper keys to the struct
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Share    ShareConfig    `mapstructure:"share"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig selects the gorm dialector. Driver is "mysql" or "sqlite".
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// RedisConfig Redis settings. An empty Addr disables the share cache.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	ShareTTL time.Duration `mapstructure:"share_ttl"`
}

// NATSConfig notification settings. An empty URL disables share notifications.
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// JWTConfig JWT settings
type JWTConfig struct {
	SecretKey string        `mapstructure:"secret_key"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// ShareConfig controls share defaults and housekeeping. Expired shares are
// kept for PurgeRetentionDays so their links keep answering "expired".
type ShareConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	PublicExpirationDays int    `mapstructure:"public_expiration_days"`
	UserExpirationDays   int    `mapstructure:"user_expiration_days"`
	MaxExpirationDays    int    `mapstructure:"max_expiration_days"`
	PurgeCron            string `mapstructure:"purge_cron"` // empty disables the purge worker
	PurgeRetentionDays   int    `mapstructure:"purge_retention_days"`
}

// LogConfig zap settings
type LogConfig struct {
	OutputPath string `mapstructure:"output_path"`
	ErrorPath  string `mapstructure:"error_path"`
	Level      string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "divelog.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.share_ttl", 10*time.Minute)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject", "divelog.share.created")
	v.SetDefault("jwt.secret_key", "change-me")
	v.SetDefault("jwt.expires_in", 24*time.Hour)
	v.SetDefault("jwt.issuer", "go-divelog")
	v.SetDefault("share.base_url", "")
	v.SetDefault("share.public_expiration_days", 7)
	v.SetDefault("share.user_expiration_days", 30)
	v.SetDefault("share.purge_cron", "@hourly")
	v.SetDefault("share.purge_retention_days", 30)
	v.SetDefault("share.max_expiration_days", 3650)
	v.SetDefault("log.output_path", "logs/app.log")
	v.SetDefault("log.error_path", "logs/error.log")
	v.SetDefault("log.level", "info")
}

// LoadConfig loads the configuration. When path is empty the file "config.yaml" is searched
// in the usual locations; a missing file falls back to env vars and defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/go-divelog/")
	}

	// GO_DIVELOG_SHARE_BASE_URL maps to share.base_url
	v.SetEnvPrefix("GO_DIVELOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, err
		}
		log.Println("Warning: config file not found, using environment variables or default values.")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return errors.New("database.driver must be mysql or sqlite")
	}
	if c.Share.PublicExpirationDays < 1 || c.Share.UserExpirationDays < 1 {
		return errors.New("share expiration defaults must be at least one day")
	}
	if c.Share.PurgeRetentionDays < 1 {
		return errors.New("share.purge_retention_days must be at least one day")
	}
	if c.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key is required")
	}
	return nil
}
