package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"

	NotifyLocal       = "local"
	NotifyPushGateway = "pushgateway"
	NotifyTelegram    = "telegram"
)

type Config struct {
	Port      int    `mapstructure:"PORT"`
	AppName   string `mapstructure:"APP_NAME"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	DBDSN         string `mapstructure:"DB_DSN"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`

	// pool de postgres
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxIdleTime time.Duration `mapstructure:"DB_CONN_MAX_IDLE_TIME"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	DBConnectTimeout  time.Duration `mapstructure:"DB_CONNECT_TIMEOUT"`

	Timezone string `mapstructure:"TIMEZONE"`

	NotifyDriver     string        `mapstructure:"NOTIFY_DRIVER"`
	NotifyRatePerSec int           `mapstructure:"NOTIFY_RATE_PER_SEC"`
	PushGatewayURL   string        `mapstructure:"PUSH_GATEWAY_URL"`
	PushGatewayKey   string        `mapstructure:"PUSH_GATEWAY_API_KEY"`
	PushTimeout      time.Duration `mapstructure:"PUSH_GATEWAY_TIMEOUT"`
	TelegramToken    string        `mapstructure:"TELEGRAM_TOKEN"`
	TelegramChatID   int64         `mapstructure:"TELEGRAM_CHAT_ID"`

	LowStockThreshold string        `mapstructure:"LOW_STOCK_THRESHOLD"`
	SweepInterval     time.Duration `mapstructure:"SWEEP_INTERVAL"`
	DirectorySeedFile string        `mapstructure:"DIRECTORY_SEED_FILE"`
}

var keys = []string{
	"PORT", "APP_NAME", "LOG_LEVEL", "LOG_FORMAT",
	"STORAGE_DRIVER", "DB_DSN", "SQLITE_PATH",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_IDLE_TIME", "DB_CONN_MAX_LIFETIME", "DB_CONNECT_TIMEOUT",
	"TIMEZONE",
	"NOTIFY_DRIVER", "NOTIFY_RATE_PER_SEC",
	"PUSH_GATEWAY_URL", "PUSH_GATEWAY_API_KEY", "PUSH_GATEWAY_TIMEOUT",
	"TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID",
	"LOW_STOCK_THRESHOLD", "SWEEP_INTERVAL", "DIRECTORY_SEED_FILE",
}

// Load lee path (opcional, formato .env) y el entorno; el entorno gana.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("PORT", 8080)
	v.SetDefault("APP_NAME", "care-facility-meds")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("STORAGE_DRIVER", StorageMemory)
	v.SetDefault("SQLITE_PATH", "data/meds.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	v.SetDefault("DB_CONNECT_TIMEOUT", 3*time.Second)
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("NOTIFY_DRIVER", NotifyLocal)
	v.SetDefault("NOTIFY_RATE_PER_SEC", 5)
	v.SetDefault("PUSH_GATEWAY_TIMEOUT", 10*time.Second)
	v.SetDefault("LOW_STOCK_THRESHOLD", "10")
	v.SetDefault("SWEEP_INTERVAL", time.Minute)

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	return cfg, cfg.Validate()
}

func (c *Config) normalize() {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.NotifyDriver = strings.ToLower(strings.TrimSpace(c.NotifyDriver))
	c.Timezone = strings.TrimSpace(c.Timezone)
}

func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}

	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if strings.TrimSpace(c.DBDSN) == "" {
			errs = append(errs, errors.New("DB_DSN is required for postgres storage"))
		}
		if c.DBMaxOpenConns <= 0 || c.DBMaxIdleConns < 0 {
			errs = append(errs, fmt.Errorf("invalid postgres pool: open=%d idle=%d", c.DBMaxOpenConns, c.DBMaxIdleConns))
		}
		if c.DBConnectTimeout <= 0 {
			errs = append(errs, fmt.Errorf("DB_CONNECT_TIMEOUT must be positive: %s", c.DBConnectTimeout))
		}
	case StorageSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for sqlite storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}

	switch c.NotifyDriver {
	case NotifyLocal:
	case NotifyPushGateway:
		if strings.TrimSpace(c.PushGatewayURL) == "" {
			errs = append(errs, errors.New("PUSH_GATEWAY_URL is required for pushgateway notifications"))
		}
	case NotifyTelegram:
		if strings.TrimSpace(c.TelegramToken) == "" || c.TelegramChatID == 0 {
			errs = append(errs, errors.New("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID are required for telegram notifications"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFY_DRIVER %q", c.NotifyDriver))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	if c.SweepInterval < time.Second {
		errs = append(errs, fmt.Errorf("SWEEP_INTERVAL too short: %s", c.SweepInterval))
	}

	return errors.Join(errs...)
}

// Location asume Validate ok.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
