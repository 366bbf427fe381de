// Package config loads the portal configuration from an optional YAML file
// with environment-variable overrides and sane defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"` // gin mode: debug|release|test
}

// StoreConfig selects the record-log backend and identifier scheme. The
// historical deployments map onto it as: csv+serial (original flat log),
// csv+timestamp, gorm+store (database-assigned keys).
type StoreConfig struct {
	Backend  string `mapstructure:"backend"`   // csv | gorm
	IDScheme string `mapstructure:"id_scheme"` // serial | timestamp | store; empty picks per backend
	CSVPath  string `mapstructure:"csv_path"`
}

type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"` // postgres | sqlite
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type UploadConfig struct {
	Dir        string `mapstructure:"dir"`
	Thumbnails bool   `mapstructure:"thumbnails"`
	MaxBytes   int64  `mapstructure:"max_bytes"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Uploads  UploadConfig   `mapstructure:"uploads"`
	JWT      JWTConfig      `mapstructure:"jwt"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8081")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("store.backend", "gorm")
	// Empty means "pick per backend" (gorm -> store, csv -> serial), so
	// switching store.backend alone keeps a workable scheme.
	v.SetDefault("store.id_scheme", "")
	v.SetDefault("store.csv_path", "NOI_log.csv")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("uploads.dir", "invoices")
	v.SetDefault("uploads.thumbnails", true)
	v.SetDefault("uploads.max_bytes", 5*1024*1024)
	v.SetDefault("jwt.secret", "dev-insecure-secret-change")
	v.SetDefault("jwt.expire_hours", 24)
}

// Load reads path (e.g. "config.yaml") if it exists; a missing file leaves
// defaults and environment overrides in effect. Env keys are upper-cased
// with dots replaced by underscores (store.backend -> STORE_BACKEND).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "csv", "gorm":
	default:
		return fmt.Errorf("store.backend must be csv or gorm, got %q", c.Store.Backend)
	}
	if c.Store.IDScheme == "" {
		if c.Store.Backend == "csv" {
			c.Store.IDScheme = "serial"
		} else {
			c.Store.IDScheme = "store"
		}
	}
	switch c.Store.IDScheme {
	case "serial", "timestamp", "store":
	default:
		return fmt.Errorf("store.id_scheme must be serial, timestamp or store, got %q", c.Store.IDScheme)
	}
	if c.Store.Backend == "csv" && c.Store.IDScheme == "store" {
		return fmt.Errorf("store.id_scheme=store requires the gorm backend")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	return nil
}
