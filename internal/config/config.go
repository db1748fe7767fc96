// Package config loads stepform settings from defaults, an optional YAML
// file and STEPFORM_* environment variables.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. STEPFORM_STORE_DRIVER
// for store.driver.
const EnvPrefix = "STEPFORM"

// Config represents the complete stepform configuration.
type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Store   StoreConfig   `mapstructure:"store"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Wizard  WizardConfig  `mapstructure:"wizard"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Log     LogConfig     `mapstructure:"log"`
}

// HTTPConfig controls the listener.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// StoreConfig selects the submission store backend.
type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres, redis, mongo.
	Driver string `mapstructure:"driver"`
	// DSN is the connection string: a file path for sqlite, a URL for the
	// others.
	DSN string `mapstructure:"dsn"`
	// Prefix namespaces Redis keys.
	Prefix string `mapstructure:"prefix"`
	// Database is the MongoDB database name.
	Database string `mapstructure:"database"`
}

// CatalogConfig points at the YAML field-group catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// WizardConfig describes the served wizard.
type WizardConfig struct {
	ID           string       `mapstructure:"id"`
	Tag          string       `mapstructure:"tag"`
	RecordType   string       `mapstructure:"record_type"`
	RecordStatus string       `mapstructure:"record_status"`
	ParentURL    string       `mapstructure:"parent_url"`
	Labels       LabelsConfig `mapstructure:"labels"`
}

// LabelsConfig overrides user-facing strings.
type LabelsConfig struct {
	Next   string `mapstructure:"next"`
	Finish string `mapstructure:"finish"`
	Thanks string `mapstructure:"thanks"`
}

// AdminConfig secures the admin API.
type AdminConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTP:    HTTPConfig{Addr: ":8080"},
		Store:   StoreConfig{Driver: "memory", Prefix: "stepform:", Database: "stepform"},
		Catalog: CatalogConfig{Path: "catalog.yaml"},
		Wizard: WizardConfig{
			RecordStatus: "ACTIVE",
			ParentURL:    "/parents/{id}",
			Labels: LabelsConfig{
				Next:   "Next step",
				Finish: "Finish",
				Thanks: "Thanks for your submission, we will get back to you very soon!",
			},
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// SetDefaults registers default values with v.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("http.addr", d.HTTP.Addr)

	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("store.prefix", d.Store.Prefix)
	v.SetDefault("store.database", d.Store.Database)

	v.SetDefault("catalog.path", d.Catalog.Path)

	v.SetDefault("wizard.id", d.Wizard.ID)
	v.SetDefault("wizard.tag", d.Wizard.Tag)
	v.SetDefault("wizard.record_type", d.Wizard.RecordType)
	v.SetDefault("wizard.record_status", d.Wizard.RecordStatus)
	v.SetDefault("wizard.parent_url", d.Wizard.ParentURL)
	v.SetDefault("wizard.labels.next", d.Wizard.Labels.Next)
	v.SetDefault("wizard.labels.finish", d.Wizard.Labels.Finish)
	v.SetDefault("wizard.labels.thanks", d.Wizard.Labels.Thanks)

	v.SetDefault("admin.jwt_secret", d.Admin.JWTSecret)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads the configuration. An empty path looks for stepform.yaml in
// the working directory and is not an error when none exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("stepform")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	// STEPFORM_WIZARD_LABELS_NEXT for wizard.labels.next
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Logger builds the process logger described by c.
func (c LogConfig) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
