package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Uploads       UploadsConfig      `mapstructure:"uploads"`
	Monday        MondayConfig       `mapstructure:"monday"`
	Catalog       CatalogConfig      `mapstructure:"catalog"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	MetricsAddress  string `mapstructure:"metrics_address"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // seconds
}

type StorageConfig struct {
	Redis    RedisConfig `mapstructure:"redis"`
	DraftTTL int         `mapstructure:"draft_ttl"` // hours, 0 = no expiry
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// UploadsConfig holds the attachment intake limits.
type UploadsConfig struct {
	MaxFileBytes int64    `mapstructure:"max_file_bytes"`
	MaxFiles     int      `mapstructure:"max_files"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

// MondayConfig holds settings for the Monday.com GraphQL API.
type MondayConfig struct {
	APIURL     string `mapstructure:"api_url"`
	APIToken   string `mapstructure:"api_token"`
	BoardID    string `mapstructure:"board_id"`
	APIVersion string `mapstructure:"api_version"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// NotificationConfig holds settings for the confirmation email.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		Region    string `mapstructure:"region"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "goodboy-intake"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.MetricsAddress == "" {
		cfg.Server.MetricsAddress = ":9090"
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10
	}
	if cfg.Storage.Redis.Address == "" {
		cfg.Storage.Redis.Address = "localhost:6379"
	}
	if cfg.Uploads.MaxFileBytes <= 0 {
		cfg.Uploads.MaxFileBytes = 15 << 20 // 15 MiB
	}
	if cfg.Uploads.MaxFiles <= 0 {
		cfg.Uploads.MaxFiles = 10
	}
	if len(cfg.Uploads.AllowedTypes) == 0 {
		cfg.Uploads.AllowedTypes = []string{
			"image/png",
			"image/jpeg",
			"image/jpg",
			"image/svg+xml",
			"application/pdf",
		}
	}
	if cfg.Monday.APIURL == "" {
		cfg.Monday.APIURL = "https://api.monday.com/v2"
	}
	if cfg.Monday.APIVersion == "" {
		cfg.Monday.APIVersion = "2023-10"
	}
	if cfg.Monday.Timeout <= 0 {
		cfg.Monday.Timeout = 30000
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "configs/catalog.json"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Monday.APIToken == "" {
		return fmt.Errorf("monday.api_token is required")
	}
	if cfg.Monday.BoardID == "" {
		return fmt.Errorf("monday.board_id is required")
	}
	if cfg.Notifications.Email.Enabled && cfg.Notifications.Email.FromEmail == "" {
		return fmt.Errorf("notifications.email.from_email is required when email is enabled")
	}
	return nil
}
