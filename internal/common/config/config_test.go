package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	assert.Equal(t, "goodboy-intake", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, ":9090", cfg.Server.MetricsAddress)
	assert.Equal(t, 10, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "localhost:6379", cfg.Storage.Redis.Address)
	assert.Equal(t, int64(15<<20), cfg.Uploads.MaxFileBytes)
	assert.Equal(t, 10, cfg.Uploads.MaxFiles)
	assert.Contains(t, cfg.Uploads.AllowedTypes, "application/pdf")
	assert.Equal(t, "https://api.monday.com/v2", cfg.Monday.APIURL)
	assert.Equal(t, "2023-10", cfg.Monday.APIVersion)
	assert.Equal(t, 30000, cfg.Monday.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{}
	cfg.Server.Address = ":3000"
	cfg.Uploads.MaxFiles = 3
	cfg.Logging.Level = "debug"
	applyDefaults(&cfg)

	assert.Equal(t, ":3000", cfg.Server.Address)
	assert.Equal(t, 3, cfg.Uploads.MaxFiles)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Monday.APIToken = "token"
		cfg.Monday.BoardID = "12345"
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validateConfig(base()))
	})

	t.Run("missing api token", func(t *testing.T) {
		cfg := base()
		cfg.Monday.APIToken = ""
		assert.ErrorContains(t, validateConfig(cfg), "monday.api_token")
	})

	t.Run("missing board id", func(t *testing.T) {
		cfg := base()
		cfg.Monday.BoardID = ""
		assert.ErrorContains(t, validateConfig(cfg), "monday.board_id")
	})

	t.Run("email enabled needs a sender", func(t *testing.T) {
		cfg := base()
		cfg.Notifications.Email.Enabled = true
		assert.ErrorContains(t, validateConfig(cfg), "from_email")
	})
}
