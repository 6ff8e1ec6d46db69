package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseConfig() *Config {
	return &Config{
		Env:            "development",
		Port:           "8420",
		JWTSecret:      "secure-secret-at-least-32-chars-long",
		DBPassword:     "secure-password",
		DBSSLMode:      "disable",
		RedisURL:       "localhost:6379",
		PaginationMode: ModeLenient,
		EngineKeyMode:  ModeLenient,
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid development config", func(t *testing.T) {
		assert.NoError(t, baseConfig().Validate())
	})

	t.Run("missing port", func(t *testing.T) {
		c := baseConfig()
		c.Port = ""
		assert.Error(t, c.Validate())
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		c := baseConfig()
		c.JWTSecret = ""
		assert.Error(t, c.Validate())
	})

	t.Run("unknown pagination mode", func(t *testing.T) {
		c := baseConfig()
		c.PaginationMode = "tolerant"
		assert.Error(t, c.Validate())
	})

	t.Run("unknown engine key mode", func(t *testing.T) {
		c := baseConfig()
		c.EngineKeyMode = "whatever"
		assert.Error(t, c.Validate())
	})

	t.Run("strict modes accepted", func(t *testing.T) {
		c := baseConfig()
		c.PaginationMode = ModeStrict
		c.EngineKeyMode = ModeStrict
		assert.NoError(t, c.Validate())
		assert.True(t, c.StrictPagination())
		assert.True(t, c.StrictEngineKeys())
	})
}

func TestConfig_ValidateProduction(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"strong secret and password", func(c *Config) {}, false},
		{"default jwt secret", func(c *Config) { c.JWTSecret = "your-secret-key-change-in-production" }, true},
		{"short jwt secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"default db password", func(c *Config) { c.DBPassword = "password" }, true},
		{"empty db password", func(c *Config) { c.DBPassword = "" }, true},
		{"dev root bootstrap enabled", func(c *Config) { c.DevBootstrapRoot = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseConfig()
			c.Env = "production"
			c.DBSSLMode = "require"
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
