package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		return Config{
			Env:           "production",
			Port:          "5000",
			JWTSecret:     "secure-secret-at-least-32-chars-long",
			DBDriver:      "postgres",
			DBPassword:    "secure-password",
			DBSSLMode:     "require",
			StorageDriver: "local",
		}
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"Valid production", func(c *Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Default secret in production", func(c *Config) { c.JWTSecret = defaultJWTSecret }, true},
		{"Short secret in production", func(c *Config) { c.JWTSecret = "short" }, true},
		{"Short secret in development", func(c *Config) { c.Env = "development"; c.JWTSecret = "short" }, false},
		{"Weak DB password in production", func(c *Config) { c.DBPassword = "password" }, true},
		{"SSL disabled in production", func(c *Config) { c.DBSSLMode = "disable" }, true},
		{"SQLite ignores postgres checks", func(c *Config) { c.DBDriver = "sqlite"; c.DBPassword = ""; c.DBSSLMode = "" }, false},
		{"Unknown DB driver", func(c *Config) { c.DBDriver = "mongo" }, true},
		{"Unknown storage driver", func(c *Config) { c.StorageDriver = "s3" }, true},
		{"OSS without credentials", func(c *Config) { c.StorageDriver = "oss" }, true},
		{"OSS with credentials", func(c *Config) {
			c.StorageDriver = "oss"
			c.OSSEndpoint = "oss-cn-hangzhou.aliyuncs.com"
			c.OSSBucket = "quill"
			c.OSSAccessKeyID = "id"
			c.OSSAccessKeySecret = "secret"
		}, false},
		{"Negative upload size", func(c *Config) { c.UploadMaxSizeMB = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "  SQLite ")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("PORT", "9090")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, "local", c.StorageDriver)
	assert.Equal(t, 10, c.UploadMaxSizeMB)
	assert.False(t, c.IsProduction())
}

func TestConfig_EnvironmentHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, (&Config{Env: "prod"}).IsProduction())
	assert.True(t, (&Config{Env: " Production "}).IsProduction())
	assert.True(t, (&Config{Env: "development"}).IsDevelopment())
	assert.False(t, (&Config{Env: "test"}).IsDevelopment())
}
