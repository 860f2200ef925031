package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "development",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		DBPassword:               "secure-password",
		DBSSLMode:                "require",
		Port:                     "8080",
		ImageMaxUploadSizeMB:     10,
		ImageJPEGQuality:         85,
		DBConnMaxLifetimeMinutes: 1,
		RedisURL:                 "redis://localhost:6379",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with disable SSL mode", "prod", "disable", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Port = "" }},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }},
		{"zero upload size", func(c *Config) { c.ImageMaxUploadSizeMB = 0 }},
		{"quality above 100", func(c *Config) { c.ImageJPEGQuality = 101 }},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"default secret in production", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}},
		{"short secret in production", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "short"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "./public/uploads", c.UploadDir)
	assert.Equal(t, 10, c.ImageMaxUploadSizeMB)
	assert.Equal(t, 1920, c.ImageMaxDimension)
	assert.Equal(t, 85, c.ImageJPEGQuality)
	assert.True(t, c.RateLimitEnabled)
	assert.Equal(t, 30*time.Second, c.JudgeTimeout())
	assert.Equal(t, time.Minute, c.LeaderboardCacheTTL())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "test")
	t.Setenv("UPLOAD_DIR", "/var/lib/splitboard")
	t.Setenv("JUDGE_TIMEOUT_SECONDS", "5")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/splitboard", c.UploadDir)
	assert.Equal(t, 5*time.Second, c.JudgeTimeout())
}
