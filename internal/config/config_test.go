package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseConfig() *Config {
	return &Config{
		JWTSecret:     "development-secret",
		Port:          "8480",
		Env:           "development",
		OTPTTLSeconds: 120,
	}
}

func TestValidateDevelopmentDefaults(t *testing.T) {
	assert.NoError(t, baseConfig().Validate())
}

func TestValidateRequiredFields(t *testing.T) {
	cfg := baseConfig()
	cfg.Port = ""
	assert.Error(t, cfg.Validate())

	cfg = baseConfig()
	cfg.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg = baseConfig()
	cfg.OTPTTLSeconds = 0
	assert.Error(t, cfg.Validate())
}

func productionConfig() *Config {
	return &Config{
		JWTSecret:     strings.Repeat("s", 32),
		Port:          "8480",
		Env:           "production",
		OTPTTLSeconds: 120,
		DBPassword:    "a-strong-password",
		DBSSLMode:     "require",
		SMTPHost:      "smtp.example.com",
	}
}

func TestValidateProduction(t *testing.T) {
	assert.NoError(t, productionConfig().Validate())
}

func TestValidateProductionRejectsWeakSettings(t *testing.T) {
	cfg := productionConfig()
	cfg.JWTSecret = "your-secret-key-change-in-production"
	assert.Error(t, cfg.Validate())

	cfg = productionConfig()
	cfg.JWTSecret = "short"
	assert.Error(t, cfg.Validate())

	cfg = productionConfig()
	cfg.DBPassword = "password"
	assert.Error(t, cfg.Validate())

	cfg = productionConfig()
	cfg.SMTPHost = ""
	assert.Error(t, cfg.Validate())
}
