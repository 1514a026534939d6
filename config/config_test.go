package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: "9000"
  allowedOrigins:
    - https://forms.example.com
mongo:
  uri: mongodb://db:27017
  timeout: 5s
admin:
  password: segredo
storage:
  driver: s3
s3:
  bucket: orcamentos
workflow:
  transitions:
    PENDING_PURCHASE_COMMITTEE: [RC_CREATED, REJECTED]
`

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(sampleYAML), 0o600))
	t.Setenv("MONGO_URI", "mongodb://override:27017")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, []string{"https://forms.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "mongodb://override:27017", cfg.Mongo.URI)
	assert.Equal(t, "requisicoes_app", cfg.Mongo.DBName)
	assert.Equal(t, 5*time.Second, cfg.Mongo.Timeout)
	assert.Equal(t, "segredo", cfg.Admin.Password)
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, "orcamentos", cfg.S3.Bucket)
	// viper lowercases map keys
	assert.Equal(t, []string{"RC_CREATED", "REJECTED"}, cfg.Workflow.Transitions["pending_purchase_committee"])
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.Mongo.Timeout)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "uploads", cfg.Storage.LocalDir)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TokenTTL())
	assert.Empty(t, cfg.Workflow.Transitions)
}

func TestJWTConfig_TokenTTL(t *testing.T) {
	assert.Equal(t, 2*time.Hour, JWTConfig{Expiration: "2h"}.TokenTTL())
	assert.Equal(t, 24*time.Hour, JWTConfig{Expiration: "soon"}.TokenTTL())
	assert.Equal(t, 24*time.Hour, JWTConfig{Expiration: "-1h"}.TokenTTL())
}

func TestNewLogger(t *testing.T) {
	log := NewLogger(LogConfig{Level: "debug", Format: "text"})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)

	log = NewLogger(LogConfig{Level: "loud"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}
