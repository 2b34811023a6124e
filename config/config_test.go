package config

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("STORE_DRIVER", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, 30*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"http://localhost:3000", "https://civictrack-frontend.vercel.app"}, cfg.CORSOrigins())
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_TTL", "forever")
	t.Setenv("ISSUE_DAILY_LIMIT", "lots")

	cfg := Load()

	assert.Equal(t, 30*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10, cfg.IssueDailyLimit)
}

func TestCORSOriginsTrimsEmptyEntries(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: " https://a.example , ,https://b.example,"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
}

func TestConnectRedisWithoutAddress(t *testing.T) {
	client, err := ConnectRedis(context.Background(), "", "", 0)
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger("production", "warn")
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.WithField("issue_id", "abc").Warn("status updated")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "status updated", entry["message"])
	assert.Equal(t, "civictrack-be", entry["service"])
	assert.Equal(t, "production", entry["env"])
	assert.Equal(t, "abc", entry["issue_id"])

	dev := NewLogger("development", "not-a-level")
	assert.Equal(t, logrus.DebugLevel, dev.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, dev.Formatter)
}
