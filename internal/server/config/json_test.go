package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_http":                   ":9900",
		"database_dsn":                         "mongodb://db:27017",
		"mongo_database":                       "social",
		"secret_key":                           "my_secret_key",
		"access_token_validity_duration":       "1m",
		"refresh_token_validity_duration":      "3m",
		"verification_token_validity_duration": "2h",
		"reset_token_validity_duration":        int64(5 * time.Minute),
		"app_url":                              "https://social.example",
		"smtp_host":                            "smtp.example",
		"smtp_port":                            465,
		"s3_bucket":                            "bucket",
		"log_format":                           "console",
	})

	t.Run("loads from json", func(t *testing.T) {
		setArgs(t, "-config", pathFlag)

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, ":9900", cfg.EndpointAddrHTTP)
		assert.Equal(t, "mongodb://db:27017", cfg.DatabaseDSN)
		assert.Equal(t, "social", cfg.MongoDatabase)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, 2*time.Hour, cfg.VerificationTokenValidityDuration)
		assert.Equal(t, 5*time.Minute, cfg.ResetTokenValidityDuration)
		assert.Equal(t, "https://social.example", cfg.AppURL)
		assert.Equal(t, "smtp.example", cfg.SMTPHost)
		assert.Equal(t, 465, cfg.SMTPPort)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "console", cfg.LogFormat)
	})

	t.Run("absent keys keep current values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"secret_key": "rotated"})
		setArgs(t, "-c", partial)

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "rotated", cfg.SecretKey)
		assert.Equal(t, ":8800", cfg.EndpointAddrHTTP)
		assert.Equal(t, 24*time.Hour, cfg.AccessTokenValidityDuration)
	})

	t.Run("no config flag leaves config untouched", func(t *testing.T) {
		setArgs(t)

		cfg := &Config{EndpointAddrHTTP: "defaults:1234", SecretKey: "key", AccessTokenValidityDuration: 2 * time.Minute}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.AccessTokenValidityDuration)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		setArgs(t, "-config", bad)

		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		setArgs(t, "-config", filepath.Join(dir, "absent.json"))

		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
