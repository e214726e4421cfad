package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
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

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "gestcard.json", map[string]any{
		"endpoint_addr_http":              "0.0.0.0:9000",
		"endpoint_addr_grpc":              "0.0.0.0:9001",
		"database_dsn":                    "postgres://json",
		"secret_key":                      "json-secret",
		"refresh_secret_key":              "json-refresh",
		"access_token_validity_duration":  "15m",
		"refresh_token_validity_duration": "72h",
		"bcrypt_cost":                     11,
		"reset_token_validity_duration":   int64(30 * time.Minute),
		"log_level":                       "debug",
		"log_backend":                     "slog",
		"log_development":                 true,
		"s3_root_user":                    "user",
		"s3_root_password":                "password",
		"s3_bucket":                       "bucket",
		"s3_region":                       "region",
		"s3_base_endpoint":                "http://minio:9000/",
		"upload_url_validity_duration":    "5m",
		"google_client_id":                "gid",
		"rate_limit_per_minute":           20,
		"rate_limit_burst":                2,
		"trust_proxy_headers":             true,
	})

	t.Run("loads every field", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", path}

		cfg := &Config{}
		parseJson(cfg)

		want := &Config{
			EndpointAddrHTTP:             "0.0.0.0:9000",
			EndpointAddrGRPC:             "0.0.0.0:9001",
			DatabaseDSN:                  "postgres://json",
			SecretKey:                    "json-secret",
			RefreshSecretKey:             "json-refresh",
			AccessTokenValidityDuration:  15 * time.Minute,
			RefreshTokenValidityDuration: 72 * time.Hour,
			BcryptCost:                   11,
			ResetTokenValidityDuration:   30 * time.Minute,
			LogLevel:                     "debug",
			LogBackend:                   "slog",
			LogDevelopment:               true,
			S3RootUser:                   "user",
			S3RootPassword:               "password",
			S3Bucket:                     "bucket",
			S3Region:                     "region",
			S3BaseEndpoint:               "http://minio:9000/",
			UploadURLValidityDuration:    5 * time.Minute,
			GoogleClientID:               "gid",
			RateLimitPerMinute:           20,
			RateLimitBurst:               2,
			TrustProxyHeaders:            true,
		}
		assert.Empty(t, cmp.Diff(want, cfg))
	})

	t.Run("no config flag leaves values alone", func(t *testing.T) {
		os.Args = []string{"testbin", "-a", ":1"}

		cfg := &Config{}
		cfg.LoadDefaults()
		before := *cfg
		parseJson(cfg)

		assert.Empty(t, cmp.Diff(before, *cfg))
	})

	t.Run("partial file keeps unset fields", func(t *testing.T) {
		partial := writeTempJSON(t, "", "partial.json", map[string]any{"secret_key": "only-this"})
		os.Args = []string{"testbin", "-config", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "only-this", cfg.SecretKey)
		assert.Equal(t, 12, cfg.BcryptCost)
		assert.Equal(t, time.Hour, cfg.ResetTokenValidityDuration)
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "nope.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("invalid json panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
		os.Args = []string{"testbin", "-c", bad}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
