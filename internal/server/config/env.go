package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "GESTCARD_"

// dotenvFiles are loaded, when present, before reading the environment.
// Variables already set in the process environment are not overridden.
var dotenvFiles = []string{".env"}

// parseEnv overlays GESTCARD_* environment variables onto config.
//
// Recognised variables (prefix omitted):
//
//	HTTP_ADDR, GRPC_ADDR, DATABASE_DSN, JWT_SECRET, JWT_REFRESH_SECRET,
//	ACCESS_TOKEN_TTL, REFRESH_TOKEN_TTL, RESET_TOKEN_TTL, UPLOAD_URL_TTL (Go durations),
//	BCRYPT_COST, RATE_LIMIT_PER_MINUTE, RATE_LIMIT_BURST (integers),
//	LOG_LEVEL, LOG_BACKEND, LOG_DEVELOPMENT (bool),
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT,
//	GOOGLE_CLIENT_ID.
func parseEnv(config *Config) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	envString("HTTP_ADDR", &config.EndpointAddrHTTP)
	envString("GRPC_ADDR", &config.EndpointAddrGRPC)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("JWT_SECRET", &config.SecretKey)
	envString("JWT_REFRESH_SECRET", &config.RefreshSecretKey)
	envDuration("ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration)
	envDuration("REFRESH_TOKEN_TTL", &config.RefreshTokenValidityDuration)
	envInt("BCRYPT_COST", &config.BcryptCost)
	envDuration("RESET_TOKEN_TTL", &config.ResetTokenValidityDuration)
	envString("LOG_LEVEL", &config.LogLevel)
	envString("LOG_BACKEND", &config.LogBackend)
	envBool("LOG_DEVELOPMENT", &config.LogDevelopment)
	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envDuration("UPLOAD_URL_TTL", &config.UploadURLValidityDuration)
	envString("GOOGLE_CLIENT_ID", &config.GoogleClientID)
	envInt("RATE_LIMIT_PER_MINUTE", &config.RateLimitPerMinute)
	envInt("RATE_LIMIT_BURST", &config.RateLimitBurst)
	envBool("TRUST_PROXY_HEADERS", &config.TrustProxyHeaders)
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(envPrefix + name); ok {
		*dst = v
	}
}

func envDuration(name string, dst *time.Duration) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}

func envInt(name string, dst *int) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func envBool(name string, dst *bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(err)
	}
	*dst = b
}
