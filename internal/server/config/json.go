package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/gestcard/internal/flagx"
	"github.com/dmitrijs2005/gestcard/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Duration
// fields accept "15m" style strings or integer nanoseconds. Pointer and zero
// values mean "not set" and leave the current value alone.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	RefreshSecretKey             string         `json:"refresh_secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	ResetTokenValidityDuration   timex.Duration `json:"reset_token_validity_duration"`
	LogLevel                     string         `json:"log_level"`
	LogBackend                   string         `json:"log_backend"`
	LogDevelopment               *bool          `json:"log_development"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	UploadURLValidityDuration    timex.Duration `json:"upload_url_validity_duration"`
	GoogleClientID               string         `json:"google_client_id"`
	RateLimitPerMinute           int            `json:"rate_limit_per_minute"`
	RateLimitBurst               int            `json:"rate_limit_burst"`
	TrustProxyHeaders            *bool          `json:"trust_proxy_headers"`
}

// parseJson loads the file named by -c/-config, if any, and copies every set
// field into config. It panics when the file cannot be read or parsed.
func parseJson(config *Config) {
	path := flagx.ConfigFile(os.Args[1:])
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.RefreshSecretKey, c.RefreshSecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setInt(&config.BcryptCost, c.BcryptCost)
	setDuration(&config.ResetTokenValidityDuration, c.ResetTokenValidityDuration)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogBackend, c.LogBackend)
	if c.LogDevelopment != nil {
		config.LogDevelopment = *c.LogDevelopment
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.UploadURLValidityDuration, c.UploadURLValidityDuration)
	setString(&config.GoogleClientID, c.GoogleClientID)
	setInt(&config.RateLimitPerMinute, c.RateLimitPerMinute)
	setInt(&config.RateLimitBurst, c.RateLimitBurst)
	if c.TrustProxyHeaders != nil {
		config.TrustProxyHeaders = *c.TrustProxyHeaders
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
