package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gestcard/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
// Supported flags:
//
//	-a string       HTTP bind address (e.g. ":8080")
//	-g string       gRPC bind address (e.g. ":50051")
//	-d string       PostgreSQL DSN
//	-s string       access token HMAC secret
//	-rs string      refresh token HMAC secret
//	-t int          access token validity, minutes
//	-r int          refresh token validity, minutes
//	-l string       log level
//	-u string       S3 root user
//	-p string       S3 root password
//	-b string       S3 bucket name
//	-region string  S3 region
//	-e string       S3 base endpoint
//	-google string  Google client id
//
// Only these flags are looked at, so other components may define their own.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-g", "-d", "-s", "-rs", "-t", "-r", "-l", "-u", "-p", "-b", "-region", "-e", "-google",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "access token secret key")
	fs.StringVar(&config.RefreshSecretKey, "rs", config.RefreshSecretKey, "refresh token secret key")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidity := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "region", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.GoogleClientID, "google", config.GoogleClientID, "Google OAuth client id")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Minute flags only replace a duration when given, so finer values from
	// the environment or JSON survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidity) * time.Minute
		}
	})
}
