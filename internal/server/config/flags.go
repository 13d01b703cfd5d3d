package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/docshare/internal/flagx"
)

// parseFlags overlays the short command-line flags:
//
//	-a  HTTP bind address          -r  gRPC bind address
//	-d  database DSN               -s  token signing secret
//	-t  identity token TTL         -l  download link TTL
//	-w  public base URL            -f  seed file
//	-u  S3 root user               -p  S3 root password
//	-b  S3 bucket                  -g  S3 region
//	-e  S3 base endpoint           -v  log level
//
// Arguments belonging to other flag sets are filtered out first.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{
		"-a", "-r", "-d", "-s", "-t", "-l", "-w", "-f", "-u", "-p", "-b", "-g", "-e", "-v",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "r", config.GRPCAddr, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.DurationVar(&config.IdentityTokenTTL, "t", config.IdentityTokenTTL, "identity token validity (e.g. 1h)")
	fs.DurationVar(&config.ResourceTokenTTL, "l", config.ResourceTokenTTL, "download link validity (e.g. 15m)")
	fs.StringVar(&config.PublicBaseURL, "w", config.PublicBaseURL, "public base URL for download links")
	fs.StringVar(&config.SeedFile, "f", config.SeedFile, "YAML file with accounts to seed")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level (debug, info, warn, error)")

	return fs.Parse(args)
}
