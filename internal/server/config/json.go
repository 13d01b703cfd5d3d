package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/docshare/internal/flagx"
	"github.com/dmitrijs2005/docshare/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept either a
// string such as "15m" or integer nanoseconds. Absent fields keep the
// value already in Config.
type JsonConfig struct {
	HTTPAddr         string         `json:"http_addr"`
	GRPCAddr         string         `json:"grpc_addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	SecretKey        string         `json:"secret_key"`
	IdentityTokenTTL timex.Duration `json:"identity_token_ttl"`
	ResourceTokenTTL timex.Duration `json:"resource_token_ttl"`
	PublicBaseURL    string         `json:"public_base_url"`
	SeedFile         string         `json:"seed_file"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	LogLevel         string         `json:"log_level"`
}

// parseJson overlays the file named by -c/-config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.JsonConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.IdentityTokenTTL.Duration != 0 {
		config.IdentityTokenTTL = c.IdentityTokenTTL.Duration
	}
	if c.ResourceTokenTTL.Duration != 0 {
		config.ResourceTokenTTL = c.ResourceTokenTTL.Duration
	}
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.SeedFile, c.SeedFile)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
