package config

import (
	"fmt"
	"time"
)

const envPrefix = "DOCSHARE_"

func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"HTTP_ADDR":        &config.HTTPAddr,
		"GRPC_ADDR":        &config.GRPCAddr,
		"DATABASE_DSN":     &config.DatabaseDSN,
		"SECRET_KEY":       &config.SecretKey,
		"PUBLIC_BASE_URL":  &config.PublicBaseURL,
		"SEED_FILE":        &config.SeedFile,
		"S3_ROOT_USER":     &config.S3RootUser,
		"S3_ROOT_PASSWORD": &config.S3RootPassword,
		"S3_BUCKET":        &config.S3Bucket,
		"S3_REGION":        &config.S3Region,
		"S3_BASE_ENDPOINT": &config.S3BaseEndpoint,
		"LOG_LEVEL":        &config.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"IDENTITY_TOKEN_TTL": &config.IdentityTokenTTL,
		"RESOURCE_TOKEN_TTL": &config.ResourceTokenTTL,
	}
	for name, dst := range durations {
		v, ok := lookup(envPrefix + name)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
	}
	return nil
}
