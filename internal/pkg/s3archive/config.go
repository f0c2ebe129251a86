package s3archive

import (
	"errors"
	"fmt"

	"github.com/parsemint/parsemint/internal/pkg/env"
)

// Config holds S3 document archival configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("S3_ARCHIVE_ENABLED", "false") == "true",
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when S3 archival is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when S3 archival is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when S3 archival is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if S3 archival is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKey generates a standardized S3 object key for a stored document.
// The stored name already carries the year/month shard, so the key mirrors
// the on-disk layout under a documents/ prefix.
func (c *Config) ObjectKey(storedName string) string {
	return fmt.Sprintf("documents/%s", storedName)
}

// GetBucketName returns the bucket name as configured
func (c *Config) GetBucketName() string {
	return c.BucketName
}
