package s3archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
)

// Client wraps the S3 client with document archival functionality. Uploads
// keep serving from local disk; the archive copy is for retention and
// disaster recovery.
type Client struct {
	s3Client *s3.Client
	config   *Config
}

// NewClient creates a new S3 archival client
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("S3 archival is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible services generally require path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
	}

	if err := client.testConnection(); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[S3Archive] Successfully initialized S3 client for bucket: %s", cfg.GetBucketName())
	return client, nil
}

// testConnection checks if the configured bucket is reachable
func (c *Client) testConnection() error {
	_, err := c.s3Client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(c.config.GetBucketName()),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", c.config.GetBucketName(), err)
	}
	return nil
}

// ArchiveDocument uploads one stored document's bytes under its object key
func (c *Client) ArchiveDocument(ctx context.Context, storedName string, data []byte) error {
	objectKey := c.config.ObjectKey(storedName)
	bucketName := c.config.GetBucketName()

	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucketName),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/pdf"),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]string{
			"stored-name":   storedName,
			"upload-source": "parsemint-archive",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Infof("[S3Archive] Archived document: s3://%s/%s (%d bytes)", bucketName, objectKey, len(data))
	return nil
}

// RetrieveDocument downloads an archived document's bytes
func (c *Client) RetrieveDocument(ctx context.Context, storedName string) ([]byte, error) {
	result, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.GetBucketName()),
		Key:    aws.String(c.config.ObjectKey(storedName)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}

// DeleteDocument removes an archived document
func (c *Client) DeleteDocument(ctx context.Context, storedName string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.config.GetBucketName()),
		Key:    aws.String(c.config.ObjectKey(storedName)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}
	return nil
}

// DocumentExists checks if an archived copy exists
func (c *Client) DocumentExists(ctx context.Context, storedName string) (bool, error) {
	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.config.GetBucketName()),
		Key:    aws.String(c.config.ObjectKey(storedName)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}
