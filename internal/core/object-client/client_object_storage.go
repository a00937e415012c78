package objectclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	cfg "github.com/markdave123-py/Slidewise/internal/config"
	"github.com/markdave123-py/Slidewise/internal/core"
)

var _ core.ObjectClient = (*S3Client)(nil)

// S3Client stores slide media in S3 or any S3-compatible service.
type S3Client struct {
	client    *s3.Client
	uploader  *manager.Uploader
	bucket    string
	publicURL string
	log       zerolog.Logger
	disabled  bool
}

func NewS3Client(ctx context.Context, cfg *cfg.Config, log zerolog.Logger) (*S3Client, error) {
	logger := log.With().Str("component", "s3-storage").Logger()
	c := &S3Client{bucket: cfg.BucketName, log: logger}

	if cfg.AwsAccessKey == "" || cfg.AwsSecretKey == "" || cfg.BucketName == "" {
		logger.Warn().Msg("AWS credentials or BUCKET_NAME not set; slide images will be skipped")
		c.disabled = true
		return c, nil
	}
	if cfg.AwsRegion == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(cfg.AwsRegion),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AwsAccessKey, cfg.AwsSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	c.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})
	c.uploader = manager.NewUploader(c.client)
	c.publicURL = publicBaseURL(cfg)

	logger.Info().Str("bucket", c.bucket).Str("public_url", c.publicURL).Msg("s3 storage initialized")
	return c, nil
}

// publicBaseURL is the prefix object keys are appended to in returned URLs.
func publicBaseURL(cfg *cfg.Config) string {
	endpoint := strings.TrimSuffix(cfg.S3PublicEndpoint, "/")
	if endpoint == "" {
		endpoint = strings.TrimSuffix(cfg.S3Endpoint, "/")
	}
	switch {
	case endpoint == "":
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.BucketName, cfg.AwsRegion)
	case cfg.S3UsePathStyle:
		return endpoint + "/" + cfg.BucketName
	default:
		return endpoint
	}
}

func (c *S3Client) ensureEnabled() error {
	if c.disabled {
		return core.ErrStorageDisabled
	}
	return nil
}

// UploadFile uploads an object and returns its public URL.
func (c *S3Client) UploadFile(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := c.ensureEnabled(); err != nil {
		return "", err
	}
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}
	c.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("object uploaded")
	return c.publicURL + "/" + key, nil
}

func (c *S3Client) GetFile(ctx context.Context, key string) ([]byte, error) {
	if err := c.ensureEnabled(); err != nil {
		return nil, err
	}
	resp, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("object %s: %w", key, core.ErrNotFound)
		}
		return nil, fmt.Errorf("s3 get failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// DeleteFile removes an object. S3 treats missing keys as deleted.
func (c *S3Client) DeleteFile(ctx context.Context, key string) error {
	if err := c.ensureEnabled(); err != nil {
		return err
	}
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

func (c *S3Client) Enabled() bool { return !c.disabled }

// Health checks the bucket is reachable.
func (c *S3Client) Health(ctx context.Context) error {
	if c.disabled {
		return nil
	}
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	return err
}
