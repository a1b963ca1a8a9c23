package archives

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrPublishDisabled = errors.New("archive publication is disabled")

type S3Config struct {
	Enabled    bool          `mapstructure:"enabled"`
	Bucket     string        `mapstructure:"bucket" validate:"required_if=Enabled true"`
	Region     string        `mapstructure:"region"`
	Endpoint   string        `mapstructure:"endpoint"`
	Prefix     string        `mapstructure:"prefix"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type objectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Publisher uploads archives to a bucket and hands out presigned
// download links.
type S3Publisher struct {
	config    S3Config
	client    objectPutter
	presigner objectPresigner
}

// NewS3Publisher loads AWS credentials from the default chain. A custom
// endpoint switches to path-style addressing for MinIO and friends.
func NewS3Publisher(ctx context.Context, cfg S3Config) (*S3Publisher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	awsCfg.RetryMaxAttempts = 5
	awsCfg.RetryMode = aws.RetryModeStandard

	return newS3Publisher(cfg, s3.NewFromConfig(awsCfg, endpointOptions(cfg))), nil
}

func newS3Publisher(cfg S3Config, client *s3.Client) *S3Publisher {
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}
	return &S3Publisher{
		config:    cfg,
		client:    client,
		presigner: s3.NewPresignClient(client),
	}
}

func endpointOptions(cfg S3Config) func(*s3.Options) {
	return func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}
}

// Publish uploads the archive at localPath under key and returns a
// presigned GET URL for it.
func (p *S3Publisher) Publish(ctx context.Context, localPath, key, fileName string) (string, error) {
	if p == nil || !p.config.Enabled {
		return "", ErrPublishDisabled
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat archive: %w", err)
	}

	objectKey := path.Join(p.config.Prefix, key)
	disposition := fmt.Sprintf("attachment; filename=%q", fileName)
	if _, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(p.config.Bucket),
		Key:                aws.String(objectKey),
		Body:               f,
		ContentLength:      aws.Int64(info.Size()),
		ContentType:        aws.String("application/zip"),
		ContentDisposition: aws.String(disposition),
	}); err != nil {
		return "", fmt.Errorf("failed to upload archive: %w", err)
	}

	req, err := p.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(p.config.Bucket),
		Key:                        aws.String(objectKey),
		ResponseContentDisposition: aws.String(disposition),
	}, s3.WithPresignExpires(p.config.PresignTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign archive URL: %w", err)
	}

	slog.Info("Archive published", "bucket", p.config.Bucket, "key", objectKey, "size", info.Size())
	return req.URL, nil
}
