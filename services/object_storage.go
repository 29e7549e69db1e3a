package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rpupo63/myblog-backend/config"
	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rs/zerolog"
)

// ObjectPutter is the part of the S3 client used for mirroring.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type ObjectStorageConfig struct {
	Bucket       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Region       string
	PublicDomain string
	DefaultACL   string
	KeyPrefix    string
}

func ObjectStorageConfigFrom(cfg map[string]string) ObjectStorageConfig {
	return ObjectStorageConfig{
		Bucket:       config.GetString(cfg, "OBJECT_STORAGE_BUCKET", ""),
		Endpoint:     config.GetString(cfg, "OBJECT_STORAGE_ENDPOINT", ""),
		AccessKey:    config.GetString(cfg, "OBJECT_STORAGE_ACCESS_KEY", ""),
		SecretKey:    config.GetString(cfg, "OBJECT_STORAGE_SECRET_KEY", ""),
		Region:       config.GetString(cfg, "OBJECT_STORAGE_REGION", "us-east-1"),
		PublicDomain: config.GetString(cfg, "OBJECT_STORAGE_PUBLIC_DOMAIN", ""),
		DefaultACL:   config.GetString(cfg, "OBJECT_STORAGE_DEFAULT_ACL", ""),
		KeyPrefix:    config.GetString(cfg, "OBJECT_STORAGE_KEY_PREFIX", ""),
	}
}

// Ready reports whether the environment carries everything needed to upload.
func (c ObjectStorageConfig) Ready() bool {
	return c.Bucket != "" && c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

// ObjectStorage mirrors files to an S3-compatible bucket.
type ObjectStorage struct {
	client ObjectPutter
	cfg    ObjectStorageConfig
	logger zerolog.Logger
}

// NewObjectStorage builds an S3 client for cfg. It returns nil when cfg is not Ready.
func NewObjectStorage(ctx context.Context, cfg ObjectStorageConfig, logger zerolog.Logger) (*ObjectStorage, error) {
	if !cfg.Ready() {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load object storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})
	return NewObjectStorageWithClient(client, cfg, logger), nil
}

func NewObjectStorageWithClient(client ObjectPutter, cfg ObjectStorageConfig, logger zerolog.Logger) *ObjectStorage {
	return &ObjectStorage{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("service", "objectStorage").Logger(),
	}
}

// Key returns the object key for a path relative to the media root.
func (o *ObjectStorage) Key(name string) string {
	name = strings.TrimPrefix(name, "/")
	if o.cfg.KeyPrefix == "" {
		return name
	}
	return strings.TrimSuffix(o.cfg.KeyPrefix, "/") + "/" + name
}

func (o *ObjectStorage) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(o.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}
	if o.cfg.DefaultACL != "" {
		input.ACL = types.ObjectCannedACL(o.cfg.DefaultACL)
	}

	if _, err := o.client.PutObject(ctx, input); err != nil {
		return errs.NewObjectStorageError(key, err)
	}
	o.logger.Debug().Str("key", key).Int("bytes", len(body)).Msg("object uploaded")
	return nil
}

// PublicURL builds <domain>/<bucket>/<key>, where domain is the CDN domain
// when set, then the configured public domain, then the endpoint.
func (o *ObjectStorage) PublicURL(key, cdnDomain string) string {
	domain := cdnDomain
	if domain == "" {
		domain = o.cfg.PublicDomain
	}
	if domain == "" {
		domain = o.cfg.Endpoint
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(domain, "/"), o.cfg.Bucket, strings.TrimLeft(key, "/"))
}
