package media

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/xid"
)

// keyPrefix namespaces gallery objects inside the bucket.
const keyPrefix = "user_uploads"

// S3Config holds the connection settings for the object store.
// Endpoint and UsePathStyle make the same client work against AWS S3,
// MinIO, or R2 — most non-AWS endpoints require path-style addressing.
type S3Config struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	Endpoint     string // optional: custom endpoint for S3-compatible stores
	UsePathStyle bool
	BaseURL      string // optional: public URL prefix override (e.g. a CDN)
}

// S3Store implements Store on an S3-compatible bucket.
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// interface check
var _ Store = (*S3Store)(nil)

// NewS3Store creates an S3-backed media store.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	var awsCfg aws.Config
	var err error

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		// Static credentials (explicit keys, or MinIO in development)
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)),
		)
	} else {
		// Default credential chain (IAM roles, env vars, etc.)
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("media: loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		// Standard virtual-hosted S3 URL. Stores behind a custom endpoint
		// or CDN should set BaseURL explicitly.
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
	}, nil
}

// Upload stores the file under a freshly generated key and returns its
// public URL. The key keeps the original filename's extension so the
// served object gets a sensible name, but is otherwise unguessable.
func (s *S3Store) Upload(ctx context.Context, file File) (StoredObject, error) {
	key := fmt.Sprintf("%s/%s%s", keyPrefix, xid.New().String(), path.Ext(file.Name))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file.Data),
		ContentType: aws.String(file.ContentType),
	})
	if err != nil {
		return StoredObject{}, fmt.Errorf("media: uploading object: %w", err)
	}

	return StoredObject{
		URL: s.baseURL + "/" + key,
		Key: key,
	}, nil
}

// Delete removes the object. S3 DeleteObject succeeds on missing keys,
// which matches the Store contract.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("media: deleting object %s: %w", key, err)
	}
	return nil
}
