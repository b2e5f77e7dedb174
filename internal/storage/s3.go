package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	appconfig "archive-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrMalformedURL is returned when a stored URL does not point into the bucket
var ErrMalformedURL = errors.New("url does not reference the storage bucket")

// ObjectStore stores image blobs in an S3-compatible bucket
type ObjectStore struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewObjectStore creates an S3 client from the storage configuration
func NewObjectStore(ctx context.Context, cfg appconfig.StorageConfig) (*ObjectStore, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &ObjectStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: PublicBaseURL(cfg),
	}, nil
}

// PublicBaseURL returns the URL prefix objects are served from. The bucket
// name is always a path segment so stored URLs can be mapped back to keys.
func PublicBaseURL(cfg appconfig.StorageConfig) string {
	base := strings.TrimSuffix(cfg.PublicURL, "/")
	if base == "" && cfg.Endpoint != "" {
		base = strings.TrimSuffix(cfg.Endpoint, "/")
	}
	if base == "" {
		base = fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.Region)
	}
	return base + "/" + cfg.Bucket
}

// Put uploads an object. It fails rather than overwrite an existing key.
func (s *ObjectStore) Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        body,
		IfNoneMatch: aws.String("*"),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload object %s: %w", path, err)
	}
	return nil
}

// Delete removes an object
func (s *ObjectStore) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}
	return nil
}

// PublicURL returns the URL an object is served from
func (s *ObjectStore) PublicURL(path string) string {
	return s.baseURL + "/" + path
}

// PathFromURL recovers the object key from a URL produced by PublicURL
func (s *ObjectStore) PathFromURL(url string) (string, error) {
	return PathFromURL(s.bucket, url)
}

// PathFromURL returns the part of url after the first "/{bucket}/" segment.
func PathFromURL(bucket, url string) (string, error) {
	_, path, found := strings.Cut(url, "/"+bucket+"/")
	if !found || path == "" {
		return "", fmt.Errorf("%w: %q", ErrMalformedURL, url)
	}
	return path, nil
}
