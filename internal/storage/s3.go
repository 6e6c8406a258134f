// Package storage keeps member photos in S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/memberdir/admin_api/internal/config"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// S3API is the subset of the S3 client used by PhotoStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PhotoStore uploads member photos to a bucket.
type PhotoStore struct {
	client  S3API
	bucket  string
	baseURL string
}

// NewPhotoStore creates a PhotoStore. Object URLs are built from
// cfg.PublicBaseURL when set, otherwise from the bucket's virtual-host URL.
func NewPhotoStore(client S3API, cfg *config.S3Config) (*PhotoStore, error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is not configured")
	}
	base := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &PhotoStore{client: client, bucket: cfg.Bucket, baseURL: base}, nil
}

// NewS3Client builds an S3 client. A custom endpoint switches to path-style
// addressing for S3-compatible services.
func NewS3Client(awsCfg aws.Config, cfg *config.S3Config) *s3.Client {
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Region != "" {
			o.Region = cfg.Region
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
}

// PutMemberPhoto uploads body under a fresh key for memberID and returns its URL.
func (s *PhotoStore) PutMemberPhoto(ctx context.Context, memberID, contentType string, body io.Reader, size int64) (string, error) {
	key := s.photoKey(memberID, contentType)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}

func (s *PhotoStore) photoKey(memberID, contentType string) string {
	return fmt.Sprintf("members/%s/photo-%s%s", memberID, uuid.NewString()[:8], extensions[contentType])
}
