package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Storage stores uploaded bill documents in S3-compatible storage.
type S3Storage struct {
	s3Client *s3.S3
	bucket   string
}

// Config holds configuration for S3 storage
type Config struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Region          string
}

// NewS3Storage creates a new S3 document store
func NewS3Storage(config *Config) (*S3Storage, error) {
	if config.Endpoint == "" || config.AccessKeyID == "" || config.AccessKeySecret == "" {
		return nil, fmt.Errorf("S3 configuration is incomplete")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is not configured")
	}

	sess := session.Must(session.NewSession(&aws.Config{
		Region:           aws.String(config.Region),
		Endpoint:         aws.String(config.Endpoint),
		Credentials:      credentials.NewStaticCredentials(config.AccessKeyID, config.AccessKeySecret, ""),
		S3ForcePathStyle: aws.Bool(true),
	}))

	return &S3Storage{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
	}, nil
}

// Upload stores the document bytes under the given key
func (s *S3Storage) Upload(data []byte, key string) error {
	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/pdf"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload document: %w", err)
	}
	return nil
}

// Download streams the document stored under the given key
func (s *S3Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download document: %w", err)
	}
	return out.Body, nil
}
