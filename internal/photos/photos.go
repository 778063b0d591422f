// Package photos stores healing check-in photos in S3-compatible object
// storage. The registry keeps only object keys; photo bytes never touch
// the database.
package photos

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Storage uploads and serves healing photos.
type Storage struct {
	cfg    Config
	client s3Client
}

// NewStorage creates a photo storage. With incomplete credentials the
// storage stays unconfigured and uploads are rejected.
func NewStorage(cfg Config) *Storage {
	s := &Storage{cfg: cfg}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		s.client = newS3Client(cfg)
	}
	return s
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Configured reports whether object storage credentials are present.
func (s *Storage) Configured() bool {
	return s.client != nil
}

// Upload stores one photo and returns its object key. Transient storage
// errors are retried with backoff; the body is buffered so each attempt
// rewinds cleanly.
func (s *Storage) Upload(ctx context.Context, clientID string, dayOffset int, contentType string, body io.Reader) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("photo storage not configured")
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read photo body: %w", err)
	}

	key := fmt.Sprintf("photos/%s/day%02d-%s", clientID, dayOffset, uuid.NewString())

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.cfg.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}

	return key, nil
}

// Download streams a stored photo. The caller closes the reader.
func (s *Storage) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !s.Configured() {
		return nil, "", fmt.Errorf("photo storage not configured")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("download photo: %w", err)
	}

	contentType := ""
	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	return out.Body, contentType, nil
}

// Delete removes a stored photo.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if !s.Configured() {
		return fmt.Errorf("photo storage not configured")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}
