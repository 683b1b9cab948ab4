package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gorod-sporta/internal/core/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

type S3Options struct {
	Bucket        string
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Storage keeps review photos in an S3 compatible bucket (R2, MinIO, AWS).
type S3Storage struct {
	client  putObjectAPI
	bucket  string
	baseURL string
	log     *zap.Logger
}

var _ ports.PhotoStorage = (*S3Storage)(nil)

func NewS3Storage(ctx context.Context, opts S3Options, log *zap.Logger) (*S3Storage, error) {
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	if opts.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := opts.PublicBaseURL
	if baseURL == "" {
		baseURL = strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
	}
	return newS3Storage(client, opts.Bucket, baseURL, log), nil
}

func newS3Storage(client putObjectAPI, bucket, baseURL string, log *zap.Logger) *S3Storage {
	return &S3Storage{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

func (s *S3Storage) Save(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	// the SDK signs the payload, which needs a seekable body
	buf := new(bytes.Buffer)
	if size > 0 {
		buf.Grow(int(size))
	}
	if _, err := io.Copy(buf, body); err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(buf.Len())),
	})
	if err != nil {
		s.log.Error("storage: failed to upload photo", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("upload photo: %w", err)
	}

	s.log.Info("storage: photo uploaded", zap.String("key", key), zap.Int("size", buf.Len()))
	return s.baseURL + "/" + key, nil
}
