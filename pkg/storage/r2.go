package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Storage writes objects to a Cloudflare R2 bucket through its S3 API.
type R2Storage struct {
	client        *s3.Client
	bucketName    string
	publicURL     string
	uploadTimeout time.Duration
}

type R2Options struct {
	AccountID     string
	AccessKey     string
	SecretKey     string
	BucketName    string
	PublicURL     string
	UploadTimeout time.Duration
}

func NewR2Storage(ctx context.Context, opts R2Options) (*R2Storage, error) {
	if opts.AccountID == "" || opts.BucketName == "" {
		return nil, errors.New("r2: account id and bucket are required")
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", opts.AccountID))
		o.UsePathStyle = true
	})

	timeout := opts.UploadTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &R2Storage{
		client:        client,
		bucketName:    opts.BucketName,
		publicURL:     strings.TrimSuffix(opts.PublicURL, "/"),
		uploadTimeout: timeout,
	}, nil
}

// PutObject uploads data under key and returns its public URL.
func (s *R2Storage) PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", errors.New("r2: empty object key")
	}

	uploadCtx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	_, err := s.client.PutObject(uploadCtx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to R2: %w", key, err)
	}
	return s.ObjectURL(key), nil
}

func (s *R2Storage) ObjectURL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicURL, strings.TrimPrefix(key, "/"))
}
