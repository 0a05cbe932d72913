package download

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BucketConfig points at an S3-compatible object store.
type BucketConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	Secure    bool
}

// BucketSink uploads files to an S3-compatible bucket.
type BucketSink struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewBucketSink creates a minio client for cfg.
func NewBucketSink(cfg BucketConfig) (*BucketSink, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket endpoint and name are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init minio client: %w", err)
	}

	return &BucketSink{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Save uploads the file and returns its s3:// location.
func (s *BucketSink) Save(ctx context.Context, f *File) (string, error) {
	key := path.Join(s.prefix, f.Name)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(f.Data), int64(len(f.Data)), minio.PutObjectOptions{
		ContentType: f.MIMEType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
