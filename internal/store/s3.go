package store

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config describes one S3-compatible store entry from config.
type S3Config struct {
	ID        string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
	AllowHTTP bool
}

// s3Store adapts an S3-compatible provider (AWS S3, MinIO, etc.) to Store.
// It is immutable after construction and holds a long-lived connection pool
// internally via the minio client.
type s3Store struct {
	id     string
	client *minio.Client
	bucket string
}

// NewS3 builds an S3-compatible adapter. It refuses plaintext HTTP to the
// endpoint unless cfg.AllowHTTP is set.
func NewS3(cfg S3Config) (Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("store %q: s3 bucket is required", cfg.ID)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("store %q: s3 access/secret key is required", cfg.ID)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "s3." + cfg.Region + ".amazonaws.com"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: !cfg.AllowHTTP,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("store %q: create s3 client: %w", cfg.ID, err)
	}

	return &s3Store{id: cfg.ID, client: client, bucket: cfg.Bucket}, nil
}

func (s *s3Store) Get(ctx context.Context, path string) (Result, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return Result{}, s.classify(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return Result{}, s.classify(err)
	}

	info, err := obj.Stat()
	if err != nil {
		return Result{}, s.classify(err)
	}

	return Result{Bytes: data, ContentType: info.ContentType}, nil
}

func (s *s3Store) Head(ctx context.Context, path string) (Metadata, error) {
	info, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		return Metadata{}, s.classify(err)
	}
	return Metadata{Size: uint64(info.Size), ContentType: info.ContentType}, nil
}

func (s *s3Store) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return s.classify(err)
	}
	return nil
}

func (s *s3Store) classify(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == 404 {
		return ErrNotFound
	}
	return &UpstreamError{StoreID: s.id, Cause: err}
}
