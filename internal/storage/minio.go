package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"streamify/internal/config"
	"streamify/internal/logging"
)

// MinioStore writes to a self-hosted MinIO bucket.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStore connects to cfg.Endpoint and creates the bucket if it is missing.
func NewMinioStore(ctx context.Context, cfg config.StorageConfig) (*MinioStore, error) {
	host, secure, err := minioHost(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio storage: connect: %w", err)
	}

	store := &MinioStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: minioBaseURL(cfg, host, secure),
	}
	if err := store.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}
	return store, nil
}

// minioHost accepts either host:port or a URL and returns host:port plus TLS.
func minioHost(endpoint string, useSSL bool) (string, bool, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", false, fmt.Errorf("minio storage: endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		return strings.TrimSuffix(endpoint, "/"), useSSL, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("minio storage: parse endpoint: %w", err)
	}
	return u.Host, u.Scheme == "https", nil
}

func minioBaseURL(cfg config.StorageConfig, host string, secure bool) string {
	if cfg.PublicURL != "" {
		return strings.TrimSuffix(cfg.PublicURL, "/")
	}
	scheme := "http"
	if secure {
		scheme = "https"
	}
	return joinURL(scheme+"://"+host, cfg.Bucket)
}

func (s *MinioStore) ensureBucket(ctx context.Context, region string) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio storage: check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("minio storage: create bucket: %w", err)
	}
	logging.Component(ctx, "storage").Info("bucket created", "bucket", s.bucket)
	return nil
}

func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType, cacheControl string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: cacheControl,
	})
	if err != nil {
		return "", fmt.Errorf("minio storage upload %s: %w", key, err)
	}
	return joinURL(s.baseURL, key), nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio storage delete %s: %w", key, err)
	}
	return nil
}
