package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"pdfchat/models"
)

// BlobStorage is the contract the ingestion and admin paths need from an
// object store.
type BlobStorage interface {
	Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (*models.StoredFile, error)
	List(ctx context.Context) ([]models.StoredFile, error)
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) (int, error)
}

// MinioStorage implements BlobStorage over any S3-compatible endpoint.
// Object keys are prefix + 32-hex uuid + "_" + original filename; the
// original name is also kept in object user metadata so listings survive
// the rename.
type MinioStorage struct {
	client *minio.Client
	bucket string
	prefix string
	logger *logrus.Logger
}

// NewMinioStorage connects to the endpoint and ensures the bucket exists.
func NewMinioStorage(ctx context.Context, cfg *Config, logger *logrus.Logger) (*MinioStorage, error) {
	if logger == nil {
		logger = logrus.New()
	}
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.WithField("bucket", cfg.MinioBucket).Info("created storage bucket")
	}

	prefix := cfg.StoragePrefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &MinioStorage{client: client, bucket: cfg.MinioBucket, prefix: prefix, logger: logger}, nil
}

// Save streams one upload into the bucket under a fresh unique key.
func (s *MinioStorage) Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (*models.StoredFile, error) {
	key := s.keyFor(filename)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"original-filename": filename},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", filename, err)
	}

	s.logger.WithFields(logrus.Fields{
		"bucket": s.bucket,
		"key":    key,
		"size":   info.Size,
	}).Info("uploaded file to storage")

	return &models.StoredFile{
		StorageKey:   key,
		OriginalName: filename,
		Size:         info.Size,
		URL:          s.urlFor(ctx, key),
	}, nil
}

// List returns every stored object under the configured prefix.
func (s *MinioStorage) List(ctx context.Context) ([]models.StoredFile, error) {
	files := []models.StoredFile{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list bucket %s: %w", s.bucket, obj.Err)
		}
		files = append(files, models.StoredFile{
			StorageKey:   obj.Key,
			OriginalName: NormalizeFilename(obj.Key),
			Size:         obj.Size,
			URL:          s.urlFor(ctx, obj.Key),
		})
	}
	return files, nil
}

// Delete removes one object. Deleting a missing key is not an error.
func (s *MinioStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// DeleteAll removes every object under the prefix and returns the count.
func (s *MinioStorage) DeleteAll(ctx context.Context) (int, error) {
	deleted := 0
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return deleted, fmt.Errorf("failed to list bucket %s: %w", s.bucket, obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return deleted, fmt.Errorf("failed to delete %s: %w", obj.Key, err)
		}
		deleted++
	}
	s.logger.WithField("count", deleted).Info("deleted all stored files")
	return deleted, nil
}

func (s *MinioStorage) keyFor(filename string) string {
	return fmt.Sprintf("%s%s_%s", s.prefix, strings.ReplaceAll(uuid.New().String(), "-", ""), filepath.Base(filename))
}

// urlFor produces a presigned GET link; listing still works when presigning
// fails, the entry just has no URL.
func (s *MinioStorage) urlFor(ctx context.Context, key string) string {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, time.Hour, url.Values{})
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("could not presign object URL")
		return ""
	}
	return u.String()
}
