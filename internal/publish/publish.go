// Package publish uploads finished archives to S3-compatible object storage.
package publish

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dbsmedya/gobalance/internal/config"
	"github.com/dbsmedya/gobalance/internal/logger"
)

// ArchiveContentType is sent with every upload.
const ArchiveContentType = "application/zip"

// ObjectPutter is the part of *minio.Client the uploader needs.
type ObjectPutter interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// UploadResult describes one stored object.
type UploadResult struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string
}

// Uploader stores local files under bucket/prefix.
type Uploader struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *logger.Logger
}

// NewClient creates a minio client for cfg.
func NewClient(cfg config.UploadConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client for %s: %w", cfg.Endpoint, err)
	}
	return client, nil
}

// New creates an Uploader backed by a minio client built from cfg.
func New(cfg config.UploadConfig, log *logger.Logger) (*Uploader, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewUploader(client, cfg.Bucket, cfg.Prefix, log), nil
}

// NewUploader wraps an existing client. A nil logger discards output.
func NewUploader(client ObjectPutter, bucket, prefix string, log *logger.Logger) *Uploader {
	if log == nil {
		log = logger.NewNop()
	}
	return &Uploader{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: log,
	}
}

// Key returns the object name for a local file: prefix joined with its base name.
func (u *Uploader) Key(localPath string) string {
	return path.Join(u.prefix, filepath.Base(localPath))
}

// Upload stores the file at localPath.
func (u *Uploader) Upload(ctx context.Context, localPath string) (*UploadResult, error) {
	key := u.Key(localPath)

	info, err := u.client.FPutObject(ctx, u.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: ArchiveContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s to %s/%s: %w", localPath, u.bucket, key, err)
	}

	u.logger.Infow("Archive uploaded",
		"bucket", u.bucket,
		"key", key,
		"bytes", info.Size,
	)
	return &UploadResult{
		Bucket: u.bucket,
		Key:    key,
		Size:   info.Size,
		ETag:   info.ETag,
	}, nil
}
