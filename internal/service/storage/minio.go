// Package storage keeps uploaded files in an S3 compatible bucket.
package storage

import (
	"SourceHub/entity"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL prefixes object links; defaults to the endpoint.
	PublicURL string
}

const readPolicy = `{
	"Version": "2012-10-17",
	"Statement": [{
		"Action": ["s3:GetObject"],
		"Effect": "Allow",
		"Principal": "*",
		"Resource": "arn:aws:s3:::%s/*"
	}]
}`

type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStore connects and creates the bucket with public read access if missing.
func NewMinioStore(ctx context.Context, cfg Config) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err = client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
		if err = client.SetBucketPolicy(ctx, cfg.Bucket, fmt.Sprintf(readPolicy, cfg.Bucket)); err != nil {
			return nil, fmt.Errorf("minio bucket policy: %w", err)
		}
	}

	return &MinioStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL(cfg),
	}, nil
}

func baseURL(cfg Config) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
}

// ObjectKey places a file under folder with a random name keeping its extension.
func ObjectKey(folder, filename string) string {
	return path.Join(folder, uuid.NewString()+strings.ToLower(path.Ext(filename)))
}

func (s *MinioStore) url(key string) string {
	return s.baseURL + "/" + s.bucket + "/" + key
}

func (s *MinioStore) Upload(ctx context.Context, filename string, reader io.Reader, limit int64, meta entity.FileMetadata) (*entity.StoredFile, error) {
	key := ObjectKey(meta.Folder, filename)
	info, err := s.client.PutObject(ctx, s.bucket, key, io.LimitReader(reader, limit+1), -1, minio.PutObjectOptions{
		ContentType: meta.MIMEType,
		UserMetadata: map[string]string{
			"filename": path.Base(filename),
			"uploader": meta.Uploader,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("minio put: %w", err)
	}
	if info.Size > limit {
		_ = s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
		return nil, entity.FileTooLargeError(filename, info.Size, limit)
	}

	return &entity.StoredFile{
		Key:  key,
		URL:  s.url(key),
		Size: info.Size,
	}, nil
}

func (s *MinioStore) Open(ctx context.Context, key string) (string, entity.FileMetadata, io.ReadCloser, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", entity.FileMetadata{}, nil, fmt.Errorf("file %s: %w", key, entity.ErrNotFound)
		}
		return "", entity.FileMetadata{}, nil, fmt.Errorf("minio stat: %w", err)
	}
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", entity.FileMetadata{}, nil, fmt.Errorf("minio get: %w", err)
	}

	name := stat.UserMetadata["Filename"]
	if name == "" {
		name = path.Base(key)
	}
	meta := entity.FileMetadata{
		MIMEType: stat.ContentType,
		Folder:   path.Dir(key),
		Uploader: stat.UserMetadata["Uploader"],
	}
	return name, meta, object, nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove: %w", err)
	}
	return nil
}
