package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hubfolio/hubfolio-backend/internal/logger"
	"github.com/hubfolio/hubfolio-backend/internal/utils"
)

type minioStore struct {
	log    *logger.Logger
	client *minio.Client
	bucket string
}

// NewMinioStore builds the object store gateway from environment config.
func NewMinioStore(log *logger.Logger) (ObjectStore, error) {
	serviceLog := log.With("service", "MinioStore")

	endpoint := utils.GetEnv("MINIO_ENDPOINT", "localhost:9000", log)
	accessKey := utils.GetEnv("MINIO_ACCESS_KEY", "hubfolio_admin", log)
	secretKey := utils.GetEnv("MINIO_SECRET_KEY", "", log)
	bucket := utils.GetEnv("MINIO_BUCKET", "hubfolio-data", log)
	useSSL := utils.GetEnvAsBool("MINIO_USE_SSL", false, log)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	serviceLog.Info("Object storage initialized", "endpoint", endpoint, "bucket", bucket)
	return &minioStore{log: serviceLog, client: client, bucket: bucket}, nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}

func (ms *minioStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	obj, err := ms.client.GetObject(ctx, ms.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("get object %s: %w", key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

func (ms *minioStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := ms.client.PutObject(ctx, ms.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	ms.log.Debug("Object stored", "key", key, "size", len(data))
	return nil
}

func (ms *minioStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := ms.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (ms *minioStore) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	info, err := ms.client.StatObject(ctx, ms.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("stat object %s: %w", key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}
	return &ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		LastModified: info.LastModified,
		ContentType:  info.ContentType,
	}, nil
}

func (ms *minioStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	var out []ObjectInfo
	for obj := range ms.client.ListObjects(ctx, ms.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects with prefix %q: %w", prefix, obj.Err)
		}
		out = append(out, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ContentType:  obj.ContentType,
		})
	}
	return out, nil
}

func (ms *minioStore) Remove(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := ms.client.RemoveObject(ctx, ms.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

func (ms *minioStore) EnsureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	exists, err := ms.client.BucketExists(ctx, ms.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", ms.bucket, err)
	}
	if exists {
		return nil
	}
	if err := ms.client.MakeBucket(ctx, ms.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", ms.bucket, err)
	}
	ms.log.Info("Bucket created", "bucket", ms.bucket)
	return nil
}

func (ms *minioStore) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := ms.client.BucketExists(ctx, ms.bucket)
	return err == nil
}
