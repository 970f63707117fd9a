package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/wiroj/stocketl/internal/metrics"
)

// MinIOGateway implements Gateway over any S3-compatible endpoint.
type MinIOGateway struct {
	client *minio.Client
	logger *slog.Logger
}

// MinIOOptions configures a MinIOGateway.
type MinIOOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Logger    *slog.Logger
}

// NewMinIO creates a gateway backed by a MinIO/S3 endpoint.
func NewMinIO(opts MinIOOptions) (*MinIOGateway, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &MinIOGateway{client: cli, logger: logger}, nil
}

func (g *MinIOGateway) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := g.client.BucketExists(ctx, bucket)
	if err != nil {
		metrics.StorageOps.WithLabelValues("stat", "failure").Inc()
		if isConnErr(err) {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		// A failed check that is not connectivity is treated as absent.
		g.logger.Warn("bucket existence check failed", "bucket", bucket, "error", err)
		return false, nil
	}
	metrics.StorageOps.WithLabelValues("stat", "success").Inc()
	return exists, nil
}

func (g *MinIOGateway) MakeBucket(ctx context.Context, bucket string) error {
	if err := g.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		metrics.StorageOps.WithLabelValues("make_bucket", "failure").Inc()
		return fmt.Errorf("make bucket %s: %w", bucket, err)
	}
	metrics.StorageOps.WithLabelValues("make_bucket", "success").Inc()
	return nil
}

func (g *MinIOGateway) ListObjects(ctx context.Context, bucket, prefix string, recursive bool) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for obj := range g.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: recursive,
	}) {
		if obj.Err != nil {
			metrics.StorageOps.WithLabelValues("list", "failure").Inc()
			return nil, fmt.Errorf("%w: list %s/%s: %v", ErrUnavailable, bucket, prefix, obj.Err)
		}
		objects = append(objects, ObjectInfo{Key: obj.Key, Size: obj.Size})
	}
	metrics.StorageOps.WithLabelValues("list", "success").Inc()
	return objects, nil
}

func (g *MinIOGateway) PutObject(ctx context.Context, bucket, key string, data []byte) (PutInfo, error) {
	reader := bytes.NewReader(data)
	_, err := g.client.PutObject(ctx, bucket, key, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		metrics.StorageOps.WithLabelValues("put", "failure").Inc()
		return PutInfo{}, fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	metrics.StorageOps.WithLabelValues("put", "success").Inc()
	return PutInfo{Bucket: bucket, Key: key}, nil
}

func (g *MinIOGateway) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := g.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		metrics.StorageOps.WithLabelValues("get", "failure").Inc()
		return nil, fmt.Errorf("get %s/%s: %w", bucket, key, err)
	}

	// GetObject is lazy: probe so a missing key surfaces here, not at
	// first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		metrics.StorageOps.WithLabelValues("get", "failure").Inc()
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s/%s: %w", bucket, key, err)
	}

	metrics.StorageOps.WithLabelValues("get", "success").Inc()
	return obj, nil
}

// isConnErr reports whether err looks like a transport-level failure
// rather than an API-level rejection.
func isConnErr(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
