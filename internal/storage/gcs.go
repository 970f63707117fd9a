package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/wiroj/stocketl/internal/metrics"
)

// GCSGateway implements Gateway over Google Cloud Storage.
type GCSGateway struct {
	client    *gcs.Client
	projectID string
	logger    *slog.Logger
}

// GCSOptions configures a GCSGateway. Credentials come from the ambient
// application-default chain.
type GCSOptions struct {
	ProjectID string
	Logger    *slog.Logger
}

// NewGCS creates a gateway backed by Google Cloud Storage.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCSGateway, error) {
	cli, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &GCSGateway{client: cli, projectID: opts.ProjectID, logger: logger}, nil
}

// Close releases the underlying client.
func (g *GCSGateway) Close() error {
	return g.client.Close()
}

func (g *GCSGateway) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := g.client.Bucket(bucket).Attrs(ctx)
	if err == nil {
		metrics.StorageOps.WithLabelValues("stat", "success").Inc()
		return true, nil
	}
	metrics.StorageOps.WithLabelValues("stat", "failure").Inc()
	if errors.Is(err, gcs.ErrBucketNotExist) {
		return false, nil
	}
	if isConnErr(err) || ctx.Err() != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	g.logger.Warn("bucket existence check failed", "bucket", bucket, "error", err)
	return false, nil
}

func (g *GCSGateway) MakeBucket(ctx context.Context, bucket string) error {
	if err := g.client.Bucket(bucket).Create(ctx, g.projectID, nil); err != nil {
		metrics.StorageOps.WithLabelValues("make_bucket", "failure").Inc()
		return fmt.Errorf("make bucket %s: %w", bucket, err)
	}
	metrics.StorageOps.WithLabelValues("make_bucket", "success").Inc()
	return nil
}

func (g *GCSGateway) ListObjects(ctx context.Context, bucket, prefix string, recursive bool) ([]ObjectInfo, error) {
	query := &gcs.Query{Prefix: prefix}
	if !recursive {
		query.Delimiter = "/"
	}

	var objects []ObjectInfo
	it := g.client.Bucket(bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			metrics.StorageOps.WithLabelValues("list", "failure").Inc()
			return nil, fmt.Errorf("%w: list %s/%s: %v", ErrUnavailable, bucket, prefix, err)
		}
		if attrs.Name == "" {
			// Synthetic prefix entry from the delimiter.
			objects = append(objects, ObjectInfo{Key: attrs.Prefix})
			continue
		}
		objects = append(objects, ObjectInfo{Key: attrs.Name, Size: attrs.Size})
	}
	metrics.StorageOps.WithLabelValues("list", "success").Inc()
	return objects, nil
}

func (g *GCSGateway) PutObject(ctx context.Context, bucket, key string, data []byte) (PutInfo, error) {
	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		metrics.StorageOps.WithLabelValues("put", "failure").Inc()
		return PutInfo{}, fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	if err := w.Close(); err != nil {
		metrics.StorageOps.WithLabelValues("put", "failure").Inc()
		return PutInfo{}, fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	metrics.StorageOps.WithLabelValues("put", "success").Inc()
	return PutInfo{Bucket: bucket, Key: key}, nil
}

func (g *GCSGateway) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	r, err := g.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		metrics.StorageOps.WithLabelValues("get", "failure").Inc()
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s/%s: %w", bucket, key, err)
	}
	metrics.StorageOps.WithLabelValues("get", "success").Inc()
	return r, nil
}
