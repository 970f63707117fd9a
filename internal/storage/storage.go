package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by GetObject when the key does not exist.
var ErrNotFound = errors.New("storage: object not found")

// ErrUnavailable is returned when the backend cannot be reached.
var ErrUnavailable = errors.New("storage: backend unavailable")

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// PutInfo confirms a completed write.
type PutInfo struct {
	Bucket string
	Key    string
}

// Gateway is the capability contract over an object store.
//
// ListObjects re-lists current state on every call; callers may re-issue
// it to observe writes made since the previous listing.
type Gateway interface {
	// BucketExists reports whether the bucket exists. A failed existence
	// check that is not a connectivity failure is reported as absent.
	BucketExists(ctx context.Context, bucket string) (bool, error)

	// MakeBucket creates the bucket.
	MakeBucket(ctx context.Context, bucket string) error

	// ListObjects returns all objects under prefix. With recursive set,
	// the listing descends into sub-prefixes.
	ListObjects(ctx context.Context, bucket, prefix string, recursive bool) ([]ObjectInfo, error)

	// PutObject writes data under key, overwriting any existing object.
	PutObject(ctx context.Context, bucket, key string, data []byte) (PutInfo, error)

	// GetObject opens the object for reading. Returns ErrNotFound if the
	// key is absent. The caller must close the reader.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// ReadObject fetches an object and returns its full contents.
func ReadObject(ctx context.Context, gw Gateway, bucket, key string) ([]byte, error) {
	rc, err := gw.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
