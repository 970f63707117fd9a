package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Gateway used by tests and local dry runs.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte

	// ListErr, when set, makes ListObjects fail. Exercises fail-open
	// paths in callers.
	ListErr error
}

// NewMemory creates an empty in-memory gateway.
func NewMemory() *Memory {
	return &Memory{buckets: make(map[string]map[string][]byte)}
}

func (m *Memory) BucketExists(_ context.Context, bucket string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.buckets[bucket]
	return ok, nil
}

func (m *Memory) MakeBucket(_ context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; ok {
		return fmt.Errorf("bucket %s already exists", bucket)
	}
	m.buckets[bucket] = make(map[string][]byte)
	return nil
}

func (m *Memory) ListObjects(_ context.Context, bucket, prefix string, recursive bool) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}

	objects := make([]ObjectInfo, 0)
	for key, data := range m.buckets[bucket] {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if !recursive && strings.Contains(strings.TrimPrefix(key, prefix), "/") {
			continue
		}
		objects = append(objects, ObjectInfo{Key: key, Size: int64(len(data))})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (m *Memory) PutObject(_ context.Context, bucket, key string, data []byte) (PutInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	objs, ok := m.buckets[bucket]
	if !ok {
		objs = make(map[string][]byte)
		m.buckets[bucket] = objs
	}
	objs[key] = append([]byte(nil), data...)
	return PutInfo{Bucket: bucket, Key: key}, nil
}

func (m *Memory) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), data...))), nil
}
