package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/interntrack/internal/common"
)

type memObject struct {
	Object
	data []byte
}

// MemoryStore is an in-process Store. Presigned URLs use the memory:// scheme
// and are not fetchable.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject), now: time.Now}
}

func (m *MemoryStore) Put(_ context.Context, key string, body io.Reader, size int64, contentType string, meta map[string]string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("body length %d does not match declared size %d", len(data), size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{
		Object: Object{
			Key:          key,
			Size:         size,
			ContentType:  contentType,
			LastModified: m.now(),
			Metadata:     maps.Clone(meta),
		},
		data: data,
	}
	return nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Object{}
	for k, o := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, Object{Key: o.Key, Size: o.Size, LastModified: o.LastModified})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryStore) Stat(_ context.Context, key string) (*Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := o.Object
	cp.Metadata = maps.Clone(o.Metadata)
	return &cp, nil
}

// Delete is idempotent, like S3 DeleteObject.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", common.ErrorNotFound
	}
	return fmt.Sprintf("memory://blobs/%s?expires=%d", url.PathEscape(key), m.now().Add(ttl).Unix()), nil
}

// Content returns a copy of the stored bytes.
func (m *MemoryStore) Content(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(o.data), true
}

// SetClock replaces the time source used for LastModified.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}
