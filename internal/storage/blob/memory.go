package blob

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a process-local Store for tests and single-node setups.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	puts    int
}

type memoryObject struct {
	data []byte
	meta Metadata
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string]memoryObject{}}
}

// Puts reports how many Put calls succeeded.
func (m *MemoryStore) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}

func (m *MemoryStore) Get(_ context.Context, key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return Object{}, ErrNotFound
	}
	return Object{
		Metadata: obj.meta,
		Body:     io.NopCloser(bytes.NewReader(obj.data)),
	}, nil
}

func (m *MemoryStore) Head(_ context.Context, key string) (Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return Metadata{}, ErrNotFound
	}
	return obj.meta, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte, opts PutOptions) error {
	sum := md5.Sum(data)
	obj := memoryObject{
		data: bytes.Clone(data),
		meta: Metadata{
			Key:          key,
			Size:         int64(len(data)),
			ContentType:  opts.ContentType,
			ETag:         `"` + hex.EncodeToString(sum[:]) + `"`,
			LastModified: time.Now(),
		},
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = obj
	m.puts++
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}
