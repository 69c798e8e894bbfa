package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tuanvumaihuynh/catalog-sync/internal/config"
)

// ErrNotFound is returned by Get and Head when no object exists at the key.
var ErrNotFound = errors.New("blob not found")

// Metadata describes a stored object without its body.
type Metadata struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// Object is a stored object. The caller must close Body.
type Object struct {
	Metadata
	Body io.ReadCloser
}

type PutOptions struct {
	ContentType  string
	CacheControl string
}

// Store is a key-addressed blob store.
type Store interface {
	Get(ctx context.Context, key string) (Object, error)
	Head(ctx context.Context, key string) (Metadata, error)
	Put(ctx context.Context, key string, data []byte, opts PutOptions) error
	Delete(ctx context.Context, key string) error
}

// New builds the Store selected by cfg.Driver.
func New(cfg config.Blob) (Store, error) {
	switch cfg.Driver {
	case config.BlobDriverMemory:
		return NewMemoryStore(), nil
	case config.BlobDriverS3:
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unsupported blob driver: %s", cfg.Driver)
	}
}
