package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fedro86/almost-a-cms/internal/config"
)

const documentExt = ".json"

// Store persists documents as opaque JSON bytes keyed by name.
type Store interface {
	Type() string
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
	List(ctx context.Context) ([]string, error)
}

type ReadSeekCloser interface {
	io.Reader
	io.Seeker
	io.Closer
}

// AssetStore keeps uploaded images next to the documents that reference them.
type AssetStore interface {
	SaveAsset(ctx context.Context, name string, r ReadSeekCloser, size int64) error
	OpenAsset(ctx context.Context, name string) (io.ReadCloser, error)
	ListAssets(ctx context.Context) ([]string, error)
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(cfg config.StoreConfig) (Store, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("store.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
	return factory(cfg.Data)
}

func fileName(name string) string {
	return name + documentExt
}

func nameFromFile(file string) (string, bool) {
	if !strings.HasSuffix(file, documentExt) {
		return "", false
	}
	name := strings.TrimSuffix(file, documentExt)
	if name == "" {
		return "", false
	}
	return name, true
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode store config: %w", err)
	}
	return nil
}

// Invalidator is implemented by stores that keep a read cache.
type Invalidator interface {
	Invalidate(name string)
}

type unwrapper interface {
	Unwrap() Store
}

type dirStore interface {
	Dir() string
}

// Assets returns the asset side of s, looking through wrappers such as the LRU cache.
func Assets(s Store) (AssetStore, bool) {
	for s != nil {
		if a, ok := s.(AssetStore); ok {
			return a, true
		}
		u, ok := s.(unwrapper)
		if !ok {
			return nil, false
		}
		s = u.Unwrap()
	}
	return nil, false
}

// LocalDir returns the data directory behind s when it is file backed.
func LocalDir(s Store) (string, bool) {
	for s != nil {
		if d, ok := s.(dirStore); ok {
			return d.Dir(), true
		}
		u, ok := s.(unwrapper)
		if !ok {
			return "", false
		}
		s = u.Unwrap()
	}
	return "", false
}
