package filestore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// WrapLRUCache caches Load results. Save refreshes the cached entry so a
// fetch after an update always sees the new bytes from this process.
// Writes made behind the store's back are visible after ttl.
func WrapLRUCache(next Store, size int, ttl time.Duration) Store {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &lruStore{
		next:  next,
		cache: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

type lruStore struct {
	next  Store
	cache *expirable.LRU[string, []byte]
}

func (l *lruStore) Type() string {
	return l.next.Type()
}

// Unwrap exposes the underlying store.
func (l *lruStore) Unwrap() Store {
	return l.next
}

func (l *lruStore) Load(ctx context.Context, name string) ([]byte, error) {
	if cached, ok := l.cache.Get(name); ok {
		logutil.GetLogger(ctx).Debug("document cache hit", zap.String("name", name))
		return cloneBytes(cached), nil
	}
	data, err := l.next.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	l.cache.Add(name, cloneBytes(data))
	return data, nil
}

func (l *lruStore) Save(ctx context.Context, name string, data []byte) error {
	if err := l.next.Save(ctx, name, data); err != nil {
		l.cache.Remove(name)
		return err
	}
	l.cache.Add(name, cloneBytes(data))
	return nil
}

func (l *lruStore) List(ctx context.Context) ([]string, error) {
	return l.next.List(ctx)
}

// Invalidate drops a cached entry, used when the file changes on disk.
func (l *lruStore) Invalidate(name string) {
	l.cache.Remove(name)
}

func cloneBytes(data []byte) []byte {
	if data == nil {
		return nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
