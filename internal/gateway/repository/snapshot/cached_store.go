package snapshot

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type CacheConfig struct {
	BlobTTL        time.Duration
	BlobMaxEntries int

	ListTTL        time.Duration
	ListMaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		BlobTTL:        5 * time.Minute,
		BlobMaxEntries: 1024,
		ListTTL:        30 * time.Second,
		ListMaxEntries: 256,
	}
}

type MetricsSnapshot struct {
	BlobHits     uint64
	BlobMisses   uint64
	ListHits     uint64
	ListMisses   uint64
	OriginReads  uint64
	OriginWrites uint64
}

type metrics struct {
	blobHits     atomic.Uint64
	blobMisses   atomic.Uint64
	listHits     atomic.Uint64
	listMisses   atomic.Uint64
	originReads  atomic.Uint64
	originWrites atomic.Uint64
}

// CachedStore fronts a snapshot store with expiring LRU caches for file
// reads and listings. Writes go through and invalidate the room's
// listing so readers never see a stale file set longer than the TTL.
type CachedStore struct {
	origin Store

	blobCache *expirable.LRU[string, []byte]
	listCache *expirable.LRU[string, []string]
	metrics   metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	if cfg.BlobMaxEntries <= 0 {
		cfg.BlobMaxEntries = DefaultCacheConfig().BlobMaxEntries
	}
	if cfg.ListMaxEntries <= 0 {
		cfg.ListMaxEntries = DefaultCacheConfig().ListMaxEntries
	}
	if cfg.BlobTTL <= 0 {
		cfg.BlobTTL = DefaultCacheConfig().BlobTTL
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = DefaultCacheConfig().ListTTL
	}
	return &CachedStore{
		origin:    origin,
		blobCache: expirable.NewLRU[string, []byte](cfg.BlobMaxEntries, nil, cfg.BlobTTL),
		listCache: expirable.NewLRU[string, []string](cfg.ListMaxEntries, nil, cfg.ListTTL),
	}
}

func (s *CachedStore) Put(ctx context.Context, roomID, path string, content []byte) error {
	if err := s.origin.Put(ctx, roomID, path, content); err != nil {
		return err
	}
	s.metrics.originWrites.Add(1)
	s.blobCache.Add(blobKey(roomID, path), append([]byte(nil), content...))
	s.listCache.Remove(roomID)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, roomID, path string) ([]byte, error) {
	key := blobKey(roomID, path)
	if blob, ok := s.blobCache.Get(key); ok {
		s.metrics.blobHits.Add(1)
		return append([]byte(nil), blob...), nil
	}
	s.metrics.blobMisses.Add(1)

	blob, err := s.origin.Get(ctx, roomID, path)
	if err != nil {
		return nil, err
	}
	s.metrics.originReads.Add(1)
	s.blobCache.Add(key, append([]byte(nil), blob...))
	return blob, nil
}

func (s *CachedStore) List(ctx context.Context, roomID string) ([]string, error) {
	if paths, ok := s.listCache.Get(roomID); ok {
		s.metrics.listHits.Add(1)
		return append([]string(nil), paths...), nil
	}
	s.metrics.listMisses.Add(1)

	paths, err := s.origin.List(ctx, roomID)
	if err != nil {
		return nil, err
	}
	s.metrics.originReads.Add(1)
	s.listCache.Add(roomID, append([]string(nil), paths...))
	return paths, nil
}

// GetURL is never cached; presigned URLs carry their own expiry.
func (s *CachedStore) GetURL(ctx context.Context, roomID, path string) (string, error) {
	return s.origin.GetURL(ctx, roomID, path)
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		BlobHits:     s.metrics.blobHits.Load(),
		BlobMisses:   s.metrics.blobMisses.Load(),
		ListHits:     s.metrics.listHits.Load(),
		ListMisses:   s.metrics.listMisses.Load(),
		OriginReads:  s.metrics.originReads.Load(),
		OriginWrites: s.metrics.originWrites.Load(),
	}
}

func blobKey(roomID, path string) string {
	return roomID + "\x00" + path
}
