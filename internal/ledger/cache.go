package ledger

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"solana-whale-graph/internal/observability"
)

// TransferCache caches transfer pages keyed by query parameters.
// Implementations live in internal/cache.
type TransferCache interface {
	// Get returns the cached page and true on a hit.
	Get(ctx context.Context, key string) ([]RawTransfer, bool, error)

	// Set stores a page under key, subject to the implementation's TTL.
	Set(ctx context.Context, key string, records []RawTransfer) error
}

// CacheKey builds the cache key for a transfer query. Page and page size are
// part of the key so partial pages never shadow each other.
func CacheKey(req TransfersRequest) string {
	return fmt.Sprintf("transfers:%s:%s:%s:%d:%d",
		req.Address,
		req.Direction,
		strconv.FormatFloat(req.MinAmount, 'f', -1, 64),
		req.Page,
		req.PageSize,
	)
}

// CachedFetcher consults a TransferCache before delegating to the inner
// fetcher. Cache failures degrade to a miss; they never fail the query.
type CachedFetcher struct {
	inner  Fetcher
	cache  TransferCache
	logger *log.Logger
}

// NewCachedFetcher creates a caching fetcher decorator.
func NewCachedFetcher(inner Fetcher, cache TransferCache, logger *log.Logger) *CachedFetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &CachedFetcher{inner: inner, cache: cache, logger: logger}
}

// FetchTransfers returns the cached page on a hit, otherwise fetches and
// stores the result best-effort.
func (f *CachedFetcher) FetchTransfers(ctx context.Context, req TransfersRequest) ([]RawTransfer, error) {
	key := CacheKey(req)

	records, ok, err := f.cache.Get(ctx, key)
	if err != nil {
		f.logger.Printf("transfer cache get failed: key=%s: %v", key, err)
	} else if ok {
		observability.RecordCacheHit()
		return records, nil
	}
	observability.RecordCacheMiss()

	records, err = f.inner.FetchTransfers(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, key, records); err != nil {
		f.logger.Printf("transfer cache set failed: key=%s: %v", key, err)
	}
	return records, nil
}

// Verify interface compliance at compile time.
var _ Fetcher = (*CachedFetcher)(nil)
