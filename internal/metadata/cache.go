package metadata

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/synnergy-network/substrate-gateway/internal/rpc"
)

// cacheKey identifies one distinct runtime: metadata only changes on a
// spec_version bump, so (specName, specVersion) is stable across every
// block sharing that runtime.
type cacheKey struct {
	specName    string
	specVersion uint32
}

// Fetcher resolves a block hash to its state_getMetadata bytes and
// paired state_getRuntimeVersion, the two RPC calls needed to build a
// View. It exists so Cache can be tested against a fake without a live
// node.
type Fetcher interface {
	RuntimeVersion(ctx context.Context, hash [32]byte) (rpc.RuntimeVersion, error)
	Metadata(ctx context.Context, hash [32]byte) ([]byte, error)
}

// ClientFetcher adapts an *rpc.Client to Fetcher.
type ClientFetcher struct {
	Client *rpc.Client
}

func (f ClientFetcher) RuntimeVersion(ctx context.Context, hash [32]byte) (rpc.RuntimeVersion, error) {
	return rpc.StateGetRuntimeVersion(ctx, f.Client, hash)
}

func (f ClientFetcher) Metadata(ctx context.Context, hash [32]byte) ([]byte, error) {
	return rpc.StateGetMetadata(ctx, f.Client, hash)
}

// Cache is the normalized-metadata cache: an LRU keyed by (spec_name,
// spec_version) with at-most-one-concurrent-fetch-and-decode per key,
// so a burst of requests against a runtime not yet in cache triggers
// exactly one state_getMetadata round trip and decode.
type Cache struct {
	fetcher Fetcher
	lru     *lru.Cache[cacheKey, *View]
	group   singleflight.Group
}

// NewCache builds a Cache with the given capacity (number of distinct
// runtimes held at once; see config Chain.MetadataCacheCap).
func NewCache(fetcher Fetcher, capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = 16
	}
	l, err := lru.New[cacheKey, *View](capacity)
	if err != nil {
		return nil, fmt.Errorf("metadata: new cache: %w", err)
	}
	return &Cache{fetcher: fetcher, lru: l}, nil
}

// ViewAt returns the normalized View for the runtime active at hash,
// fetching and decoding it on a cache miss. Concurrent callers racing on
// the same not-yet-cached runtime share one fetch via singleflight.
func (c *Cache) ViewAt(ctx context.Context, hash [32]byte) (*View, error) {
	rv, err := c.fetcher.RuntimeVersion(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("metadata: fetch runtime version: %w", err)
	}
	key := cacheKey{specName: rv.SpecName, specVersion: rv.SpecVersion}

	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}

	groupKey := fmt.Sprintf("%s@%d", key.specName, key.specVersion)
	v, err, _ := c.group.Do(groupKey, func() (any, error) {
		if v, ok := c.lru.Get(key); ok {
			return v, nil
		}
		raw, err := c.fetcher.Metadata(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("metadata: fetch: %w", err)
		}
		view, err := Decode(raw, rv.SpecName, rv.SpecVersion)
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, view)
		return view, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*View), nil
}
