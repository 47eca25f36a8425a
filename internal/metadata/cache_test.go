package metadata

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/synnergy-network/substrate-gateway/internal/rpc"
)

// countingFetcher returns a fixed runtime version and metadata blob,
// counting how many times each RPC would have been issued.
type countingFetcher struct {
	rv          rpc.RuntimeVersion
	blob        []byte
	rvCalls     atomic.Int64
	metaCalls   atomic.Int64
	metaStarted chan struct{} // closed once the first Metadata call begins, for coalescing tests
	release     chan struct{} // Metadata blocks here until closed
}

func (f *countingFetcher) RuntimeVersion(ctx context.Context, hash [32]byte) (rpc.RuntimeVersion, error) {
	f.rvCalls.Add(1)
	return f.rv, nil
}

func (f *countingFetcher) Metadata(ctx context.Context, hash [32]byte) ([]byte, error) {
	f.metaCalls.Add(1)
	if f.metaStarted != nil {
		close(f.metaStarted)
	}
	if f.release != nil {
		<-f.release
	}
	return f.blob, nil
}

func TestCacheHit(t *testing.T) {
	f := &countingFetcher{rv: rpc.RuntimeVersion{SpecName: "test-spec", SpecVersion: 1}, blob: buildV14Blob()}
	c, err := NewCache(f, 4)
	if err != nil {
		t.Fatal(err)
	}

	var hash [32]byte
	v1, err := c.ViewAt(context.Background(), hash)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := c.ViewAt(context.Background(), hash)
	if err != nil {
		t.Fatal(err)
	}
	if v1 != v2 {
		t.Fatal("expected the same cached *View on the second call")
	}
	if f.metaCalls.Load() != 1 {
		t.Fatalf("expected exactly 1 metadata fetch, got %d", f.metaCalls.Load())
	}
}

func TestCacheCoalescesConcurrentMisses(t *testing.T) {
	f := &countingFetcher{
		rv:          rpc.RuntimeVersion{SpecName: "test-spec", SpecVersion: 1},
		blob:        buildV14Blob(),
		metaStarted: make(chan struct{}),
		release:     make(chan struct{}),
	}
	c, err := NewCache(f, 4)
	if err != nil {
		t.Fatal(err)
	}

	var hash [32]byte
	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := c.ViewAt(context.Background(), hash); err != nil {
				t.Error(err)
			}
		}()
	}

	<-f.metaStarted
	close(f.release)
	wg.Wait()

	if f.metaCalls.Load() != 1 {
		t.Fatalf("expected exactly 1 metadata fetch across %d concurrent misses, got %d", n, f.metaCalls.Load())
	}
}
