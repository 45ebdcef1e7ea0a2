// Run via: go test ./pkg/rescache -bench=. -benchmem -cpu 1,4,16
//
// These benchmarks use a single descriptor shape so results are comparable
// across versions: a ResourceKey keyed on a texture's width/height, paired
// with a tiny synthetic CreateFunc standing in for a real backend call.
//
// We measure:
//   1. GetOrCreate          - read-mostly workload after warm-up
//   2. GetOrCreateParallel  - highly concurrent reads (b.RunParallel)
//   3. GetOrCreateMixed     - mostly misses: an in-order sweep over 4x more
//                             descriptors than the bounded pool holds
package rescache

import (
	"context"
	"math/rand"
	"testing"

	"github.com/ashgrove/vkforge/pkg/backend"
)

const (
	benchCapacity = 1 << 20
	benchShards   = 16
	benchKeys     = 1 << 14
)

func newBenchPool() *Pool[ResourceKey] {
	p, err := New[ResourceKey](benchCapacity, benchShards)
	if err != nil {
		panic(err)
	}
	return p
}

var benchDataset = func() []ResourceKey {
	arr := make([]ResourceKey, benchKeys)
	for i := range arr {
		arr[i] = textureKey(uint32(i), uint32(i))
	}
	return arr
}()

func benchCreate(ctx context.Context, k ResourceKey) (Handle, error) {
	return Handle{Kind: KindTexture, Texture: backend.TextureHandle(k.Tex.Width)}, nil
}

func BenchmarkGetOrCreate(b *testing.B) {
	p := newBenchPool()
	for _, k := range benchDataset {
		if _, err := p.GetOrCreate(context.Background(), k, benchCreate); err != nil {
			b.Fatalf("warm-up GetOrCreate: %v", err)
		}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := benchDataset[i&(benchKeys-1)]
		if _, err := p.GetOrCreate(context.Background(), k, benchCreate); err != nil {
			b.Fatalf("GetOrCreate: %v", err)
		}
	}
	p.Close()
}

func BenchmarkGetOrCreateParallel(b *testing.B) {
	p := newBenchPool()
	for _, k := range benchDataset {
		if _, err := p.GetOrCreate(context.Background(), k, benchCreate); err != nil {
			b.Fatalf("warm-up GetOrCreate: %v", err)
		}
	}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		idx := rand.Intn(benchKeys)
		for pb.Next() {
			idx = (idx + 1) & (benchKeys - 1)
			if _, err := p.GetOrCreate(context.Background(), benchDataset[idx], benchCreate); err != nil {
				b.Fatalf("GetOrCreate: %v", err)
			}
		}
	})
	p.Close()
}

func BenchmarkGetOrCreateMixed(b *testing.B) {
	// A pool too small to hold the whole dataset forces a steady stream of
	// evictions and re-creates, exercising the CLOCK hand under load.
	p, err := New[ResourceKey](benchKeys/4, benchShards)
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	for i, k := range benchDataset {
		if i%10 != 0 {
			if _, err := p.GetOrCreate(context.Background(), k, benchCreate); err != nil {
				b.Fatalf("warm-up GetOrCreate: %v", err)
			}
		}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := benchDataset[i&(benchKeys-1)]
		if _, err := p.GetOrCreate(context.Background(), k, benchCreate); err != nil {
			b.Fatalf("GetOrCreate: %v", err)
		}
	}
	p.Close()
	b.ReportMetric(float64(p.Len()), "resident-entries")
}
