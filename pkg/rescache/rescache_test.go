package rescache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ashgrove/vkforge/pkg/backend"
)

func textureKey(w, h uint32) ResourceKey {
	return ResourceKey{Kind: KindTexture, Name: "t", Tex: backend.TextureDesc{Width: w, Height: h, Format: "BGRA8"}}
}

func TestGetOrCreateCachesByDescriptor(t *testing.T) {
	var creates atomic.Int64
	p, err := New[ResourceKey](64, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	create := func(ctx context.Context, k ResourceKey) (Handle, error) {
		creates.Add(1)
		return Handle{Kind: KindTexture, Texture: backend.TextureHandle(creates.Load())}, nil
	}

	k := textureKey(100, 100)
	h1, err := p.GetOrCreate(context.Background(), k, create)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	h2, err := p.GetOrCreate(context.Background(), k, create)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected pooled handle to repeat, got %+v then %+v", h1, h2)
	}
	if creates.Load() != 1 {
		t.Fatalf("expected create to run once, ran %d times", creates.Load())
	}
}

func TestGetOrCreateCollapsesConcurrentMisses(t *testing.T) {
	var creates atomic.Int64
	p, err := New[ResourceKey](64, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	k := textureKey(4, 4)
	create := func(ctx context.Context, k ResourceKey) (Handle, error) {
		creates.Add(1)
		return Handle{Kind: KindTexture, Texture: 7}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.GetOrCreate(context.Background(), k, create); err != nil {
				t.Errorf("GetOrCreate: %v", err)
			}
		}()
	}
	wg.Wait()
	if creates.Load() != 1 {
		t.Fatalf("expected exactly one create under concurrent miss, got %d", creates.Load())
	}
}

func TestEvictionInvokesDestroyFn(t *testing.T) {
	var destroyed []backend.TextureHandle
	p, err := New[ResourceKey](2, 1, WithDestroyFn(func(ctx context.Context, h Handle) error {
		destroyed = append(destroyed, h.Texture)
		return nil
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	create := func(id backend.TextureHandle) CreateFunc[ResourceKey] {
		return func(ctx context.Context, k ResourceKey) (Handle, error) {
			return Handle{Kind: KindTexture, Texture: id}, nil
		}
	}

	ctx := context.Background()
	if _, err := p.GetOrCreate(ctx, textureKey(1, 1), create(1)); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if _, err := p.GetOrCreate(ctx, textureKey(2, 2), create(2)); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	// Capacity is 2 weight units (default weight 1/handle); a third distinct
	// descriptor must evict the coldest resident entry.
	if _, err := p.GetOrCreate(ctx, textureKey(3, 3), create(3)); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if len(destroyed) == 0 {
		t.Fatalf("expected at least one eviction to invoke DestroyFn")
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 resident entries after eviction, got %d", p.Len())
	}
}

func TestEvictRemovesExplicitly(t *testing.T) {
	var destroyed int
	p, err := New[ResourceKey](64, 1, WithDestroyFn(func(ctx context.Context, h Handle) error {
		destroyed++
		return nil
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	k := textureKey(8, 8)
	create := func(ctx context.Context, kk ResourceKey) (Handle, error) {
		return Handle{Kind: KindTexture, Texture: 9}, nil
	}
	if _, err := p.GetOrCreate(context.Background(), k, create); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	p.Evict(context.Background(), k)
	if p.Len() != 0 {
		t.Fatalf("expected pool empty after Evict, got %d entries", p.Len())
	}
	if destroyed != 1 {
		t.Fatalf("expected DestroyFn called once, got %d", destroyed)
	}
}

func TestNewValidatesArguments(t *testing.T) {
	if _, err := New[ResourceKey](0, 1); err == nil {
		t.Fatalf("expected error for zero capacity")
	}
	if _, err := New[ResourceKey](64, 3); err == nil {
		t.Fatalf("expected error for non-power-of-two shard count")
	}
}

func TestPersistAndLoadBlobWithoutDiskTierFails(t *testing.T) {
	p, err := New[ResourceKey](64, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.PersistBlob(textureKey(1, 1), []byte("x")); err == nil {
		t.Fatalf("expected error persisting blob without a disk tier")
	}
	if _, ok := p.LoadBlob(textureKey(1, 1)); ok {
		t.Fatalf("expected no blob without a disk tier")
	}
}
