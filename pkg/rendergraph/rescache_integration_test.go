package rendergraph

import (
	"context"
	"testing"

	"github.com/ashgrove/vkforge/internal/arena"
	"github.com/ashgrove/vkforge/pkg/backend"
	"github.com/ashgrove/vkforge/pkg/rescache"
)

// countingBackend wraps LoggingBackend to count CreateTexture calls, so the
// pooled-aliasing assertion below doesn't need to reach into rescache's
// internals.
type countingBackend struct {
	*backend.LoggingBackend
	textureCreates int
}

func (b *countingBackend) CreateTexture(ctx context.Context, desc backend.TextureDesc) (backend.TextureHandle, error) {
	b.textureCreates++
	return b.LoggingBackend.CreateTexture(ctx, desc)
}

type aliasData struct {
	target Handle
}

func buildAliasGraph(a *arena.Arena, pool *rescache.Pool[rescache.ResourceKey]) (*Graph, *Pass) {
	g := Init(a, WithResourcePool(pool))
	pass, data := AddPass(g, "Blit", func(g *Graph, pass *Pass, data *aliasData) {
		h := g.AddResource("Scratch", backend.TextureDesc{Width: 256, Height: 256, Format: "bgra8"})
		data.target = g.AddWrite(h, pass, backend.UsageColorAttachment)
		g.DeclareSideEffect(pass)
	}, func(driver backend.Backend, res *Resources, data *aliasData) error {
		return nil
	})
	g.Compile()
	return g, pass
}

func TestResourcePoolAliasesAcrossExecute(t *testing.T) {
	pool, err := rescache.New[rescache.ResourceKey](64, 1)
	if err != nil {
		t.Fatalf("rescache.New: %v", err)
	}
	driver := &countingBackend{LoggingBackend: backend.NewLoggingBackend(nil)}
	ctx := context.Background()

	a1 := arena.New(1<<16, arena.SoftFail)
	g1, _ := buildAliasGraph(a1, pool)
	if err := g1.Execute(ctx, driver); err != nil {
		t.Fatalf("first Execute: %v", err)
	}

	a2 := arena.New(1<<16, arena.SoftFail)
	g2, _ := buildAliasGraph(a2, pool)
	if err := g2.Execute(ctx, driver); err != nil {
		t.Fatalf("second Execute: %v", err)
	}

	if driver.textureCreates != 1 {
		t.Fatalf("expected exactly one CreateTexture across both graphs sharing a pool, got %d", driver.textureCreates)
	}
	if pool.Len() != 1 {
		t.Fatalf("expected one resident pool entry, got %d", pool.Len())
	}
}

func TestResourcePoolLeavesHandleResidentAfterDestroy(t *testing.T) {
	pool, err := rescache.New[rescache.ResourceKey](64, 1)
	if err != nil {
		t.Fatalf("rescache.New: %v", err)
	}
	driver := backend.NewLoggingBackend(nil)
	ctx := context.Background()

	a := arena.New(1<<16, arena.SoftFail)
	g, pass := buildAliasGraph(a, pool)
	_ = pass
	if err := g.Execute(ctx, driver); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if pool.Len() != 1 {
		t.Fatalf("expected pool to still hold the resource after Execute's destroy pass, got %d entries", pool.Len())
	}
}
