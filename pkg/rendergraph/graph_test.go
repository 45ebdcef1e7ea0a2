package rendergraph

import (
	"context"
	"testing"

	"github.com/ashgrove/vkforge/internal/arena"
	"github.com/ashgrove/vkforge/pkg/backend"
)

type selfContainedData struct {
	rw Handle
}

func TestSelfContainedPassIsCulled(t *testing.T) {
	a := arena.New(1<<16, arena.SoftFail)
	g := Init(a)

	pass, _ := AddPass(g, "Pass1", func(g *Graph, pass *Pass, data *selfContainedData) {
		h := g.AddResource("InputTex", backend.TextureDesc{Width: 100, Height: 100, Format: "bgra8"})
		h = g.AddWrite(h, pass, backend.UsageColorAttachment)
		g.AddRead(h, pass, backend.UsageColorAttachment)
		data.rw = h
	}, nil)

	g.Compile()

	if !g.IsCulled(pass) {
		t.Fatal("expected the self-contained pass to be culled (nothing downstream reads its output)")
	}
}

type depthData struct {
	depth Handle
}

func TestResourceRoundTripAfterExecute(t *testing.T) {
	a := arena.New(1<<16, arena.SoftFail)
	g := Init(a)
	driver := backend.NewLoggingBackend(nil)
	ctx := context.Background()

	var gotWidth, gotHeight uint32
	pass, data := AddPass(g, "DepthPass",
		func(g *Graph, pass *Pass, data *depthData) {
			h := g.AddResource("DepthImage", backend.TextureDesc{Width: 100, Height: 100, Format: "bgra8"})
			data.depth = g.AddWrite(h, pass, backend.UsageDepthAttachment)
		},
		func(driver backend.Backend, res *Resources, data *depthData) error {
			if !data.depth.IsValid() {
				t.Fatal("depth handle should be valid inside execute")
			}
			info := res.Info(data.depth)
			gotWidth, gotHeight = info.Width, info.Height
			return nil
		},
	)
	_ = data

	g.Compile()
	if !g.IsCulled(pass) {
		t.Fatal("expected the lone depth pass to be culled (nothing reads its output either)")
	}

	// Even though the pass is culled by the whole-graph criterion, it is
	// exercised directly here, matching the fixture's own usage pattern.
	if err := g.ExecutePass(ctx, driver, pass); err != nil {
		t.Fatalf("ExecutePass: %v", err)
	}

	if gotWidth != 100 || gotHeight != 100 {
		t.Fatalf("resource info = (%d,%d), want (100,100)", gotWidth, gotHeight)
	}
}

func TestCrossPassReadPreventsCulling(t *testing.T) {
	a := arena.New(1<<16, arena.SoftFail)
	g := Init(a)
	driver := backend.NewLoggingBackend(nil)
	ctx := context.Background()

	var produced Handle
	producer, _ := AddPass(g, "Producer", func(g *Graph, pass *Pass, data *struct{}) {
		h := g.AddResource("Shared", backend.TextureDesc{Width: 64, Height: 64, Format: "bgra8"})
		produced = g.AddWrite(h, pass, backend.UsageColorAttachment)
	}, nil)

	ran := false
	consumer, _ := AddPass(g, "Consumer",
		func(g *Graph, pass *Pass, data *struct{}) {
			g.AddRead(produced, pass, backend.UsageSampled)
			g.DeclareSideEffect(pass)
		},
		func(driver backend.Backend, res *Resources, data *struct{}) error {
			ran = true
			return nil
		},
	)

	g.Compile()

	if g.IsCulled(producer) {
		t.Fatal("producer should survive culling: its output is read by consumer")
	}
	if g.IsCulled(consumer) {
		t.Fatal("consumer is declared a side effect and must never be culled")
	}

	if err := g.Execute(ctx, driver); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !ran {
		t.Fatal("consumer pass should have executed")
	}
}
