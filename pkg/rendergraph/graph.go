// Package rendergraph implements a declarative, lifetime-tracked render
// graph: passes are declared over virtual resources, Compile culls passes
// nothing reads, and Execute realizes backend resources just in time and
// runs each surviving pass's closure in declaration order.
//
// Grounded on original_source/rpe/test/test_render_graph.c. Only the test
// file for this subsystem survived retrieval (no header or .c
// implementation), so the pass/resource wiring in this file — how reads
// and writes translate into dependency-graph edges, and the split between
// a culling-aware whole-graph Execute and an explicit ExecutePass escape
// hatch — is original design, built to reproduce that test's two
// observable behaviors: a single self-contained pass (reading and writing
// its own resource, nothing downstream) ends up culled after Compile, and
// a realized texture resource reports its true width/height through
// GetResourceInfo after Execute. See DESIGN.md.
package rendergraph

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ashgrove/vkforge/internal/arena"
	"github.com/ashgrove/vkforge/pkg/backend"
	"github.com/ashgrove/vkforge/pkg/rescache"
)

// Pass is a declared unit of work over virtual resources. Passes are
// created via AddPass and never mutated directly by callers.
type Pass struct {
	name       string
	node       int
	sideEffect bool
	reads      []Handle
	writes     []Handle
	execute    func(ctx context.Context, driver backend.Backend, res *Resources) error

	renderTarget RenderTargetDesc

	// realizeResources/destroyResources are resource indices (into
	// Graph.resources) this pass is responsible for realizing/destroying,
	// computed by Compile from each resource's first/last surviving user
	// (spec.md §4.7, §3 Pass node's realize_resources/destroy_resources).
	realizeResources []int
	destroyResources []int
}

// RenderTarget returns the render-target descriptor Compile/AddWrite
// built for this pass from its color/depth attachment writes.
func (p *Pass) RenderTarget() RenderTargetDesc { return p.renderTarget }

// Graph accumulates passes and virtual resources, culls unreachable
// passes on Compile, and realizes/executes/destroys on Execute.
type Graph struct {
	arena *arena.Arena

	logger  *zap.Logger
	metrics metricsSink
	pool    *rescache.Pool[rescache.ResourceKey]

	dg        *depGraph
	passes    []*Pass
	resources []*virtualResource // index 0 is a sentinel; real handles start at 1

	compiled bool
}

// Init constructs an empty Graph. a backs every pass's per-call user data
// allocation (via AddPass); it is never reset or released by Graph itself.
func Init(a *arena.Arena, opts ...Option) *Graph {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Graph{
		arena:     a,
		logger:    cfg.logger,
		metrics:   newMetricsSink(cfg.registry),
		pool:      cfg.pool,
		dg:        newDepGraph(),
		resources: []*virtualResource{nil},
	}
}

func (g *Graph) resource(h Handle) *virtualResource {
	if !h.IsValid() || int(h.index) >= len(g.resources) {
		panic(fmt.Sprintf("rendergraph: invalid resource handle %+v", h))
	}
	res := g.resources[h.index]
	if h.version > res.version {
		panic(fmt.Sprintf("rendergraph: handle %+v refers to a version never written", h))
	}
	return res
}

// AddResource registers a new transient virtual resource realized and
// destroyed by the graph itself. desc must be a backend.TextureDesc or
// backend.BufferDesc.
func (g *Graph) AddResource(name string, desc any) Handle {
	res := &virtualResource{name: name, writerNode: []int{-1}}
	switch d := desc.(type) {
	case backend.TextureDesc:
		res.kind = kindTexture
		res.texDesc = d
	case backend.BufferDesc:
		res.kind = kindBuffer
		res.bufDesc = d
	default:
		panic("rendergraph: AddResource desc must be backend.TextureDesc or backend.BufferDesc")
	}
	g.resources = append(g.resources, res)
	return Handle{index: uint32(len(g.resources) - 1)}
}

// ImportResource registers a resource backed by a handle that already
// exists outside the graph (e.g. a swapchain image). Imported resources
// are never realized or destroyed by Execute; only their accumulated
// usage flags are tracked (Open Question #2: decided in SPEC_FULL.md §9).
// The returned handle is already at version 1: the resource is treated as
// produced before the graph ever observes it.
func (g *Graph) ImportResource(name string, h backend.TextureHandle, desc backend.TextureDesc) Handle {
	res := &virtualResource{
		name:       name,
		kind:       kindTexture,
		texDesc:    desc,
		texHandle:  h,
		imported:   true,
		realized:   true,
		version:    1,
		writerNode: []int{-1, -1},
	}
	g.resources = append(g.resources, res)
	return Handle{index: uint32(len(g.resources) - 1), version: 1}
}

// AddPass declares a pass whose per-invocation user data is of type T,
// arena-allocated so it stays POD for the lifetime of the graph. setup
// runs synchronously (the pass may call AddResource/AddRead/AddWrite on
// g immediately); execute is deferred until Execute/ExecutePass runs.
func AddPass[T any](g *Graph, name string, setup func(g *Graph, pass *Pass, data *T), execute func(driver backend.Backend, res *Resources, data *T) error) (*Pass, *T) {
	data := arena.New1[T](g.arena)
	pass := &Pass{name: name, node: g.dg.addNode(name)}
	if execute != nil {
		pass.execute = func(ctx context.Context, driver backend.Backend, res *Resources) error {
			return execute(driver, res, data)
		}
	}
	g.passes = append(g.passes, pass)
	if setup != nil {
		setup(g, pass, data)
	}
	return pass, data
}

// DeclareSideEffect marks pass as immune to culling, e.g. a final
// backbuffer blit that nothing else in the graph reads from.
func (g *Graph) DeclareSideEffect(pass *Pass) {
	pass.sideEffect = true
	g.dg.declareSideEffect(pass.node)
}

// AddRead records that pass reads h with the given usage, accumulating
// usage onto the resource and adding a dependency edge from whichever
// pass produced h's version. Stale handles (an older version than the
// resource's current one) remain valid for reads.
func (g *Graph) AddRead(h Handle, pass *Pass, usage backend.UsageFlags) Handle {
	res := g.resource(h)
	if !res.imported && h.version == 0 {
		panic(fmt.Sprintf("rendergraph: AddRead on %q before it has ever been written", res.name))
	}
	res.usage |= usage
	pass.reads = append(pass.reads, h)
	res.recordUser(pass.node)
	if writer := res.writerNode[h.version]; writer >= 0 && writer != pass.node {
		g.dg.addEdge(writer, pass.node)
	}
	return h
}

// AddWrite records that pass writes h's resource with the given usage,
// bumping its version and returning the new handle. h must be the most
// recently issued handle for its resource (spec.md's "at most one writer
// per version" invariant rules out writing from a stale handle). Usage
// flags carrying UsageColorAttachment/UsageDepthAttachment extend the
// pass's render-target descriptor with this write's resource.
func (g *Graph) AddWrite(h Handle, pass *Pass, usage backend.UsageFlags) Handle {
	res := g.resource(h)
	if h.version != res.version {
		panic(fmt.Sprintf("rendergraph: AddWrite on %q using a stale handle (have version %d, resource is at %d)", res.name, h.version, res.version))
	}
	res.usage |= usage
	res.version++
	res.writerNode = append(res.writerNode, pass.node)
	newHandle := Handle{index: h.index, version: res.version}

	pass.writes = append(pass.writes, newHandle)
	res.recordUser(pass.node)

	if usage&backend.UsageColorAttachment != 0 {
		pass.renderTarget.Color = append(pass.renderTarget.Color, newAttachment(newHandle))
	}
	if usage&backend.UsageDepthAttachment != 0 {
		att := newAttachment(newHandle)
		pass.renderTarget.Depth = &att
	}
	return newHandle
}

// Compile culls passes nothing downstream reads (and which are not
// declared side effects), then computes each surviving pass's
// realize/destroy resource lists from first/last use (spec.md §4.7: "A
// resource's first-use pass realizes it; its last-use pass destroys
// it; imported resources skip both"). It must be called after every pass
// has been added and before Execute.
func (g *Graph) Compile() {
	g.dg.cull()
	g.computeLifetimes()
	g.compiled = true

	culled := 0
	for _, p := range g.passes {
		if g.dg.isCulled(p.node) {
			culled++
		}
	}
	g.metrics.setPassesCulled(int64(culled))
	g.logger.Debug("render graph compiled", zap.Int("passes", len(g.passes)), zap.Int("culled", culled))
}

// computeLifetimes assigns each non-imported resource to the realize list
// of its first surviving (non-culled) user pass and the destroy list of
// its last surviving user pass. A resource with no surviving user (every
// pass that touched it was culled) is never realized.
func (g *Graph) computeLifetimes() {
	for _, p := range g.passes {
		p.realizeResources = nil
		p.destroyResources = nil
	}
	for idx, res := range g.resources {
		if idx == 0 || res.imported {
			continue
		}
		first, last := -1, -1
		for _, node := range res.users {
			if g.dg.isCulled(node) {
				continue
			}
			if first < 0 {
				first = node
			}
			last = node
		}
		if first < 0 {
			continue
		}
		firstPass, lastPass := g.passes[first], g.passes[last]
		firstPass.realizeResources = append(firstPass.realizeResources, idx)
		lastPass.destroyResources = append(lastPass.destroyResources, idx)
	}
}

// IsCulled reports whether pass survived Compile's culling pass.
func (g *Graph) IsCulled(pass *Pass) bool {
	return g.dg.isCulled(pass.node)
}

func (g *Graph) realize(ctx context.Context, driver backend.Backend, res *virtualResource) error {
	if res.realized {
		return nil
	}
	if g.pool != nil {
		return g.realizePooled(ctx, driver, res)
	}
	switch res.kind {
	case kindTexture:
		h, err := driver.CreateTexture(ctx, backend.TextureDesc{Width: res.texDesc.Width, Height: res.texDesc.Height, Format: res.texDesc.Format, Usage: res.usage})
		if err != nil {
			return fmt.Errorf("rendergraph: realize texture %q: %w", res.name, err)
		}
		res.texHandle = h
	case kindBuffer:
		h, err := driver.CreateBuffer(ctx, backend.BufferDesc{Size: res.bufDesc.Size, Usage: res.usage})
		if err != nil {
			return fmt.Errorf("rendergraph: realize buffer %q: %w", res.name, err)
		}
		res.bufHandle = h
	}
	res.realized = true
	g.metrics.incResourcesRealized()
	return nil
}

// realizePooled consults g.pool by descriptor before asking the backend
// for a fresh allocation, giving physical aliasing across Execute calls
// whose resources share a descriptor (spec.md §4.7/§9 "aliasing is
// permitted").
func (g *Graph) realizePooled(ctx context.Context, driver backend.Backend, res *virtualResource) error {
	switch res.kind {
	case kindTexture:
		key := rescache.ResourceKey{Kind: rescache.KindTexture, Name: res.name, Tex: backend.TextureDesc{Width: res.texDesc.Width, Height: res.texDesc.Height, Format: res.texDesc.Format, Usage: res.usage}}
		h, err := g.pool.GetOrCreate(ctx, key, func(ctx context.Context, k rescache.ResourceKey) (rescache.Handle, error) {
			th, err := driver.CreateTexture(ctx, k.Tex)
			return rescache.Handle{Kind: rescache.KindTexture, Texture: th}, err
		})
		if err != nil {
			return fmt.Errorf("rendergraph: realize pooled texture %q: %w", res.name, err)
		}
		res.texHandle = h.Texture
	case kindBuffer:
		key := rescache.ResourceKey{Kind: rescache.KindBuffer, Name: res.name, Buf: backend.BufferDesc{Size: res.bufDesc.Size, Usage: res.usage}}
		h, err := g.pool.GetOrCreate(ctx, key, func(ctx context.Context, k rescache.ResourceKey) (rescache.Handle, error) {
			bh, err := driver.CreateBuffer(ctx, k.Buf)
			return rescache.Handle{Kind: rescache.KindBuffer, Buffer: bh}, err
		})
		if err != nil {
			return fmt.Errorf("rendergraph: realize pooled buffer %q: %w", res.name, err)
		}
		res.bufHandle = h.Buffer
	}
	res.realized = true
	res.pooled = true
	g.metrics.incResourcesRealized()
	return nil
}

func (g *Graph) destroy(ctx context.Context, driver backend.Backend, res *virtualResource) error {
	if res.imported || !res.realized {
		return nil
	}
	if res.pooled {
		// The pool owns this handle's physical lifetime; leave it
		// resident for a future Execute to alias.
		res.realized = false
		return nil
	}
	switch res.kind {
	case kindTexture:
		if err := driver.DestroyTexture(ctx, res.texHandle); err != nil {
			return fmt.Errorf("rendergraph: destroy texture %q: %w", res.name, err)
		}
	case kindBuffer:
		if err := driver.DestroyBuffer(ctx, res.bufHandle); err != nil {
			return fmt.Errorf("rendergraph: destroy buffer %q: %w", res.name, err)
		}
	}
	res.realized = false
	return nil
}

// Execute runs every non-culled pass in declaration order. For each pass
// it realizes the resources whose first surviving use is this pass, binds
// the pass's render target (if it has any color/depth attachments),
// invokes the pass's execute closure, then destroys the resources whose
// last surviving use is this pass (spec.md §4.7, §8: realize-pass index
// <= every read-pass index <= destroy-pass index). A backend failure
// destroys whatever this pass's own realize step already realized before
// returning the error (spec.md §7).
func (g *Graph) Execute(ctx context.Context, driver backend.Backend) error {
	if !g.compiled {
		panic("rendergraph: Execute called before Compile")
	}
	for _, p := range g.passes {
		if g.dg.isCulled(p.node) {
			continue
		}
		if err := g.realizePassResources(ctx, driver, p); err != nil {
			g.logger.Warn("rendergraph: pass failed", zap.String("pass", p.name), zap.Error(err))
			return err
		}
		if err := g.runPass(ctx, driver, p); err != nil {
			g.logger.Warn("rendergraph: pass failed", zap.String("pass", p.name), zap.Error(err))
			for _, idx := range p.realizeResources {
				_ = g.destroy(ctx, driver, g.resources[idx])
			}
			_ = g.destroyPassResources(ctx, driver, p)
			return err
		}
		if err := g.destroyPassResources(ctx, driver, p); err != nil {
			g.logger.Warn("rendergraph: pass failed", zap.String("pass", p.name), zap.Error(err))
			return err
		}
	}
	return nil
}

// realizePassResources realizes exactly the resources Compile assigned to
// p's realize list. If one fails partway, every resource this call
// already realized for p is destroyed before the error is returned.
func (g *Graph) realizePassResources(ctx context.Context, driver backend.Backend, p *Pass) error {
	for i, idx := range p.realizeResources {
		if err := g.realize(ctx, driver, g.resources[idx]); err != nil {
			for _, prev := range p.realizeResources[:i] {
				_ = g.destroy(ctx, driver, g.resources[prev])
			}
			return err
		}
	}
	return nil
}

func (g *Graph) destroyPassResources(ctx context.Context, driver backend.Backend, p *Pass) error {
	for _, idx := range p.destroyResources {
		if err := g.destroy(ctx, driver, g.resources[idx]); err != nil {
			return err
		}
	}
	return nil
}

// ExecutePass forces pass to run regardless of its culled state, realizing
// whatever resources it reads or writes first and leaving them resident
// afterward. It exists for callers that need to drive one specific pass
// directly (tests, tooling) outside the normal whole-graph Execute flow.
func (g *Graph) ExecutePass(ctx context.Context, driver backend.Backend, pass *Pass) error {
	if !g.compiled {
		panic("rendergraph: ExecutePass called before Compile")
	}
	for _, h := range pass.reads {
		if err := g.realize(ctx, driver, g.resource(h)); err != nil {
			return err
		}
	}
	for _, h := range pass.writes {
		if err := g.realize(ctx, driver, g.resource(h)); err != nil {
			return err
		}
	}
	return g.runPass(ctx, driver, pass)
}

// renderTargetHandles resolves p's render-target attachments to realized
// backend texture handles, or nil if p has none.
func (g *Graph) renderTargetHandles(p *Pass) []backend.TextureHandle {
	rt := p.renderTarget
	if !rt.HasAttachments() {
		return nil
	}
	handles := make([]backend.TextureHandle, 0, len(rt.Color)+1)
	for _, att := range rt.Color {
		handles = append(handles, g.resource(att.Resource).texHandle)
	}
	if rt.Depth != nil {
		handles = append(handles, g.resource(rt.Depth.Resource).texHandle)
	}
	return handles
}

func (g *Graph) runPass(ctx context.Context, driver backend.Backend, p *Pass) error {
	if p.execute == nil {
		return nil
	}
	targets := g.renderTargetHandles(p)
	if len(targets) == 0 {
		return p.execute(ctx, driver, &Resources{g: g})
	}
	if err := driver.BeginRenderPass(ctx, p.name, targets); err != nil {
		return fmt.Errorf("rendergraph: begin render pass %q: %w", p.name, err)
	}
	err := p.execute(ctx, driver, &Resources{g: g})
	if endErr := driver.EndRenderPass(ctx); endErr != nil && err == nil {
		err = endErr
	}
	return err
}

// GetResourceInfo is the package-level equivalent of calling
// Resources.Info directly, matching spec.md's named operation.
func GetResourceInfo(res *Resources, h Handle) ResourceInfo {
	return res.Info(h)
}
