// depgraph.go implements the generic node/edge dependency graph that
// pkg/rendergraph's pass scheduling is built on: nodes carry a reference
// count, side-effect nodes are immune to culling, and Cull removes every
// node whose reference count has dropped to zero, propagating the removal
// along that node's own outgoing edges.
//
// Grounded on original_source/rpe/test/test_render_graph.c's
// RenderGraph_DepGraph_Tests1/Tests2: the reference-count and cascade
// direction implemented here were reconstructed empirically from those two
// fixtures' exact expected ref_counts (the only artifact of this
// subsystem to survive retrieval; no dependency_graph header or
// implementation file was present in the pack). Notably node4's ref_count
// in Tests2 stays at 1 even after its sole reader node7 is culled — this
// pins the cascade to decrement a culled node's own out-edge targets, not
// the nodes pointing into it.
package rendergraph

// sideEffectRef is the sentinel ref-count value marking a node immune to
// culling, matching the 0x7FFF constant named in spec.md.
const sideEffectRef = 0x7FFF

type depNode struct {
	name       string
	sideEffect bool
	culled     bool
	refCount   int
	out        []int // indices of nodes this node has an edge to
}

// depGraph is a plain node/edge graph; nodes and edges are only ever
// appended, matching the arena-append-only convention used elsewhere in
// this module.
type depGraph struct {
	nodes []*depNode
}

func newDepGraph() *depGraph {
	return &depGraph{}
}

func (g *depGraph) addNode(name string) int {
	g.nodes = append(g.nodes, &depNode{name: name})
	return len(g.nodes) - 1
}

// addEdge records that node `from` depends on / references node `to`.
// Duplicate (from, to) pairs are not collapsed: each AddEdge call
// contributes one unit to `from`'s reference count, matching the source
// fixtures where ref_count literally counts declared edges.
func (g *depGraph) addEdge(from, to int) {
	g.nodes[from].out = append(g.nodes[from].out, to)
}

func (g *depGraph) declareSideEffect(idx int) {
	g.nodes[idx].sideEffect = true
}

// cull computes every node's reference count as its out-degree (side
// effect nodes pinned to sideEffectRef), then repeatedly culls nodes whose
// ref_count has reached zero, decrementing the ref_count of each node the
// culled node itself points to, until no more nodes qualify.
func (g *depGraph) cull() {
	for _, n := range g.nodes {
		if n.sideEffect {
			n.refCount = sideEffectRef
		} else {
			n.refCount = len(n.out)
		}
	}

	var queue []int
	for i, n := range g.nodes {
		if !n.sideEffect && n.refCount == 0 {
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		n := g.nodes[idx]
		if n.culled {
			continue
		}
		n.culled = true
		for _, succ := range n.out {
			s := g.nodes[succ]
			if s.sideEffect || s.culled {
				continue
			}
			s.refCount--
			if s.refCount <= 0 {
				queue = append(queue, succ)
			}
		}
	}
}

func (g *depGraph) isCulled(idx int) bool { return g.nodes[idx].culled }
func (g *depGraph) refCountOf(idx int) int {
	return g.nodes[idx].refCount
}
