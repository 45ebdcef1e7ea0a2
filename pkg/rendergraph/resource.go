package rendergraph

import "github.com/ashgrove/vkforge/pkg/backend"

// Handle identifies a specific version of a virtual resource registered
// with a Graph: {resource_index, version} per spec.md's "render graph
// handle". Each AddWrite bumps the resource's version and returns a new
// Handle; a handle captured before that write stays valid for reads at
// the version it was issued for. Handle equality implies the same
// {resource_index, version} pair. The zero Handle is never valid.
type Handle struct {
	index   uint32
	version uint32
}

// IsValid reports whether h refers to a registered resource.
func (h Handle) IsValid() bool { return h.index != 0 }

type resourceKind int

const (
	kindTexture resourceKind = iota
	kindBuffer
)

// ResourceInfo is what a pass's execute closure can read back about a
// realized resource via Resources.Info.
type ResourceInfo struct {
	Name          string
	Width, Height uint32
	Size          uint64
}

type virtualResource struct {
	name     string
	kind     resourceKind
	texDesc  backend.TextureDesc
	bufDesc  backend.BufferDesc
	imported bool

	usage backend.UsageFlags

	texHandle backend.TextureHandle
	bufHandle backend.BufferHandle
	realized  bool

	// pooled marks a resource realized through a rescache.Pool
	// (WithResourcePool). destroy leaves pooled resources physically
	// resident — the pool's own CLOCK hand decides when to actually
	// release the backend handle.
	pooled bool

	// version is the most recent version produced by AddWrite. A fresh
	// transient resource starts at version 0 (unwritten); an imported
	// resource starts at version 1, since its backing handle already
	// exists before the graph ever touches it.
	version uint32

	// writerNode[v] is the dependency-graph node index of the pass whose
	// AddWrite produced version v, or -1 if version v has no producer
	// inside this graph (version 0, or an imported resource's initial
	// version). len(writerNode) == version+1.
	writerNode []int

	// users records, in the order AddRead/AddWrite observed them, every
	// pass node that touched this resource. Compile walks this to find
	// the first and last surviving (non-culled) user for lifetime
	// realize/destroy placement (spec.md §4.7).
	users []int
}

func (res *virtualResource) recordUser(node int) {
	if n := len(res.users); n == 0 || res.users[n-1] != node {
		res.users = append(res.users, node)
	}
}

// Resources is the read-only view into realized resource state a pass's
// execute closure receives.
type Resources struct {
	g *Graph
}

// Info returns the width/height/size declared for h's resource. The values
// come from its descriptor, not from the backend's realization.
func (r *Resources) Info(h Handle) ResourceInfo {
	res := r.g.resource(h)
	info := ResourceInfo{Name: res.name}
	switch res.kind {
	case kindTexture:
		info.Width, info.Height = res.texDesc.Width, res.texDesc.Height
	case kindBuffer:
		info.Size = res.bufDesc.Size
	}
	return info
}
