// Package backend defines the contracts the render graph and command
// bucket drive a real GPU backend through, plus a reference software
// implementation used by tests.
//
// Grounded on spec.md §6's external-interfaces list; no teacher file
// defines an equivalent surface (the teacher is a cache library with no
// GPU concept), so the interface shape here is original, sized to exactly
// the operations pkg/rendergraph and pkg/cmdbucket need to drive.
//
// © 2025 vkforge authors. MIT License.
package backend

import "context"

// TextureDesc describes a 2D texture resource to be realized by a Backend.
type TextureDesc struct {
	Width, Height uint32
	Format        string
	Usage         UsageFlags
}

// BufferDesc describes a linear buffer resource to be realized by a
// Backend.
type BufferDesc struct {
	Size  uint64
	Usage UsageFlags
}

// UsageFlags accumulates the ways a resource is read or written across a
// render graph's passes.
type UsageFlags uint32

const (
	UsageNone UsageFlags = 0
	UsageRead UsageFlags = 1 << iota
	UsageWrite
	UsageSampled
	UsageColorAttachment
	UsageDepthAttachment
)

// TextureHandle and BufferHandle are opaque backend-assigned identifiers.
type TextureHandle uint64
type BufferHandle uint64

// Backend is the minimal GPU driver surface the render graph and command
// bucket dispatch through. A production implementation wraps a real
// Vulkan device; LoggingBackend below is a software stand-in.
type Backend interface {
	CreateTexture(ctx context.Context, desc TextureDesc) (TextureHandle, error)
	DestroyTexture(ctx context.Context, h TextureHandle) error
	CreateBuffer(ctx context.Context, desc BufferDesc) (BufferHandle, error)
	DestroyBuffer(ctx context.Context, h BufferHandle) error

	BeginRenderPass(ctx context.Context, name string, targets []TextureHandle) error
	EndRenderPass(ctx context.Context) error

	DispatchCompute(ctx context.Context, groupsX, groupsY, groupsZ uint32) error
	MapBuffer(ctx context.Context, h BufferHandle) ([]byte, error)
	Draw(ctx context.Context, vertexCount, instanceCount uint32) error
}

// Clock supplies a monotonic nanosecond reading. Production code uses
// SystemClock; tests inject a deterministic fake.
type Clock interface {
	NowNanos() int64
}
