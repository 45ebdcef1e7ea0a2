package backend

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// LoggingBackend is a software Backend that performs no real GPU work: it
// hands out monotonically increasing handles and logs every call. It
// exists so pkg/rendergraph and pkg/cmdbucket can be exercised end to end
// (in tests) without a real Vulkan device.
type LoggingBackend struct {
	logger *zap.Logger

	nextTexture atomic.Uint64
	nextBuffer  atomic.Uint64

	mu       sync.Mutex
	textures map[TextureHandle]TextureDesc
	buffers  map[BufferHandle]BufferDesc
	inPass   bool
	passName string
}

// NewLoggingBackend constructs a LoggingBackend. A nil logger falls back
// to zap.NewNop(), matching the rest of the module's logging convention.
func NewLoggingBackend(logger *zap.Logger) *LoggingBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingBackend{
		logger:   logger,
		textures: make(map[TextureHandle]TextureDesc),
		buffers:  make(map[BufferHandle]BufferDesc),
	}
}

func (b *LoggingBackend) CreateTexture(ctx context.Context, desc TextureDesc) (TextureHandle, error) {
	h := TextureHandle(b.nextTexture.Add(1))
	b.mu.Lock()
	b.textures[h] = desc
	b.mu.Unlock()
	b.logger.Debug("create texture",
		zap.Uint64("handle", uint64(h)),
		zap.Uint32("width", desc.Width),
		zap.Uint32("height", desc.Height),
		zap.String("format", desc.Format))
	return h, nil
}

func (b *LoggingBackend) DestroyTexture(ctx context.Context, h TextureHandle) error {
	b.mu.Lock()
	_, ok := b.textures[h]
	delete(b.textures, h)
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("backend: destroy unknown texture handle %d", h)
	}
	b.logger.Debug("destroy texture", zap.Uint64("handle", uint64(h)))
	return nil
}

func (b *LoggingBackend) CreateBuffer(ctx context.Context, desc BufferDesc) (BufferHandle, error) {
	h := BufferHandle(b.nextBuffer.Add(1))
	b.mu.Lock()
	b.buffers[h] = desc
	b.mu.Unlock()
	b.logger.Debug("create buffer", zap.Uint64("handle", uint64(h)), zap.Uint64("size", desc.Size))
	return h, nil
}

func (b *LoggingBackend) DestroyBuffer(ctx context.Context, h BufferHandle) error {
	b.mu.Lock()
	_, ok := b.buffers[h]
	delete(b.buffers, h)
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("backend: destroy unknown buffer handle %d", h)
	}
	b.logger.Debug("destroy buffer", zap.Uint64("handle", uint64(h)))
	return nil
}

func (b *LoggingBackend) BeginRenderPass(ctx context.Context, name string, targets []TextureHandle) error {
	b.mu.Lock()
	if b.inPass {
		b.mu.Unlock()
		return fmt.Errorf("backend: BeginRenderPass(%q) called while pass %q is still open", name, b.passName)
	}
	b.inPass = true
	b.passName = name
	b.mu.Unlock()
	b.logger.Debug("begin render pass", zap.String("pass", name), zap.Int("targets", len(targets)))
	return nil
}

func (b *LoggingBackend) EndRenderPass(ctx context.Context) error {
	b.mu.Lock()
	if !b.inPass {
		b.mu.Unlock()
		return fmt.Errorf("backend: EndRenderPass called with no open pass")
	}
	name := b.passName
	b.inPass = false
	b.passName = ""
	b.mu.Unlock()
	b.logger.Debug("end render pass", zap.String("pass", name))
	return nil
}

func (b *LoggingBackend) DispatchCompute(ctx context.Context, groupsX, groupsY, groupsZ uint32) error {
	b.logger.Debug("dispatch compute",
		zap.Uint32("x", groupsX), zap.Uint32("y", groupsY), zap.Uint32("z", groupsZ))
	return nil
}

func (b *LoggingBackend) MapBuffer(ctx context.Context, h BufferHandle) ([]byte, error) {
	b.mu.Lock()
	desc, ok := b.buffers[h]
	b.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("backend: map unknown buffer handle %d", h)
	}
	return make([]byte, desc.Size), nil
}

func (b *LoggingBackend) Draw(ctx context.Context, vertexCount, instanceCount uint32) error {
	b.logger.Debug("draw", zap.Uint32("vertices", vertexCount), zap.Uint32("instances", instanceCount))
	return nil
}
