package rendergraph

// LoadOp selects how an attachment's prior contents are treated when a
// render pass begins.
type LoadOp uint8

const (
	LoadClear LoadOp = iota
	LoadLoad
	LoadDontCare
)

// StoreOp selects whether an attachment's contents are kept after a
// render pass ends.
type StoreOp uint8

const (
	StoreStore StoreOp = iota
	StoreDontCare
)

// ClearValue is the value an attachment is cleared to when its LoadOp is
// LoadClear.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// Attachment binds one resource as a color or depth target for a render
// pass, derived automatically from an AddWrite carrying
// backend.UsageColorAttachment or backend.UsageDepthAttachment.
type Attachment struct {
	Resource Handle
	Load     LoadOp
	Store    StoreOp
	Clear    ClearValue
}

// RenderTargetDesc is the render-target descriptor a render pass binds
// around its execute closure (spec.md §3 Pass node, §4.7 execute phase):
// the color and depth attachments derived from the pass's writes.
type RenderTargetDesc struct {
	Color []Attachment
	Depth *Attachment
}

// HasAttachments reports whether rt describes at least one color or
// depth attachment, i.e. whether the owning pass should be bracketed
// with driver.BeginRenderPass/EndRenderPass.
func (rt RenderTargetDesc) HasAttachments() bool {
	return len(rt.Color) > 0 || rt.Depth != nil
}

func newAttachment(h Handle) Attachment {
	return Attachment{Resource: h, Load: LoadClear, Store: StoreStore}
}
