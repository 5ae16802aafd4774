package framegraph

// UsedResource is one declared resource access of a pass.
type UsedResource struct {
	Resource Resource
	Usage    Usage
}

// UsedRenderTarget is one declared output texture of a pass.
type UsedRenderTarget struct {
	Target       Texture
	DepthStencil bool
}

// RasterFunc records the commands of a graphics pass.
type RasterFunc func(cmd *RasterCommandBuffer, data any)

// ComputeFunc records the commands of a compute pass.
type ComputeFunc func(cmd *ComputeCommandBuffer, data any)

// PassDescription is the declarative record of one pass. It must not be
// modified after it is handed to the compiler.
type PassDescription struct {
	Name          string
	Type          PassType
	Resources     []UsedResource
	RenderTargets []UsedRenderTarget
	// Data is the pass data value passed to the callback.
	Data    any
	Raster  RasterFunc
	Compute ComputeFunc
	// AllowCulling lets the compiler drop the pass when it trails the
	// frame and nothing consumes its output.
	AllowCulling bool
}

// HasOutput reports whether the pass renders into t.
func (p *PassDescription) HasOutput(t Texture) bool {
	key := t.Key()
	for _, rt := range p.RenderTargets {
		if rt.Target.Key() == key {
			return true
		}
	}
	return false
}
