package framegraph

import (
	"math/bits"

	"github.com/gogpu/gputypes"
)

// Texture and buffer size limits enforced at declaration.
const (
	MaxTextureDimension2D = 16384
	MaxTextureDimension3D = 2048
	MaxTextureArrayLayers = 2048

	// ConstantBufferAlignment is the size granularity of constant buffers.
	ConstantBufferAlignment = 256
)

// Graph collects the passes of one frame. Obtain one from
// Manager.BeginFrame; it is reset at the start of every frame.
type Graph struct {
	resources  *Resources
	errs       *ErrorReporter
	passes     []PassDescription
	next       int
	blackboard Blackboard
}

// NewGraph creates a graph that registers transient resources in res and
// reports declaration errors to errs.
func NewGraph(res *Resources, errs *ErrorReporter) *Graph {
	if errs == nil {
		errs = NewErrorReporter()
	}
	return &Graph{resources: res, errs: errs}
}

// Reset drops every pass, resource and blackboard entry.
func (g *Graph) Reset() {
	clear(g.passes)
	g.passes = g.passes[:0]
	g.next = 0
	g.blackboard.Clear()
}

// Passes returns the submitted passes in submission order.
func (g *Graph) Passes() []PassDescription { return g.passes }

// ResourceCount returns the number of transient resources created so far.
func (g *Graph) ResourceCount() int { return g.next }

// Blackboard returns the per-frame blackboard.
func (g *Graph) Blackboard() *Blackboard { return &g.blackboard }

// ImportTexture makes an externally owned texture usable by passes.
func (g *Graph) ImportTexture(ext External, desc TextureDesc) Texture {
	return ExternalTexture(ext, desc)
}

// ImportBuffer makes an externally owned buffer usable by passes.
func (g *Graph) ImportBuffer(ext External, desc BufferDesc) Buffer {
	return ExternalBuffer(ext, desc)
}

// AddPass submits a fully built description. Most callers use
// AddRasterPass or AddComputePass instead.
func (g *Graph) AddPass(desc PassDescription) {
	g.passes = append(g.passes, desc)
}

func (g *Graph) newTexture(name string, desc TextureDesc) Texture {
	t := newTexture(g.next, name, desc)
	g.next++
	if g.resources != nil {
		g.resources.AddResource(t.Resource())
	}
	return t
}

func (g *Graph) newBuffer(name string, desc BufferDesc) Buffer {
	b := newBuffer(g.next, name, desc)
	g.next++
	if g.resources != nil {
		g.resources.AddResource(b.Resource())
	}
	return b
}

// AddRasterPass declares a graphics pass. setup runs immediately and
// declares the pass's resources; exec runs when the frame is executed.
// The returned pointer is the pass data shared by both.
func AddRasterPass[T any](g *Graph, name string, setup func(*PassBuilder, *T), exec func(*RasterCommandBuffer, *T)) *T {
	data := new(T)
	desc := PassDescription{Name: name, Type: PassGraphics, Data: data, AllowCulling: true}
	if exec != nil {
		desc.Raster = func(cmd *RasterCommandBuffer, d any) { exec(cmd, d.(*T)) }
	}
	b := &PassBuilder{graph: g, desc: &desc}
	if setup != nil {
		setup(b, data)
	}
	g.AddPass(desc)
	return data
}

// AddComputePass declares a compute pass. See AddRasterPass.
func AddComputePass[T any](g *Graph, name string, setup func(*PassBuilder, *T), exec func(*ComputeCommandBuffer, *T)) *T {
	data := new(T)
	desc := PassDescription{Name: name, Type: PassCompute, Data: data, AllowCulling: true}
	if exec != nil {
		desc.Compute = func(cmd *ComputeCommandBuffer, d any) { exec(cmd, d.(*T)) }
	}
	b := &PassBuilder{graph: g, desc: &desc}
	if setup != nil {
		setup(b, data)
	}
	g.AddPass(desc)
	return data
}

// PassBuilder declares the resources of one pass during setup.
// Invalid declarations are reported and skipped.
type PassBuilder struct {
	graph *Graph
	desc  *PassDescription
}

// Name returns the pass name.
func (b *PassBuilder) Name() string { return b.desc.Name }

// Type returns the pass type.
func (b *PassBuilder) Type() PassType { return b.desc.Type }

// Blackboard returns the frame blackboard.
func (b *PassBuilder) Blackboard() *Blackboard { return &b.graph.blackboard }

// AllowCulling sets whether the pass may be culled. Passes allow culling
// by default.
func (b *PassBuilder) AllowCulling(allow bool) { b.desc.AllowCulling = allow }

func (b *PassBuilder) report(src ErrorSource, typ ErrorType, r Resource) {
	b.graph.errs.Report(b.desc.Name, src, typ, r)
}

// CreateTexture creates a transient texture. It returns an invalid handle
// if desc is rejected.
func (b *PassBuilder) CreateTexture(name string, desc TextureDesc) Texture {
	desc = desc.normalized()
	if typ, ok := validateTextureDesc(desc); !ok {
		b.report(SourceCreateTexture, typ, Resource{name: name})
		return Texture{}
	}
	return b.graph.newTexture(name, desc)
}

func validateTextureDesc(d TextureDesc) (ErrorType, bool) {
	if d.Width == 0 {
		return TypeInvalidDimensions, false
	}
	switch d.Dimension {
	case gputypes.TextureDimension1D:
		if d.Width > MaxTextureDimension2D || d.Depth > MaxTextureArrayLayers {
			return TypeInvalidDimensions, false
		}
	case gputypes.TextureDimension3D:
		if d.Width > MaxTextureDimension3D || d.Height > MaxTextureDimension3D || d.Depth > MaxTextureDimension3D {
			return TypeInvalidDimensions, false
		}
	default:
		if d.Width > MaxTextureDimension2D || d.Height > MaxTextureDimension2D || d.Depth > MaxTextureArrayLayers {
			return TypeInvalidDimensions, false
		}
	}

	largest := max(d.Width, d.Height)
	if d.Dimension == gputypes.TextureDimension3D {
		largest = max(largest, d.Depth)
	}
	if d.MipLevels > uint32(bits.Len32(largest)) { // #nosec G115 -- at most 32
		return TypeInvalidDimensions, false
	}

	if !IsKnownFormat(d.Format) {
		return TypeInvalidFormat, false
	}
	if d.Usage&TextureUsageDepthStencil != 0 && d.Usage&(TextureUsageRenderTarget|TextureUsageStorage) != 0 {
		return TypeIncompatibleUsage, false
	}
	if d.Usage&TextureUsageRenderTarget != 0 && !IsRenderFormat(d.Format) {
		return TypeInvalidFormat, false
	}
	if d.Usage&TextureUsageDepthStencil != 0 && !IsDepthFormat(d.Format) {
		return TypeInvalidFormat, false
	}
	return 0, true
}

// CreateBuffer creates a transient buffer. Constant buffers are rounded up
// to ConstantBufferAlignment. It returns an invalid handle if desc is
// rejected.
func (b *PassBuilder) CreateBuffer(name string, desc BufferDesc) Buffer {
	if desc.Size == 0 {
		b.report(SourceCreateBuffer, TypeInvalidDimensions, Resource{name: name})
		return Buffer{}
	}
	if desc.Stride > desc.Size {
		b.report(SourceCreateBuffer, TypeStrideTooLarge, Resource{name: name})
		return Buffer{}
	}
	if desc.Usage&BufferUsageConstant != 0 {
		if desc.Usage&^BufferUsageConstant != 0 {
			b.report(SourceCreateBuffer, TypeIncompatibleUsage, Resource{name: name})
			return Buffer{}
		}
		desc.Size = uint32(alignUp(int(desc.Size), ConstantBufferAlignment)) // #nosec G115 -- bounded by uint32 input
	}
	return b.graph.newBuffer(name, desc)
}

// UseResource declares that the pass accesses r with usage. Repeated
// declarations of the same resource merge their flags.
func (b *PassBuilder) UseResource(r Resource, usage Usage) {
	if !r.IsValid() {
		b.report(SourceUseResource, TypeInvalidResourceType, r)
		return
	}
	if usage&(UsageRead|UsageWrite) == 0 {
		b.report(SourceUseResource, TypeIncompatibleUsage, r)
		return
	}
	key := r.Key()
	for i := range b.desc.Resources {
		if b.desc.Resources[i].Resource.Key() == key {
			b.desc.Resources[i].Usage |= usage
			return
		}
	}
	b.desc.Resources = append(b.desc.Resources, UsedResource{Resource: r, Usage: usage})
}

// UseTexture declares a texture access.
func (b *PassBuilder) UseTexture(t Texture, usage Usage) { b.UseResource(t.Resource(), usage) }

// UseBuffer declares a buffer access.
func (b *PassBuilder) UseBuffer(buf Buffer, usage Usage) { b.UseResource(buf.Resource(), usage) }

// UseRenderTarget declares t as a color output of a graphics pass.
func (b *PassBuilder) UseRenderTarget(t Texture) {
	b.useTarget(SourceUseRenderTarget, t, false)
}

// UseDepthStencil declares t as the depth-stencil output of a graphics pass.
func (b *PassBuilder) UseDepthStencil(t Texture) {
	b.useTarget(SourceUseDepthStencil, t, true)
}

func (b *PassBuilder) useTarget(src ErrorSource, t Texture, depth bool) {
	if !t.IsValid() {
		b.report(src, TypeInvalidResourceType, t.Resource())
		return
	}
	if b.desc.Type != PassGraphics {
		b.report(src, TypeInvalidOutput, t.Resource())
		return
	}
	if !t.IsExternal() {
		d := t.Desc()
		switch {
		case depth && d.Usage&TextureUsageDepthStencil == 0,
			!depth && d.Usage&TextureUsageRenderTarget == 0:
			b.report(src, TypeIncompatibleUsage, t.Resource())
			return
		case depth && !IsDepthFormat(d.Format),
			!depth && !IsRenderFormat(d.Format):
			b.report(src, TypeInvalidFormat, t.Resource())
			return
		}
	}
	key := t.Key()
	for _, rt := range b.desc.RenderTargets {
		if rt.Target.Key() == key {
			return
		}
	}
	b.desc.RenderTargets = append(b.desc.RenderTargets, UsedRenderTarget{Target: t, DepthStencil: depth})
}
