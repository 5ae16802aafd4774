package framegraph

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// ResourceKind discriminates the variants of a [Resource].
type ResourceKind uint8

const (
	// ResourceInvalid is the zero value: a handle that refers to nothing.
	ResourceInvalid ResourceKind = iota
	ResourceBuffer
	ResourceTexture
)

var resourceKindNames = [...]string{
	ResourceInvalid: "Invalid",
	ResourceBuffer:  "Buffer",
	ResourceTexture: "Texture",
}

// String returns the kind name.
func (k ResourceKind) String() string {
	if int(k) < len(resourceKindNames) {
		return resourceKindNames[k]
	}
	return fmt.Sprintf("ResourceKind(%d)", k)
}

// External is an object owned outside the frame graph, for example a
// swapchain backbuffer. Implementations must be comparable (usually a
// pointer) because handles are used as map keys.
type External interface {
	Label() string
}

// Resource is a handle to a buffer or texture used by a frame.
//
// Internal resources are identified by their per-frame index and take part
// in lifetime tracking and placement. External resources are identified by
// their [External] value and are skipped by both.
//
// The zero Resource is invalid.
type Resource struct {
	kind     ResourceKind
	index    int
	external External
	name     string
	texture  TextureDesc
	buffer   BufferDesc
}

// ResourceKey is the comparable identity of a [Resource].
type ResourceKey struct {
	kind     ResourceKind
	index    int
	external External
}

// Kind returns the resource variant.
func (r Resource) Kind() ResourceKind { return r.kind }

// Index returns the per-frame index, or -1 for external and invalid handles.
func (r Resource) Index() int {
	if r.kind == ResourceInvalid || r.external != nil {
		return -1
	}
	return r.index
}

// External returns the external object, or nil for internal resources.
func (r Resource) External() External { return r.external }

// IsExternal reports whether the resource is owned outside the graph.
func (r Resource) IsExternal() bool { return r.external != nil }

// IsValid reports whether the handle refers to a buffer or texture.
func (r Resource) IsValid() bool { return r.kind != ResourceInvalid }

// IsTransient reports whether the resource is valid and owned by the graph.
func (r Resource) IsTransient() bool { return r.IsValid() && r.external == nil }

// Name returns the debug name.
func (r Resource) Name() string { return r.name }

// Key returns the identity of the resource.
func (r Resource) Key() ResourceKey {
	if r.external != nil {
		return ResourceKey{kind: r.kind, index: -1, external: r.external}
	}
	return ResourceKey{kind: r.kind, index: r.index}
}

// Texture returns the texture view of r if r is a texture.
func (r Resource) Texture() (Texture, bool) {
	if r.kind != ResourceTexture {
		return Texture{}, false
	}
	return Texture{res: r}, true
}

// Buffer returns the buffer view of r if r is a buffer.
func (r Resource) Buffer() (Buffer, bool) {
	if r.kind != ResourceBuffer {
		return Buffer{}, false
	}
	return Buffer{res: r}, true
}

// String implements fmt.Stringer.
func (r Resource) String() string {
	switch {
	case r.kind == ResourceInvalid && r.name != "":
		return fmt.Sprintf("Invalid(%q)", r.name)
	case r.kind == ResourceInvalid:
		return "Invalid"
	case r.external != nil:
		return fmt.Sprintf("%s(external %q)", r.kind, r.external.Label())
	case r.name != "":
		return fmt.Sprintf("%s(%d %q)", r.kind, r.index, r.name)
	default:
		return fmt.Sprintf("%s(%d)", r.kind, r.index)
	}
}

// Texture is a typed handle to a texture resource.
type Texture struct {
	res Resource
}

// Resource returns the untyped handle.
func (t Texture) Resource() Resource { return t.res }

// Desc returns the texture description.
func (t Texture) Desc() TextureDesc { return t.res.texture }

// IsValid reports whether the handle refers to a texture.
func (t Texture) IsValid() bool { return t.res.kind == ResourceTexture }

// IsExternal reports whether the texture is owned outside the graph.
func (t Texture) IsExternal() bool { return t.res.IsExternal() }

// Key returns the identity of the texture.
func (t Texture) Key() ResourceKey { return t.res.Key() }

// Name returns the debug name.
func (t Texture) Name() string { return t.res.name }

func (t Texture) String() string { return t.res.String() }

// Buffer is a typed handle to a buffer resource.
type Buffer struct {
	res Resource
}

// Resource returns the untyped handle.
func (b Buffer) Resource() Resource { return b.res }

// Desc returns the buffer description.
func (b Buffer) Desc() BufferDesc { return b.res.buffer }

// IsValid reports whether the handle refers to a buffer.
func (b Buffer) IsValid() bool { return b.res.kind == ResourceBuffer }

// IsExternal reports whether the buffer is owned outside the graph.
func (b Buffer) IsExternal() bool { return b.res.IsExternal() }

// Key returns the identity of the buffer.
func (b Buffer) Key() ResourceKey { return b.res.Key() }

// Name returns the debug name.
func (b Buffer) Name() string { return b.res.name }

func (b Buffer) String() string { return b.res.String() }

func newTexture(index int, name string, desc TextureDesc) Texture {
	return Texture{res: Resource{kind: ResourceTexture, index: index, name: name, texture: desc}}
}

func newBuffer(index int, name string, desc BufferDesc) Buffer {
	return Buffer{res: Resource{kind: ResourceBuffer, index: index, name: name, buffer: desc}}
}

// ExternalTexture wraps an externally owned texture in a handle.
// It returns an invalid handle if ext is nil.
func ExternalTexture(ext External, desc TextureDesc) Texture {
	if ext == nil {
		return Texture{}
	}
	return Texture{res: Resource{kind: ResourceTexture, index: -1, external: ext, name: ext.Label(), texture: desc.normalized()}}
}

// ExternalBuffer wraps an externally owned buffer in a handle.
// It returns an invalid handle if ext is nil.
func ExternalBuffer(ext External, desc BufferDesc) Buffer {
	if ext == nil {
		return Buffer{}
	}
	return Buffer{res: Resource{kind: ResourceBuffer, index: -1, external: ext, name: ext.Label(), buffer: desc}}
}

// TextureUsage describes how a texture may be bound.
type TextureUsage uint8

const (
	TextureUsageShaderResource TextureUsage = 1 << iota
	TextureUsageRenderTarget
	TextureUsageDepthStencil
	TextureUsageStorage
)

// TextureDesc describes a texture resource.
type TextureDesc struct {
	Width  uint32
	Height uint32
	// Depth is the depth of a 3D texture or the layer count of a 1D/2D texture.
	Depth     uint32
	MipLevels uint32
	Dimension gputypes.TextureDimension
	Format    gputypes.TextureFormat
	Usage     TextureUsage
}

// normalized fills zero fields with their defaults. A 1D description
// taller than one texel is treated as 2D.
func (d TextureDesc) normalized() TextureDesc {
	if d.Height == 0 {
		d.Height = 1
	}
	if d.Depth == 0 {
		d.Depth = 1
	}
	if d.MipLevels == 0 {
		d.MipLevels = 1
	}
	switch d.Dimension {
	case gputypes.TextureDimension3D:
	case gputypes.TextureDimension1D:
		if d.Height > 1 {
			d.Dimension = gputypes.TextureDimension2D
		}
	default:
		d.Dimension = gputypes.TextureDimension2D
	}
	return d
}

// ArrayLayers returns the number of array layers. 3D textures have one.
func (d TextureDesc) ArrayLayers() uint32 {
	if d.Dimension == gputypes.TextureDimension3D {
		return 1
	}
	return max(d.Depth, 1)
}

// Subresources returns the number of addressable subresources.
func (d TextureDesc) Subresources() int {
	return int(max(d.MipLevels, 1)) * int(d.ArrayLayers())
}

// MipExtent returns the size of the given mip level.
func (d TextureDesc) MipExtent(mip uint32) (width, height, depth uint32) {
	width = max(d.Width>>mip, 1)
	height = max(d.Height>>mip, 1)
	depth = 1
	if d.Dimension == gputypes.TextureDimension3D {
		depth = max(d.Depth>>mip, 1)
	}
	return width, height, depth
}

// SubresourceMip returns the mip level addressed by a subresource index.
func (d TextureDesc) SubresourceMip(subresource int) uint32 {
	mips := int(max(d.MipLevels, 1))
	return uint32(subresource % mips) // #nosec G115 -- bounded by MipLevels
}

// BufferUsage describes how a buffer may be bound.
type BufferUsage uint8

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageConstant
	BufferUsageStorage
	BufferUsageShaderResource
)

// BufferDesc describes a buffer resource.
type BufferDesc struct {
	Size uint32
	// Stride is the element size for structured and vertex buffers.
	Stride uint32
	Usage  BufferUsage
}
