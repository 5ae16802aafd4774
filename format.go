package framegraph

import "github.com/gogpu/gputypes"

// formatInfo holds the properties the graph needs about a texture format.
type formatInfo struct {
	texelSize    int
	depth        bool
	stencil      bool
	renderTarget bool
}

var formatTable = map[gputypes.TextureFormat]formatInfo{
	gputypes.TextureFormatR8Unorm:             {texelSize: 1, renderTarget: true},
	gputypes.TextureFormatRGBA8Unorm:          {texelSize: 4, renderTarget: true},
	gputypes.TextureFormatBGRA8Unorm:          {texelSize: 4, renderTarget: true},
	gputypes.TextureFormatR32Float:            {texelSize: 4, renderTarget: true},
	gputypes.TextureFormatRGBA16Float:         {texelSize: 8, renderTarget: true},
	gputypes.TextureFormatRGBA32Float:         {texelSize: 16, renderTarget: true},
	gputypes.TextureFormatDepth32Float:        {texelSize: 4, depth: true},
	gputypes.TextureFormatDepth24PlusStencil8: {texelSize: 4, depth: true, stencil: true},
}

// TexelSize returns the size in bytes of one texel, or 0 for formats the
// graph does not know.
func TexelSize(format gputypes.TextureFormat) int {
	return formatTable[format].texelSize
}

// IsKnownFormat reports whether the graph can size textures of format.
func IsKnownFormat(format gputypes.TextureFormat) bool {
	_, ok := formatTable[format]
	return ok
}

// IsDepthFormat reports whether format has a depth aspect.
func IsDepthFormat(format gputypes.TextureFormat) bool {
	return formatTable[format].depth
}

// HasStencil reports whether format has a stencil aspect.
func HasStencil(format gputypes.TextureFormat) bool {
	return formatTable[format].stencil
}

// IsRenderFormat reports whether format can be bound as a color target.
func IsRenderFormat(format gputypes.TextureFormat) bool {
	return formatTable[format].renderTarget
}

// SubresourceSize returns the tightly packed byte size of one mip level of
// one array layer.
func SubresourceSize(desc TextureDesc, mip uint32) int {
	w, h, d := desc.MipExtent(mip)
	return int(w) * int(h) * int(d) * TexelSize(desc.Format)
}

// TextureSize returns the tightly packed byte size of every subresource.
func TextureSize(desc TextureDesc) int {
	desc = desc.normalized()
	total := 0
	for mip := range desc.MipLevels {
		total += SubresourceSize(desc, mip)
	}
	return total * int(desc.ArrayLayers())
}
