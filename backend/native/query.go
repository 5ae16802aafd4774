package native

import "github.com/gogpu/framegraph"

// Placement rules of the HAL backend.
const (
	// BufferAlignment is the placement alignment of buffers in the heap.
	BufferAlignment = 256

	// TextureAlignment is the placement alignment of textures in the heap.
	TextureAlignment = 64 * 1024

	// RowPitchAlignment is the row alignment of texture data in buffers.
	RowPitchAlignment = 256

	// TextureUploadAlignment is the staging placement of texture uploads.
	TextureUploadAlignment = 512

	// BufferUploadAlignment is the staging placement of buffer uploads.
	BufferUploadAlignment = 4
)

func alignUp(v, alignment int) int {
	return (v + alignment - 1) / alignment * alignment
}

// RowPitch returns the aligned size of one texel row of a mip level.
func RowPitch(desc framegraph.TextureDesc, mip uint32) int {
	w, _, _ := desc.MipExtent(mip)
	return alignUp(int(w)*framegraph.TexelSize(desc.Format), RowPitchAlignment)
}

// subresourceFootprint returns the size of one subresource laid out with
// aligned rows.
func subresourceFootprint(desc framegraph.TextureDesc, mip uint32) int {
	_, h, d := desc.MipExtent(mip)
	return RowPitch(desc, mip) * int(h) * int(d)
}

// QueryResourceInfo implements framegraph.ResourceQuerier.
func (d *Device) QueryResourceInfo(r framegraph.Resource) framegraph.ResourceInfo {
	if b, ok := r.Buffer(); ok {
		return framegraph.ResourceInfo{
			SizeInBytes: alignUp(int(b.Desc().Size), BufferAlignment),
			Alignment:   BufferAlignment,
		}
	}
	t, ok := r.Texture()
	if !ok {
		return framegraph.ResourceInfo{}
	}
	desc := t.Desc()
	size := 0
	for mip := range max(desc.MipLevels, 1) {
		size += subresourceFootprint(desc, mip)
	}
	size *= int(desc.ArrayLayers())
	return framegraph.ResourceInfo{
		SizeInBytes: alignUp(size, TextureAlignment),
		Alignment:   TextureAlignment,
	}
}

// QueryBufferInfo implements framegraph.ResourceQuerier.
func (d *Device) QueryBufferInfo(_ framegraph.Buffer, _, size int) framegraph.ResourceInfo {
	return framegraph.ResourceInfo{
		SizeInBytes: alignUp(size, BufferUploadAlignment),
		Alignment:   BufferUploadAlignment,
	}
}

// QueryTextureInfo implements framegraph.ResourceQuerier. The offset
// argument is the subresource index. Flush stages the payload tightly
// packed; the reservation is sized for the whole subresource with rows
// padded to RowPitch, so it is an upper bound on the bytes written.
func (d *Device) QueryTextureInfo(t framegraph.Texture, subresource, size int) framegraph.ResourceInfo {
	desc := t.Desc()
	staged := size
	if framegraph.IsKnownFormat(desc.Format) && desc.Width > 0 {
		staged = max(staged, subresourceFootprint(desc, desc.SubresourceMip(subresource)))
	}
	return framegraph.ResourceInfo{
		SizeInBytes: staged,
		Alignment:   TextureUploadAlignment,
	}
}
