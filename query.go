package framegraph

// ResourceInfo is the backing requirement of a resource or upload.
type ResourceInfo struct {
	SizeInBytes int
	Alignment   int
}

// ResourceQuerier reports how much memory a resource needs and how it must
// be aligned. The allocator treats it as a pure function of the resource
// description.
type ResourceQuerier interface {
	QueryResourceInfo(r Resource) ResourceInfo
	QueryBufferInfo(b Buffer, offset, size int) ResourceInfo
	QueryTextureInfo(t Texture, offset, size int) ResourceInfo
}

// Default alignments used by DefaultQuerier.
const (
	DefaultBufferAlignment  = 256
	DefaultTextureAlignment = 64 * 1024
	DefaultUploadAlignment  = 512
)

// PackedQuerier sizes resources by their tightly packed byte size.
// It needs no device and is used for planning and tests.
type PackedQuerier struct {
	BufferAlignment  int
	TextureAlignment int
	UploadAlignment  int
}

// DefaultQuerier returns a PackedQuerier with the default alignments.
func DefaultQuerier() PackedQuerier {
	return PackedQuerier{
		BufferAlignment:  DefaultBufferAlignment,
		TextureAlignment: DefaultTextureAlignment,
		UploadAlignment:  DefaultUploadAlignment,
	}
}

// QueryResourceInfo implements ResourceQuerier.
func (q PackedQuerier) QueryResourceInfo(r Resource) ResourceInfo {
	switch r.Kind() {
	case ResourceBuffer:
		return ResourceInfo{
			SizeInBytes: alignUp(int(r.buffer.Size), q.BufferAlignment),
			Alignment:   max(q.BufferAlignment, 1),
		}
	case ResourceTexture:
		return ResourceInfo{
			SizeInBytes: alignUp(TextureSize(r.texture), q.TextureAlignment),
			Alignment:   max(q.TextureAlignment, 1),
		}
	default:
		return ResourceInfo{}
	}
}

// QueryBufferInfo implements ResourceQuerier.
func (q PackedQuerier) QueryBufferInfo(_ Buffer, _, size int) ResourceInfo {
	return ResourceInfo{SizeInBytes: size, Alignment: max(q.UploadAlignment, 1)}
}

// QueryTextureInfo implements ResourceQuerier.
func (q PackedQuerier) QueryTextureInfo(_ Texture, _, size int) ResourceInfo {
	return ResourceInfo{SizeInBytes: size, Alignment: max(q.UploadAlignment, 1)}
}

// alignUp rounds v up to a multiple of alignment. Alignments below 2 leave
// v unchanged.
func alignUp(v, alignment int) int {
	if alignment <= 1 {
		return v
	}
	return (v + alignment - 1) / alignment * alignment
}
