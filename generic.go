package framegraph

import "encoding/binary"

// MaxConstantsSize is the push constant budget of one pass in bytes.
const MaxConstantsSize = 128

// encodedSize returns the little-endian wire size of v. Types without a
// fixed size panic: they are a programming error, not a runtime condition.
func encodedSize(what string, v any) int {
	n := binary.Size(v)
	if n < 0 {
		panic(&CapacityError{What: what, Size: n, Limit: -1})
	}
	return n
}

// encodeInto stages the encoding of v in the recorder's arena.
func encodeInto(rec *CommandRecorder, what string, v any, n int) []byte {
	buf := rec.alloc(what, n)
	if _, err := binary.Encode(buf, binary.LittleEndian, v); err != nil {
		panic(&CapacityError{What: what, Size: n, Limit: -1})
	}
	return buf
}

// SetConstants records push constants. The encoded size of T must be a
// multiple of 4 and at most MaxConstantsSize; otherwise SetConstants
// panics with a *CapacityError.
func SetConstants[T any](cb CommandBuffer, v T) {
	n := encodedSize("SetConstants", v)
	if n%4 != 0 || n > MaxConstantsSize {
		panic(&CapacityError{What: "SetConstants", Size: n, Limit: MaxConstantsSize})
	}
	b := cb.base()
	if !b.begin(SourceSetConstants) {
		return
	}
	b.rec.setState(SetConstantsCommand{Data: encodeInto(b.rec, "SetConstants", v, n)}, EffectConstants)
}

// Upload records a write of data to dst at a byte offset. The pass must
// declare dst with UsageWrite and the data must fit inside dst.
func Upload[T any](cb CommandBuffer, dst Buffer, offset int, data []T) {
	n := encodedSize("Upload", data)
	if n > MaxUploadChunk {
		panic(&CapacityError{What: "Upload", Size: n, Limit: MaxUploadChunk})
	}
	b := cb.base()
	if !b.begin(SourceUploadBuffer) {
		return
	}
	if !b.checkBufferWrite(SourceUploadBuffer, dst, offset, n) {
		return
	}
	staged := encodeInto(b.rec, "Upload", data, n)
	idx := b.res.AddBufferUpload(dst, offset, n)
	b.rec.append(UploadBufferCommand{Buffer: dst, Offset: offset, Upload: idx, Data: staged})
}

// UploadTextureData records a write of texel data to one subresource of
// dst, or to box within it. See RasterCommandBuffer.UploadTexture.
func UploadTextureData[T any](cb CommandBuffer, dst Texture, subresource int, box *Box, data []T) {
	n := encodedSize("UploadTexture", data)
	if n > MaxUploadChunk {
		panic(&CapacityError{What: "UploadTexture", Size: n, Limit: MaxUploadChunk})
	}
	buf := make([]byte, n)
	if _, err := binary.Encode(buf, binary.LittleEndian, data); err != nil {
		panic(&CapacityError{What: "UploadTexture", Size: n, Limit: -1})
	}
	cb.base().UploadTexture(dst, subresource, box, buf)
}

// Mapped is a write-mapped view of a buffer range. Writes go to Data;
// Unmap stages them exactly like an upload. The zero Mapped, returned when
// mapping fails validation, has no data and Unmap does nothing.
type Mapped[T any] struct {
	b      *commandBase
	dst    Buffer
	offset int
	data   []T
}

// Data returns the mapped elements, or nil after Unmap.
func (m *Mapped[T]) Data() []T { return m.data }

// IsMapped reports whether Unmap has not run yet.
func (m *Mapped[T]) IsMapped() bool { return m.data != nil }

// Unmap stages the mapped contents as an upload. Calling it again is a
// no-op.
func (m *Mapped[T]) Unmap() {
	if m.data == nil {
		return
	}
	data := m.data
	m.data = nil
	if !m.b.begin(SourceMapBuffer) {
		return
	}
	n := encodedSize("MapBuffer", data)
	staged := encodeInto(m.b.rec, "MapBuffer", data, n)
	idx := m.b.res.AddBufferUpload(m.dst, m.offset, n)
	m.b.rec.append(UploadBufferCommand{Buffer: m.dst, Offset: m.offset, Upload: idx, Data: staged})
}

// MapBuffer maps count elements of dst starting at a byte offset. The pass
// must declare dst with UsageWrite.
//
//	m := framegraph.MapBuffer[float32](cmd, buf, 0, 4)
//	defer m.Unmap()
//	copy(m.Data(), values)
func MapBuffer[T any](cb CommandBuffer, dst Buffer, offset, count int) *Mapped[T] {
	var zero T
	elem := encodedSize("MapBuffer", zero)
	n := elem * max(count, 0)
	if n > MaxUploadChunk {
		panic(&CapacityError{What: "MapBuffer", Size: n, Limit: MaxUploadChunk})
	}
	b := cb.base()
	if !b.begin(SourceMapBuffer) {
		return &Mapped[T]{}
	}
	if !b.checkBufferWrite(SourceMapBuffer, dst, offset, n) {
		return &Mapped[T]{}
	}
	return &Mapped[T]{b: b, dst: dst, offset: offset, data: make([]T, count)}
}
