package framegraph

import "github.com/gogpu/gputypes"

// bufferState is the lifecycle of a command buffer.
type bufferState uint8

const (
	stateUnbound bufferState = iota
	stateRecording
	stateFinalized
)

// CommandBuffer is implemented by RasterCommandBuffer and
// ComputeCommandBuffer. It is the receiver of the generic recording
// functions SetConstants, Upload, UploadTextureData and MapBuffer.
type CommandBuffer interface {
	// Pass returns the name of the pass being recorded.
	Pass() string
	base() *commandBase
}

// commandBase holds what both command buffer kinds share: the pass
// binding, the recorder and validation against the pass's declarations.
type commandBase struct {
	pass   string
	state  *PassState
	rec    *CommandRecorder
	res    *Resources
	errs   *ErrorReporter
	status bufferState
}

func (b *commandBase) base() *commandBase { return b }

// Pass returns the name of the pass being recorded.
func (b *commandBase) Pass() string { return b.pass }

func (b *commandBase) bind(pass string, state *PassState, rec *CommandRecorder, res *Resources, errs *ErrorReporter) {
	*b = commandBase{pass: pass, state: state, rec: rec, res: res, errs: errs}
}

// finalize closes the buffer. Later commands are reported and dropped.
func (b *commandBase) finalize() {
	if b.status == stateFinalized {
		return
	}
	b.rec.FinishRecording()
	b.status = stateFinalized
}

func (b *commandBase) report(src ErrorSource, typ ErrorType, r Resource) {
	b.errs.Report(b.pass, src, typ, r)
}

// begin moves the buffer to Recording. It reports and returns false once
// the buffer is finalized.
func (b *commandBase) begin(src ErrorSource) bool {
	switch b.status {
	case stateFinalized:
		b.report(src, TypeFinalized, Resource{})
		return false
	case stateUnbound:
		b.status = stateRecording
	}
	return true
}

func (b *commandBase) allows(r Resource, u Usage) bool {
	return b.state != nil && b.state.ContainsResource(r, u)
}

func (b *commandBase) isOutput(t Texture, depth bool) bool {
	return b.state != nil && b.state.ContainsOutput(t, depth)
}

// SetProperties binds resources to shader slots. Every resource must be
// declared by the pass; otherwise the whole call is dropped.
func (b *commandBase) SetProperties(props ...Property) {
	if !b.begin(SourceSetProperties) {
		return
	}
	for _, p := range props {
		if !p.Resource.IsValid() {
			b.report(SourceSetProperties, TypeInvalidResourceType, p.Resource)
			return
		}
		if !b.allows(p.Resource, UsageRead) && !b.allows(p.Resource, UsageWrite) {
			b.report(SourceSetProperties, TypeNoResourceAccess, p.Resource)
			return
		}
	}
	out := make([]Property, len(props))
	copy(out, props)
	b.rec.setState(SetPropertiesCommand{Properties: out}, EffectProperties)
}

func (b *commandBase) setPipeline(p Pipeline, kind PipelineKind) {
	if !b.begin(SourceSetPipeline) {
		return
	}
	if p == nil || p.Kind() != kind {
		b.report(SourceSetPipeline, TypeInvalidResourceType, Resource{})
		return
	}
	b.rec.setState(SetPipelineCommand{Pipeline: b.res.AddPotentialPipeline(p)}, EffectPipeline)
}

// setConstants stages already encoded constants.
func (b *commandBase) setConstants(data []byte) {
	if !b.begin(SourceSetConstants) {
		return
	}
	staged := b.rec.copyBytes("SetConstants", data)
	b.rec.setState(SetConstantsCommand{Data: staged}, EffectConstants)
}

// UploadBuffer stages data and records a write to dst at offset. The pass
// must declare dst with UsageWrite.
func (b *commandBase) UploadBuffer(dst Buffer, offset int, data []byte) {
	if !b.begin(SourceUploadBuffer) {
		return
	}
	if !b.checkBufferWrite(SourceUploadBuffer, dst, offset, len(data)) {
		return
	}
	b.uploadBuffer(dst, offset, data)
}

func (b *commandBase) checkBufferWrite(src ErrorSource, dst Buffer, offset, size int) bool {
	switch {
	case !dst.IsValid():
		b.report(src, TypeInvalidResourceType, dst.Resource())
		return false
	case !b.allows(dst.Resource(), UsageWrite):
		b.report(src, TypeNoResourceAccess, dst.Resource())
		return false
	case size <= 0:
		b.report(src, TypeNotEnoughDataSupplied, dst.Resource())
		return false
	}
	if dst.IsExternal() && dst.Desc().Size == 0 {
		return true
	}
	limit := int(dst.Desc().Size)
	switch {
	case offset < 0 || offset >= limit:
		b.report(src, TypeOutOfRange, dst.Resource())
		return false
	case offset+size > limit:
		b.report(src, TypeResourceTooSmall, dst.Resource())
		return false
	}
	return true
}

// uploadBuffer stages validated data.
func (b *commandBase) uploadBuffer(dst Buffer, offset int, data []byte) {
	staged := b.rec.copyBytes("UploadBuffer", data)
	idx := b.res.AddBufferUpload(dst, offset, len(staged))
	b.rec.append(UploadBufferCommand{Buffer: dst, Offset: offset, Upload: idx, Data: staged})
}

// UploadTexture stages data and records a write to one subresource of
// dst, or to box within it when box is not nil. data must cover the region
// exactly, tightly packed.
func (b *commandBase) UploadTexture(dst Texture, subresource int, box *Box, data []byte) {
	if !b.begin(SourceUploadTexture) {
		return
	}
	switch {
	case !dst.IsValid():
		b.report(SourceUploadTexture, TypeInvalidResourceType, dst.Resource())
		return
	case !b.allows(dst.Resource(), UsageWrite):
		b.report(SourceUploadTexture, TypeNoResourceAccess, dst.Resource())
		return
	}

	desc := dst.Desc()
	if subresource < 0 || subresource >= desc.Subresources() {
		b.report(SourceUploadTexture, TypeInvalidSubresource, dst.Resource())
		return
	}
	w, h, d := desc.MipExtent(desc.SubresourceMip(subresource))
	if box != nil {
		if !box.fits(w, h, d) {
			b.report(SourceUploadTexture, TypeOutOfRange, dst.Resource())
			return
		}
		w, h, d = box.Size()
	}
	need := int(w) * int(h) * int(d) * TexelSize(desc.Format)
	switch {
	case len(data) < need:
		b.report(SourceUploadTexture, TypeNotEnoughDataSupplied, dst.Resource())
		return
	case len(data) > need:
		b.report(SourceUploadTexture, TypeResourceTooSmall, dst.Resource())
		return
	}

	staged := b.rec.copyBytes("UploadTexture", data)
	idx := b.res.AddTextureUpload(dst, subresource, len(staged))
	cmd := UploadTextureCommand{Texture: dst, Subresource: subresource, Upload: idx, Data: staged}
	if box != nil {
		cmd.Box, cmd.HasBox = *box, true
	}
	b.rec.append(cmd)
}

// CopyBuffer copies size bytes from src to dst. The pass must read src and
// write dst.
func (b *commandBase) CopyBuffer(dst Buffer, dstOffset int, src Buffer, srcOffset, size int) {
	if !b.begin(SourceCopyBuffer) {
		return
	}
	switch {
	case !src.IsValid():
		b.report(SourceCopyBuffer, TypeInvalidResourceType, src.Resource())
		return
	case !b.allows(src.Resource(), UsageRead):
		b.report(SourceCopyBuffer, TypeNoResourceAccess, src.Resource())
		return
	case srcOffset < 0 || size <= 0 || (!src.IsExternal() && srcOffset+size > int(src.Desc().Size)):
		b.report(SourceCopyBuffer, TypeOutOfRange, src.Resource())
		return
	}
	if !b.checkBufferWrite(SourceCopyBuffer, dst, dstOffset, size) {
		return
	}
	b.rec.append(CopyBufferCommand{
		Source:       src,
		Destination:  dst,
		SourceOffset: srcOffset,
		DestOffset:   dstOffset,
		Size:         size,
	})
}

// Footprint addresses texel data laid out in a buffer. A zero RowPitch
// means tightly packed rows; a non-zero pitch must hold a full row.
type Footprint struct {
	Offset   int
	Format   gputypes.TextureFormat
	Width    uint32
	Height   uint32
	Depth    uint32
	RowPitch int
}

func (f Footprint) pitch() int {
	if f.RowPitch == 0 {
		return int(f.Width) * TexelSize(f.Format)
	}
	return f.RowPitch
}

func (f Footprint) rows() int { return int(f.Height) * int(max(f.Depth, 1)) }

// fitsIn reports whether the footprint lies within a buffer of n bytes.
// The comparison divides instead of multiplying so a huge pitch cannot
// overflow.
func (f Footprint) fitsIn(n int) bool {
	avail := n - f.Offset
	return avail >= 0 && f.pitch() <= avail/f.rows()
}

// TextureCopyLocation is one end of a texture copy: a texture subresource
// or a footprint inside a buffer.
type TextureCopyLocation struct {
	Resource    Resource
	Subresource int
	Footprint   Footprint
}

// TextureCopyDesc describes a texture copy. When SourceBox is nil the
// whole source subresource or footprint is copied.
type TextureCopyDesc struct {
	Source      TextureCopyLocation
	Destination TextureCopyLocation
	DestX       uint32
	DestY       uint32
	DestZ       uint32
	SourceBox   *Box
}

// CopyTexture records a copy between texture subresources or between a
// texture and a buffer footprint. At least one end must be a texture.
func (b *commandBase) CopyTexture(desc TextureCopyDesc) {
	if !b.begin(SourceCopyTexture) {
		return
	}
	src, dst := desc.Source, desc.Destination
	if src.Resource.Kind() != ResourceTexture && dst.Resource.Kind() != ResourceTexture {
		b.report(SourceCopyTexture, TypeInvalidResourceType, dst.Resource)
		return
	}
	if !src.Resource.IsValid() {
		b.report(SourceCopyTexture, TypeInvalidResourceType, src.Resource)
		return
	}
	if !dst.Resource.IsValid() {
		b.report(SourceCopyTexture, TypeInvalidResourceType, dst.Resource)
		return
	}
	if !b.allows(src.Resource, UsageRead) {
		b.report(SourceCopyTexture, TypeNoResourceAccess, src.Resource)
		return
	}
	if !b.allows(dst.Resource, UsageWrite) {
		b.report(SourceCopyTexture, TypeNoResourceAccess, dst.Resource)
		return
	}

	sw, sh, sd, ok := b.copyExtent(src)
	if !ok {
		return
	}
	dw, dh, dd, ok := b.copyExtent(dst)
	if !ok {
		return
	}

	box := Box{Right: sw, Bottom: sh, Back: sd}
	if desc.SourceBox != nil {
		box = *desc.SourceBox
		if !box.fits(sw, sh, sd) {
			b.report(SourceCopyTexture, TypeOutOfRange, src.Resource)
			return
		}
	}
	bw, bh, bd := box.Size()
	if exceeds(desc.DestX, bw, dw) || exceeds(desc.DestY, bh, dh) || exceeds(desc.DestZ, bd, dd) {
		b.report(SourceCopyTexture, TypeOutOfRange, dst.Resource)
		return
	}

	cp := desc
	if desc.SourceBox != nil {
		boxCopy := *desc.SourceBox
		cp.SourceBox = &boxCopy
	}
	b.rec.append(CopyTextureCommand{Desc: cp})
}

// exceeds reports whether [off, off+n) reaches past limit. The sum is
// taken in 64 bits so large offsets cannot wrap.
func exceeds(off, n, limit uint32) bool {
	return uint64(off)+uint64(n) > uint64(limit)
}

// copyExtent validates one end of a texture copy and returns its extent.
func (b *commandBase) copyExtent(loc TextureCopyLocation) (w, h, d uint32, ok bool) {
	switch loc.Resource.Kind() {
	case ResourceTexture:
		t, _ := loc.Resource.Texture()
		desc := t.Desc()
		if loc.Subresource < 0 || loc.Subresource >= desc.Subresources() {
			b.report(SourceCopyTexture, TypeInvalidSubresource, loc.Resource)
			return 0, 0, 0, false
		}
		w, h, d = desc.MipExtent(desc.SubresourceMip(loc.Subresource))
		return w, h, d, true
	case ResourceBuffer:
		buf, _ := loc.Resource.Buffer()
		f := loc.Footprint
		if f.Width == 0 || f.Height == 0 || !IsKnownFormat(f.Format) || f.Offset < 0 ||
			f.Width > MaxTextureDimension2D || f.Height > MaxTextureDimension2D || f.Depth > MaxTextureDimension3D ||
			(f.RowPitch != 0 && f.RowPitch < int(f.Width)*TexelSize(f.Format)) {
			b.report(SourceCopyTexture, TypeOutOfRange, loc.Resource)
			return 0, 0, 0, false
		}
		if !buf.IsExternal() && !f.fitsIn(int(buf.Desc().Size)) {
			b.report(SourceCopyTexture, TypeOutOfRange, loc.Resource)
			return 0, 0, 0, false
		}
		return f.Width, f.Height, max(f.Depth, 1), true
	default:
		b.report(SourceCopyTexture, TypeInvalidResourceType, loc.Resource)
		return 0, 0, 0, false
	}
}
