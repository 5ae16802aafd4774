package framegraph

import (
	"bytes"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/gogpu/gputypes"
)

func depthTarget(w, h uint32) TextureDesc {
	return TextureDesc{
		Width:  w,
		Height: h,
		Format: gputypes.TextureFormatDepth24PlusStencil8,
		Usage:  TextureUsageDepthStencil,
	}
}

// standalone binds a raster command buffer to an empty pass state.
func standalone() (*RasterCommandBuffer, *CommandRecorder) {
	rec := NewCommandRecorder()
	cb := &RasterCommandBuffer{}
	cb.bind("standalone", &PassState{}, rec, NewResources(nil), NewErrorReporter())
	return cb, rec
}

func expectCapacityPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatal("expected a panic")
		}
		err, ok := r.(error)
		var capErr *CapacityError
		if !ok || !errors.As(err, &capErr) {
			t.Fatalf("panic value = %v, want *CapacityError", r)
		}
	}()
	fn()
}

func TestSetRenderTarget(t *testing.T) {
	type data struct{ rt, other Texture }
	cmds, errs, _ := recordPass(t, func(b *PassBuilder, d *data) {
		d.rt = b.CreateTexture("rt", colorTarget(16, 16))
		b.UseRenderTarget(d.rt)
		d.other = b.CreateTexture("other", colorTarget(16, 16))
		b.UseTexture(d.other, UsageRead)
	}, func(c *RasterCommandBuffer, d *data) {
		c.SetRenderTarget(0, d.rt)
		c.SetRenderTarget(1, d.other)
		c.SetRenderTarget(MaxSlots, d.rt)
		c.DrawInstanced(3, 1, 0, 0)
	})

	if got, want := commandTypes(cmds), []CommandType{CmdSetRenderTarget, CmdDrawInstanced}; !slices.Equal(got, want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	if draw := cmds[1].(DrawInstancedCommand); draw.Effects != EffectRenderTargets {
		t.Errorf("draw effects = %v, want %v", draw.Effects, EffectRenderTargets)
	}
	if !hasError(errs, SourceSetRenderTarget, TypeInvalidOutput) {
		t.Error("binding a texture that is not a declared output should be reported")
	}
	if !hasError(errs, SourceSetRenderTarget, TypeSlotOutOfRange) {
		t.Error("slot MaxSlots should be reported as out of range")
	}
}

func TestVertexAndIndexBuffers(t *testing.T) {
	type data struct{ vb, ib, wo Buffer }
	cmds, errs, _ := recordPass(t, func(b *PassBuilder, d *data) {
		d.vb = b.CreateBuffer("vb", BufferDesc{Size: 256, Stride: 16, Usage: BufferUsageVertex})
		d.ib = b.CreateBuffer("ib", BufferDesc{Size: 64, Usage: BufferUsageIndex})
		d.wo = b.CreateBuffer("write only", BufferDesc{Size: 64, Usage: BufferUsageVertex})
		b.UseBuffer(d.vb, UsageRead)
		b.UseBuffer(d.ib, UsageRead)
		b.UseBuffer(d.wo, UsageWrite)
	}, func(c *RasterCommandBuffer, d *data) {
		c.SetVertexBuffer(0, d.vb, 16)
		c.SetVertexBuffer(1, d.wo, 16)
		c.SetVertexBuffer(0, d.vb, 0)
		c.SetVertexBuffer(0, d.vb, 512)
		c.SetVertexBuffer(-1, d.vb, 16)
		c.SetIndexBuffer(d.ib, 3)
		c.SetIndexBuffer(d.ib, 4)
		c.DrawIndexedInstanced(6, 1, 0, 0, 0)
	})

	want := []CommandType{CmdSetVertexBuffer, CmdSetIndexBuffer, CmdDrawIndexedInstanced}
	if got := commandTypes(cmds); !slices.Equal(got, want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	if f := cmds[1].(SetIndexBufferCommand).IndexFormat(); f != gputypes.IndexFormatUint32 {
		t.Errorf("IndexFormat() = %v, want Uint32", f)
	}
	if e := cmds[2].(DrawIndexedInstancedCommand).Effects; e != EffectVertexBuffers|EffectIndexBuffer {
		t.Errorf("draw effects = %v, want vertex and index buffers", e)
	}

	checks := []struct {
		src ErrorSource
		typ ErrorType
	}{
		{SourceSetVertexBuffer, TypeNoResourceAccess},
		{SourceSetVertexBuffer, TypeInvalidStride},
		{SourceSetVertexBuffer, TypeSlotOutOfRange},
		{SourceSetIndexBuffer, TypeInvalidStride},
	}
	for _, c := range checks {
		if !hasError(errs, c.src, c.typ) {
			t.Errorf("missing %v/%v in %v", c.src, c.typ, errs)
		}
	}
	if len(errs) != 5 {
		t.Errorf("got %d violations, want 5", len(errs))
	}
}

func TestClearRectClipping(t *testing.T) {
	type data struct{ rt, ds Texture }
	cmds, errs, _ := recordPass(t, func(b *PassBuilder, d *data) {
		d.rt = b.CreateTexture("rt", colorTarget(16, 16))
		d.ds = b.CreateTexture("ds", depthTarget(16, 16))
		b.UseRenderTarget(d.rt)
		b.UseDepthStencil(d.ds)
	}, func(c *RasterCommandBuffer, d *data) {
		red := gputypes.Color{R: 1, A: 1}
		c.ClearRenderTarget(d.rt, red, &Rect{X: 8, Y: 8, Width: 16, Height: 16})
		c.ClearRenderTarget(d.rt, red, &Rect{X: 20, Y: 0, Width: 4, Height: 4})
		c.ClearRenderTarget(d.rt, red, &Rect{X: 0, Y: 0, Width: 0, Height: 4})
		c.ClearRenderTarget(d.rt, red, nil)
		c.ClearRenderTarget(d.ds, red, nil)
		c.ClearDepthStencil(d.ds, ClearDepth|ClearStencil, 1, 0, nil)
		c.ClearDepthStencil(d.ds, 0, 1, 0, nil)
	})

	want := []CommandType{CmdClearRenderTarget, CmdClearRenderTarget, CmdClearDepthStencil}
	if got := commandTypes(cmds); !slices.Equal(got, want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	clipped := cmds[0].(ClearRenderTargetCommand)
	if !clipped.HasRect || clipped.Rect != (Rect{X: 8, Y: 8, Width: 8, Height: 8}) {
		t.Errorf("clipped rect = %+v (has %v), want {8 8 8 8}", clipped.Rect, clipped.HasRect)
	}
	if cmds[1].(ClearRenderTargetCommand).HasRect {
		t.Error("clear without rect should cover the whole target")
	}
	if len(errs) != 1 || !hasError(errs, SourceClearRenderTarget, TypeInvalidOutput) {
		t.Errorf("violations = %v, want one InvalidOutput for the depth target", errs)
	}
}

func TestUploadBuffer(t *testing.T) {
	type data struct{ buf, ro Buffer }
	src := []byte{1, 2, 3, 4}
	cmds, errs, m := recordPass(t, func(b *PassBuilder, d *data) {
		d.buf = b.CreateBuffer("data", BufferDesc{Size: 64, Usage: BufferUsageStorage})
		d.ro = b.CreateBuffer("read only", BufferDesc{Size: 64, Usage: BufferUsageStorage})
		b.UseBuffer(d.buf, UsageWrite)
		b.UseBuffer(d.ro, UsageRead)
	}, func(c *RasterCommandBuffer, d *data) {
		c.UploadBuffer(d.buf, 8, src)
		src[0] = 9
		c.UploadBuffer(d.ro, 0, src)
		c.UploadBuffer(d.buf, 64, src)
		c.UploadBuffer(d.buf, 62, src)
		c.UploadBuffer(d.buf, 0, nil)
	})

	if len(cmds) != 1 {
		t.Fatalf("commands = %v, want a single upload", commandTypes(cmds))
	}
	up := cmds[0].(UploadBufferCommand)
	if up.Offset != 8 || !bytes.Equal(up.Data, []byte{1, 2, 3, 4}) {
		t.Errorf("upload = offset %d data %v, want offset 8 data [1 2 3 4]", up.Offset, up.Data)
	}
	loc, ok := m.Resources().Upload(up.Upload)
	if !ok || loc.DestOffset != 8 || loc.Length != 4 {
		t.Errorf("ledger entry = %+v, %v", loc, ok)
	}

	checks := []ErrorType{TypeNoResourceAccess, TypeOutOfRange, TypeResourceTooSmall, TypeNotEnoughDataSupplied}
	for _, typ := range checks {
		if !hasError(errs, SourceUploadBuffer, typ) {
			t.Errorf("missing UploadBuffer/%v", typ)
		}
	}
}

func TestUploadTyped(t *testing.T) {
	type data struct{ buf Buffer }
	cmds, errs, _ := recordPass(t, func(b *PassBuilder, d *data) {
		d.buf = b.CreateBuffer("indices", BufferDesc{Size: 16, Usage: BufferUsageIndex})
		b.UseBuffer(d.buf, UsageWrite)
	}, func(c *RasterCommandBuffer, d *data) {
		Upload(c, d.buf, 4, []uint32{1, 0x01020304})
		Upload(c, d.buf, 12, []uint32{1, 2})
	})

	if len(cmds) != 1 {
		t.Fatalf("commands = %v, want one upload", commandTypes(cmds))
	}
	want := []byte{1, 0, 0, 0, 4, 3, 2, 1}
	if got := cmds[0].(UploadBufferCommand).Data; !bytes.Equal(got, want) {
		t.Errorf("Data = %v, want %v", got, want)
	}
	if !hasError(errs, SourceUploadBuffer, TypeResourceTooSmall) {
		t.Error("upload past the end of the buffer should be reported")
	}
}

func TestUploadTexture(t *testing.T) {
	type data struct{ tex Texture }
	cmds, errs, _ := recordPass(t, func(b *PassBuilder, d *data) {
		d.tex = b.CreateTexture("mask", TextureDesc{
			Width: 4, Height: 4, MipLevels: 2,
			Format: gputypes.TextureFormatR8Unorm,
			Usage:  TextureUsageShaderResource,
		})
		b.UseTexture(d.tex, UsageWrite)
	}, func(c *RasterCommandBuffer, d *data) {
		c.UploadTexture(d.tex, 0, nil, make([]byte, 16))
		c.UploadTexture(d.tex, 1, nil, make([]byte, 4))
		UploadTextureData(c, d.tex, 0, &Box{Left: 1, Top: 1, Right: 3, Bottom: 3, Back: 1}, []uint8{1, 2, 3, 4})
		c.UploadTexture(d.tex, 2, nil, make([]byte, 1))
		c.UploadTexture(d.tex, 0, nil, make([]byte, 15))
		c.UploadTexture(d.tex, 0, nil, make([]byte, 17))
		c.UploadTexture(d.tex, 0, &Box{Right: 5, Bottom: 1, Back: 1}, make([]byte, 5))
	})

	if got := len(cmds); got != 3 {
		t.Fatalf("commands = %v, want 3 uploads", commandTypes(cmds))
	}
	if boxed := cmds[2].(UploadTextureCommand); !boxed.HasBox || boxed.Box.Right != 3 {
		t.Errorf("boxed upload = %+v", boxed)
	}
	checks := []ErrorType{TypeInvalidSubresource, TypeNotEnoughDataSupplied, TypeResourceTooSmall, TypeOutOfRange}
	for _, typ := range checks {
		if !hasError(errs, SourceUploadTexture, typ) {
			t.Errorf("missing UploadTexture/%v", typ)
		}
	}
}

func TestSetConstants(t *testing.T) {
	cb, rec := standalone()

	type constants struct {
		Scale  [2]float32
		Offset [2]uint32
	}
	SetConstants(cb, constants{Scale: [2]float32{1, 1}})
	cb.finalize()

	want := []CommandType{CmdSetConstants, CmdFlush}
	if got := commandTypes(rec.Commands()); !slices.Equal(got, want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	if n := len(rec.Commands()[0].(SetConstantsCommand).Data); n != 16 {
		t.Errorf("constants size = %d, want 16", n)
	}
	if e := rec.Commands()[1].(FlushCommand).Effects; e != EffectConstants {
		t.Errorf("flush effects = %v, want constants", e)
	}
}

func TestSetConstants_Panics(t *testing.T) {
	tests := []struct {
		name string
		fn   func(CommandBuffer)
	}{
		{"too large", func(cb CommandBuffer) { SetConstants(cb, [130]byte{}) }},
		{"not a multiple of four", func(cb CommandBuffer) { SetConstants(cb, [3]uint16{}) }},
		{"variable size", func(cb CommandBuffer) { SetConstants(cb, struct{ Name string }{"x"}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, _ := standalone()
			expectCapacityPanic(t, func() { tt.fn(cb) })
		})
	}
}

func TestUpload_ChunkLimit(t *testing.T) {
	cb, _ := standalone()
	buf := ExternalBuffer(&testExternal{name: "big"}, BufferDesc{})
	expectCapacityPanic(t, func() {
		Upload(cb, buf, 0, make([]byte, MaxUploadChunk+1))
	})
}

func TestMapBuffer(t *testing.T) {
	type data struct{ buf, ro Buffer }
	var mapped, rejected *Mapped[float32]
	cmds, errs, m := recordPass(t, func(b *PassBuilder, d *data) {
		d.buf = b.CreateBuffer("params", BufferDesc{Size: 64, Usage: BufferUsageStorage})
		d.ro = b.CreateBuffer("read only", BufferDesc{Size: 64, Usage: BufferUsageStorage})
		b.UseBuffer(d.buf, UsageWrite)
		b.UseBuffer(d.ro, UsageRead)
	}, func(c *RasterCommandBuffer, d *data) {
		mapped = MapBuffer[float32](c, d.buf, 16, 4)
		copy(mapped.Data(), []float32{1, 2, 3, 4})
		mapped.Unmap()
		mapped.Unmap()

		rejected = MapBuffer[float32](c, d.ro, 0, 4)
		rejected.Unmap()
	})

	if len(cmds) != 1 {
		t.Fatalf("commands = %v, want one upload", commandTypes(cmds))
	}
	up := cmds[0].(UploadBufferCommand)
	if up.Offset != 16 || len(up.Data) != 16 {
		t.Errorf("upload = offset %d, %d bytes, want offset 16, 16 bytes", up.Offset, len(up.Data))
	}
	if got := len(m.Resources().Uploads()); got != 1 {
		t.Errorf("ledger entries = %d, want 1", got)
	}
	if mapped.IsMapped() || mapped.Data() != nil {
		t.Error("Unmap should release the mapped data")
	}
	if rejected.IsMapped() {
		t.Error("mapping a read-only buffer should fail")
	}
	if !hasError(errs, SourceMapBuffer, TypeNoResourceAccess) {
		t.Errorf("violations = %v, want MapBuffer/NoResourceAccess", errs)
	}
}

func TestCopyTexture(t *testing.T) {
	type data struct{ src, dst Texture }
	box := &Box{Right: 8, Bottom: 8, Back: 1}
	cmds, errs, _ := recordPass(t, func(b *PassBuilder, d *data) {
		d.src = b.CreateTexture("src", colorTarget(16, 16))
		d.dst = b.CreateTexture("dst", colorTarget(8, 8))
		b.UseTexture(d.src, UsageRead)
		b.UseTexture(d.dst, UsageWrite)
	}, func(c *RasterCommandBuffer, d *data) {
		src := TextureCopyLocation{Resource: d.src.Resource()}
		dst := TextureCopyLocation{Resource: d.dst.Resource()}
		c.CopyTexture(TextureCopyDesc{Source: src, Destination: dst, SourceBox: box})
		box.Right = 16

		c.CopyTexture(TextureCopyDesc{Source: TextureCopyLocation{Resource: d.src.Resource(), Subresource: 1}, Destination: dst})
		c.CopyTexture(TextureCopyDesc{Source: src, Destination: dst})
		c.CopyTexture(TextureCopyDesc{Source: dst, Destination: src})
	})

	if len(cmds) != 1 {
		t.Fatalf("commands = %v, want one copy", commandTypes(cmds))
	}
	if got := cmds[0].(CopyTextureCommand).Desc.SourceBox.Right; got != 8 {
		t.Errorf("recorded box Right = %d, want 8; the command must own its box", got)
	}
	if !hasError(errs, SourceCopyTexture, TypeInvalidSubresource) {
		t.Error("subresource 1 of a single-mip texture should be reported")
	}
	if !hasError(errs, SourceCopyTexture, TypeOutOfRange) {
		t.Error("copying 16x16 into 8x8 should be reported")
	}
	if !hasError(errs, SourceCopyTexture, TypeNoResourceAccess) {
		t.Error("copying from a write-only texture should be reported")
	}
}

func TestCopyTexture_Footprints(t *testing.T) {
	type data struct {
		tex Texture
		buf Buffer
	}
	packed := Footprint{Format: gputypes.TextureFormatRGBA8Unorm, Width: 8, Height: 8}
	with := func(f func(*Footprint)) Footprint {
		fp := packed
		f(&fp)
		return fp
	}

	tests := []struct {
		name string
		desc func(d *data) TextureCopyDesc
		ok   bool
	}{
		{
			name: "footprint to texture",
			desc: func(d *data) TextureCopyDesc {
				return TextureCopyDesc{
					Source:      TextureCopyLocation{Resource: d.buf.Resource(), Footprint: packed},
					Destination: TextureCopyLocation{Resource: d.tex.Resource()},
				}
			},
			ok: true,
		},
		{
			name: "texture to footprint",
			desc: func(d *data) TextureCopyDesc {
				return TextureCopyDesc{
					Source:      TextureCopyLocation{Resource: d.tex.Resource()},
					Destination: TextureCopyLocation{Resource: d.buf.Resource(), Footprint: packed},
				}
			},
			ok: true,
		},
		{
			name: "footprint with explicit pitch",
			desc: func(d *data) TextureCopyDesc {
				return TextureCopyDesc{
					Source:      TextureCopyLocation{Resource: d.buf.Resource(), Footprint: with(func(f *Footprint) { f.Height = 4; f.RowPitch = 64 })},
					Destination: TextureCopyLocation{Resource: d.tex.Resource()},
					DestY:       4,
				}
			},
			ok: true,
		},
		{
			name: "footprint offset overruns buffer",
			desc: func(d *data) TextureCopyDesc {
				return TextureCopyDesc{
					Source:      TextureCopyLocation{Resource: d.buf.Resource(), Footprint: with(func(f *Footprint) { f.Offset = 4 })},
					Destination: TextureCopyLocation{Resource: d.tex.Resource()},
				}
			},
		},
		{
			name: "footprint pitch overruns buffer",
			desc: func(d *data) TextureCopyDesc {
				return TextureCopyDesc{
					Source:      TextureCopyLocation{Resource: d.tex.Resource()},
					Destination: TextureCopyLocation{Resource: d.buf.Resource(), Footprint: with(func(f *Footprint) { f.RowPitch = 256 })},
				}
			},
		},
		{
			name: "huge pitch",
			desc: func(d *data) TextureCopyDesc {
				return TextureCopyDesc{
					Source:      TextureCopyLocation{Resource: d.buf.Resource(), Footprint: with(func(f *Footprint) { f.RowPitch = math.MaxInt / 2 })},
					Destination: TextureCopyLocation{Resource: d.tex.Resource()},
				}
			},
		},
		{
			name: "negative pitch",
			desc: func(d *data) TextureCopyDesc {
				return TextureCopyDesc{
					Source:      TextureCopyLocation{Resource: d.buf.Resource(), Footprint: with(func(f *Footprint) { f.RowPitch = -1024 })},
					Destination: TextureCopyLocation{Resource: d.tex.Resource()},
				}
			},
		},
		{
			name: "unknown footprint format",
			desc: func(d *data) TextureCopyDesc {
				return TextureCopyDesc{
					Source:      TextureCopyLocation{Resource: d.buf.Resource(), Footprint: with(func(f *Footprint) { f.Format = gputypes.TextureFormatUndefined })},
					Destination: TextureCopyLocation{Resource: d.tex.Resource()},
				}
			},
		},
		{
			name: "dest x wraps",
			desc: func(d *data) TextureCopyDesc {
				return TextureCopyDesc{
					Source:      TextureCopyLocation{Resource: d.buf.Resource(), Footprint: packed},
					Destination: TextureCopyLocation{Resource: d.tex.Resource()},
					DestX:       math.MaxUint32,
				}
			},
		},
		{
			name: "dest y wraps on texture copy",
			desc: func(d *data) TextureCopyDesc {
				return TextureCopyDesc{
					Source:      TextureCopyLocation{Resource: d.tex.Resource()},
					Destination: TextureCopyLocation{Resource: d.tex.Resource()},
					DestY:       math.MaxUint32 - 3,
				}
			},
		},
		{
			name: "dest z wraps into footprint",
			desc: func(d *data) TextureCopyDesc {
				return TextureCopyDesc{
					Source:      TextureCopyLocation{Resource: d.tex.Resource()},
					Destination: TextureCopyLocation{Resource: d.buf.Resource(), Footprint: packed},
					DestZ:       math.MaxUint32,
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds, errs, _ := recordPass(t, func(b *PassBuilder, d *data) {
				d.tex = b.CreateTexture("tex", colorTarget(8, 8))
				d.buf = b.CreateBuffer("buf", BufferDesc{Size: 256, Usage: BufferUsageStorage})
				b.UseTexture(d.tex, UsageRead|UsageWrite)
				b.UseBuffer(d.buf, UsageRead|UsageWrite)
			}, func(c *RasterCommandBuffer, d *data) {
				c.CopyTexture(tt.desc(d))
			})

			if tt.ok {
				if len(cmds) != 1 || cmds[0].Type() != CmdCopyTexture || len(errs) != 0 {
					t.Errorf("commands = %v, violations = %v, want one copy and none", commandTypes(cmds), errs)
				}
				return
			}
			if len(cmds) != 0 {
				t.Errorf("commands = %v, want none", commandTypes(cmds))
			}
			if !hasError(errs, SourceCopyTexture, TypeOutOfRange) {
				t.Errorf("violations = %v, want CopyTexture OutOfRange", errs)
			}
		})
	}
}

func TestCopyBuffer(t *testing.T) {
	type data struct{ src, dst Buffer }
	cmds, errs, _ := recordPass(t, func(b *PassBuilder, d *data) {
		d.src = b.CreateBuffer("src", BufferDesc{Size: 128, Usage: BufferUsageStorage})
		d.dst = b.CreateBuffer("dst", BufferDesc{Size: 64, Usage: BufferUsageStorage})
		b.UseBuffer(d.src, UsageRead)
		b.UseBuffer(d.dst, UsageWrite)
	}, func(c *RasterCommandBuffer, d *data) {
		c.CopyBuffer(d.dst, 0, d.src, 64, 64)
		c.CopyBuffer(d.dst, 0, d.src, 0, 128)
		c.CopyBuffer(d.dst, 0, d.src, 100, 64)
	})

	if len(cmds) != 1 {
		t.Fatalf("commands = %v, want one copy", commandTypes(cmds))
	}
	if !hasError(errs, SourceCopyBuffer, TypeResourceTooSmall) || !hasError(errs, SourceCopyBuffer, TypeOutOfRange) {
		t.Errorf("violations = %v", errs)
	}
}

func TestDrawEffectsAndFlush(t *testing.T) {
	type data struct{}
	cmds, _, _ := recordPass(t, func(*PassBuilder, *data) {}, func(c *RasterCommandBuffer, _ *data) {
		c.SetViewport(0, Viewport{Width: 64, Height: 64, MaxDepth: 1})
		c.SetScissor(0, Rect{Width: 64, Height: 64})
		c.DrawInstanced(3, 1, 0, 0)
		c.DrawInstanced(3, 1, 3, 0)
		c.SetStencilReference(7)
	})

	want := []CommandType{CmdSetViewport, CmdSetScissor, CmdDrawInstanced, CmdDrawInstanced, CmdSetStencilReference, CmdFlush}
	if got := commandTypes(cmds); !slices.Equal(got, want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	if e := cmds[2].(DrawInstancedCommand).Effects; e != EffectViewport|EffectScissor {
		t.Errorf("first draw effects = %v, want viewport and scissor", e)
	}
	if e := cmds[3].(DrawInstancedCommand).Effects; e != 0 {
		t.Errorf("second draw effects = %v, want none", e)
	}
	if e := cmds[5].(FlushCommand).Effects; e != EffectStencilReference {
		t.Errorf("flush effects = %v, want stencil reference", e)
	}
}

func TestExternalResourcesSkipChecks(t *testing.T) {
	ext := ExternalBuffer(&testExternal{name: "readback"}, BufferDesc{})
	type data struct{}
	cmds, errs, _ := recordPass(t, func(*PassBuilder, *data) {}, func(c *RasterCommandBuffer, _ *data) {
		c.UploadBuffer(ext, 4096, []byte{1, 2})
		c.SetVertexBuffer(0, ext, 12)
	})

	if got := commandTypes(cmds); !slices.Equal(got, []CommandType{CmdUploadBuffer, CmdSetVertexBuffer, CmdFlush}) {
		t.Errorf("commands = %v", got)
	}
	if len(errs) != 0 {
		t.Errorf("violations = %v, want none", errs)
	}
}

func TestPresentOnWindow(t *testing.T) {
	type data struct{ shown, hidden Texture }
	w := &testWindow{}
	cmds, errs, _ := recordPass(t, func(b *PassBuilder, d *data) {
		d.shown = b.CreateTexture("shown", colorTarget(8, 8))
		d.hidden = b.CreateTexture("hidden", colorTarget(8, 8))
		b.UseTexture(d.shown, UsageRead|UsageNoShaderAccess)
		b.UseTexture(d.hidden, UsageRead)
	}, func(c *RasterCommandBuffer, d *data) {
		c.PresentOnWindow(w, d.shown)
		c.PresentOnWindow(w, d.hidden)
		c.PresentOnWindow(nil, d.shown)
	})

	if len(cmds) != 1 {
		t.Fatalf("commands = %v, want one present", commandTypes(cmds))
	}
	if p := cmds[0].(PresentOnWindowCommand); p.Window != w {
		t.Error("present command should carry the window")
	}
	if !hasError(errs, SourcePresentOnWindow, TypeNoResourceAccess) {
		t.Error("presenting without NoShaderAccess should be reported")
	}
	if !hasError(errs, SourcePresentOnWindow, TypeInvalidResourceType) {
		t.Error("presenting on a nil window should be reported")
	}
	if len(w.presented) != 0 {
		t.Error("recording must not present")
	}
}

func TestCommandsAfterCallbackAreRejected(t *testing.T) {
	type data struct{}
	var saved *RasterCommandBuffer
	cmds, _, m := recordPass(t, func(*PassBuilder, *data) {}, func(c *RasterCommandBuffer, _ *data) {
		saved = c
		c.DrawInstanced(3, 1, 0, 0)
	})

	saved.SetStencilReference(1)
	saved.DrawInstanced(3, 1, 0, 0)

	if len(cmds) != 1 {
		t.Errorf("commands = %v, want only the draw", commandTypes(cmds))
	}
	errs := m.Errors().Errors()
	if len(errs) != 2 || !hasError(errs, SourceSetStencilReference, TypeFinalized) || !hasError(errs, SourceRecord, TypeFinalized) {
		t.Errorf("violations = %v, want two Finalized", errs)
	}
}

func TestSetProperties(t *testing.T) {
	type data struct{ tex, other Texture }
	cmds, errs, _ := recordPass(t, func(b *PassBuilder, d *data) {
		d.tex = b.CreateTexture("albedo", colorTarget(8, 8))
		b.UseTexture(d.tex, UsageRead)
		d.other = b.CreateTexture("undeclared", colorTarget(8, 8))
	}, func(c *RasterCommandBuffer, d *data) {
		c.SetProperties(Property{Slot: 0, Resource: d.tex.Resource()})
		c.SetProperties(Property{Slot: 0, Resource: d.tex.Resource()}, Property{Slot: 1, Resource: d.other.Resource()})
		c.DrawInstanced(3, 1, 0, 0)
	})

	if got := commandTypes(cmds); !slices.Equal(got, []CommandType{CmdSetProperties, CmdDrawInstanced}) {
		t.Errorf("commands = %v", got)
	}
	if !hasError(errs, SourceSetProperties, TypeNoResourceAccess) {
		t.Error("binding an undeclared resource should be reported")
	}
}

func TestComputeRecording(t *testing.T) {
	m := NewManager(DefaultQuerier())
	g := m.BeginFrame()
	compute := &testPipeline{label: "blur", kind: PipelineCompute}
	graphics := &testPipeline{label: "draw", kind: PipelineGraphics}

	type data struct{}
	AddComputePass(g, "blur", func(b *PassBuilder, _ *data) {
		b.AllowCulling(false)
	}, func(c *ComputeCommandBuffer, _ *data) {
		c.SetPipeline(graphics)
		c.SetPipeline(nil)
		c.SetPipeline(compute)
		c.Dispatch(8, 8, 1)
		c.SetPipeline(compute)
		c.Dispatch(1, 1, 1)
	})
	m.Compile(Texture{})
	out, err := m.Execute()
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	cmds := out[0].Commands
	want := []CommandType{CmdSetPipeline, CmdDispatch, CmdSetPipeline, CmdDispatch}
	if got := commandTypes(cmds); !slices.Equal(got, want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	if cmds[0].(SetPipelineCommand).Pipeline != cmds[2].(SetPipelineCommand).Pipeline {
		t.Error("the same pipeline should intern to the same index")
	}
	if d := cmds[1].(DispatchCommand); d.Effects != EffectPipeline || d.X != 8 {
		t.Errorf("dispatch = %+v", d)
	}
	if got := len(m.Resources().Pipelines()); got != 1 {
		t.Errorf("Pipelines() = %d, want 1", got)
	}
	if errs := m.Errors().Errors(); len(errs) != 2 || !hasError(errs, SourceSetPipeline, TypeInvalidResourceType) {
		t.Errorf("violations = %v, want two SetPipeline errors", errs)
	}
}
