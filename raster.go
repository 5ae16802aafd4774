package framegraph

import "github.com/gogpu/gputypes"

// RasterCommandBuffer records the commands of a graphics pass. It is only
// valid inside the pass callback it was handed to.
type RasterCommandBuffer struct {
	commandBase
}

// SetRenderTarget binds t to a color slot. An invalid t unbinds the slot.
// t must be a declared render target of the pass.
func (c *RasterCommandBuffer) SetRenderTarget(slot int, t Texture) {
	if !c.begin(SourceSetRenderTarget) {
		return
	}
	if slot < 0 || slot >= MaxSlots {
		c.report(SourceSetRenderTarget, TypeSlotOutOfRange, t.Resource())
		return
	}
	if t.IsValid() && !c.isOutput(t, false) {
		c.report(SourceSetRenderTarget, TypeInvalidOutput, t.Resource())
		return
	}
	c.rec.setState(SetRenderTargetCommand{Slot: slot, Target: t}, EffectRenderTargets)
}

// SetDepthStencil binds the depth-stencil target. An invalid t unbinds it.
func (c *RasterCommandBuffer) SetDepthStencil(t Texture) {
	if !c.begin(SourceSetDepthStencil) {
		return
	}
	if t.IsValid() && !c.isOutput(t, true) {
		c.report(SourceSetDepthStencil, TypeInvalidOutput, t.Resource())
		return
	}
	c.rec.setState(SetDepthStencilCommand{Target: t}, EffectDepthStencil)
}

// SetViewport sets the viewport of a slot.
func (c *RasterCommandBuffer) SetViewport(slot int, vp Viewport) {
	if !c.begin(SourceSetViewport) {
		return
	}
	if slot < 0 || slot >= MaxSlots {
		c.report(SourceSetViewport, TypeSlotOutOfRange, Resource{})
		return
	}
	c.rec.setState(SetViewportCommand{Slot: slot, Viewport: vp}, EffectViewport)
}

// SetScissor sets the scissor rectangle of a slot.
func (c *RasterCommandBuffer) SetScissor(slot int, r Rect) {
	if !c.begin(SourceSetScissor) {
		return
	}
	if slot < 0 || slot >= MaxSlots {
		c.report(SourceSetScissor, TypeSlotOutOfRange, Resource{})
		return
	}
	c.rec.setState(SetScissorCommand{Slot: slot, Rect: r}, EffectScissor)
}

// SetPipeline binds a graphics pipeline.
func (c *RasterCommandBuffer) SetPipeline(p Pipeline) {
	c.setPipeline(p, PipelineGraphics)
}

// SetStencilReference sets the stencil reference value.
func (c *RasterCommandBuffer) SetStencilReference(ref uint32) {
	if !c.begin(SourceSetStencilReference) {
		return
	}
	c.rec.setState(SetStencilReferenceCommand{Reference: ref}, EffectStencilReference)
}

// SetVertexBuffer binds b to a vertex slot. The pass must read b.
func (c *RasterCommandBuffer) SetVertexBuffer(slot int, b Buffer, stride uint32) {
	if !c.begin(SourceSetVertexBuffer) {
		return
	}
	switch {
	case slot < 0 || slot >= MaxSlots:
		c.report(SourceSetVertexBuffer, TypeSlotOutOfRange, b.Resource())
		return
	case !b.IsValid():
		c.report(SourceSetVertexBuffer, TypeInvalidResourceType, b.Resource())
		return
	case !c.allows(b.Resource(), UsageRead):
		c.report(SourceSetVertexBuffer, TypeNoResourceAccess, b.Resource())
		return
	case stride == 0 || (!b.IsExternal() && stride > b.Desc().Size):
		c.report(SourceSetVertexBuffer, TypeInvalidStride, b.Resource())
		return
	}
	c.rec.setState(SetVertexBufferCommand{Slot: slot, Buffer: b, Stride: stride}, EffectVertexBuffers)
}

// SetIndexBuffer binds the index buffer. stride is 2 or 4 bytes and the
// pass must read b.
func (c *RasterCommandBuffer) SetIndexBuffer(b Buffer, stride uint32) {
	if !c.begin(SourceSetIndexBuffer) {
		return
	}
	switch {
	case !b.IsValid():
		c.report(SourceSetIndexBuffer, TypeInvalidResourceType, b.Resource())
		return
	case !c.allows(b.Resource(), UsageRead):
		c.report(SourceSetIndexBuffer, TypeNoResourceAccess, b.Resource())
		return
	case stride != 2 && stride != 4:
		c.report(SourceSetIndexBuffer, TypeInvalidStride, b.Resource())
		return
	}
	c.rec.setState(SetIndexBufferCommand{Buffer: b, Stride: stride}, EffectIndexBuffer)
}

// clipRect intersects r with the bounds of t. It returns false when
// nothing is left.
func clipRect(t Texture, r Rect) (Rect, bool) {
	d := t.Desc()
	bounds := Rect{Width: int32(d.Width), Height: int32(d.Height)} // #nosec G115 -- bounded by MaxTextureDimension2D
	if t.IsExternal() && d.Width == 0 {
		bounds = r
	}
	out := r.Intersect(bounds)
	return out, !out.Empty()
}

// ClearRenderTarget clears t, or only rect when it is not nil. A rect that
// is empty or misses t is dropped without error.
func (c *RasterCommandBuffer) ClearRenderTarget(t Texture, color gputypes.Color, rect *Rect) {
	if !c.begin(SourceClearRenderTarget) {
		return
	}
	if !t.IsValid() || !c.isOutput(t, false) {
		c.report(SourceClearRenderTarget, TypeInvalidOutput, t.Resource())
		return
	}
	cmd := ClearRenderTargetCommand{Target: t, Color: color}
	if rect != nil {
		r, ok := clipRect(t, *rect)
		if !ok {
			return
		}
		cmd.Rect, cmd.HasRect = r, true
	}
	c.rec.append(cmd)
}

// ClearDepthStencil clears the selected aspects of t. Rect handling
// matches ClearRenderTarget.
func (c *RasterCommandBuffer) ClearDepthStencil(t Texture, flags ClearFlags, depth float32, stencil uint8, rect *Rect) {
	if !c.begin(SourceClearDepthStencil) {
		return
	}
	if !t.IsValid() || !c.isOutput(t, true) {
		c.report(SourceClearDepthStencil, TypeInvalidOutput, t.Resource())
		return
	}
	if flags == 0 {
		return
	}
	cmd := ClearDepthStencilCommand{Target: t, Flags: flags, Depth: depth, Stencil: stencil}
	if rect != nil {
		r, ok := clipRect(t, *rect)
		if !ok {
			return
		}
		cmd.Rect, cmd.HasRect = r, true
	}
	c.rec.append(cmd)
}

// DrawInstanced records a non-indexed draw.
func (c *RasterCommandBuffer) DrawInstanced(vertexCount, instanceCount, startVertex, startInstance uint32) {
	if !c.begin(SourceRecord) {
		return
	}
	c.rec.append(DrawInstancedCommand{
		Effects:       c.rec.takeEffects(),
		VertexCount:   vertexCount,
		InstanceCount: instanceCount,
		StartVertex:   startVertex,
		StartInstance: startInstance,
	})
}

// DrawIndexedInstanced records an indexed draw.
func (c *RasterCommandBuffer) DrawIndexedInstanced(indexCount, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) {
	if !c.begin(SourceRecord) {
		return
	}
	c.rec.append(DrawIndexedInstancedCommand{
		Effects:       c.rec.takeEffects(),
		IndexCount:    indexCount,
		InstanceCount: instanceCount,
		StartIndex:    startIndex,
		BaseVertex:    baseVertex,
		StartInstance: startInstance,
	})
}

// PresentOnWindow presents t on w. The pass must declare t with
// UsageRead|UsageNoShaderAccess.
func (c *RasterCommandBuffer) PresentOnWindow(w Window, t Texture) {
	if !c.begin(SourcePresentOnWindow) {
		return
	}
	switch {
	case w == nil || !t.IsValid():
		c.report(SourcePresentOnWindow, TypeInvalidResourceType, t.Resource())
		return
	case !c.allows(t.Resource(), UsageRead|UsageNoShaderAccess):
		c.report(SourcePresentOnWindow, TypeNoResourceAccess, t.Resource())
		return
	}
	c.rec.append(PresentOnWindowCommand{Window: w, Texture: t})
}
