package framegraph

import "github.com/gogpu/gputypes"

// CommandType identifies the op-code of a recorded command.
type CommandType uint8

const (
	// State commands
	CmdSetRenderTarget     CommandType = iota // Bind a color target to a slot
	CmdSetDepthStencil                        // Bind the depth-stencil target
	CmdSetViewport                            // Set a viewport
	CmdSetScissor                             // Set a scissor rectangle
	CmdSetPipeline                            // Bind a pipeline by table index
	CmdSetConstants                           // Set push constants
	CmdSetProperties                          // Bind resources to shader slots
	CmdSetStencilReference                    // Set the stencil reference value
	CmdSetVertexBuffer                        // Bind a vertex buffer
	CmdSetIndexBuffer                         // Bind the index buffer

	// Execution commands
	CmdClearRenderTarget    // Clear a color target
	CmdClearDepthStencil    // Clear the depth-stencil target
	CmdUploadBuffer         // Copy staged bytes into a buffer
	CmdUploadTexture        // Copy staged bytes into a texture subresource
	CmdCopyBuffer           // Buffer to buffer copy
	CmdCopyTexture          // Texture copy by subresource or footprint
	CmdDrawInstanced        // Non-indexed draw
	CmdDrawIndexedInstanced // Indexed draw
	CmdDispatch             // Compute dispatch
	CmdPresentOnWindow      // Present a texture on a window
	CmdFlush                // Apply pending state at the end of a recording
)

var commandTypeNames = [...]string{
	CmdSetRenderTarget:      "SetRenderTarget",
	CmdSetDepthStencil:      "SetDepthStencil",
	CmdSetViewport:          "SetViewport",
	CmdSetScissor:           "SetScissor",
	CmdSetPipeline:          "SetPipeline",
	CmdSetConstants:         "SetConstants",
	CmdSetProperties:        "SetProperties",
	CmdSetStencilReference:  "SetStencilReference",
	CmdSetVertexBuffer:      "SetVertexBuffer",
	CmdSetIndexBuffer:       "SetIndexBuffer",
	CmdClearRenderTarget:    "ClearRenderTarget",
	CmdClearDepthStencil:    "ClearDepthStencil",
	CmdUploadBuffer:         "UploadBuffer",
	CmdUploadTexture:        "UploadTexture",
	CmdCopyBuffer:           "CopyBuffer",
	CmdCopyTexture:          "CopyTexture",
	CmdDrawInstanced:        "DrawInstanced",
	CmdDrawIndexedInstanced: "DrawIndexedInstanced",
	CmdDispatch:             "Dispatch",
	CmdPresentOnWindow:      "PresentOnWindow",
	CmdFlush:                "Flush",
}

// String returns the op-code name.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is implemented by every recorded command.
type Command interface {
	Type() CommandType
}

// Effect is the set of pipeline state changed since the last execution
// command. Execution commands carry the effects they must apply first.
type Effect uint16

const (
	EffectRenderTargets Effect = 1 << iota
	EffectDepthStencil
	EffectViewport
	EffectScissor
	EffectPipeline
	EffectConstants
	EffectProperties
	EffectStencilReference
	EffectVertexBuffers
	EffectIndexBuffer
)

// MaxSlots is the number of render target, viewport, scissor and vertex
// buffer slots.
const MaxSlots = 8

// Viewport maps normalized device coordinates to a target region.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// Rect is an integer rectangle in texels.
type Rect struct {
	X, Y          int32
	Width, Height int32
}

// Empty reports whether r covers no texel.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Intersect returns the overlap of r and o.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.X+r.Width, o.X+o.Width), min(r.Y+r.Height, o.Y+o.Height)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Box is a region of a texture subresource, [Left, Right) x [Top, Bottom)
// x [Front, Back).
type Box struct {
	Left, Top, Front    uint32
	Right, Bottom, Back uint32
}

// Empty reports whether b covers no texel.
func (b Box) Empty() bool { return b.Right <= b.Left || b.Bottom <= b.Top || b.Back <= b.Front }

// Size returns the box extent.
func (b Box) Size() (width, height, depth uint32) {
	return b.Right - b.Left, b.Bottom - b.Top, b.Back - b.Front
}

// fits reports whether b lies within a w x h x d extent.
func (b Box) fits(w, h, d uint32) bool {
	return !b.Empty() && b.Right <= w && b.Bottom <= h && b.Back <= d
}

// Property binds a resource to a shader slot.
type Property struct {
	Slot     uint32
	Resource Resource
}

// ClearFlags selects the aspects cleared by ClearDepthStencil.
type ClearFlags uint8

const (
	ClearDepth ClearFlags = 1 << iota
	ClearStencil
)

// Window is a presentation surface. Backends call Present when they
// translate a PresentOnWindow command.
type Window interface {
	Present(t Texture) error
}

// --------------------------------------------------------------------------
// State Commands
// --------------------------------------------------------------------------

// SetRenderTargetCommand binds Target to Slot. An invalid Target unbinds.
type SetRenderTargetCommand struct {
	Slot   int
	Target Texture
}

// Type implements Command.
func (SetRenderTargetCommand) Type() CommandType { return CmdSetRenderTarget }

// SetDepthStencilCommand binds the depth-stencil target.
type SetDepthStencilCommand struct {
	Target Texture
}

// Type implements Command.
func (SetDepthStencilCommand) Type() CommandType { return CmdSetDepthStencil }

// SetViewportCommand sets the viewport of Slot.
type SetViewportCommand struct {
	Slot     int
	Viewport Viewport
}

// Type implements Command.
func (SetViewportCommand) Type() CommandType { return CmdSetViewport }

// SetScissorCommand sets the scissor rectangle of Slot.
type SetScissorCommand struct {
	Slot int
	Rect Rect
}

// Type implements Command.
func (SetScissorCommand) Type() CommandType { return CmdSetScissor }

// SetPipelineCommand binds the pipeline at Pipeline in the frame's
// pipeline table.
type SetPipelineCommand struct {
	Pipeline int
}

// Type implements Command.
func (SetPipelineCommand) Type() CommandType { return CmdSetPipeline }

// SetConstantsCommand sets push constants. Data points into the
// recorder's arena.
type SetConstantsCommand struct {
	Data []byte
}

// Type implements Command.
func (SetConstantsCommand) Type() CommandType { return CmdSetConstants }

// SetPropertiesCommand binds resources to shader slots.
type SetPropertiesCommand struct {
	Properties []Property
}

// Type implements Command.
func (SetPropertiesCommand) Type() CommandType { return CmdSetProperties }

// SetStencilReferenceCommand sets the stencil reference value.
type SetStencilReferenceCommand struct {
	Reference uint32
}

// Type implements Command.
func (SetStencilReferenceCommand) Type() CommandType { return CmdSetStencilReference }

// SetVertexBufferCommand binds a vertex buffer to Slot.
type SetVertexBufferCommand struct {
	Slot   int
	Buffer Buffer
	Stride uint32
}

// Type implements Command.
func (SetVertexBufferCommand) Type() CommandType { return CmdSetVertexBuffer }

// SetIndexBufferCommand binds the index buffer. Stride is 2 or 4.
type SetIndexBufferCommand struct {
	Buffer Buffer
	Stride uint32
}

// Type implements Command.
func (SetIndexBufferCommand) Type() CommandType { return CmdSetIndexBuffer }

// IndexFormat returns the index format matching the stride.
func (c SetIndexBufferCommand) IndexFormat() gputypes.IndexFormat {
	if c.Stride == 4 {
		return gputypes.IndexFormatUint32
	}
	return gputypes.IndexFormatUint16
}

// --------------------------------------------------------------------------
// Execution Commands
// --------------------------------------------------------------------------

// ClearRenderTargetCommand clears Target, or only Rect when HasRect is set.
type ClearRenderTargetCommand struct {
	Target  Texture
	Color   gputypes.Color
	Rect    Rect
	HasRect bool
}

// Type implements Command.
func (ClearRenderTargetCommand) Type() CommandType { return CmdClearRenderTarget }

// ClearDepthStencilCommand clears the selected aspects of Target.
type ClearDepthStencilCommand struct {
	Target  Texture
	Flags   ClearFlags
	Depth   float32
	Stencil uint8
	Rect    Rect
	HasRect bool
}

// Type implements Command.
func (ClearDepthStencilCommand) Type() CommandType { return CmdClearDepthStencil }

// UploadBufferCommand writes Data to Buffer at Offset. Upload is the index
// of the staging ledger entry that holds the payload.
type UploadBufferCommand struct {
	Buffer Buffer
	Offset int
	Upload int
	Data   []byte
}

// Type implements Command.
func (UploadBufferCommand) Type() CommandType { return CmdUploadBuffer }

// UploadTextureCommand writes Data to one texture subresource, or to Box
// within it when HasBox is set.
type UploadTextureCommand struct {
	Texture     Texture
	Subresource int
	Box         Box
	HasBox      bool
	Upload      int
	Data        []byte
}

// Type implements Command.
func (UploadTextureCommand) Type() CommandType { return CmdUploadTexture }

// CopyBufferCommand copies Size bytes between buffers.
type CopyBufferCommand struct {
	Source       Buffer
	Destination  Buffer
	SourceOffset int
	DestOffset   int
	Size         int
}

// Type implements Command.
func (CopyBufferCommand) Type() CommandType { return CmdCopyBuffer }

// CopyTextureCommand copies a region between texture locations.
type CopyTextureCommand struct {
	Desc TextureCopyDesc
}

// Type implements Command.
func (CopyTextureCommand) Type() CommandType { return CmdCopyTexture }

// DrawInstancedCommand draws non-indexed geometry.
type DrawInstancedCommand struct {
	Effects       Effect
	VertexCount   uint32
	InstanceCount uint32
	StartVertex   uint32
	StartInstance uint32
}

// Type implements Command.
func (DrawInstancedCommand) Type() CommandType { return CmdDrawInstanced }

// DrawIndexedInstancedCommand draws indexed geometry.
type DrawIndexedInstancedCommand struct {
	Effects       Effect
	IndexCount    uint32
	InstanceCount uint32
	StartIndex    uint32
	BaseVertex    int32
	StartInstance uint32
}

// Type implements Command.
func (DrawIndexedInstancedCommand) Type() CommandType { return CmdDrawIndexedInstanced }

// DispatchCommand launches compute work groups.
type DispatchCommand struct {
	Effects Effect
	X, Y, Z uint32
}

// Type implements Command.
func (DispatchCommand) Type() CommandType { return CmdDispatch }

// PresentOnWindowCommand presents Texture on Window.
type PresentOnWindowCommand struct {
	Window  Window
	Texture Texture
}

// Type implements Command.
func (PresentOnWindowCommand) Type() CommandType { return CmdPresentOnWindow }

// FlushCommand applies state set after the last execution command.
type FlushCommand struct {
	Effects Effect
}

// Type implements Command.
func (FlushCommand) Type() CommandType { return CmdFlush }
