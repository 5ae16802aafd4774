// Package framegraph compiles a frame's declared GPU passes into an
// execution timeline and a transient memory plan.
//
// # Overview
//
// A frame is described as an ordered list of passes. Each pass declares,
// up front, which buffers and textures it reads and writes and which
// textures it renders into. From those declarations the compiler
//
//   - culls trailing passes whose output nothing consumes,
//   - discovers dependencies between passes,
//   - inserts fences where a pass waits on work from another queue,
//   - computes a lifetime window for every transient resource,
//   - places transient resources in one shared virtual address space so
//     that resources with disjoint lifetimes alias the same memory.
//
// Pass callbacks then record GPU work through [RasterCommandBuffer] and
// [ComputeCommandBuffer]. Every recorded command is checked against the
// issuing pass's declarations; violations are reported through an
// [ErrorReporter] and the command is dropped.
//
// # Quick Start
//
//	m := framegraph.NewManager(framegraph.DefaultQuerier())
//	g := m.BeginFrame()
//
//	backbuffer := g.ImportTexture(window, framegraph.TextureDesc{
//	    Width: 1280, Height: 720, Format: gputypes.TextureFormatBGRA8Unorm,
//	    Usage: framegraph.TextureUsageRenderTarget,
//	})
//
//	type gbuffer struct{ albedo framegraph.Texture }
//	framegraph.AddRasterPass(g, "gbuffer",
//	    func(b *framegraph.PassBuilder, d *gbuffer) {
//	        d.albedo = b.CreateTexture("albedo", framegraph.TextureDesc{...})
//	        b.UseRenderTarget(d.albedo)
//	    },
//	    func(cmd *framegraph.RasterCommandBuffer, d *gbuffer) {
//	        cmd.SetRenderTarget(0, d.albedo)
//	        cmd.DrawInstanced(3, 1, 0, 0)
//	    })
//
//	m.Compile(backbuffer)
//	for _, pass := range m.Execute() {
//	    // translate pass.Commands to native GPU work
//	}
//
// # Error handling
//
// Problems in the shape of the graph and in resource placement are logged
// and recovered locally. Contract violations while recording are reported
// as [PassError] values. Only static size violations, such as constants
// larger than the push constant budget, panic with a [*CapacityError].
//
// # Concurrency
//
// Compile is not re-entrant. Pass callbacks may be recorded concurrently
// (see [WithParallelRecording]); each pass owns its [CommandRecorder].
package framegraph
