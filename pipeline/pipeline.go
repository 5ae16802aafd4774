// Package pipeline compiles WGSL shaders into the pipeline objects that
// pass callbacks bind with SetPipeline.
//
// A Compiler caches its results by source hash, kind and state, so
// compiling the same shader twice returns the same *Pipeline and the frame
// graph interns it to a single per-frame index.
//
//	pc := pipeline.NewCompiler()
//	blur, err := pc.Compute("blur", blurWGSL)
//	if err != nil {
//	    return err
//	}
//	framegraph.AddComputePass(g, "blur", setup, func(cmd *framegraph.ComputeCommandBuffer, d *blurData) {
//	    cmd.SetPipeline(blur)
//	    cmd.Dispatch(d.groups, 1, 1)
//	})
package pipeline

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
)

var (
	// ErrEmptySource is returned when a pipeline is requested without
	// shader source.
	ErrEmptySource = errors.New("pipeline: empty shader source")

	// ErrInvalidSPIRV is returned when the shader compiler output is not
	// a whole number of 32-bit words.
	ErrInvalidSPIRV = errors.New("pipeline: SPIR-V is not word aligned")
)

// GraphicsState is the fixed-function state baked into a graphics
// pipeline. It is part of the cache key.
type GraphicsState struct {
	VertexEntry   string
	FragmentEntry string
	ColorFormat   gputypes.TextureFormat
	DepthFormat   gputypes.TextureFormat
	SampleCount   uint32
	Blend         bool
}

// DefaultGraphicsState returns an opaque single-sample RGBA8 state with
// vs_main and fs_main entry points.
func DefaultGraphicsState() GraphicsState {
	return GraphicsState{
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		ColorFormat:   gputypes.TextureFormatRGBA8Unorm,
		SampleCount:   1,
	}
}

// Pipeline is a compiled shader with its state. It implements
// framegraph.Pipeline and is immutable once created.
type Pipeline struct {
	label string
	kind  framegraph.PipelineKind
	entry string
	state GraphicsState
	hash  uint64
	spirv []uint32
}

var _ framegraph.Pipeline = (*Pipeline)(nil)

// Label implements framegraph.Pipeline.
func (p *Pipeline) Label() string { return p.label }

// Kind implements framegraph.Pipeline.
func (p *Pipeline) Kind() framegraph.PipelineKind { return p.kind }

// EntryPoint returns the compute entry point. Graphics pipelines return "".
func (p *Pipeline) EntryPoint() string { return p.entry }

// State returns the graphics state. Compute pipelines return the zero value.
func (p *Pipeline) State() GraphicsState { return p.state }

// SourceHash returns the hash of the WGSL source.
func (p *Pipeline) SourceHash() uint64 { return p.hash }

// SPIRV returns the compiled module as 32-bit words. The slice must not be
// modified.
func (p *Pipeline) SPIRV() []uint32 { return p.spirv }

func (p *Pipeline) String() string {
	return fmt.Sprintf("%s pipeline %q (%d words)", p.kind, p.label, len(p.spirv))
}

// toWords converts little-endian SPIR-V bytes to words.
func toWords(spirv []byte) ([]uint32, error) {
	if len(spirv)%4 != 0 {
		return nil, ErrInvalidSPIRV
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	return words, nil
}
