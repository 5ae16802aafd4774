package pipeline

import (
	"fmt"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/naga"
)

// CompileFunc translates WGSL source to SPIR-V bytes.
type CompileFunc func(source string) ([]byte, error)

// key identifies a pipeline in the cache.
type key struct {
	hash  uint64
	kind  framegraph.PipelineKind
	entry string
	state GraphicsState
}

func hashKey(k key) uint64 { return k.hash ^ uint64(k.kind) }

// Option configures a Compiler.
type Option func(*Compiler)

// WithCompileFunc replaces naga as the WGSL compiler.
func WithCompileFunc(fn CompileFunc) Option {
	return func(c *Compiler) {
		c.compile = fn
	}
}

// WithCapacity sets the per-shard cache capacity.
func WithCapacity(n int) Option {
	return func(c *Compiler) {
		c.capacity = n
	}
}

// Compiler builds and caches pipelines. Safe for concurrent use, so pass
// callbacks recorded in parallel may share one.
type Compiler struct {
	compile  CompileFunc
	capacity int
	cache    *Cache[key, *Pipeline]
}

// NewCompiler creates a compiler backed by naga.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{compile: naga.Compile}
	for _, opt := range opts {
		opt(c)
	}
	c.cache = NewCache[key, *Pipeline](c.capacity, hashKey)
	return c
}

// Compute returns the compute pipeline for source with entry point main.
func (c *Compiler) Compute(label, source string) (*Pipeline, error) {
	return c.ComputeEntry(label, source, "main")
}

// ComputeEntry returns the compute pipeline for source with the given
// entry point.
func (c *Compiler) ComputeEntry(label, source, entry string) (*Pipeline, error) {
	return c.get(label, source, key{kind: framegraph.PipelineCompute, entry: entry})
}

// Graphics returns the graphics pipeline for source and state.
func (c *Compiler) Graphics(label, source string, state GraphicsState) (*Pipeline, error) {
	if state.SampleCount == 0 {
		state.SampleCount = 1
	}
	return c.get(label, source, key{kind: framegraph.PipelineGraphics, state: state})
}

func (c *Compiler) get(label, source string, k key) (*Pipeline, error) {
	if source == "" {
		return nil, ErrEmptySource
	}
	k.hash = SourceHash(source)
	if p, ok := c.cache.Get(k); ok {
		return p, nil
	}

	spirv, err := c.compile(source)
	if err != nil {
		return nil, fmt.Errorf("pipeline: compile %q: %w", label, err)
	}
	words, err := toWords(spirv)
	if err != nil {
		return nil, fmt.Errorf("pipeline: compile %q: %w", label, err)
	}

	p := &Pipeline{
		label: label,
		kind:  k.kind,
		entry: k.entry,
		state: k.state,
		hash:  k.hash,
		spirv: words,
	}
	p = c.cache.Add(k, p)
	framegraph.Logger().Debug("pipeline: compiled",
		"label", p.label,
		"kind", p.kind.String(),
		"words", len(p.spirv))
	return p, nil
}

// Len returns the number of cached pipelines.
func (c *Compiler) Len() int { return c.cache.Len() }

// Stats returns cache statistics.
func (c *Compiler) Stats() CacheStats { return c.cache.Stats() }

// Clear drops every cached pipeline. Pipelines already handed out stay
// valid, but compiling the same source again yields a new handle.
func (c *Compiler) Clear() { c.cache.Clear() }
