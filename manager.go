package framegraph

import (
	"fmt"

	"github.com/gogpu/framegraph/internal/parallel"
)

// PassCommands is the recorded op-code stream of one executed pass.
type PassCommands struct {
	Index    int
	Name     string
	Type     PassType
	Commands []Command
}

// Manager is the frame graph of one render context. It owns the graph
// builder, the compiler, the timeline, the transient allocator and the
// per-pass recorders. Independent managers can coexist, for example one per
// off-screen preview.
//
// A frame is driven as BeginFrame, pass declarations, Compile, Execute.
// The Manager is not safe for concurrent use.
type Manager struct {
	opts      managerOptions
	resources *Resources
	graph     *Graph
	compiler  *Compiler
	timeline  *Timeline
	state     *FrameState
	errs      *ErrorReporter
	pool      *parallel.Pool
	recorders []*CommandRecorder
	final     Texture
	compiled  bool
	frame     uint64
}

// NewManager creates a frame graph that sizes resources with q.
// If q is nil, DefaultQuerier is used.
func NewManager(q ResourceQuerier, opts ...Option) *Manager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	errs := o.reporter
	if errs == nil {
		errs = NewErrorReporter()
	}
	res := NewResources(q)

	m := &Manager{
		opts:      o,
		resources: res,
		graph:     NewGraph(res, errs),
		compiler:  NewCompiler(o.noCull),
		timeline:  NewTimeline(),
		state:     NewFrameState(),
		errs:      errs,
	}
	if o.workers != 0 && o.workers != 1 {
		m.pool = parallel.NewPool(o.workers)
	}
	return m
}

// BeginFrame clears everything the previous frame produced and returns
// the graph to declare passes on.
func (m *Manager) BeginFrame() *Graph {
	m.frame++
	m.graph.Reset()
	m.resources.ClearNewFrame()
	m.timeline.Clear()
	m.state.Reset(0)
	m.errs.Reset()
	m.final = Texture{}
	m.compiled = false
	return m.graph
}

// Graph returns the graph of the current frame.
func (m *Manager) Graph() *Graph { return m.graph }

// Compile schedules the declared passes. final is the texture the frame
// ultimately produces, usually an imported backbuffer.
func (m *Manager) Compile(final Texture) {
	m.final = final
	m.compiler.Compile(final, m.graph.Passes(), m.timeline, m.resources, m.state)
	m.compiled = true
}

// Execute runs the callback of every scheduled pass in timeline order and
// returns the recorded commands in the same order.
//
// With WithParallelRecording the callbacks run concurrently; each pass
// records into its own CommandRecorder. A *CapacityError raised by a
// callback is re-panicked on the calling goroutine.
func (m *Manager) Execute() ([]PassCommands, error) {
	if !m.compiled {
		return nil, ErrNotCompiled
	}
	passes := m.graph.Passes()
	order := m.timeline.Passes()

	for len(m.recorders) < len(order) {
		m.recorders = append(m.recorders, NewCommandRecorder())
	}

	out := make([]PassCommands, len(order))
	tasks := make([]func(), len(order))
	for slot, index := range order {
		desc := &passes[index]
		rec := m.recorders[slot]
		rec.Reset()
		out[slot] = PassCommands{Index: index, Name: desc.Name, Type: desc.Type}
		tasks[slot] = func() {
			m.record(index, desc, rec)
			out[slot].Commands = rec.Commands()
		}
	}

	if m.pool != nil {
		m.pool.Run(tasks)
	} else {
		for _, t := range tasks {
			t()
		}
	}

	Logger().Debug("framegraph: executed",
		"frame", m.frame,
		"passes", len(order),
		"violations", m.errs.Len())
	return out, nil
}

// record binds a command buffer to one pass and runs its callback.
func (m *Manager) record(index int, desc *PassDescription, rec *CommandRecorder) {
	state := m.state.Pass(index)
	switch desc.Type {
	case PassCompute:
		if desc.Compute == nil {
			Logger().Warn("framegraph: compute pass has no callback", "pass", desc.Name)
			return
		}
		cmd := &ComputeCommandBuffer{}
		cmd.bind(desc.Name, state, rec, m.resources, m.errs)
		defer cmd.finalize()
		desc.Compute(cmd, desc.Data)
	default:
		if desc.Raster == nil {
			Logger().Warn("framegraph: raster pass has no callback", "pass", desc.Name)
			return
		}
		cmd := &RasterCommandBuffer{}
		cmd.bind(desc.Name, state, rec, m.resources, m.errs)
		defer cmd.finalize()
		desc.Raster(cmd, desc.Data)
	}
}

// Timeline returns the timeline of the last compile.
func (m *Manager) Timeline() *Timeline { return m.timeline }

// Resources returns the transient allocator.
func (m *Manager) Resources() *Resources { return m.resources }

// Compiler returns the compiler, for inspecting dependencies and lifetimes.
func (m *Manager) Compiler() *Compiler { return m.compiler }

// State returns the per-pass usage sets of the last compile.
func (m *Manager) State() *FrameState { return m.state }

// Errors returns the reporter that collects contract violations.
func (m *Manager) Errors() *ErrorReporter { return m.errs }

// Final returns the texture passed to the last Compile.
func (m *Manager) Final() Texture { return m.final }

// Frame returns the number of frames begun.
func (m *Manager) Frame() uint64 { return m.frame }

// Close stops the recording workers.
func (m *Manager) Close() {
	if m.pool != nil {
		m.pool.Close()
	}
}

// String implements fmt.Stringer.
func (m *Manager) String() string {
	return fmt.Sprintf("framegraph.Manager{frame: %d, passes: %d, events: %d}", m.frame, len(m.graph.Passes()), m.timeline.Len())
}
