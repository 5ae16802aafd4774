package framegraph

// PassState is the declared usage set of one compiled pass. Command
// buffers validate every recorded operation against it.
type PassState struct {
	name      string
	typ       PassType
	resources map[ResourceKey]Usage
	// targets maps declared outputs to whether they are depth-stencil.
	targets map[ResourceKey]bool
}

// Name returns the pass name.
func (s *PassState) Name() string { return s.name }

// Type returns the pass type.
func (s *PassState) Type() PassType { return s.typ }

// AddResource declares that the pass accesses r with usage.
func (s *PassState) AddResource(r Resource, usage Usage) {
	if s.resources == nil {
		s.resources = make(map[ResourceKey]Usage)
	}
	s.resources[r.Key()] |= usage
}

// AddOutput declares that the pass renders into t.
func (s *PassState) AddOutput(t Texture, depthStencil bool) {
	if s.targets == nil {
		s.targets = make(map[ResourceKey]bool)
	}
	s.targets[t.Key()] = depthStencil
}

// ContainsResource reports whether r was declared with every flag in
// usage. External resources always pass: the graph does not track them.
func (s *PassState) ContainsResource(r Resource, usage Usage) bool {
	if r.IsExternal() {
		return true
	}
	got, ok := s.resources[r.Key()]
	return ok && got.Has(usage)
}

// ContainsOutput reports whether t was declared as a render target
// (depthStencil false) or as the depth-stencil target (depthStencil true).
func (s *PassState) ContainsOutput(t Texture, depthStencil bool) bool {
	if t.IsExternal() {
		return true
	}
	ds, ok := s.targets[t.Key()]
	return ok && ds == depthStencil
}

func (s *PassState) reset(name string, typ PassType) {
	s.name = name
	s.typ = typ
	clear(s.resources)
	clear(s.targets)
}

// FrameState holds the PassState of every pass of the compiled frame,
// indexed by submission order.
type FrameState struct {
	passes []PassState
}

// NewFrameState creates an empty frame state.
func NewFrameState() *FrameState {
	return &FrameState{}
}

// Reset resizes the state to n passes and clears each.
func (f *FrameState) Reset(n int) {
	if cap(f.passes) < n {
		f.passes = append(f.passes[:cap(f.passes)], make([]PassState, n-cap(f.passes))...)
	}
	f.passes = f.passes[:n]
	for i := range f.passes {
		f.passes[i].reset("", PassGraphics)
	}
}

// Pass returns the state of pass index, or nil if out of range.
func (f *FrameState) Pass(index int) *PassState {
	if index < 0 || index >= len(f.passes) {
		return nil
	}
	return &f.passes[index]
}

// Len returns the number of passes.
func (f *FrameState) Len() int { return len(f.passes) }
