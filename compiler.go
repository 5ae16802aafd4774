package framegraph

import (
	"maps"
	"slices"
)

// Compiler turns a frame's pass list into a timeline and a memory plan.
// A Compiler keeps scratch state between compiles and is not safe for
// concurrent use.
type Compiler struct {
	noCull bool

	containers []passContainer
	live       int

	// deps holds the dependency lists of every live pass back to back;
	// depRanges[i] is the half-open slice of deps belonging to pass i.
	deps      []int
	depRanges []IndexRange

	lifetimes map[ResourceKey]IndexRange
	order     []Resource
}

// NewCompiler creates a compiler. With noCull set, trailing passes are
// never culled.
func NewCompiler(noCull bool) *Compiler {
	return &Compiler{
		noCull:    noCull,
		lifetimes: make(map[ResourceKey]IndexRange),
	}
}

// SetNoCull toggles trailing pass culling.
func (c *Compiler) SetNoCull(noCull bool) { c.noCull = noCull }

// Compile rewrites timeline, resources and state from passes.
//
// Passes are scheduled in submission order. Trailing passes that allow
// culling and neither render into final nor run on the graphics queue are
// dropped. Compile never fails: malformed input degrades to a partial
// plan and a logged diagnostic.
func (c *Compiler) Compile(final Texture, passes []PassDescription, timeline *Timeline, resources *Resources, state *FrameState) {
	timeline.Clear()
	resources.ClearResources()
	c.deps = c.deps[:0]
	c.depRanges = c.depRanges[:0]
	clear(c.lifetimes)
	clear(c.order)
	c.order = c.order[:0]
	c.live = 0
	if state != nil {
		state.Reset(len(passes))
	}

	if len(passes) == 0 {
		c.containers = c.containers[:0]
		resources.SortAndFinish()
		return
	}

	c.buildContainers(passes)
	c.live = c.cull(final, passes)
	c.findDependencies()
	c.assemble(passes, timeline)

	for _, r := range c.order {
		resources.AddResourceWithLifetime(r, c.lifetimes[r.Key()])
	}
	resources.SortAndFinish()

	if state != nil {
		c.fillState(passes, state)
	}

	Logger().Debug("framegraph: compiled",
		"passes", len(passes),
		"culled", len(passes)-c.live,
		"dependencies", len(c.deps),
		"events", timeline.Len(),
		"transient", len(c.order),
		"memory", resources.HighestMemoryUsage())
}

func (c *Compiler) buildContainers(passes []PassDescription) {
	if cap(c.containers) < len(passes) {
		c.containers = append(c.containers[:cap(c.containers)], make([]passContainer, len(passes)-cap(c.containers))...)
	}
	c.containers = c.containers[:len(passes)]
	for i := range passes {
		c.containers[i].build(&passes[i])
	}
}

// cull returns the number of passes left after dropping dead trailing
// passes. Only the current tail is ever examined, so interior passes are
// never removed.
func (c *Compiler) cull(final Texture, passes []PassDescription) int {
	n := len(passes)
	if c.noCull {
		return n
	}
	for n > 0 {
		p := &passes[n-1]
		if !p.AllowCulling {
			break
		}
		if p.Type == PassGraphics && c.containers[n-1].hasOutput(final) {
			break
		}
		Logger().Debug("framegraph: culled pass", "pass", p.Name, "index", n-1)
		n--
	}
	return n
}

// findDependencies compares every live pass with every earlier pass.
// Quadratic in the pass count, which stays in the tens per frame.
func (c *Compiler) findDependencies() {
	c.depRanges = slices.Grow(c.depRanges, c.live)[:c.live]
	for i := c.live - 1; i >= 0; i-- {
		start := len(c.deps)
		for j := i - 1; j >= 0; j-- {
			if c.containers[i].dependsOn(&c.containers[j]) {
				c.deps = append(c.deps, j)
			}
		}
		c.depRanges[i] = IndexRange{Start: start, End: len(c.deps)}
	}
}

// assemble emits the timeline in submission order and extends resource
// lifetimes. A fence is inserted before a pass for every other queue it
// depends on, unless an earlier fence between the same queues was emitted
// after the dependency ran.
func (c *Compiler) assemble(passes []PassDescription, timeline *Timeline) {
	var lastFence [queueCount][queueCount]int
	for s := range lastFence {
		for w := range lastFence[s] {
			lastFence[s][w] = -1
		}
	}

	for i := 0; i < c.live; i++ {
		p := &passes[i]
		wait := QueueOf(p.Type)

		var fenced [queueCount]bool
		for _, j := range c.Dependencies(i) {
			signal := QueueOf(passes[j].Type)
			if signal == wait || fenced[signal] {
				continue
			}
			if lastFence[signal][wait] > j {
				continue
			}
			timeline.AddFenceEvent(signal, wait)
			fenced[signal] = true
			lastFence[signal][wait] = i
		}

		// Passes are scheduled in submission order with no gaps, so the
		// pass index is also its position in the pass sequence.
		for _, r := range c.containers[i].order {
			if !r.IsTransient() {
				continue
			}
			key := r.Key()
			lt, ok := c.lifetimes[key]
			if !ok {
				c.lifetimes[key] = IndexRange{Start: i, End: i}
				c.order = append(c.order, r)
				continue
			}
			lt.Start = min(lt.Start, i)
			lt.End = max(lt.End, i)
			c.lifetimes[key] = lt
		}

		switch p.Type {
		case PassCompute:
			timeline.AddComputeEvent(i)
		default:
			timeline.AddRasterEvent(i)
		}
	}
}

func (c *Compiler) fillState(passes []PassDescription, state *FrameState) {
	for i := 0; i < c.live; i++ {
		ps := state.Pass(i)
		ps.reset(passes[i].Name, passes[i].Type)
		cont := &c.containers[i]
		for _, r := range cont.order {
			ps.AddResource(r, cont.usage[r.Key()])
		}
		for _, rt := range passes[i].RenderTargets {
			if rt.Target.IsValid() {
				ps.AddOutput(rt.Target, rt.DepthStencil)
			}
		}
	}
}

// Dependencies returns the earlier passes that pass index depends on,
// newest first. The slice is owned by the compiler.
func (c *Compiler) Dependencies(index int) []int {
	if index < 0 || index >= len(c.depRanges) {
		return nil
	}
	r := c.depRanges[index]
	return c.deps[r.Start:r.End]
}

// DependsOn reports whether pass i depends on pass j in the last compile.
func (c *Compiler) DependsOn(i, j int) bool {
	return slices.Contains(c.Dependencies(i), j)
}

// Lifetime returns the lifetime computed for r by the last compile.
func (c *Compiler) Lifetime(r Resource) (IndexRange, bool) {
	lt, ok := c.lifetimes[r.Key()]
	return lt, ok
}

// Lifetimes returns a copy of every lifetime computed by the last compile.
func (c *Compiler) Lifetimes() map[ResourceKey]IndexRange { return maps.Clone(c.lifetimes) }

// TransientResources returns the resources with a lifetime, in first-use
// order. The slice is owned by the compiler.
func (c *Compiler) TransientResources() []Resource { return c.order }

// LivePasses returns the number of passes that survived culling.
func (c *Compiler) LivePasses() int { return c.live }

// Culled returns the number of trailing passes dropped by the last compile.
func (c *Compiler) Culled() int { return len(c.containers) - c.live }
