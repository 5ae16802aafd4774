package framegraph

// passContainer is the compile-time view of one pass: every resource it
// touches with the merged usage, in first-declared order, and the textures
// it renders into. Containers live in an arena indexed by pass index and
// are reset, not reallocated, by every compile.
type passContainer struct {
	order   []Resource
	usage   map[ResourceKey]Usage
	outputs map[ResourceKey]struct{}
}

func (c *passContainer) reset() {
	clear(c.order)
	c.order = c.order[:0]
	if c.usage == nil {
		c.usage = make(map[ResourceKey]Usage)
		c.outputs = make(map[ResourceKey]struct{})
		return
	}
	clear(c.usage)
	clear(c.outputs)
}

func (c *passContainer) add(r Resource, u Usage) {
	key := r.Key()
	if prev, ok := c.usage[key]; ok {
		c.usage[key] = prev | u
		return
	}
	c.usage[key] = u
	c.order = append(c.order, r)
}

// build replays the declarations of desc. Render targets count as writes.
func (c *passContainer) build(desc *PassDescription) {
	c.reset()
	for _, ur := range desc.Resources {
		if !ur.Resource.IsValid() {
			continue
		}
		c.add(ur.Resource, ur.Usage)
	}
	for _, rt := range desc.RenderTargets {
		if !rt.Target.IsValid() {
			continue
		}
		c.outputs[rt.Target.Key()] = struct{}{}
		c.add(rt.Target.Resource(), UsageWrite)
	}
}

func (c *passContainer) hasOutput(t Texture) bool {
	_, ok := c.outputs[t.Key()]
	return ok
}

func (c *passContainer) hasUsage(key ResourceKey, u Usage) bool {
	return c.usage[key]&u != 0
}

// dependsOn reports whether this pass reads or writes a resource that
// earlier wrote.
func (c *passContainer) dependsOn(earlier *passContainer) bool {
	for _, r := range c.order {
		if c.usage[r.Key()]&(UsageRead|UsageWrite) == 0 {
			continue
		}
		if earlier.hasUsage(r.Key(), UsageWrite) {
			return true
		}
	}
	return false
}
