package framegraph

// ComputeCommandBuffer records the commands of a compute pass. It is only
// valid inside the pass callback it was handed to.
type ComputeCommandBuffer struct {
	commandBase
}

// SetPipeline binds a compute pipeline.
func (c *ComputeCommandBuffer) SetPipeline(p Pipeline) {
	c.setPipeline(p, PipelineCompute)
}

// Dispatch launches x*y*z work groups.
func (c *ComputeCommandBuffer) Dispatch(x, y, z uint32) {
	if !c.begin(SourceRecord) {
		return
	}
	c.rec.append(DispatchCommand{Effects: c.rec.takeEffects(), X: x, Y: y, Z: z})
}
