package framegraph

// PipelineKind distinguishes graphics and compute pipelines.
type PipelineKind uint8

const (
	PipelineGraphics PipelineKind = iota
	PipelineCompute
)

// String returns the kind name.
func (k PipelineKind) String() string {
	if k == PipelineCompute {
		return "Compute"
	}
	return "Graphics"
}

// Pipeline is an opaque pipeline object created by a backend. The graph only
// deduplicates and indexes pipelines, so implementations must be comparable.
type Pipeline interface {
	Label() string
	Kind() PipelineKind
}
