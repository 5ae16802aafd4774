package framegraph

// Option configures a Manager during creation.
//
// Example:
//
//	m := framegraph.NewManager(device,
//	    framegraph.WithNoCull(true),
//	    framegraph.WithParallelRecording(4))
type Option func(*managerOptions)

type managerOptions struct {
	noCull   bool
	workers  int
	reporter *ErrorReporter
}

func defaultOptions() managerOptions {
	return managerOptions{}
}

// WithNoCull disables trailing pass culling. Used for debugging passes
// that would otherwise be dropped.
func WithNoCull(noCull bool) Option {
	return func(o *managerOptions) {
		o.noCull = noCull
	}
}

// WithParallelRecording records pass callbacks on a pool of workers.
// workers <= 0 uses GOMAXPROCS; 1 records serially on the caller's
// goroutine, which is also the default.
func WithParallelRecording(workers int) Option {
	return func(o *managerOptions) {
		if workers <= 0 {
			workers = -1
		}
		o.workers = workers
	}
}

// WithErrorReporter routes contract violations to r instead of a
// reporter owned by the manager.
func WithErrorReporter(r *ErrorReporter) Option {
	return func(o *managerOptions) {
		o.reporter = r
	}
}
