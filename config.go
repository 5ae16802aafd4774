package framegraph

import "flag"

// NoCullFlag is the command line switch that disables trailing pass culling.
const NoCullFlag = "fg-nocull"

// Config is the process-wide frame graph configuration.
type Config struct {
	NoCull bool
}

// RegisterFlags binds the configuration to fs. The flag package accepts
// both -fg-nocull and --fg-nocull.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.NoCull, NoCullFlag, c.NoCull, "disable culling of trailing passes (debugging)")
}

// Options converts the configuration to manager options.
func (c Config) Options() []Option {
	return []Option{WithNoCull(c.NoCull)}
}
