package framegraph

// MaxUploadChunk is the largest payload a single command may stage in a
// recorder's arena.
const MaxUploadChunk = 64 * 1024

// CommandRecorder is the append-only op-code stream of one pass, plus the
// arena that holds upload and constant payloads. Payload slices stay valid
// until Reset.
//
// The CommandRecorder is not safe for concurrent use; each pass records
// into its own.
type CommandRecorder struct {
	commands []Command
	chunks   [][]byte
	current  int
	pending  Effect
	finished bool
}

// NewCommandRecorder creates an empty recorder.
func NewCommandRecorder() *CommandRecorder {
	return &CommandRecorder{commands: make([]Command, 0, 64)}
}

// Reset discards every command and recycles the arena.
func (r *CommandRecorder) Reset() {
	clear(r.commands)
	r.commands = r.commands[:0]
	for i := range r.chunks {
		r.chunks[i] = r.chunks[i][:0]
	}
	r.current = 0
	r.pending = 0
	r.finished = false
}

// Commands returns the recorded commands. The slice is owned by r.
func (r *CommandRecorder) Commands() []Command { return r.commands }

// Len returns the number of recorded commands.
func (r *CommandRecorder) Len() int { return len(r.commands) }

// Pending returns the state effects not yet consumed by an execution command.
func (r *CommandRecorder) Pending() Effect { return r.pending }

// ArenaSize returns the number of payload bytes currently staged.
func (r *CommandRecorder) ArenaSize() int {
	n := 0
	for _, c := range r.chunks {
		n += len(c)
	}
	return n
}

// setState appends a state command and marks its effect dirty.
func (r *CommandRecorder) setState(cmd Command, e Effect) {
	r.commands = append(r.commands, cmd)
	r.pending |= e
}

// append appends a command that carries no effects.
func (r *CommandRecorder) append(cmd Command) {
	r.commands = append(r.commands, cmd)
}

// takeEffects returns and clears the pending effects.
func (r *CommandRecorder) takeEffects() Effect {
	e := r.pending
	r.pending = 0
	return e
}

// FinishRecording appends a flush when state was set after the last
// execution command. Calling it again has no effect.
func (r *CommandRecorder) FinishRecording() {
	if r.finished {
		return
	}
	r.finished = true
	if r.pending != 0 {
		r.commands = append(r.commands, FlushCommand{Effects: r.takeEffects()})
	}
}

// alloc returns n bytes of arena memory. Requests above MaxUploadChunk
// panic with a *CapacityError.
func (r *CommandRecorder) alloc(what string, n int) []byte {
	if n > MaxUploadChunk {
		panic(&CapacityError{What: what, Size: n, Limit: MaxUploadChunk})
	}
	for r.current < len(r.chunks) {
		c := r.chunks[r.current]
		if cap(c)-len(c) >= n {
			start := len(c)
			r.chunks[r.current] = c[:start+n]
			return c[start : start+n : start+n]
		}
		r.current++
	}
	c := make([]byte, n, MaxUploadChunk)
	r.chunks = append(r.chunks, c)
	r.current = len(r.chunks) - 1
	return c[:n:n]
}

// copyBytes stages a copy of data in the arena.
func (r *CommandRecorder) copyBytes(what string, data []byte) []byte {
	buf := r.alloc(what, len(data))
	copy(buf, data)
	return buf
}
