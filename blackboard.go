package framegraph

// Blackboard shares values between the setup functions of different passes
// within one frame, typically the handles one pass creates and a later pass
// consumes. It is cleared by BeginFrame.
type Blackboard struct {
	values map[string]any
}

// Set stores v under key, replacing any previous value.
func (b *Blackboard) Set(key string, v any) {
	if b.values == nil {
		b.values = make(map[string]any)
	}
	b.values[key] = v
}

// Has reports whether key is present.
func (b *Blackboard) Has(key string) bool {
	_, ok := b.values[key]
	return ok
}

// Len returns the number of entries.
func (b *Blackboard) Len() int { return len(b.values) }

// Clear removes every entry.
func (b *Blackboard) Clear() { clear(b.values) }

// BlackboardGet returns the value stored under key if it has type T.
func BlackboardGet[T any](b *Blackboard, key string) (T, bool) {
	v, ok := b.values[key]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
