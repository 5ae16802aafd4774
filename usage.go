package framegraph

import "strings"

// Usage is the set of access flags a pass declares for a resource.
type Usage uint8

const (
	UsageRead Usage = 1 << iota
	UsageWrite
	// UsageNoShaderAccess marks a resource only touched by fixed-function
	// operations such as copies or presentation.
	UsageNoShaderAccess Usage = 1 << 7
)

// Has reports whether every flag in f is set.
func (u Usage) Has(f Usage) bool { return u&f == f }

// HasAny reports whether any flag in f is set.
func (u Usage) HasAny(f Usage) bool { return u&f != 0 }

// String returns the flags joined by '|'.
func (u Usage) String() string {
	if u == 0 {
		return "None"
	}
	var parts []string
	if u&UsageRead != 0 {
		parts = append(parts, "Read")
	}
	if u&UsageWrite != 0 {
		parts = append(parts, "Write")
	}
	if u&UsageNoShaderAccess != 0 {
		parts = append(parts, "NoShaderAccess")
	}
	return strings.Join(parts, "|")
}

// PassType selects the queue a pass runs on.
type PassType uint8

const (
	PassGraphics PassType = iota
	PassCompute
)

// String returns the pass type name.
func (t PassType) String() string {
	switch t {
	case PassGraphics:
		return "Graphics"
	case PassCompute:
		return "Compute"
	default:
		return "Unknown"
	}
}

// Queue identifies a GPU queue in fence events.
type Queue uint8

const (
	QueueGraphics Queue = iota
	QueueCompute
	QueueCopy

	queueCount = 3
)

var queueNames = [queueCount]string{"Graphics", "Compute", "Copy"}

// String returns the queue name.
func (q Queue) String() string {
	if int(q) < len(queueNames) {
		return queueNames[q]
	}
	return "Unknown"
}

// QueueOf returns the queue a pass of type t executes on.
func QueueOf(t PassType) Queue {
	if t == PassCompute {
		return QueueCompute
	}
	return QueueGraphics
}
