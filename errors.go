package framegraph

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotCompiled is returned by Execute before Compile was called.
var ErrNotCompiled = errors.New("framegraph: frame not compiled")

// ErrorSource names the operation that detected a contract violation.
type ErrorSource uint8

const (
	SourceSetRenderTarget ErrorSource = iota
	SourceSetDepthStencil
	SourceSetViewport
	SourceSetScissor
	SourceSetPipeline
	SourceSetConstants
	SourceSetProperties
	SourceSetStencilReference
	SourceSetVertexBuffer
	SourceSetIndexBuffer
	SourceClearRenderTarget
	SourceClearDepthStencil
	SourceUploadBuffer
	SourceUploadTexture
	SourceCopyBuffer
	SourceCopyTexture
	SourceMapBuffer
	SourcePresentOnWindow
	SourceCreateTexture
	SourceCreateBuffer
	SourceUseResource
	SourceUseRenderTarget
	SourceUseDepthStencil
	SourceRecord

	sourceCount
)

var sourceNames = [sourceCount]string{
	SourceSetRenderTarget:     "SetRenderTarget",
	SourceSetDepthStencil:     "SetDepthStencil",
	SourceSetViewport:         "SetViewport",
	SourceSetScissor:          "SetScissor",
	SourceSetPipeline:         "SetPipeline",
	SourceSetConstants:        "SetConstants",
	SourceSetProperties:       "SetProperties",
	SourceSetStencilReference: "SetStencilReference",
	SourceSetVertexBuffer:     "SetVertexBuffer",
	SourceSetIndexBuffer:      "SetIndexBuffer",
	SourceClearRenderTarget:   "ClearRenderTarget",
	SourceClearDepthStencil:   "ClearDepthStencil",
	SourceUploadBuffer:        "UploadBuffer",
	SourceUploadTexture:       "UploadTexture",
	SourceCopyBuffer:          "CopyBuffer",
	SourceCopyTexture:         "CopyTexture",
	SourceMapBuffer:           "MapBuffer",
	SourcePresentOnWindow:     "PresentOnWindow",
	SourceCreateTexture:       "CreateTexture",
	SourceCreateBuffer:        "CreateBuffer",
	SourceUseResource:         "UseResource",
	SourceUseRenderTarget:     "UseRenderTarget",
	SourceUseDepthStencil:     "UseDepthStencil",
	SourceRecord:              "Record",
}

// String returns the operation name.
func (s ErrorSource) String() string {
	if s < sourceCount {
		return sourceNames[s]
	}
	return fmt.Sprintf("ErrorSource(%d)", s)
}

// ErrorType classifies a contract violation.
type ErrorType uint8

const (
	// TypeNoResourceAccess: the pass did not declare the usage it needs.
	TypeNoResourceAccess ErrorType = iota
	// TypeInvalidOutput: the texture is not a declared render target of the pass.
	TypeInvalidOutput
	TypeOutOfRange
	TypeResourceTooSmall
	TypeInvalidSubresource
	TypeNotEnoughDataSupplied
	TypeSlotOutOfRange
	TypeInvalidStride
	TypeInvalidResourceType
	TypeInvalidDimensions
	TypeInvalidFormat
	TypeIncompatibleUsage
	TypeStrideTooLarge
	// TypeFinalized: a command was recorded after the pass callback returned.
	TypeFinalized

	typeCount
)

var typeNames = [typeCount]string{
	TypeNoResourceAccess:      "NoResourceAccess",
	TypeInvalidOutput:         "InvalidOutput",
	TypeOutOfRange:            "OutOfRange",
	TypeResourceTooSmall:      "ResourceTooSmall",
	TypeInvalidSubresource:    "InvalidSubresource",
	TypeNotEnoughDataSupplied: "NotEnoughDataSupplied",
	TypeSlotOutOfRange:        "SlotOutOfRange",
	TypeInvalidStride:         "InvalidStride",
	TypeInvalidResourceType:   "InvalidResourceType",
	TypeInvalidDimensions:     "InvalidDimensions",
	TypeInvalidFormat:         "InvalidFormat",
	TypeIncompatibleUsage:     "IncompatibleUsage",
	TypeStrideTooLarge:        "StrideTooLarge",
	TypeFinalized:             "Finalized",
}

// String returns the violation name.
func (t ErrorType) String() string {
	if t < typeCount {
		return typeNames[t]
	}
	return fmt.Sprintf("ErrorType(%d)", t)
}

// PassError describes one contract violation detected while declaring or
// recording a pass.
type PassError struct {
	Pass     string
	Source   ErrorSource
	Type     ErrorType
	Resource Resource
}

// Error implements the error interface.
func (e *PassError) Error() string {
	if e.Resource.IsValid() || e.Resource.Name() != "" {
		return fmt.Sprintf("framegraph: pass %q: %s: %s on %s", e.Pass, e.Source, e.Type, e.Resource)
	}
	return fmt.Sprintf("framegraph: pass %q: %s: %s", e.Pass, e.Source, e.Type)
}

// ErrorReporter collects contract violations. It never panics and never
// aborts a pass. Safe for concurrent use by passes recorded in parallel.
type ErrorReporter struct {
	mu     sync.Mutex
	errors []*PassError
}

// NewErrorReporter creates an empty reporter.
func NewErrorReporter() *ErrorReporter {
	return &ErrorReporter{}
}

// Report records a violation and logs it at warn level.
func (r *ErrorReporter) Report(pass string, source ErrorSource, typ ErrorType, res Resource) {
	e := &PassError{Pass: pass, Source: source, Type: typ, Resource: res}

	r.mu.Lock()
	r.errors = append(r.errors, e)
	r.mu.Unlock()

	Logger().Warn("framegraph: contract violation",
		"pass", pass,
		"source", source.String(),
		"type", typ.String(),
		"resource", res.String())
}

// Errors returns a copy of the violations reported since the last Reset.
func (r *ErrorReporter) Errors() []*PassError {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*PassError, len(r.errors))
	copy(out, r.errors)
	return out
}

// Len returns the number of reported violations.
func (r *ErrorReporter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

// Err joins every reported violation, or returns nil if there are none.
func (r *ErrorReporter) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.errors))
	for i, e := range r.errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Reset discards every reported violation.
func (r *ErrorReporter) Reset() {
	r.mu.Lock()
	r.errors = r.errors[:0]
	r.mu.Unlock()
}

// CapacityError is the panic value for static size violations: a caller
// asked for more than a fixed per-pass budget allows.
type CapacityError struct {
	What  string
	Size  int
	Limit int
}

func (e *CapacityError) Error() string {
	if e.Limit < 0 {
		return fmt.Sprintf("framegraph: %s: type has no fixed size", e.What)
	}
	return fmt.Sprintf("framegraph: %s: %d bytes exceeds limit of %d", e.What, e.Size, e.Limit)
}
