package native

import "errors"

var (
	// ErrNilDevice is returned when New is called without a device or queue.
	ErrNilDevice = errors.New("native: nil device or queue")

	// ErrNoHALDevice is returned when a device provider does not expose
	// HAL types.
	ErrNoHALDevice = errors.New("native: provider does not expose a HAL device")

	// ErrNotPrepared is returned by Flush when the staging buffer is too
	// small for the frame's uploads.
	ErrNotPrepared = errors.New("native: staging buffer not prepared")

	// ErrDestroyed is returned after Destroy.
	ErrDestroyed = errors.New("native: device destroyed")
)
