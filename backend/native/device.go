package native

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Usage of the backing buffers.
var (
	heapUsage    = gputypes.BufferUsageStorage | gputypes.BufferUsageVertex | gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc
	stagingUsage = gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc
)

// Device is the HAL backend of one frame graph. It implements
// framegraph.ResourceQuerier.
//
// Prepare and Flush must not run concurrently with each other; queries are
// pure and safe from any goroutine.
type Device struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat

	mu          sync.Mutex
	heap        hal.Buffer
	heapSize    uint64
	staging     hal.Buffer
	stagingSize uint64
	destroyed   bool
}

var _ framegraph.ResourceQuerier = (*Device)(nil)

// New wraps a HAL device and queue.
func New(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	return &Device{device: device, queue: queue, format: gputypes.TextureFormatBGRA8Unorm}, nil
}

// NewFromProvider shares the device of a host application. The provider
// must expose HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if provider == nil {
		return nil, ErrNilDevice
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALDevice
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALDevice)
	}

	d, err := New(device, queue)
	if err != nil {
		return nil, err
	}
	if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		d.format = f
	}
	framegraph.Logger().Debug("native: using shared device", "format", d.format)
	return d, nil
}

// SurfaceFormat returns the texture format of the presentation surface.
func (d *Device) SurfaceFormat() gputypes.TextureFormat { return d.format }

// HeapSize returns the size of the transient heap buffer.
func (d *Device) HeapSize() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.heapSize
}

// StagingSize returns the size of the staging buffer.
func (d *Device) StagingSize() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stagingSize
}

// Prepare makes the heap and staging buffers large enough for the
// compiled frame in res. Buffers only grow; a smaller frame reuses them.
func (d *Device) Prepare(res *framegraph.Resources) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return ErrDestroyed
	}

	heap := uint64(res.HighestMemoryUsage()) // #nosec G115 -- never negative
	if heap > d.heapSize {
		buf, err := d.grow(d.heap, "framegraph-heap", heap, heapUsage)
		if err != nil {
			return fmt.Errorf("native: transient heap: %w", err)
		}
		d.heap, d.heapSize = buf, heap
	}

	staging := uint64(res.MinUploadSize()) // #nosec G115 -- never negative
	if staging > d.stagingSize {
		buf, err := d.grow(d.staging, "framegraph-staging", staging, stagingUsage)
		if err != nil {
			return fmt.Errorf("native: staging buffer: %w", err)
		}
		d.staging, d.stagingSize = buf, staging
	}
	return nil
}

// grow replaces old with a new buffer of size bytes.
func (d *Device) grow(old hal.Buffer, label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, err
	}
	if old != nil {
		d.device.DestroyBuffer(old)
	}
	framegraph.Logger().Debug("native: buffer grown", "label", label, "size", size)
	return buf, nil
}

// FlushStats counts the work done by one Flush.
type FlushStats struct {
	Uploads  int
	Bytes    int
	Presents int
}

// Flush writes the payload of every recorded upload into the staging
// buffer at its ledger offset and presents on the windows named by
// PresentOnWindow commands. Present errors are joined; uploads continue.
func (d *Device) Flush(res *framegraph.Resources, passes []framegraph.PassCommands) (FlushStats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var stats FlushStats
	if d.destroyed {
		return stats, ErrDestroyed
	}
	if need := uint64(res.MinUploadSize()); need > d.stagingSize { // #nosec G115 -- never negative
		return stats, fmt.Errorf("%w: need %d bytes, have %d", ErrNotPrepared, need, d.stagingSize)
	}

	var errs []error
	for _, pc := range passes {
		for _, cmd := range pc.Commands {
			switch c := cmd.(type) {
			case framegraph.UploadBufferCommand:
				stats.add(d.stage(res, c.Upload, c.Data))
			case framegraph.UploadTextureCommand:
				stats.add(d.stage(res, c.Upload, c.Data))
			case framegraph.PresentOnWindowCommand:
				stats.Presents++
				if err := c.Window.Present(c.Texture); err != nil {
					errs = append(errs, fmt.Errorf("native: pass %q: present: %w", pc.Name, err))
				}
			}
		}
	}
	return stats, errors.Join(errs...)
}

func (s *FlushStats) add(n int) {
	if n > 0 {
		s.Uploads++
		s.Bytes += n
	}
}

// stage copies one payload into the staging buffer and returns its size.
func (d *Device) stage(res *framegraph.Resources, index int, data []byte) int {
	loc, ok := res.Upload(index)
	if !ok || len(data) == 0 {
		framegraph.Logger().Warn("native: upload without ledger entry", "index", index)
		return 0
	}
	d.queue.WriteBuffer(d.staging, uint64(loc.StagingOffset), data) // #nosec G115 -- offsets are never negative
	return len(data)
}

// Destroy releases the heap and staging buffers. The HAL device itself
// belongs to the caller.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return
	}
	if d.heap != nil {
		d.device.DestroyBuffer(d.heap)
	}
	if d.staging != nil {
		d.device.DestroyBuffer(d.staging)
	}
	d.heap, d.staging = nil, nil
	d.heapSize, d.stagingSize = 0, 0
	d.destroyed = true
}
