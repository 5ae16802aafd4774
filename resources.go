package framegraph

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// IndexRange is an inclusive or half-open range depending on use: resource
// lifetimes are inclusive [Start, End], free-list entries are [Start, End).
type IndexRange struct {
	Start int
	End   int
}

// Len returns End - Start.
func (r IndexRange) Len() int { return r.End - r.Start }

func (r IndexRange) String() string { return fmt.Sprintf("[%d, %d]", r.Start, r.End) }

// MemoryRange is a placement in the transient address space.
// TrueStart..End is the span returned to the free list on release;
// AlignedStart is the offset handed to the resource.
type MemoryRange struct {
	TrueStart    int
	AlignedStart int
	End          int
}

// Span returns the reclaimable span as a half-open range.
func (m MemoryRange) Span() IndexRange { return IndexRange{Start: m.TrueStart, End: m.End} }

// Overlaps reports whether the reclaimable spans of m and o intersect.
func (m MemoryRange) Overlaps(o MemoryRange) bool {
	return m.TrueStart < o.End && o.TrueStart < m.End
}

// EventAction is the kind of a resource event.
type EventAction uint8

const (
	ActionCreate EventAction = iota
	ActionDestroy
)

func (a EventAction) String() string {
	if a == ActionDestroy {
		return "Destroy"
	}
	return "Create"
}

// ResourceEvent is one input of the allocator sweep.
type ResourceEvent struct {
	Action    EventAction
	PassIndex int
	Resource  Resource
}

// Location is the committed placement of one resource.
type Location struct {
	Resource  Resource
	Offset    int
	Size      int
	Alignment int
}

// UploadLocation is one entry of the staging ledger.
type UploadLocation struct {
	Resource Resource
	// StagingOffset is where the payload lives in the staging buffer.
	StagingOffset int
	// DestOffset is the byte offset inside the destination resource.
	DestOffset int
	Length     int
}

// Resources is the transient allocator of one frame graph.
//
// It owns the per-frame resource table, the event stream replayed by
// SortAndFinish, the virtual free list, the placement of every transient
// resource, the staging ledger for uploads and the table of pipelines
// referenced by commands. All of it is cleared explicitly, never implicitly.
type Resources struct {
	querier ResourceQuerier

	table []Resource

	events    []ResourceEvent
	free      []IndexRange
	allocated map[ResourceKey]MemoryRange
	extent    int
	highest   int
	locations []Location

	// uploadMu guards the staging ledger and the pipeline table, which pass
	// callbacks touch while recording.
	uploadMu      sync.Mutex
	uploadLength  int
	uploads       []UploadLocation
	pipelineIndex map[Pipeline]int
	pipelines     []Pipeline
}

// NewResources creates an allocator that sizes resources with q.
// If q is nil, DefaultQuerier is used.
func NewResources(q ResourceQuerier) *Resources {
	if q == nil {
		q = DefaultQuerier()
	}
	return &Resources{
		querier:       q,
		allocated:     make(map[ResourceKey]MemoryRange),
		pipelineIndex: make(map[Pipeline]int),
	}
}

// Querier returns the backend query interface.
func (r *Resources) Querier() ResourceQuerier { return r.querier }

// ClearNewFrame invalidates the resource table and clears the allocator.
func (r *Resources) ClearNewFrame() {
	clear(r.table)
	r.table = r.table[:0]
	r.ClearResources()
}

// ClearResources clears events, placements, the free list, the staging
// ledger and the pipeline table. The resource table is kept.
func (r *Resources) ClearResources() {
	r.events = r.events[:0]
	r.free = r.free[:0]
	clear(r.allocated)
	r.extent = 0
	r.highest = 0
	r.locations = r.locations[:0]

	r.uploadMu.Lock()
	r.uploadLength = 0
	r.uploads = r.uploads[:0]
	clear(r.pipelineIndex)
	r.pipelines = r.pipelines[:0]
	r.uploadMu.Unlock()
}

// AddResource stores an internal resource in the per-frame table at its index.
func (r *Resources) AddResource(res Resource) {
	if !res.IsTransient() {
		return
	}
	if res.index >= len(r.table) {
		r.table = slices.Grow(r.table, res.index+1-len(r.table))
		r.table = r.table[:res.index+1]
	}
	r.table[res.index] = res
}

// FindResource returns the resource at index, or an invalid handle.
func (r *Resources) FindResource(index int) Resource {
	if index < 0 || index >= len(r.table) {
		return Resource{}
	}
	return r.table[index]
}

// FindBuffer returns the buffer at index.
func (r *Resources) FindBuffer(index int) (Buffer, bool) {
	return r.FindResource(index).Buffer()
}

// FindTexture returns the texture at index.
func (r *Resources) FindTexture(index int) (Texture, bool) {
	return r.FindResource(index).Texture()
}

// AddResourceWithLifetime schedules a Create at lifetime.Start and a Destroy
// at lifetime.End+1, so a resource used by a single pass still holds its
// memory for that pass.
func (r *Resources) AddResourceWithLifetime(res Resource, lifetime IndexRange) {
	if !res.IsTransient() {
		Logger().Warn("framegraph: lifetime for non-transient resource ignored", "resource", res.String())
		return
	}
	r.events = append(r.events,
		ResourceEvent{Action: ActionCreate, PassIndex: lifetime.Start, Resource: res},
		ResourceEvent{Action: ActionDestroy, PassIndex: lifetime.End + 1, Resource: res},
	)
}

// SortAndFinish sorts the events by pass index and replays them, placing
// every resource in the virtual address space. At equal pass index,
// destroys are replayed before creates so freed memory is reusable at once.
func (r *Resources) SortAndFinish() {
	slices.SortStableFunc(r.events, func(a, b ResourceEvent) int {
		if c := cmp.Compare(a.PassIndex, b.PassIndex); c != 0 {
			return c
		}
		return cmp.Compare(b.Action, a.Action)
	})

	r.extent = 0
	r.free = r.free[:0]

	// allocated keeps freed placements for Placement; freed guards the
	// free list against a second Destroy of the same resource.
	freed := make(map[ResourceKey]struct{})
	for _, ev := range r.events {
		key := ev.Resource.Key()
		if ev.Action == ActionDestroy {
			m, ok := r.allocated[key]
			if !ok {
				Logger().Warn("framegraph: resource not present in allocation table", "resource", ev.Resource.String())
				continue
			}
			if _, done := freed[key]; done {
				Logger().Warn("framegraph: resource destroyed twice", "resource", ev.Resource.String())
				continue
			}
			freed[key] = struct{}{}
			r.FreeVirtualSpace(m)
			continue
		}

		if _, dup := r.allocated[key]; dup {
			Logger().Warn("framegraph: resource created twice", "resource", ev.Resource.String())
			continue
		}
		info := r.querier.QueryResourceInfo(ev.Resource)
		if info.SizeInBytes <= 0 {
			Logger().Warn("framegraph: resource has no size", "resource", ev.Resource.String())
			continue
		}
		m := r.AllocateVirtualSpace(info.SizeInBytes, info.Alignment)
		r.allocated[key] = m
		r.locations = append(r.locations, Location{
			Resource:  ev.Resource,
			Offset:    m.AlignedStart,
			Size:      info.SizeInBytes,
			Alignment: info.Alignment,
		})
	}

	r.highest = r.extent
	Logger().Debug("framegraph: transient memory planned",
		"resources", len(r.locations),
		"bytes", r.highest)
}

// AllocateVirtualSpace places size bytes at the given alignment. The first
// free entry that fits once aligned is used: removed on an exact fit,
// shrunk otherwise. With no fitting entry the space is bump allocated at the
// current extent.
func (r *Resources) AllocateVirtualSpace(size, alignment int) MemoryRange {
	for i := range r.free {
		e := &r.free[i]
		aligned := alignUp(e.Start, alignment)
		end := aligned + size
		if end > e.End {
			continue
		}
		m := MemoryRange{TrueStart: e.Start, AlignedStart: aligned, End: end}
		if end == e.End {
			r.free = slices.Delete(r.free, i, i+1)
		} else {
			e.Start = end
		}
		return m
	}

	prev := r.extent
	aligned := alignUp(prev, alignment)
	r.extent = aligned + size
	return MemoryRange{TrueStart: prev, AlignedStart: aligned, End: r.extent}
}

// FreeVirtualSpace returns a placement to the free list, merging it with
// the free entries that end at its start or begin at its end.
func (r *Resources) FreeVirtualSpace(m MemoryRange) {
	span := m.Span()
	if span.Len() <= 0 {
		return
	}
	i, _ := slices.BinarySearchFunc(r.free, span.Start, func(e IndexRange, start int) int {
		return cmp.Compare(e.Start, start)
	})

	left := i > 0 && r.free[i-1].End == span.Start
	right := i < len(r.free) && r.free[i].Start == span.End

	switch {
	case left && right:
		r.free[i-1].End = r.free[i].End
		r.free = slices.Delete(r.free, i, i+1)
	case left:
		r.free[i-1].End = span.End
	case right:
		r.free[i].Start = span.Start
	default:
		r.free = slices.Insert(r.free, i, span)
	}
}

// AddBufferUpload reserves staging space for size bytes written to b at
// offset and returns the ledger index.
func (r *Resources) AddBufferUpload(b Buffer, offset, size int) int {
	info := r.querier.QueryBufferInfo(b, offset, size)
	return r.addUpload(b.Resource(), offset, size, info)
}

// AddTextureUpload reserves staging space for size bytes written to t and
// returns the ledger index. offset is the subresource index for textures.
func (r *Resources) AddTextureUpload(t Texture, offset, size int) int {
	info := r.querier.QueryTextureInfo(t, offset, size)
	return r.addUpload(t.Resource(), offset, size, info)
}

// addUpload appends to the staging ledger. The ledger only grows within a
// frame; entries are never freed or reused.
func (r *Resources) addUpload(res Resource, offset, size int, info ResourceInfo) int {
	r.uploadMu.Lock()
	defer r.uploadMu.Unlock()

	aligned := alignUp(r.uploadLength, info.Alignment)
	r.uploadLength = aligned + max(info.SizeInBytes, size)
	r.uploads = append(r.uploads, UploadLocation{
		Resource:      res,
		StagingOffset: aligned,
		DestOffset:    offset,
		Length:        size,
	})
	return len(r.uploads) - 1
}

// AddPotentialPipeline interns p and returns its dense per-frame index.
// The same pipeline always yields the same index within a frame.
func (r *Resources) AddPotentialPipeline(p Pipeline) int {
	r.uploadMu.Lock()
	defer r.uploadMu.Unlock()

	if i, ok := r.pipelineIndex[p]; ok {
		return i
	}
	i := len(r.pipelines)
	r.pipelines = append(r.pipelines, p)
	r.pipelineIndex[p] = i
	return i
}

// PipelineAt returns the pipeline interned at index, or nil.
func (r *Resources) PipelineAt(index int) Pipeline {
	r.uploadMu.Lock()
	defer r.uploadMu.Unlock()
	if index < 0 || index >= len(r.pipelines) {
		return nil
	}
	return r.pipelines[index]
}

// Pipelines returns a copy of the interned pipeline table.
func (r *Resources) Pipelines() []Pipeline {
	r.uploadMu.Lock()
	defer r.uploadMu.Unlock()
	return slices.Clone(r.pipelines)
}

// Placement returns the memory range of a placed resource.
func (r *Resources) Placement(res Resource) (MemoryRange, bool) {
	m, ok := r.allocated[res.Key()]
	return m, ok
}

// Events returns the sorted event stream. Owned by r.
func (r *Resources) Events() []ResourceEvent { return r.events }

// Locations returns the committed placements in creation order. Owned by r.
func (r *Resources) Locations() []Location { return r.locations }

// Uploads returns a copy of the staging ledger.
func (r *Resources) Uploads() []UploadLocation {
	r.uploadMu.Lock()
	defer r.uploadMu.Unlock()
	return slices.Clone(r.uploads)
}

// Upload returns one ledger entry.
func (r *Resources) Upload(index int) (UploadLocation, bool) {
	r.uploadMu.Lock()
	defer r.uploadMu.Unlock()
	if index < 0 || index >= len(r.uploads) {
		return UploadLocation{}, false
	}
	return r.uploads[index], true
}

// FreeList returns a copy of the free list, ordered by start offset.
func (r *Resources) FreeList() []IndexRange { return slices.Clone(r.free) }

// CurrentMemoryExtent returns the end of the address space used so far.
func (r *Resources) CurrentMemoryExtent() int { return r.extent }

// HighestMemoryUsage returns the high-water mark of the last SortAndFinish:
// the bytes a backend must back with real memory this frame.
func (r *Resources) HighestMemoryUsage() int { return r.highest }

// MinUploadSize returns the staging buffer size the uploads need.
func (r *Resources) MinUploadSize() int {
	r.uploadMu.Lock()
	defer r.uploadMu.Unlock()
	return r.uploadLength
}
