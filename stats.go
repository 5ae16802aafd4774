package framegraph

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FrameStats summarizes the memory plan of the last compiled frame.
type FrameStats struct {
	Resources          int
	Placed             int
	HighestMemoryUsage int
	Uploads            int
	UploadBytes        int
	Pipelines          int
}

// Stats returns statistics of the current plan.
func (r *Resources) Stats() FrameStats {
	r.uploadMu.Lock()
	uploads, uploadBytes, pipelines := len(r.uploads), r.uploadLength, len(r.pipelines)
	r.uploadMu.Unlock()

	return FrameStats{
		Resources:          len(r.events) / 2,
		Placed:             len(r.locations),
		HighestMemoryUsage: r.highest,
		Uploads:            uploads,
		UploadBytes:        uploadBytes,
		Pipelines:          pipelines,
	}
}

var statsPrinter = message.NewPrinter(language.English)

// String returns a one-line summary with grouped byte counts.
func (s FrameStats) String() string {
	return statsPrinter.Sprintf("%d/%d resources placed, %d bytes transient, %d uploads (%d bytes staged), %d pipelines",
		s.Placed, s.Resources, s.HighestMemoryUsage, s.Uploads, s.UploadBytes, s.Pipelines)
}
