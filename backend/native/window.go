package native

import (
	"errors"
	"sync"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
)

// ErrWindowClosed is returned by Present after Close.
var ErrWindowClosed = errors.New("native: window closed")

// Window is a presentation surface. It is both the external object behind
// an imported backbuffer and the target of PresentOnWindow.
type Window struct {
	label  string
	width  uint32
	height uint32
	format gputypes.TextureFormat

	mu        sync.Mutex
	presented int
	last      framegraph.Texture
	closed    bool
}

var (
	_ framegraph.Window   = (*Window)(nil)
	_ framegraph.External = (*Window)(nil)
)

// NewWindow creates a window whose backbuffer has the device's surface
// format.
func (d *Device) NewWindow(label string, width, height uint32) *Window {
	return &Window{label: label, width: width, height: height, format: d.format}
}

// Label implements framegraph.External.
func (w *Window) Label() string { return w.label }

// Backbuffer imports the window's swapchain texture into g.
func (w *Window) Backbuffer(g *framegraph.Graph) framegraph.Texture {
	w.mu.Lock()
	width, height := w.width, w.height
	w.mu.Unlock()
	return g.ImportTexture(w, framegraph.TextureDesc{
		Width:  width,
		Height: height,
		Format: w.format,
		Usage:  framegraph.TextureUsageRenderTarget,
	})
}

// Resize changes the backbuffer size of later frames.
func (w *Window) Resize(width, height uint32) {
	w.mu.Lock()
	w.width, w.height = width, height
	w.mu.Unlock()
}

// Present implements framegraph.Window.
func (w *Window) Present(t framegraph.Texture) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWindowClosed
	}
	w.presented++
	w.last = t
	return nil
}

// Presented returns the number of presents and the last presented texture.
func (w *Window) Presented() (int, framegraph.Texture) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.presented, w.last
}

// Close makes later presents fail.
func (w *Window) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}
