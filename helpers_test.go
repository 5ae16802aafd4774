package framegraph

import (
	"testing"

	"github.com/gogpu/gputypes"
)

type testExternal struct{ name string }

func (e *testExternal) Label() string { return e.name }

type testPipeline struct {
	label string
	kind  PipelineKind
}

func (p *testPipeline) Label() string      { return p.label }
func (p *testPipeline) Kind() PipelineKind { return p.kind }

type testWindow struct{ presented []Texture }

func (w *testWindow) Present(t Texture) error {
	w.presented = append(w.presented, t)
	return nil
}

// sizeQuerier returns a fixed size and alignment per resource index.
type sizeQuerier map[int]ResourceInfo

func (q sizeQuerier) QueryResourceInfo(r Resource) ResourceInfo { return q[r.Index()] }
func (q sizeQuerier) QueryBufferInfo(_ Buffer, _, size int) ResourceInfo {
	return ResourceInfo{SizeInBytes: size, Alignment: 4}
}
func (q sizeQuerier) QueryTextureInfo(_ Texture, _, size int) ResourceInfo {
	return ResourceInfo{SizeInBytes: size, Alignment: 4}
}

func colorTarget(w, h uint32) TextureDesc {
	return TextureDesc{
		Width:  w,
		Height: h,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  TextureUsageRenderTarget | TextureUsageShaderResource,
	}
}

func backbuffer(g *Graph) Texture {
	return g.ImportTexture(&testExternal{name: "backbuffer"}, TextureDesc{
		Width:  64,
		Height: 64,
		Format: gputypes.TextureFormatBGRA8Unorm,
		Usage:  TextureUsageRenderTarget,
	})
}

// timelineStrings renders events for comparison.
func timelineStrings(tl *Timeline) []string {
	out := make([]string, 0, tl.Len())
	for _, e := range tl.Events() {
		out = append(out, e.String())
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// recordPass declares one graphics pass that is never culled, compiles and
// executes the frame and returns the pass's commands and every reported
// violation.
func recordPass[T any](t *testing.T, setup func(*PassBuilder, *T), exec func(*RasterCommandBuffer, *T)) ([]Command, []*PassError, *Manager) {
	t.Helper()
	m := NewManager(DefaultQuerier())
	g := m.BeginFrame()
	AddRasterPass(g, "test", func(b *PassBuilder, d *T) {
		b.AllowCulling(false)
		setup(b, d)
	}, exec)
	m.Compile(Texture{})
	out, err := m.Execute()
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("Execute() returned %d passes, want 1", len(out))
	}
	return out[0].Commands, m.Errors().Errors(), m
}

func commandTypes(cmds []Command) []CommandType {
	out := make([]CommandType, len(cmds))
	for i, c := range cmds {
		out[i] = c.Type()
	}
	return out
}

func hasError(errs []*PassError, src ErrorSource, typ ErrorType) bool {
	for _, e := range errs {
		if e.Source == src && e.Type == typ {
			return true
		}
	}
	return false
}
