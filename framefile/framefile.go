// Package framefile loads declarative frame descriptions from TOML and
// replays them into a framegraph.Graph.
//
// A frame file names its resources up front and lists passes in submission
// order:
//
//	final = "backbuffer"
//
//	[[texture]]
//	name = "backbuffer"
//	width = 1280
//	height = 720
//	format = "bgra8unorm"
//	usage = ["render_target"]
//	external = true
//
//	[[texture]]
//	name = "scene"
//	width = 1280
//	height = 720
//	format = "rgba16float"
//	usage = ["render_target", "shader_resource"]
//
//	[[pass]]
//	name = "scene"
//	render_targets = ["scene"]
//
//	[[pass]]
//	name = "composite"
//	read = ["scene"]
//	render_targets = ["backbuffer"]
//
// Transient resources are created by the first pass that references them.
// External resources are imported before any pass is added.
package framefile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"
)

var (
	// ErrUnknownResource is returned when a pass or the final entry names
	// a resource the file does not declare.
	ErrUnknownResource = errors.New("framefile: unknown resource")

	// ErrDuplicateResource is returned when two resources share a name.
	ErrDuplicateResource = errors.New("framefile: duplicate resource")

	// ErrUnknownFormat is returned for texture formats outside the format table.
	ErrUnknownFormat = errors.New("framefile: unknown texture format")

	// ErrUnknownUsage is returned for unrecognized usage strings.
	ErrUnknownUsage = errors.New("framefile: unknown usage")

	// ErrUnknownPassType is returned for pass types other than graphics and compute.
	ErrUnknownPassType = errors.New("framefile: unknown pass type")

	// ErrNoFinal is returned when the file has no final texture.
	ErrNoFinal = errors.New("framefile: final texture not set")
)

// File is a decoded frame description.
type File struct {
	Final    string    `toml:"final"`
	Textures []Texture `toml:"texture"`
	Buffers  []Buffer  `toml:"buffer"`
	Passes   []Pass    `toml:"pass"`
}

// Texture declares a texture resource.
type Texture struct {
	Name     string   `toml:"name"`
	Width    uint32   `toml:"width"`
	Height   uint32   `toml:"height"`
	Depth    uint32   `toml:"depth"`
	Mips     uint32   `toml:"mips"`
	Format   string   `toml:"format"`
	Usage    []string `toml:"usage"`
	External bool     `toml:"external"`
}

// Buffer declares a buffer resource.
type Buffer struct {
	Name     string   `toml:"name"`
	Size     uint32   `toml:"size"`
	Stride   uint32   `toml:"stride"`
	Usage    []string `toml:"usage"`
	External bool     `toml:"external"`
}

// Pass declares one pass. Type defaults to "graphics".
type Pass struct {
	Name           string   `toml:"name"`
	Type           string   `toml:"type"`
	AllowCulling   *bool    `toml:"allow_culling"`
	Read           []string `toml:"read"`
	Write          []string `toml:"write"`
	RenderTargets  []string `toml:"render_targets"`
	DepthStencil   string   `toml:"depth_stencil"`
	NoShaderAccess []string `toml:"no_shader_access"`

	// Vertices is the vertex count of the single draw a graphics pass
	// records. Zero records no draw.
	Vertices uint32   `toml:"vertices"`
	// Dispatch is the group count a compute pass dispatches. Missing
	// dimensions default to one.
	Dispatch []uint32 `toml:"dispatch"`
}

// Load decodes a frame file. Unknown keys are rejected.
func Load(r io.Reader) (*File, error) {
	var f File
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("framefile: line %d column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("framefile: %w", err)
	}
	return &f, nil
}

// LoadFile decodes the frame file at path.
func LoadFile(path string) (*File, error) {
	fp, err := os.Open(path) // #nosec G304 -- path is supplied by the caller
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return Load(fp)
}

var formats = map[string]gputypes.TextureFormat{
	"r8unorm":              gputypes.TextureFormatR8Unorm,
	"rgba8unorm":           gputypes.TextureFormatRGBA8Unorm,
	"bgra8unorm":           gputypes.TextureFormatBGRA8Unorm,
	"r32float":             gputypes.TextureFormatR32Float,
	"rgba16float":          gputypes.TextureFormatRGBA16Float,
	"rgba32float":          gputypes.TextureFormatRGBA32Float,
	"depth32float":         gputypes.TextureFormatDepth32Float,
	"depth24plus-stencil8": gputypes.TextureFormatDepth24PlusStencil8,
}

var textureUsages = map[string]framegraph.TextureUsage{
	"shader_resource": framegraph.TextureUsageShaderResource,
	"render_target":   framegraph.TextureUsageRenderTarget,
	"depth_stencil":   framegraph.TextureUsageDepthStencil,
	"storage":         framegraph.TextureUsageStorage,
}

var bufferUsages = map[string]framegraph.BufferUsage{
	"vertex":          framegraph.BufferUsageVertex,
	"index":           framegraph.BufferUsageIndex,
	"constant":        framegraph.BufferUsageConstant,
	"storage":         framegraph.BufferUsageStorage,
	"shader_resource": framegraph.BufferUsageShaderResource,
}

// ParseFormat maps a lower-case WebGPU format name to a texture format.
func ParseFormat(name string) (gputypes.TextureFormat, error) {
	f, ok := formats[strings.ToLower(name)]
	if !ok {
		return gputypes.TextureFormatUndefined, fmt.Errorf("%w %q", ErrUnknownFormat, name)
	}
	return f, nil
}

func (t *Texture) desc() (framegraph.TextureDesc, error) {
	format, err := ParseFormat(t.Format)
	if err != nil {
		return framegraph.TextureDesc{}, fmt.Errorf("texture %q: %w", t.Name, err)
	}
	d := framegraph.TextureDesc{
		Width:     t.Width,
		Height:    t.Height,
		Depth:     t.Depth,
		MipLevels: t.Mips,
		Format:    format,
	}
	for _, u := range t.Usage {
		flag, ok := textureUsages[u]
		if !ok {
			return d, fmt.Errorf("texture %q: %w %q", t.Name, ErrUnknownUsage, u)
		}
		d.Usage |= flag
	}
	return d, nil
}

func (b *Buffer) desc() (framegraph.BufferDesc, error) {
	d := framegraph.BufferDesc{Size: b.Size, Stride: b.Stride}
	for _, u := range b.Usage {
		flag, ok := bufferUsages[u]
		if !ok {
			return d, fmt.Errorf("buffer %q: %w %q", b.Name, ErrUnknownUsage, u)
		}
		d.Usage |= flag
	}
	return d, nil
}

func (p *Pass) passType() (framegraph.PassType, error) {
	switch strings.ToLower(p.Type) {
	case "", "graphics", "raster":
		return framegraph.PassGraphics, nil
	case "compute":
		return framegraph.PassCompute, nil
	}
	return 0, fmt.Errorf("pass %q: %w %q", p.Name, ErrUnknownPassType, p.Type)
}

// names returns every resource name the pass references.
func (p *Pass) names() []string {
	n := make([]string, 0, len(p.Read)+len(p.Write)+len(p.RenderTargets)+len(p.NoShaderAccess)+1)
	n = append(n, p.Read...)
	n = append(n, p.Write...)
	n = append(n, p.RenderTargets...)
	n = append(n, p.NoShaderAccess...)
	if p.DepthStencil != "" {
		n = append(n, p.DepthStencil)
	}
	return n
}

// Named is the external object imported for resources marked external.
type Named string

// Label returns the resource name.
func (n Named) Label() string { return string(n) }

// entry is a declared resource resolved against the file.
type entry struct {
	texture  framegraph.TextureDesc
	buffer   framegraph.BufferDesc
	isBuffer bool
	external bool
}

// Validate checks every name, format, usage and pass type without touching
// a graph.
func (f *File) Validate() error {
	_, err := f.resolve()
	return err
}

func (f *File) resolve() (map[string]*entry, error) {
	decl := make(map[string]*entry, len(f.Textures)+len(f.Buffers))
	var errs []error
	for i := range f.Textures {
		t := &f.Textures[i]
		if _, dup := decl[t.Name]; dup {
			errs = append(errs, fmt.Errorf("%w %q", ErrDuplicateResource, t.Name))
			continue
		}
		d, err := t.desc()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		decl[t.Name] = &entry{texture: d, external: t.External}
	}
	for i := range f.Buffers {
		b := &f.Buffers[i]
		if _, dup := decl[b.Name]; dup {
			errs = append(errs, fmt.Errorf("%w %q", ErrDuplicateResource, b.Name))
			continue
		}
		d, err := b.desc()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		decl[b.Name] = &entry{buffer: d, isBuffer: true, external: b.External}
	}

	switch e, ok := decl[f.Final]; {
	case f.Final == "":
		errs = append(errs, ErrNoFinal)
	case !ok:
		errs = append(errs, fmt.Errorf("final: %w %q", ErrUnknownResource, f.Final))
	case e.isBuffer:
		errs = append(errs, fmt.Errorf("final: %q is a buffer", f.Final))
	}

	for i := range f.Passes {
		p := &f.Passes[i]
		if _, err := p.passType(); err != nil {
			errs = append(errs, err)
		}
		for _, name := range p.names() {
			if _, ok := decl[name]; !ok {
				errs = append(errs, fmt.Errorf("pass %q: %w %q", p.Name, ErrUnknownResource, name))
			}
		}
	}
	return decl, errors.Join(errs...)
}

// builder carries resource handles across the passes of one Build call.
type builder struct {
	decl    map[string]*entry
	handles map[string]framegraph.Resource
}

func (b *builder) handle(pb *framegraph.PassBuilder, name string) framegraph.Resource {
	if r, ok := b.handles[name]; ok {
		return r
	}
	e := b.decl[name]
	var r framegraph.Resource
	if e.isBuffer {
		r = pb.CreateBuffer(name, e.buffer).Resource()
	} else {
		r = pb.CreateTexture(name, e.texture).Resource()
	}
	// Invalid handles are reported by the builder; remembering them keeps
	// later passes from creating the resource a second time.
	b.handles[name] = r
	return r
}

func (b *builder) texture(pb *framegraph.PassBuilder, name string) framegraph.Texture {
	t, _ := b.handle(pb, name).Texture()
	return t
}

// passData is what the recorded callback sees.
type passData struct {
	targets  []framegraph.Texture
	depth    framegraph.Texture
	vertices uint32
	dispatch [3]uint32
}

func (b *builder) setup(p *Pass, pb *framegraph.PassBuilder, data *passData) {
	if p.AllowCulling != nil {
		pb.AllowCulling(*p.AllowCulling)
	}
	noShader := make(map[string]bool, len(p.NoShaderAccess))
	for _, name := range p.NoShaderAccess {
		noShader[name] = true
	}
	use := func(name string, u framegraph.Usage) {
		if noShader[name] {
			u |= framegraph.UsageNoShaderAccess
		}
		pb.UseResource(b.handle(pb, name), u)
	}
	for _, name := range p.Read {
		use(name, framegraph.UsageRead)
	}
	for _, name := range p.Write {
		use(name, framegraph.UsageWrite)
	}
	for _, name := range p.RenderTargets {
		t := b.texture(pb, name)
		pb.UseRenderTarget(t)
		data.targets = append(data.targets, t)
	}
	if p.DepthStencil != "" {
		data.depth = b.texture(pb, p.DepthStencil)
		pb.UseDepthStencil(data.depth)
	}
	data.vertices = p.Vertices
	data.dispatch = [3]uint32{1, 1, 1}
	for i, n := range p.Dispatch {
		if i < len(data.dispatch) && n > 0 {
			data.dispatch[i] = n
		}
	}
}

func recordRaster(cmd *framegraph.RasterCommandBuffer, data *passData) {
	for slot, t := range data.targets {
		cmd.SetRenderTarget(slot, t)
	}
	if data.depth.IsValid() {
		cmd.SetDepthStencil(data.depth)
	}
	if data.vertices > 0 {
		cmd.DrawInstanced(data.vertices, 1, 0, 0)
	}
}

func recordCompute(cmd *framegraph.ComputeCommandBuffer, data *passData) {
	cmd.Dispatch(data.dispatch[0], data.dispatch[1], data.dispatch[2])
}

// Build adds the file's passes to g in order and returns the final
// texture. Nothing is added to g when the file does not validate.
// Descriptor and usage problems the graph itself detects go to the graph's
// error reporter.
func (f *File) Build(g *framegraph.Graph) (framegraph.Texture, error) {
	decl, err := f.resolve()
	if err != nil {
		return framegraph.Texture{}, err
	}
	b := &builder{decl: decl, handles: make(map[string]framegraph.Resource, len(decl))}

	for _, t := range f.Textures {
		if t.External {
			b.handles[t.Name] = g.ImportTexture(Named(t.Name), decl[t.Name].texture).Resource()
		}
	}
	for _, buf := range f.Buffers {
		if buf.External {
			b.handles[buf.Name] = g.ImportBuffer(Named(buf.Name), decl[buf.Name].buffer).Resource()
		}
	}

	for i := range f.Passes {
		p := &f.Passes[i]
		typ, _ := p.passType()
		setup := func(pb *framegraph.PassBuilder, data *passData) { b.setup(p, pb, data) }
		if typ == framegraph.PassCompute {
			framegraph.AddComputePass(g, p.Name, setup, recordCompute)
		} else {
			framegraph.AddRasterPass(g, p.Name, setup, recordRaster)
		}
	}

	// A final texture no pass touches stays invalid; the compiler then
	// culls every cullable pass.
	final, _ := b.handles[f.Final].Texture()
	framegraph.Logger().Debug("framefile: built",
		"passes", len(f.Passes), "resources", len(b.handles), "final", f.Final)
	return final, nil
}
