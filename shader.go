package softgl

import (
	"cogentcore.org/core/math32"
	m32 "github.com/chewxy/math32"
)

// varyingsAlign is the float-count granularity varying slots are padded
// to. Eight floats keeps the interpolation batch on its widest loop.
const varyingsAlign = 8

// alignVaryings rounds a varying float count up to the batch granularity.
func alignVaryings(n int) int {
	if n == 0 {
		return 0
	}
	return (n + varyingsAlign - 1) &^ (varyingsAlign - 1)
}

// UniformDesc is one entry of a shader's static uniform layout table:
// a uniform block or sampler name and its byte offset in the shared
// uniform storage.
type UniformDesc struct {
	Name   string
	Offset int
}

// DerivativeContext exposes the varyings of the four pixels of the
// current quad, the basis for analytic screen-space derivatives.
// P0 is the top-left pixel, P1 top-right, P2 bottom-left, P3 bottom-right.
type DerivativeContext struct {
	P0 []float32
	P1 []float32
	P2 []float32
	P3 []float32
}

// LOD computes the mip level of detail for a sampler whose UV varying
// pair lives at float offset off, against a texture of the given texel
// dimensions: the squared screen-space UV deltas across the quad pick
// the level where one step spans about one texel.
func (dc *DerivativeContext) LOD(off int, w, h float32) float32 {
	if dc.P0 == nil || off+1 >= len(dc.P0) {
		return 0
	}

	dx0 := (dc.P1[off] - dc.P0[off]) * w
	dx1 := (dc.P1[off+1] - dc.P0[off+1]) * h
	dy0 := (dc.P2[off] - dc.P0[off]) * w
	dy1 := (dc.P2[off+1] - dc.P0[off+1]) * h

	d := m32.Max(dx0*dx0+dx1*dx1, dy0*dy0+dy1*dy1)
	return m32.Max(0.5*m32.Log2(d), 0)
}

// Builtins is the per-shader-instance builtin variable block.
type Builtins struct {
	// Position is the vertex stage's clip-space output.
	Position math32.Vector4

	// PointSize is the vertex stage's point sprite size in pixels.
	PointSize float32

	// FragCoord is the fragment stage's window-space input:
	// x, y in pixels, z the interpolated depth, w the interpolated 1/w.
	FragCoord math32.Vector4

	// FrontFacing reports the winding of the covering triangle.
	FrontFacing bool

	// FragColor is the fragment stage's color output.
	FragColor math32.Vector4

	// Discard drops the fragment when set by the fragment stage.
	Discard bool

	// DF is the quad derivative context for texture LOD.
	DF DerivativeContext
}

// Shader is one programmable stage. Implementations are plain Go structs;
// the renderer binds their inputs before each Main invocation.
//
// A vertex shader reads its bound attributes and uniforms and writes
// Builtins.Position (and varyings); a fragment shader reads its bound
// varyings and writes Builtins.FragColor or Builtins.Discard.
type Shader interface {
	// Main executes the stage once.
	Main()

	// BindDefines hands the shader the 0/1 flag array matching Defines().
	BindDefines(defs []byte)

	// BindBuiltins hands the shader its builtin block.
	BindBuiltins(b *Builtins)

	// BindAttributes hands the vertex stage the raw bytes of one vertex.
	BindAttributes(attrs []byte)

	// BindUniforms hands the shader the shared uniform byte storage.
	BindUniforms(block []byte)

	// BindSampler installs a sampler at the slot identified by its
	// uniform descriptor offset.
	BindSampler(offset int, s Sampler)

	// BindVaryings hands the shader its varying slot: the vertex stage
	// writes it, the fragment stage reads it.
	BindVaryings(v []float32)

	// PrepareMain is called once per shading instance before fragment
	// execution; implementations wire their samplers' LOD closures to
	// the builtin derivative context here.
	PrepareMain()

	// Defines lists the symbol names the define flags refer to.
	Defines() []string

	// UniformsDesc is the static uniform layout table.
	UniformsDesc() []UniformDesc

	// UniformsSize is the byte size of the uniform storage.
	UniformsSize() int

	// VaryingsSize is the number of float32 varyings the stage declares.
	VaryingsSize() int

	// Clone returns an independent shading instance. Clones share
	// uniform storage contents by rebinding but own their builtins.
	Clone() Shader
}

// Program pairs a vertex and fragment shader over shared defines and
// uniform storage.
type Program struct {
	id uint32

	vertexShader   Shader
	fragmentShader Shader

	builtins Builtins

	defines       []string
	definesBuffer []byte
	uniformBuffer []byte

	// samplers maps uniform descriptor offsets to bound samplers, the
	// handle-table counterpart of the byte storage.
	samplers map[int]Sampler

	// locationCache caches name to location lookups.
	locationCache map[string]int
}

// newProgram is backed by Renderer.CreateShaderProgram.
func newProgram(id uint32) *Program {
	return &Program{
		id:            id,
		samplers:      map[int]Sampler{},
		locationCache: map[string]int{},
	}
}

// ID returns the renderer-unique program id.
func (p *Program) ID() uint32 { return p.id }

// AddDefine enables a preprocessor-style flag by name. Must be called
// before SetShaders.
func (p *Program) AddDefine(def string) {
	p.defines = append(p.defines, def)
}

// SetShaders installs the stage pair and wires the shared storage:
// the define flags, the builtin block and the uniform bytes.
func (p *Program) SetShaders(vs, fs Shader) bool {
	if vs == nil || fs == nil {
		Logger().Warn("softgl: program requires both shader stages", "program", p.id)
		return false
	}
	p.vertexShader = vs
	p.fragmentShader = fs

	defineDesc := vs.Defines()
	p.definesBuffer = make([]byte, len(defineDesc))
	for _, name := range p.defines {
		for i, d := range defineDesc {
			if d == name {
				p.definesBuffer[i] = 1
			}
		}
	}
	vs.BindDefines(p.definesBuffer)
	fs.BindDefines(p.definesBuffer)

	vs.BindBuiltins(&p.builtins)
	fs.BindBuiltins(&p.builtins)

	p.uniformBuffer = make([]byte, vs.UniformsSize())
	vs.BindUniforms(p.uniformBuffer)
	fs.BindUniforms(p.uniformBuffer)

	return true
}

// Valid reports whether both stages are installed.
func (p *Program) Valid() bool {
	return p != nil && p.vertexShader != nil && p.fragmentShader != nil
}

// Builtins returns the program's builtin block.
func (p *Program) Builtins() *Builtins { return &p.builtins }

// VaryingsSize returns the vertex stage's declared varying float count.
func (p *Program) VaryingsSize() int {
	return p.vertexShader.VaryingsSize()
}

// GetUniformLocation resolves a uniform block or sampler name to its
// location (the index into the descriptor table), or -1. Lookups are
// cached.
func (p *Program) GetUniformLocation(name string) int {
	if loc, ok := p.locationCache[name]; ok {
		return loc
	}
	loc := -1
	for i, desc := range p.vertexShader.UniformsDesc() {
		if desc.Name == name {
			loc = i
			break
		}
	}
	p.locationCache[name] = loc
	return loc
}

// uniformOffset returns the byte offset of a location, or -1.
func (p *Program) uniformOffset(loc int) int {
	desc := p.vertexShader.UniformsDesc()
	if loc < 0 || loc >= len(desc) {
		return -1
	}
	return desc[loc].Offset
}

// bindUniformBlockData copies block bytes into the shared uniform
// storage at the location's offset.
func (p *Program) bindUniformBlockData(data []byte, loc int) {
	off := p.uniformOffset(loc)
	if off < 0 || off+len(data) > len(p.uniformBuffer) {
		Logger().Warn("softgl: uniform block does not fit", "program", p.id, "location", loc, "len", len(data))
		return
	}
	copy(p.uniformBuffer[off:], data)
}

// bindUniformSampler stores a sampler in the slot table and hands it to
// both stages.
func (p *Program) bindUniformSampler(s Sampler, loc int) {
	off := p.uniformOffset(loc)
	if off < 0 {
		return
	}
	p.samplers[off] = s
	p.vertexShader.BindSampler(off, s)
	p.fragmentShader.BindSampler(off, s)
}

// bindVertexAttributes points the vertex stage at one vertex's bytes.
func (p *Program) bindVertexAttributes(attrs []byte) {
	p.vertexShader.BindAttributes(attrs)
}

// bindVertexVaryings points the vertex stage at its varying output slot.
func (p *Program) bindVertexVaryings(v []float32) {
	p.vertexShader.BindVaryings(v)
}

// bindFragmentVaryings points the fragment stage at its varying input.
func (p *Program) bindFragmentVaryings(v []float32) {
	p.fragmentShader.BindVaryings(v)
}

// execVertexShader runs the vertex stage once.
func (p *Program) execVertexShader() {
	p.vertexShader.Main()
}

// execFragmentShader runs the fragment stage once, resetting the
// per-fragment outputs first.
func (p *Program) execFragmentShader() {
	p.builtins.Discard = false
	p.fragmentShader.Main()
}

// prepareFragmentShader lets the fragment stage wire its sampler LOD
// closures against this instance's derivative context.
func (p *Program) prepareFragmentShader() {
	p.fragmentShader.PrepareMain()
}

// CloneForThread produces an independent shading instance for one worker:
// its own builtins, fragment shader clone and sampler state, sharing the
// uniform bytes and texture images with the original. Samplers are
// cloned so each instance's LOD closure reads its own derivative
// context.
func (p *Program) CloneForThread() *Program {
	c := &Program{
		id:             p.id,
		vertexShader:   p.vertexShader,
		fragmentShader: p.fragmentShader.Clone(),
		defines:        p.defines,
		definesBuffer:  p.definesBuffer,
		uniformBuffer:  p.uniformBuffer,
		samplers:       make(map[int]Sampler, len(p.samplers)),
		locationCache:  p.locationCache,
	}
	c.fragmentShader.BindDefines(c.definesBuffer)
	c.fragmentShader.BindBuiltins(&c.builtins)
	c.fragmentShader.BindUniforms(c.uniformBuffer)
	for off, s := range p.samplers {
		cs := cloneSamplerForThread(s)
		c.samplers[off] = cs
		c.fragmentShader.BindSampler(off, cs)
	}
	return c
}

// cloneSamplerForThread copies a sampler's filtering state; the clone
// shares the bound texture image but owns its LOD closure.
func cloneSamplerForThread(s Sampler) Sampler {
	switch v := s.(type) {
	case *Sampler2D[RGBA]:
		c := *v
		return &c
	case *Sampler2D[float32]:
		c := *v
		return &c
	case *SamplerCube[RGBA]:
		c := *v
		return &c
	case *SamplerCube[float32]:
		c := *v
		return &c
	}
	return s
}

// ShaderBase carries the bound-state plumbing shared by shader
// implementations: embed it and implement Main, Defines, UniformsDesc,
// UniformsSize, VaryingsSize and Clone.
type ShaderBase struct {
	Def []byte
	GL  *Builtins
	A   []byte
	U   []byte
	V   []float32
}

// BindDefines implements part of Shader.
func (s *ShaderBase) BindDefines(defs []byte) { s.Def = defs }

// BindBuiltins implements part of Shader.
func (s *ShaderBase) BindBuiltins(b *Builtins) { s.GL = b }

// BindAttributes implements part of Shader.
func (s *ShaderBase) BindAttributes(attrs []byte) { s.A = attrs }

// BindUniforms implements part of Shader.
func (s *ShaderBase) BindUniforms(block []byte) { s.U = block }

// BindVaryings implements part of Shader.
func (s *ShaderBase) BindVaryings(v []float32) { s.V = v }

// BindSampler implements part of Shader; stages without samplers keep
// this no-op.
func (s *ShaderBase) BindSampler(offset int, smp Sampler) {}

// PrepareMain implements part of Shader; stages without derivative-driven
// samplers keep this no-op.
func (s *ShaderBase) PrepareMain() {}

// DefineEnabled reports whether the flag at index i is set.
func (s *ShaderBase) DefineEnabled(i int) bool {
	return i >= 0 && i < len(s.Def) && s.Def[i] != 0
}

// Texture samples an RGBA8 2D sampler and normalizes to [0, 1].
func Texture(s *Sampler2D[RGBA], uv math32.Vector2) math32.Vector4 {
	return rgbaToVec4(s.Texture2D(uv))
}

// TextureFloat samples a float32 2D sampler (depth textures).
func TextureFloat(s *Sampler2D[float32], uv math32.Vector2) float32 {
	return s.Texture2D(uv)
}

// TextureLod samples an RGBA8 2D sampler at an explicit LOD, normalized.
func TextureLod(s *Sampler2D[RGBA], uv math32.Vector2, lod float32) math32.Vector4 {
	return rgbaToVec4(s.Texture2DLod(uv, lod))
}

// TextureLodOffset samples at an explicit LOD with a texel offset,
// normalized.
func TextureLodOffset(s *Sampler2D[RGBA], uv math32.Vector2, lod float32, ox, oy int) math32.Vector4 {
	return rgbaToVec4(s.Texture2DLodOffset(uv, lod, ox, oy))
}

// TextureCube samples an RGBA8 cube sampler along dir, normalized.
func TextureCube(s *SamplerCube[RGBA], dir math32.Vector3) math32.Vector4 {
	return rgbaToVec4(s.TextureCube(dir))
}

// TextureCubeLod samples an RGBA8 cube sampler at an explicit LOD,
// normalized.
func TextureCubeLod(s *SamplerCube[RGBA], dir math32.Vector3, lod float32) math32.Vector4 {
	return rgbaToVec4(s.TextureCubeLod(dir, lod))
}

// TextureSize returns the texel dimensions of a mip level.
func TextureSize[T Texel](s *Sampler2D[T], lod int) (int, int) {
	return s.LevelSize(lod)
}

// SamplerLOD builds the standard derivative-driven LOD closure for a 2D
// sampler: fragment shaders call this from PrepareMain for each sampler
// whose UV varying offset has been registered.
func SamplerLOD[T Texel](b *Builtins, s *Sampler2D[T]) func() float32 {
	return func() float32 {
		w, h := s.Size()
		return b.DF.LOD(s.DerivativeOffset(), float32(w), float32(h))
	}
}

func rgbaToVec4(c RGBA) math32.Vector4 {
	return math32.Vec4(
		float32(c[0])/255,
		float32(c[1])/255,
		float32(c[2])/255,
		float32(c[3])/255,
	)
}
