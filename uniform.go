package softgl

import "github.com/gogpu/gputypes"

// UniformBlock is caller-owned uniform byte storage bound to a program
// by name. Its layout (size, field offsets) is fixed by the shader's
// declared uniform table.
type UniformBlock struct {
	name   string
	buffer []byte
}

// newUniformBlock is backed by Renderer.CreateUniformBlock.
func newUniformBlock(name string, size int) *UniformBlock {
	return &UniformBlock{name: name, buffer: make([]byte, size)}
}

// Name returns the block's shader-visible name.
func (u *UniformBlock) Name() string { return u.name }

// SetData copies data to the start of the block.
func (u *UniformBlock) SetData(data []byte) {
	copy(u.buffer, data)
}

// SetSubData copies data into the block at a byte offset. Writes that
// would overflow the block log and are dropped.
func (u *UniformBlock) SetSubData(data []byte, offset int) {
	if offset < 0 || offset+len(data) > len(u.buffer) {
		Logger().Warn("softgl: uniform sub-data out of range",
			"block", u.name, "offset", offset, "len", len(data), "size", len(u.buffer))
		return
	}
	copy(u.buffer[offset:], data)
}

// bindProgram copies the block contents into the program's uniform
// storage at the resolved location.
func (u *UniformBlock) bindProgram(p *Program, loc int) {
	p.bindUniformBlockData(u.buffer, loc)
}

// UniformSampler is a named sampler binding: texture kind, format and
// the texture handle currently attached.
type UniformSampler struct {
	name   string
	kind   TextureKind
	format gputypes.TextureFormat

	sampler Sampler
}

// newUniformSampler is backed by Renderer.CreateUniformSampler. The
// concrete sampler variant follows the kind/format pair.
func newUniformSampler(name string, kind TextureKind, format gputypes.TextureFormat) *UniformSampler {
	u := &UniformSampler{name: name, kind: kind, format: format}

	switch kind {
	case TextureKindCube:
		switch format {
		case gputypes.TextureFormatDepth32Float:
			u.sampler = NewSamplerCube[float32]()
		default:
			u.sampler = NewSamplerCube[RGBA]()
		}
	default:
		switch format {
		case gputypes.TextureFormatDepth32Float:
			u.sampler = NewSampler2D[float32]()
		default:
			u.sampler = NewSampler2D[RGBA]()
		}
	}
	return u
}

// Name returns the sampler's shader-visible name.
func (u *UniformSampler) Name() string { return u.name }

// Sampler returns the concrete sampler for shader-side binding.
func (u *UniformSampler) Sampler() Sampler { return u.sampler }

// SetTexture attaches a texture to the sampler.
func (u *UniformSampler) SetTexture(t *Texture) {
	u.sampler.SetTexture(t)
}

// bindProgram stores the sampler in the program's slot table.
func (u *UniformSampler) bindProgram(p *Program, loc int) {
	p.bindUniformSampler(u.sampler, loc)
}

// ShaderUniforms is the full resource set bound before a draw: uniform
// blocks and samplers, both keyed by shader-visible name.
type ShaderUniforms struct {
	Blocks   map[string]*UniformBlock
	Samplers map[string]*UniformSampler
}

// NewShaderUniforms returns an empty resource set.
func NewShaderUniforms() *ShaderUniforms {
	return &ShaderUniforms{
		Blocks:   map[string]*UniformBlock{},
		Samplers: map[string]*UniformSampler{},
	}
}

// BindUniforms resolves and binds every block and sampler to the program.
// Names the program does not declare are skipped.
func (p *Program) BindUniforms(u *ShaderUniforms) {
	if u == nil || !p.Valid() {
		return
	}
	for name, block := range u.Blocks {
		if loc := p.GetUniformLocation(name); loc >= 0 {
			block.bindProgram(p, loc)
		}
	}
	for name, sampler := range u.Samplers {
		if loc := p.GetUniformLocation(name); loc >= 0 {
			sampler.bindProgram(p, loc)
		}
	}
}
