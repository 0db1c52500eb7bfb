package softgl

import (
	"encoding/binary"
	"math"

	"cogentcore.org/core/math32"
)

// float32At reads the little-endian float32 at byte offset off.
func float32At(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

// putFloat32 appends a little-endian float32.
func putFloat32(b []byte, v float32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	return append(b, tmp[:]...)
}

// vec4Bytes encodes a color as 16 uniform bytes.
func vec4Bytes(v math32.Vector4) []byte {
	b := make([]byte, 0, 16)
	b = putFloat32(b, v.X)
	b = putFloat32(b, v.Y)
	b = putFloat32(b, v.Z)
	b = putFloat32(b, v.W)
	return b
}

// flatVertexShader reads a vec4 position attribute and passes it through
// to clip space.
type flatVertexShader struct {
	ShaderBase
}

func (s *flatVertexShader) Main() {
	s.GL.Position = math32.Vec4(
		float32At(s.A, 0),
		float32At(s.A, 4),
		float32At(s.A, 8),
		float32At(s.A, 12),
	)
}

func (s *flatVertexShader) Defines() []string          { return nil }
func (s *flatVertexShader) UniformsDesc() []UniformDesc { return flatUniformsDesc }
func (s *flatVertexShader) UniformsSize() int           { return 16 }
func (s *flatVertexShader) VaryingsSize() int           { return 0 }
func (s *flatVertexShader) Clone() Shader               { c := *s; return &c }

var flatUniformsDesc = []UniformDesc{{Name: "UniformColor", Offset: 0}}

// flatFragmentShader outputs the color from its uniform block.
type flatFragmentShader struct {
	ShaderBase
}

func (s *flatFragmentShader) Main() {
	s.GL.FragColor = math32.Vec4(
		float32At(s.U, 0),
		float32At(s.U, 4),
		float32At(s.U, 8),
		float32At(s.U, 12),
	)
}

func (s *flatFragmentShader) Defines() []string          { return nil }
func (s *flatFragmentShader) UniformsDesc() []UniformDesc { return flatUniformsDesc }
func (s *flatFragmentShader) UniformsSize() int           { return 16 }
func (s *flatFragmentShader) VaryingsSize() int           { return 0 }
func (s *flatFragmentShader) Clone() Shader               { c := *s; return &c }

// varyingVertexShader reads vec4 position plus one scalar attribute and
// forwards the scalar as a varying.
type varyingVertexShader struct {
	ShaderBase
}

func (s *varyingVertexShader) Main() {
	s.GL.Position = math32.Vec4(
		float32At(s.A, 0),
		float32At(s.A, 4),
		float32At(s.A, 8),
		float32At(s.A, 12),
	)
	s.V[0] = float32At(s.A, 16)
}

func (s *varyingVertexShader) Defines() []string          { return nil }
func (s *varyingVertexShader) UniformsDesc() []UniformDesc { return nil }
func (s *varyingVertexShader) UniformsSize() int           { return 0 }
func (s *varyingVertexShader) VaryingsSize() int           { return 1 }
func (s *varyingVertexShader) Clone() Shader               { c := *s; return &c }

// varyingFragmentShader writes the interpolated scalar varying to the
// red channel.
type varyingFragmentShader struct {
	ShaderBase
}

func (s *varyingFragmentShader) Main() {
	s.GL.FragColor = math32.Vec4(s.V[0], 0, 0, 1)
}

func (s *varyingFragmentShader) Defines() []string          { return nil }
func (s *varyingFragmentShader) UniformsDesc() []UniformDesc { return nil }
func (s *varyingFragmentShader) UniformsSize() int           { return 0 }
func (s *varyingFragmentShader) VaryingsSize() int           { return 1 }
func (s *varyingFragmentShader) Clone() Shader               { c := *s; return &c }

// texturedVertexShader reads vec4 position plus vec2 uv and forwards the
// uv as varyings 0 and 1.
type texturedVertexShader struct {
	ShaderBase
}

func (s *texturedVertexShader) Main() {
	s.GL.Position = math32.Vec4(
		float32At(s.A, 0),
		float32At(s.A, 4),
		float32At(s.A, 8),
		float32At(s.A, 12),
	)
	s.V[0] = float32At(s.A, 16)
	s.V[1] = float32At(s.A, 20)
}

func (s *texturedVertexShader) Defines() []string          { return nil }
func (s *texturedVertexShader) UniformsDesc() []UniformDesc { return texturedUniformsDesc }
func (s *texturedVertexShader) UniformsSize() int           { return 8 }
func (s *texturedVertexShader) VaryingsSize() int           { return 2 }
func (s *texturedVertexShader) Clone() Shader               { c := *s; return &c }

var texturedUniformsDesc = []UniformDesc{{Name: "SamplerAlbedo", Offset: 0}}

// texturedFragmentShader samples an RGBA texture at the interpolated uv,
// with derivative-driven LOD.
type texturedFragmentShader struct {
	ShaderBase

	albedo *Sampler2D[RGBA]
}

func (s *texturedFragmentShader) Main() {
	uv := math32.Vec2(s.V[0], s.V[1])
	s.GL.FragColor = Texture(s.albedo, uv)
}

func (s *texturedFragmentShader) BindSampler(offset int, smp Sampler) {
	if offset == 0 {
		if s2d, ok := smp.(*Sampler2D[RGBA]); ok {
			s.albedo = s2d
			s.albedo.SetDerivativeOffset(0)
		}
	}
}

func (s *texturedFragmentShader) PrepareMain() {
	if s.albedo != nil {
		s.albedo.SetLODFunc(SamplerLOD(s.GL, s.albedo))
	}
}

func (s *texturedFragmentShader) Defines() []string          { return nil }
func (s *texturedFragmentShader) UniformsDesc() []UniformDesc { return texturedUniformsDesc }
func (s *texturedFragmentShader) UniformsSize() int           { return 8 }
func (s *texturedFragmentShader) VaryingsSize() int           { return 2 }
func (s *texturedFragmentShader) Clone() Shader               { c := *s; return &c }

// discardFragmentShader discards every fragment.
type discardFragmentShader struct {
	ShaderBase
}

func (s *discardFragmentShader) Main() {
	s.GL.Discard = true
}

func (s *discardFragmentShader) Defines() []string          { return nil }
func (s *discardFragmentShader) UniformsDesc() []UniformDesc { return nil }
func (s *discardFragmentShader) UniformsSize() int           { return 0 }
func (s *discardFragmentShader) VaryingsSize() int           { return 0 }
func (s *discardFragmentShader) Clone() Shader               { c := *s; return &c }
