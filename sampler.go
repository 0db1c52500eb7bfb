package softgl

import (
	"cogentcore.org/core/math32"
	m32 "github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgl/buffer"
)

// Sampler is the binding side of a texture unit: samplers of either
// dimensionality accept a texture and adopt its sampling description.
type Sampler interface {
	Kind() TextureKind
	SetTexture(*Texture)
}

// coordMod wraps a coordinate into [0, n): a bitwise AND for power-of-two
// sizes, a positive modulo otherwise.
func coordMod(i, n int) int {
	if n&(n-1) == 0 {
		return ((i & (n - 1)) + n) & (n - 1)
	}
	return ((i % n) + n) % n
}

// coordMirror reflects a negative coordinate across zero.
func coordMirror(i int) int {
	if i >= 0 {
		return i
	}
	return -1 - i
}

// pixelWithWrapMode fetches the texel at (x, y), applying the wrap mode
// to out-of-range coordinates. Never fails: border and zero are returned
// per mode.
func pixelWithWrapMode[T Texel](buf *buffer.Buffer[T], x, y int, wrap gputypes.AddressMode, border T) T {
	w := buf.Width()
	h := buf.Height()

	switch wrap {
	case gputypes.AddressModeRepeat:
		x = coordMod(x, w)
		y = coordMod(y, h)

	case gputypes.AddressModeMirrorRepeat:
		x = coordMod(x, 2*w)
		y = coordMod(y, 2*h)
		x -= w
		y -= h
		x = coordMirror(x)
		y = coordMirror(y)
		x = w - 1 - x
		y = h - 1 - y

	case gputypes.AddressModeClampToEdge:
		if x < 0 {
			x = 0
		}
		if y < 0 {
			y = 0
		}
		if x >= w {
			x = w - 1
		}
		if y >= h {
			y = h - 1
		}

	case AddressModeClampToBorder:
		if x < 0 || x >= w || y < 0 || y >= h {
			return border
		}
	}

	return buf.Get(x, y)
}

// sampleNearest fetches the texel containing uv scaled to texel space.
func sampleNearest[T Texel](buf *buffer.Buffer[T], u, v float32, wrap gputypes.AddressMode, ox, oy int, border T) T {
	x := int(m32.Floor(u*float32(buf.Width()))) + ox
	y := int(m32.Floor(v*float32(buf.Height()))) + oy
	return pixelWithWrapMode(buf, x, y, wrap, border)
}

// sampleBilinear filters the four texels around uv in texel space.
func sampleBilinear[T Texel](buf *buffer.Buffer[T], u, v float32, wrap gputypes.AddressMode, ox, oy int, border T) T {
	fu := u*float32(buf.Width()) + float32(ox)
	fv := v*float32(buf.Height()) + float32(oy)
	return samplePixelBilinear(buf, fu, fv, wrap, border)
}

// samplePixelBilinear filters around a texel-space position. The half
// texel shift centers the filter footprint on the sample point.
func samplePixelBilinear[T Texel](buf *buffer.Buffer[T], fu, fv float32, wrap gputypes.AddressMode, border T) T {
	x := int(m32.Floor(fu - 0.5))
	y := int(m32.Floor(fv - 0.5))

	s1 := pixelWithWrapMode(buf, x, y, wrap, border)
	s2 := pixelWithWrapMode(buf, x+1, y, wrap, border)
	s3 := pixelWithWrapMode(buf, x, y+1, wrap, border)
	s4 := pixelWithWrapMode(buf, x+1, y+1, wrap, border)

	fx := fract(fu - 0.5)
	fy := fract(fv - 0.5)
	return texelLerp(texelLerp(s1, s2, fx), texelLerp(s3, s4, fx), fy)
}

func fract(v float32) float32 {
	return v - m32.Floor(v)
}

// sampleBufferBilinear downsamples src into dst with a bilinear filter,
// clamping to edge. Used by mipmap generation.
func sampleBufferBilinear[T Texel](dst, src *buffer.Buffer[T], border T) {
	ratioX := float32(src.Width()) / float32(dst.Width())
	ratioY := float32(src.Height()) / float32(dst.Height())
	deltaX := 0.5 * ratioX
	deltaY := 0.5 * ratioY

	for y := 0; y < dst.Height(); y++ {
		for x := 0; x < dst.Width(); x++ {
			fu := float32(x)*ratioX + deltaX
			fv := float32(y)*ratioY + deltaY
			dst.Set(x, y, samplePixelBilinear(src, fu, fv, gputypes.AddressModeClampToEdge, border))
		}
	}
}

// generateMipmaps rebuilds the level pyramid from level 0: each level is
// the ceiling half size of the previous, stopping once a dimension
// reaches 2. When sample is set, each level is bilinearly downsampled
// from the one above it.
func generateMipmaps[T Texel](img *TextureImage[T], sample bool) {
	if img.Empty() {
		return
	}

	w := img.Width()
	h := img.Height()
	img.Levels = img.Levels[:1]

	for w > 2 && h > 2 {
		w = max((w+1)/2, 1)
		h = max((h+1)/2, 1)
		img.Levels = append(img.Levels, NewImageBuffer[T](w, h, 1))
	}

	if !sample {
		return
	}

	var border T
	for i := 1; i < len(img.Levels); i++ {
		sampleBufferBilinear(img.Levels[i].Buf, img.Levels[i-1].Buf, border)
	}
}

// samplerState is the filtering state shared by 2D and cube samplers.
type samplerState[T Texel] struct {
	border     T
	width      int
	height     int
	useMipmaps bool
	wrapMode   gputypes.AddressMode
	filterMode FilterMode
	lodFunc    func() float32
}

// textureImpl dispatches a sample to the right level(s) per the filter
// mode. A mipmap filter on an unbuilt chain triggers lazy generation.
func (s *samplerState[T]) textureImpl(img *TextureImage[T], u, v float32, lod float32, ox, oy int) T {
	var zero T
	if img.Empty() {
		return zero
	}

	switch s.filterMode {
	case FilterNearest:
		return sampleNearest(img.Levels[0].Buf, u, v, s.wrapMode, ox, oy, s.border)
	case FilterLinear:
		return sampleBilinear(img.Levels[0].Buf, u, v, s.wrapMode, ox, oy, s.border)
	}

	if !img.HasMipmaps() {
		img.GenerateMipmap(true)
	}
	maxLevel := len(img.Levels) - 1

	switch s.filterMode {
	case FilterNearestMipmapNearest, FilterLinearMipmapNearest:
		level := clampInt(int(m32.Ceil(lod+0.5))-1, 0, maxLevel)
		if s.filterMode == FilterNearestMipmapNearest {
			return sampleNearest(img.Levels[level].Buf, u, v, s.wrapMode, ox, oy, s.border)
		}
		return sampleBilinear(img.Levels[level].Buf, u, v, s.wrapMode, ox, oy, s.border)

	case FilterNearestMipmapLinear, FilterLinearMipmapLinear:
		levelHi := clampInt(int(m32.Floor(lod)), 0, maxLevel)
		levelLo := clampInt(levelHi+1, 0, maxLevel)

		var texelHi, texelLo T
		if s.filterMode == FilterNearestMipmapLinear {
			texelHi = sampleNearest(img.Levels[levelHi].Buf, u, v, s.wrapMode, ox, oy, s.border)
		} else {
			texelHi = sampleBilinear(img.Levels[levelHi].Buf, u, v, s.wrapMode, ox, oy, s.border)
		}
		if levelHi == levelLo {
			return texelHi
		}
		if s.filterMode == FilterNearestMipmapLinear {
			texelLo = sampleNearest(img.Levels[levelLo].Buf, u, v, s.wrapMode, ox, oy, s.border)
		} else {
			texelLo = sampleBilinear(img.Levels[levelLo].Buf, u, v, s.wrapMode, ox, oy, s.border)
		}
		return texelLerp(texelHi, texelLo, fract(lod))
	}

	return zero
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sampler2D samples a 2D texture image of texel type T.
type Sampler2D[T Texel] struct {
	samplerState[T]

	img *TextureImage[T]
	tex *Texture

	// derivOffset is the float index of the UV varying pair whose
	// screen-space derivatives drive this sampler's LOD.
	derivOffset int
}

// NewSampler2D returns an unbound 2D sampler.
func NewSampler2D[T Texel]() *Sampler2D[T] {
	return &Sampler2D[T]{samplerState: samplerState[T]{
		wrapMode:   gputypes.AddressModeClampToEdge,
		filterMode: FilterLinear,
	}}
}

// Kind implements Sampler.
func (s *Sampler2D[T]) Kind() TextureKind { return TextureKind2D }

// SetTexture binds a texture: the sampler adopts its image, border color,
// FilterMin filter and WrapS wrap mode. WrapS applies to both u and v; the
// other filter and wrap fields of the sampler description are not read.
func (s *Sampler2D[T]) SetTexture(tex *Texture) {
	if tex == nil {
		s.tex = nil
		s.img = nil
		s.width = 0
		s.height = 0
		return
	}
	s.tex = tex
	s.border = texelFromVec4[T](tex.borderColor())
	s.filterMode = tex.samplerDesc.FilterMin
	s.wrapMode = tex.samplerDesc.WrapS
	s.useMipmaps = s.filterMode.UsesMipmaps()

	s.img = nil
	switch any(s.border).(type) {
	case RGBA:
		if img, ok := any(tex.imageRGBA(0)).(*TextureImage[T]); ok && img != nil {
			s.img = img
		}
	case float32:
		if img, ok := any(tex.imageFloat(0)).(*TextureImage[T]); ok && img != nil {
			s.img = img
		}
	}
	if s.img == nil {
		Logger().Warn("softgl: sampler/texture format mismatch", "texture", tex.id)
		s.width = 0
		s.height = 0
		return
	}
	s.width = s.img.Width()
	s.height = s.img.Height()
}

// Texture returns the bound texture, or nil.
func (s *Sampler2D[T]) Texture() *Texture { return s.tex }

// Empty reports whether no texture is bound.
func (s *Sampler2D[T]) Empty() bool { return s.img.Empty() }

// Size returns the level-0 dimensions.
func (s *Sampler2D[T]) Size() (int, int) { return s.width, s.height }

// LevelSize returns the dimensions of a mip level.
func (s *Sampler2D[T]) LevelSize(level int) (int, int) {
	if s.img.Empty() {
		return 0, 0
	}
	if lv := s.img.Level(level); lv != nil {
		return lv.Width, lv.Height
	}
	return 0, 0
}

// SetLODFunc installs the closure that produces the derivative-based LOD.
// The shader execution model installs one per quad context.
func (s *Sampler2D[T]) SetLODFunc(fn func() float32) { s.lodFunc = fn }

// SetDerivativeOffset records the float offset of the UV varying driving
// this sampler's LOD.
func (s *Sampler2D[T]) SetDerivativeOffset(off int) { s.derivOffset = off }

// DerivativeOffset returns the registered UV varying offset.
func (s *Sampler2D[T]) DerivativeOffset() int { return s.derivOffset }

// Texture2D samples with the implicit derivative-driven LOD.
func (s *Sampler2D[T]) Texture2D(uv math32.Vector2) T {
	return s.Texture2DBias(uv, 0)
}

// Texture2DBias samples with the implicit LOD plus a bias.
func (s *Sampler2D[T]) Texture2DBias(uv math32.Vector2, bias float32) T {
	lod := bias
	if s.useMipmaps && s.lodFunc != nil {
		lod += s.lodFunc()
	}
	return s.Texture2DLod(uv, lod)
}

// Texture2DLod samples at an explicit level of detail.
func (s *Sampler2D[T]) Texture2DLod(uv math32.Vector2, lod float32) T {
	return s.textureImpl(s.img, uv.X, uv.Y, lod, 0, 0)
}

// Texture2DLodOffset samples at an explicit LOD with a texel offset.
func (s *Sampler2D[T]) Texture2DLodOffset(uv math32.Vector2, lod float32, ox, oy int) T {
	return s.textureImpl(s.img, uv.X, uv.Y, lod, ox, oy)
}

// SamplerCube samples a six-face cube map of texel type T. Per-face
// sampling always clamps to edge.
type SamplerCube[T Texel] struct {
	samplerState[T]

	imgs [cubeMapFaceCount]*TextureImage[T]
	tex  *Texture
}

// NewSamplerCube returns an unbound cube sampler.
func NewSamplerCube[T Texel]() *SamplerCube[T] {
	return &SamplerCube[T]{samplerState: samplerState[T]{
		wrapMode:   gputypes.AddressModeClampToEdge,
		filterMode: FilterLinear,
	}}
}

// Kind implements Sampler.
func (s *SamplerCube[T]) Kind() TextureKind { return TextureKindCube }

// SetTexture binds a cube texture.
func (s *SamplerCube[T]) SetTexture(tex *Texture) {
	if tex == nil {
		s.tex = nil
		s.imgs = [cubeMapFaceCount]*TextureImage[T]{}
		return
	}
	s.tex = tex
	s.border = texelFromVec4[T](tex.borderColor())
	s.filterMode = tex.samplerDesc.FilterMin
	s.useMipmaps = s.filterMode.UsesMipmaps()
	// Cube faces never wrap across edges.
	s.wrapMode = gputypes.AddressModeClampToEdge

	for i := 0; i < cubeMapFaceCount; i++ {
		s.imgs[i] = nil
		switch any(s.border).(type) {
		case RGBA:
			if img, ok := any(tex.imageRGBA(i)).(*TextureImage[T]); ok && img != nil {
				s.imgs[i] = img
			}
		case float32:
			if img, ok := any(tex.imageFloat(i)).(*TextureImage[T]); ok && img != nil {
				s.imgs[i] = img
			}
		}
	}
	if s.imgs[0] == nil {
		Logger().Warn("softgl: sampler/texture format mismatch", "texture", tex.id)
		s.width = 0
		s.height = 0
		return
	}
	s.width = s.imgs[0].Width()
	s.height = s.imgs[0].Height()
}

// Empty reports whether no texture is bound.
func (s *SamplerCube[T]) Empty() bool { return s.imgs[0].Empty() }

// TextureCube samples along a direction vector.
func (s *SamplerCube[T]) TextureCube(dir math32.Vector3) T {
	// Cube samplers have no derivative-driven LOD.
	return s.TextureCubeLod(dir, 0)
}

// TextureCubeLod samples along a direction at an explicit LOD.
func (s *SamplerCube[T]) TextureCubeLod(dir math32.Vector3, lod float32) T {
	face, u, v := cubeDirectionToUV(dir.X, dir.Y, dir.Z)
	img := s.imgs[face]
	var zero T
	if img.Empty() {
		return zero
	}
	return s.textureImpl(img, u, v, lod, 0, 0)
}

// cubeDirectionToUV maps a direction to a cube face and face-local UV in
// [0, 1]. The face is the axis of largest magnitude; ties resolve in
// X, Y, Z order. V is flipped before the final remap so face images read
// top-down.
func cubeDirectionToUV(x, y, z float32) (face CubeMapFace, u, v float32) {
	absX := m32.Abs(x)
	absY := m32.Abs(y)
	absZ := m32.Abs(z)

	var maxAxis, uc, vc float32

	switch {
	case x > 0 && absX >= absY && absX >= absZ:
		maxAxis, uc, vc = absX, -z, y
		face = CubeMapPositiveX
	case x <= 0 && absX >= absY && absX >= absZ:
		maxAxis, uc, vc = absX, z, y
		face = CubeMapNegativeX
	case y > 0 && absY >= absX && absY >= absZ:
		maxAxis, uc, vc = absY, x, -z
		face = CubeMapPositiveY
	case y <= 0 && absY >= absX && absY >= absZ:
		maxAxis, uc, vc = absY, x, z
		face = CubeMapNegativeY
	case z > 0 && absZ >= absX && absZ >= absY:
		maxAxis, uc, vc = absZ, x, y
		face = CubeMapPositiveZ
	default:
		maxAxis, uc, vc = absZ, -x, y
		face = CubeMapNegativeZ
	}

	// Flip v, then remap [-1, 1] to [0, 1].
	vc = -vc
	u = 0.5 * (uc/maxAxis + 1)
	v = 0.5 * (vc/maxAxis + 1)
	return face, u, v
}
