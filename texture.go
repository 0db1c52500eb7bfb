package softgl

import (
	"image"
	"image/png"
	"os"

	"cogentcore.org/core/math32"
	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/softgl/buffer"
)

// msaaSampleCount is the only supported multisample count.
const msaaSampleCount = 4

// TextureKind distinguishes 2D textures from cube maps.
type TextureKind uint8

const (
	// TextureKind2D is a single-image texture.
	TextureKind2D TextureKind = iota

	// TextureKindCube is a six-face cube map.
	TextureKindCube
)

// CubeMapFace identifies one face of a cube map, in the canonical order.
type CubeMapFace uint8

const (
	CubeMapPositiveX CubeMapFace = iota
	CubeMapNegativeX
	CubeMapPositiveY
	CubeMapNegativeY
	CubeMapPositiveZ
	CubeMapNegativeZ

	cubeMapFaceCount = 6
)

// TextureUsage is a bit set describing how a texture participates in
// rendering.
type TextureUsage uint32

const (
	TextureUsageSampler TextureUsage = 1 << iota
	TextureUsageUploadData
	TextureUsageAttachmentColor
	TextureUsageAttachmentDepth
	TextureUsageRendererOutput
)

// BorderColor selects the color returned by clamp-to-border sampling.
type BorderColor uint8

const (
	BorderBlack BorderColor = iota
	BorderWhite
)

// AddressModeClampToBorder extends gputypes.AddressMode with the border
// wrap mode, which WebGPU itself does not define. Out-of-range samples
// return the sampler's BorderColor.
const AddressModeClampToBorder = gputypes.AddressMode(255)

// FilterMode is the GL-style minification/magnification filter, covering
// the in-level filter and the across-level mipmap filter in one value.
type FilterMode uint8

const (
	FilterNearest FilterMode = iota
	FilterLinear
	FilterNearestMipmapNearest
	FilterLinearMipmapNearest
	FilterNearestMipmapLinear
	FilterLinearMipmapLinear
)

// UsesMipmaps reports whether the filter samples from the mip chain.
func (f FilterMode) UsesMipmaps() bool { return f > FilterLinear }

// LevelFilter returns the in-level texel filter.
func (f FilterMode) LevelFilter() gputypes.FilterMode {
	switch f {
	case FilterLinear, FilterLinearMipmapNearest, FilterLinearMipmapLinear:
		return gputypes.FilterModeLinear
	default:
		return gputypes.FilterModeNearest
	}
}

// MipmapFilter returns the across-level filter; meaningless for the two
// non-mipmap modes.
func (f FilterMode) MipmapFilter() gputypes.FilterMode {
	switch f {
	case FilterNearestMipmapLinear, FilterLinearMipmapLinear:
		return gputypes.FilterModeLinear
	default:
		return gputypes.FilterModeNearest
	}
}

// SamplerDesc describes how a texture is sampled.
type SamplerDesc struct {
	FilterMin FilterMode
	FilterMag FilterMode

	WrapS gputypes.AddressMode
	WrapT gputypes.AddressMode
	WrapR gputypes.AddressMode

	BorderColor BorderColor
}

// NewSamplerDesc returns the default sampler: nearest filtering,
// clamp-to-edge on all axes, black border.
func NewSamplerDesc() SamplerDesc {
	return SamplerDesc{
		FilterMin: FilterNearest,
		FilterMag: FilterNearest,
		WrapS:     gputypes.AddressModeClampToEdge,
		WrapT:     gputypes.AddressModeClampToEdge,
		WrapR:     gputypes.AddressModeClampToEdge,
	}
}

// TextureDesc describes a texture at creation time.
type TextureDesc struct {
	Width  int
	Height int
	Kind   TextureKind

	// Format is TextureFormatRGBA8Unorm for color or
	// TextureFormatDepth32Float for depth.
	Format gputypes.TextureFormat

	Usage       TextureUsage
	UseMipmaps  bool
	MultiSample bool
}

// RGBA is a color texel: one byte per channel.
type RGBA [4]uint8

// Texel constrains the element types a texture image can store.
type Texel interface {
	RGBA | float32
}

// texelLerp linearly interpolates two texels. RGBA channels interpolate
// in float and truncate back to bytes, matching GPU unorm filtering.
func texelLerp[T Texel](a, b T, t float32) T {
	switch av := any(a).(type) {
	case RGBA:
		bv := any(b).(RGBA)
		var out RGBA
		for i := range out {
			out[i] = uint8(float32(av[i]) + (float32(bv[i])-float32(av[i]))*t)
		}
		return any(out).(T)
	case float32:
		bv := any(b).(float32)
		return any(av + (bv-av)*t).(T)
	}
	var zero T
	return zero
}

// texelFromVec4 converts a [0, 1] color to a texel. For float32 texels
// only the first component is kept (depth).
func texelFromVec4[T Texel](c math32.Vector4) T {
	var zero T
	switch any(zero).(type) {
	case RGBA:
		out := RGBA{
			uint8(clamp01(c.X) * 255),
			uint8(clamp01(c.Y) * 255),
			uint8(clamp01(c.Z) * 255),
			uint8(clamp01(c.W) * 255),
		}
		return any(out).(T)
	case float32:
		return any(clamp01(c.X)).(T)
	}
	return zero
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ImageBuffer is one allocation of a texture level or attachment: a
// single-sample buffer, or a 4-sample buffer when multisampled. A
// multisampled image starts with only BufMS; multisample resolve allocates
// Buf on first use and writes the averaged samples into it.
type ImageBuffer[T Texel] struct {
	Buf   *buffer.Buffer[T]
	BufMS *buffer.Buffer[[msaaSampleCount]T]

	Width       int
	Height      int
	MultiSample bool
	Samples     int
}

// NewImageBuffer allocates an image buffer. Only 1 and 4 samples are
// supported; other counts log and fall back to single-sample.
func NewImageBuffer[T Texel](w, h, samples int) *ImageBuffer[T] {
	ib := &ImageBuffer[T]{
		Width:       w,
		Height:      h,
		MultiSample: samples > 1,
		Samples:     samples,
	}

	switch samples {
	case 1:
		ib.Buf, _ = buffer.NewLinear[T](w, h)
	case msaaSampleCount:
		ib.BufMS, _ = buffer.NewLinear[[msaaSampleCount]T](w, h)
	default:
		Logger().Warn("softgl: unsupported sample count, using 1", "samples", samples)
		ib.MultiSample = false
		ib.Samples = 1
		ib.Buf, _ = buffer.NewLinear[T](w, h)
	}
	return ib
}

// NewImageBufferFrom wraps an existing single-sample buffer.
func NewImageBufferFrom[T Texel](buf *buffer.Buffer[T]) *ImageBuffer[T] {
	return &ImageBuffer[T]{
		Buf:     buf,
		Width:   buf.Width(),
		Height:  buf.Height(),
		Samples: 1,
	}
}

// TextureImage is an ordered mip chain. Level 0 holds the base image;
// each following level is the ceiling half size of the previous, until
// either dimension is 2 or smaller.
type TextureImage[T Texel] struct {
	Levels []*ImageBuffer[T]
}

// Width returns the base (level 0) width, or 0 when empty.
func (img *TextureImage[T]) Width() int {
	if img.Empty() {
		return 0
	}
	return img.Levels[0].Width
}

// Height returns the base (level 0) height, or 0 when empty.
func (img *TextureImage[T]) Height() int {
	if img.Empty() {
		return 0
	}
	return img.Levels[0].Height
}

// Empty reports whether the image has no levels.
func (img *TextureImage[T]) Empty() bool {
	return img == nil || len(img.Levels) == 0
}

// Level returns the image buffer at the given mip level, or nil when out
// of range.
func (img *TextureImage[T]) Level(n int) *ImageBuffer[T] {
	if n < 0 || n >= len(img.Levels) {
		return nil
	}
	return img.Levels[n]
}

// HasMipmaps reports whether the chain extends past level 0.
func (img *TextureImage[T]) HasMipmaps() bool {
	return len(img.Levels) > 1
}

// GenerateMipmap (re)builds the mip pyramid from level 0. When sample is
// false only the level allocations are made (attachment textures whose
// contents are rendered, not downsampled). Idempotent: regenerating
// replaces all levels past 0.
func (img *TextureImage[T]) GenerateMipmap(sample bool) {
	generateMipmaps(img, sample)
}

// Texture is a renderer-owned image resource: a 2D image or a cube map,
// in RGBA8 or float32 form, optionally mipmapped or multisampled.
type Texture struct {
	TextureDesc

	id          uint32
	samplerDesc SamplerDesc

	// Exactly one of the two image sets is populated, per Format.
	// 2D textures use index 0; cube maps use the six face indices.
	imagesRGBA  []TextureImage[RGBA]
	imagesFloat []TextureImage[float32]
}

// newTexture allocates the image slots for a texture. Renderer.CreateTexture
// is the public entry point.
func newTexture(id uint32, desc TextureDesc) *Texture {
	t := &Texture{TextureDesc: desc, id: id, samplerDesc: NewSamplerDesc()}

	layers := 1
	if desc.Kind == TextureKindCube {
		layers = cubeMapFaceCount
	}
	switch desc.Format {
	case gputypes.TextureFormatDepth32Float:
		t.imagesFloat = make([]TextureImage[float32], layers)
	default:
		t.imagesRGBA = make([]TextureImage[RGBA], layers)
	}
	return t
}

// ID returns the renderer-unique texture id.
func (t *Texture) ID() uint32 { return t.id }

// SetSamplerDesc sets how samplers bound to this texture filter and wrap.
func (t *Texture) SetSamplerDesc(desc SamplerDesc) {
	t.samplerDesc = desc
}

// SamplerDesc returns the sampling description.
func (t *Texture) SamplerDesc() SamplerDesc { return t.samplerDesc }

// LevelWidth returns max(1, Width>>level). Generated mip chains round odd
// sizes up, so for odd widths a chain level can be one texel wider.
func (t *Texture) LevelWidth(level int) int {
	return max(1, t.Width>>level)
}

// LevelHeight returns max(1, Height>>level). Generated mip chains round odd
// sizes up, so for odd heights a chain level can be one texel taller.
func (t *Texture) LevelHeight(level int) int {
	return max(1, t.Height>>level)
}

// imageRGBA returns the RGBA image for a layer, or nil for depth textures.
func (t *Texture) imageRGBA(layer int) *TextureImage[RGBA] {
	if layer < 0 || layer >= len(t.imagesRGBA) {
		return nil
	}
	return &t.imagesRGBA[layer]
}

// imageFloat returns the float image for a layer, or nil for color textures.
func (t *Texture) imageFloat(layer int) *TextureImage[float32] {
	if layer < 0 || layer >= len(t.imagesFloat) {
		return nil
	}
	return &t.imagesFloat[layer]
}

// borderColor resolves the sampler border color to a [0, 1] color.
func (t *Texture) borderColor() math32.Vector4 {
	if t.samplerDesc.BorderColor == BorderWhite {
		return math32.Vec4(1, 1, 1, 1)
	}
	return math32.Vec4(0, 0, 0, 1)
}

// SetImageData uploads RGBA8 pixel buffers: one buffer for a 2D texture,
// six (in canonical face order) for a cube map. The upload is a no-op,
// with a log entry, when the texture is multisampled, the format does not
// match, or the sizes disagree.
func (t *Texture) SetImageData(buffers []*buffer.Buffer[RGBA]) {
	if len(buffers) == 0 {
		Logger().Warn("softgl: upload with no buffers", "texture", t.id)
		return
	}
	if !t.uploadOK(len(buffers), buffers[0].Width(), buffers[0].Height(), gputypes.TextureFormatRGBA8Unorm) {
		return
	}
	for i, buf := range buffers {
		img := &t.imagesRGBA[i]
		img.Levels = []*ImageBuffer[RGBA]{NewImageBufferFrom(buf)}
		if t.UseMipmaps {
			img.GenerateMipmap(true)
		}
	}
}

// SetFloatImageData uploads float32 buffers, the depth-texture analogue
// of SetImageData.
func (t *Texture) SetFloatImageData(buffers []*buffer.Buffer[float32]) {
	if len(buffers) == 0 {
		Logger().Warn("softgl: upload with no buffers", "texture", t.id)
		return
	}
	if !t.uploadOK(len(buffers), buffers[0].Width(), buffers[0].Height(), gputypes.TextureFormatDepth32Float) {
		return
	}
	for i, buf := range buffers {
		img := &t.imagesFloat[i]
		img.Levels = []*ImageBuffer[float32]{NewImageBufferFrom(buf)}
		if t.UseMipmaps {
			img.GenerateMipmap(true)
		}
	}
}

// uploadOK validates an upload against the texture description.
func (t *Texture) uploadOK(count, w, h int, format gputypes.TextureFormat) bool {
	if t.MultiSample {
		Logger().Warn("softgl: upload not supported on multisample texture", "texture", t.id)
		return false
	}
	if t.Format != format {
		Logger().Warn("softgl: upload format mismatch", "texture", t.id, "have", t.Format, "want", format)
		return false
	}
	want := 1
	if t.Kind == TextureKindCube {
		want = cubeMapFaceCount
	}
	if count != want {
		Logger().Warn("softgl: upload layer count mismatch", "texture", t.id, "have", count, "want", want)
		return false
	}
	if w != t.Width || h != t.Height {
		Logger().Warn("softgl: upload size mismatch", "texture", t.id,
			"have", [2]int{w, h}, "want", [2]int{t.Width, t.Height})
		return false
	}
	return true
}

// InitImageData allocates level-0 storage (and the empty mip pyramid when
// requested) without uploading pixels. Used for attachment textures.
func (t *Texture) InitImageData() {
	samples := 1
	if t.MultiSample {
		samples = msaaSampleCount
	}

	for i := range t.imagesRGBA {
		img := &t.imagesRGBA[i]
		img.Levels = []*ImageBuffer[RGBA]{NewImageBuffer[RGBA](t.Width, t.Height, samples)}
		if t.UseMipmaps {
			if t.MultiSample {
				Logger().Warn("softgl: mipmaps ignored on multisample texture", "texture", t.id)
				continue
			}
			img.GenerateMipmap(false)
		}
	}
	for i := range t.imagesFloat {
		img := &t.imagesFloat[i]
		img.Levels = []*ImageBuffer[float32]{NewImageBuffer[float32](t.Width, t.Height, samples)}
		if t.UseMipmaps {
			if t.MultiSample {
				Logger().Warn("softgl: mipmaps ignored on multisample texture", "texture", t.id)
				continue
			}
			img.GenerateMipmap(false)
		}
	}
}

// Image converts a layer+level to a standard image.RGBA. Depth levels map
// [0, 1] linearly to grayscale. Returns nil for multisample textures and
// out-of-range layers or levels.
func (t *Texture) Image(layer CubeMapFace, level int) *image.RGBA {
	if t.MultiSample {
		Logger().Warn("softgl: cannot read back multisample texture", "texture", t.id)
		return nil
	}

	switch t.Format {
	case gputypes.TextureFormatDepth32Float:
		img := t.imageFloat(int(layer))
		if img.Empty() {
			return nil
		}
		lv := img.Level(level)
		if lv == nil || lv.Buf == nil {
			return nil
		}
		out := image.NewRGBA(image.Rect(0, 0, lv.Width, lv.Height))
		for y := 0; y < lv.Height; y++ {
			for x := 0; x < lv.Width; x++ {
				g := uint8(clamp01(lv.Buf.Get(x, y)) * 255)
				i := out.PixOffset(x, y)
				out.Pix[i+0] = g
				out.Pix[i+1] = g
				out.Pix[i+2] = g
				out.Pix[i+3] = 255
			}
		}
		return out

	default:
		img := t.imageRGBA(int(layer))
		if img.Empty() {
			return nil
		}
		lv := img.Level(level)
		if lv == nil || lv.Buf == nil {
			return nil
		}
		out := image.NewRGBA(image.Rect(0, 0, lv.Width, lv.Height))
		for y := 0; y < lv.Height; y++ {
			for x := 0; x < lv.Width; x++ {
				px := lv.Buf.Get(x, y)
				i := out.PixOffset(x, y)
				out.Pix[i+0] = px[0]
				out.Pix[i+1] = px[1]
				out.Pix[i+2] = px[2]
				out.Pix[i+3] = px[3]
			}
		}
		return out
	}
}

// DumpImage writes a layer+level as a PNG file. Float32 depth levels are
// converted to grayscale.
func (t *Texture) DumpImage(path string, layer CubeMapFace, level int) error {
	img := t.Image(layer, level)
	if img == nil {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// UploadImage fills level 0 of an RGBA8 2D texture from any image.Image,
// converting and scaling through x/image/draw as needed.
func (t *Texture) UploadImage(src image.Image) {
	if t.Format != gputypes.TextureFormatRGBA8Unorm || t.Kind != TextureKind2D {
		Logger().Warn("softgl: UploadImage requires an RGBA8 2D texture", "texture", t.id)
		return
	}

	dst := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	if b := src.Bounds(); b.Dx() == t.Width && b.Dy() == t.Height {
		xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)
	} else {
		xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	}

	buf, _ := buffer.NewLinear[RGBA](t.Width, t.Height)
	for y := 0; y < t.Height; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < t.Width; x++ {
			buf.Set(x, y, RGBA{row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]})
		}
	}
	t.SetImageData([]*buffer.Buffer[RGBA]{buf})
}
