package softgl

import "github.com/gogpu/gputypes"

// FramebufferAttachment references one texture image as a render target:
// the texture plus a cube face (layer) and mip level. 2D attachments use
// layer 0.
type FramebufferAttachment struct {
	Texture *Texture
	Layer   CubeMapFace
	Level   int
}

// Framebuffer is a pair of optional color and depth attachments.
type Framebuffer struct {
	id uint32

	colorReady bool
	depthReady bool

	colorAttachment FramebufferAttachment
	depthAttachment FramebufferAttachment

	offscreen bool
}

// newFramebuffer is backed by Renderer.CreateFrameBuffer.
func newFramebuffer(id uint32, offscreen bool) *Framebuffer {
	return &Framebuffer{id: id, offscreen: offscreen}
}

// ID returns the renderer-unique framebuffer id.
func (f *Framebuffer) ID() uint32 { return f.id }

// IsValid reports whether at least one attachment is present.
func (f *Framebuffer) IsValid() bool {
	return f != nil && (f.colorReady || f.depthReady)
}

// IsOffscreen reports whether the framebuffer renders off screen.
func (f *Framebuffer) IsOffscreen() bool { return f.offscreen }

// SetOffscreen marks the framebuffer as off screen.
func (f *Framebuffer) SetOffscreen(offscreen bool) { f.offscreen = offscreen }

// SetColorAttachment attaches a 2D color texture at a mip level.
func (f *Framebuffer) SetColorAttachment(tex *Texture, level int) {
	f.SetColorAttachmentFace(tex, CubeMapPositiveX, level)
}

// SetColorAttachmentFace attaches one cube face at a mip level; this is
// the general form, with 2D textures attaching face 0.
func (f *Framebuffer) SetColorAttachmentFace(tex *Texture, face CubeMapFace, level int) {
	f.colorAttachment = FramebufferAttachment{Texture: tex, Layer: face, Level: level}
	f.colorReady = tex != nil
}

// SetDepthAttachment attaches a 2D depth texture.
func (f *Framebuffer) SetDepthAttachment(tex *Texture) {
	f.depthAttachment = FramebufferAttachment{Texture: tex}
	f.depthReady = tex != nil
}

// ColorAttachment returns the color attachment descriptor, or nil.
func (f *Framebuffer) ColorAttachment() *FramebufferAttachment {
	if !f.colorReady {
		return nil
	}
	return &f.colorAttachment
}

// DepthAttachment returns the depth attachment descriptor, or nil.
func (f *Framebuffer) DepthAttachment() *FramebufferAttachment {
	if !f.depthReady {
		return nil
	}
	return &f.depthAttachment
}

// IsMultiSample reports whether the present attachments are multisampled.
func (f *Framebuffer) IsMultiSample() bool {
	if f.colorReady && f.colorAttachment.Texture != nil {
		return f.colorAttachment.Texture.MultiSample
	}
	if f.depthReady && f.depthAttachment.Texture != nil {
		return f.depthAttachment.Texture.MultiSample
	}
	return false
}

// colorBuffer resolves the color attachment to its image buffer, or nil.
func (f *Framebuffer) colorBuffer() *ImageBuffer[RGBA] {
	if !f.colorReady || f.colorAttachment.Texture == nil {
		return nil
	}
	tex := f.colorAttachment.Texture
	if tex.Format != gputypes.TextureFormatRGBA8Unorm {
		return nil
	}
	img := tex.imageRGBA(int(f.colorAttachment.Layer))
	if img.Empty() {
		return nil
	}
	return img.Level(f.colorAttachment.Level)
}

// depthBuffer resolves the depth attachment to its image buffer, or nil.
func (f *Framebuffer) depthBuffer() *ImageBuffer[float32] {
	if !f.depthReady || f.depthAttachment.Texture == nil {
		return nil
	}
	tex := f.depthAttachment.Texture
	if tex.Format != gputypes.TextureFormatDepth32Float {
		return nil
	}
	img := tex.imageFloat(int(f.depthAttachment.Layer))
	if img.Empty() {
		return nil
	}
	return img.Level(f.depthAttachment.Level)
}
