package softgl

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgl/internal/parallel"
)

// defaultRasterBlockSize is the side length in pixels of the square
// blocks triangles are partitioned into for parallel rasterization.
const defaultRasterBlockSize = 32

// Option configures a Renderer.
type Option func(*Renderer)

// WithWorkers sets the worker pool size. Zero or negative selects
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Renderer) { r.workers = n }
}

// WithRasterBlockSize overrides the rasterization block size. The size
// is rounded up to an even value so pixel quads never straddle blocks.
func WithRasterBlockSize(n int) Option {
	return func(r *Renderer) {
		if n < 2 {
			n = 2
		}
		r.rasterBlockSize = (n + 1) &^ 1
	}
}

// Renderer executes the software rasterization pipeline. It owns every
// resource it creates and is driven by a single control goroutine; only
// the rasterization stage and multisample resolve fan out to the worker
// pool.
type Renderer struct {
	pool            *parallel.WorkerPool
	workers         int
	rasterBlockSize int

	reverseZ bool
	earlyZ   bool

	// Bound pipeline state.
	fbo         *Framebuffer
	viewport    Viewport
	renderState RenderState
	vao         *VertexArrayObject
	program     *Program
	uniforms    *ShaderUniforms

	// Per-draw working state.
	fboColor      *ImageBuffer[RGBA]
	fboDepth      *ImageBuffer[float32]
	topology      gputypes.PrimitiveTopology
	rasterSamples int
	pointSize     float32

	vertexes   []VertexHolder
	primitives []PrimitiveHolder

	varyingsCount        int
	varyingsAlignedCount int

	threadQuadCtx []*pixelQuadContext

	// nextID is the monotonically increasing resource id counter.
	nextID uint32
}

// NewRenderer creates a renderer with default state and a running worker
// pool. Call Close to release the pool.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		rasterBlockSize: defaultRasterBlockSize,
		renderState:     NewRenderState(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.pool = parallel.NewWorkerPool(r.workers)
	return r
}

// Close stops the worker pool. The renderer must not be used afterwards.
func (r *Renderer) Close() {
	r.pool.Close()
}

// SetReverseZ selects the reversed-depth convention. It changes the
// defaults reported by DefaultDepthFunc and DefaultClearDepth; the
// renderer itself writes unmodified post-transform depth either way, and
// the application supplies the reversed projection.
func (r *Renderer) SetReverseZ(enable bool) { r.reverseZ = enable }

// ReverseZ reports the current depth convention.
func (r *Renderer) ReverseZ() bool { return r.reverseZ }

// SetEarlyZ moves the depth test in front of fragment shading.
func (r *Renderer) SetEarlyZ(enable bool) { r.earlyZ = enable }

// EarlyZ reports whether early depth testing is enabled.
func (r *Renderer) EarlyZ() bool { return r.earlyZ }

// DefaultDepthFunc returns the depth comparison matching the renderer's
// depth convention.
func (r *Renderer) DefaultDepthFunc() gputypes.CompareFunction {
	return DefaultDepthFunc(r.reverseZ)
}

// DefaultClearDepth returns the clear value matching the renderer's
// depth convention.
func (r *Renderer) DefaultClearDepth() float32 {
	return DefaultClearDepth(r.reverseZ)
}

// allocID returns the next resource id.
func (r *Renderer) allocID() uint32 {
	r.nextID++
	return r.nextID
}

// CreateFrameBuffer creates an empty framebuffer.
func (r *Renderer) CreateFrameBuffer(offscreen bool) *Framebuffer {
	return newFramebuffer(r.allocID(), offscreen)
}

// CreateTexture creates a texture per the description. Invalid
// combinations (multisampled cube maps, unsupported formats) log and
// return nil.
func (r *Renderer) CreateTexture(desc TextureDesc) *Texture {
	if desc.Width <= 0 || desc.Height <= 0 {
		Logger().Warn("softgl: invalid texture size", "width", desc.Width, "height", desc.Height)
		return nil
	}
	if desc.Kind == TextureKindCube && desc.MultiSample {
		Logger().Warn("softgl: cube textures cannot be multisampled")
		return nil
	}
	switch desc.Format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth32Float:
	default:
		Logger().Warn("softgl: unsupported texture format", "format", desc.Format)
		return nil
	}
	return newTexture(r.allocID(), desc)
}

// CreateVertexArrayObject copies a vertex array into renderer-owned
// storage.
func (r *Renderer) CreateVertexArrayObject(va VertexArray) *VertexArrayObject {
	return newVertexArrayObject(r.allocID(), va)
}

// CreateShaderProgram creates an empty shader program; install stages
// with Program.SetShaders.
func (r *Renderer) CreateShaderProgram() *Program {
	return newProgram(r.allocID())
}

// CreateUniformBlock creates named uniform byte storage of the given
// size.
func (r *Renderer) CreateUniformBlock(name string, size int) *UniformBlock {
	return newUniformBlock(name, size)
}

// CreateUniformSampler creates a named sampler binding for the given
// texture kind and format.
func (r *Renderer) CreateUniformSampler(name string, kind TextureKind, format gputypes.TextureFormat) *UniformSampler {
	return newUniformSampler(name, kind, format)
}

// SetFrameBuffer binds the draw target.
func (r *Renderer) SetFrameBuffer(fb *Framebuffer) {
	r.fbo = fb
}

// SetViewPort sets the window-space transform rectangle.
func (r *Renderer) SetViewPort(x, y, width, height int) {
	r.viewport.SetViewport(x, y, width, height)
}

// SetRenderState installs the fixed-function state for following draws.
func (r *Renderer) SetRenderState(state RenderState) {
	r.renderState = state
}

// SetVertexArrayObject binds the geometry for following draws.
func (r *Renderer) SetVertexArrayObject(vao *VertexArrayObject) {
	r.vao = vao
}

// SetShaderProgram binds the program for following draws.
func (r *Renderer) SetShaderProgram(program *Program) {
	r.program = program
}

// SetShaderUniforms binds uniform blocks and samplers by name.
func (r *Renderer) SetShaderUniforms(uniforms *ShaderUniforms) {
	r.uniforms = uniforms
	if r.program != nil {
		r.program.BindUniforms(uniforms)
	}
}

// Clear writes the clear color and depth into the bound framebuffer's
// attachments, across every sample of multisampled targets.
func (r *Renderer) Clear(state ClearState) {
	if r.fbo == nil {
		return
	}

	if state.ColorFlag {
		if color := r.fbo.colorBuffer(); color != nil {
			c := RGBA{
				uint8(clamp01(state.ClearColor.X) * 255),
				uint8(clamp01(state.ClearColor.Y) * 255),
				uint8(clamp01(state.ClearColor.Z) * 255),
				uint8(clamp01(state.ClearColor.W) * 255),
			}
			if color.MultiSample {
				color.BufMS.Fill([msaaSampleCount]RGBA{c, c, c, c})
			} else {
				color.Buf.Fill(c)
			}
		}
	}

	if state.DepthFlag {
		if depth := r.fbo.depthBuffer(); depth != nil {
			d := state.ClearDepth
			if depth.MultiSample {
				depth.BufMS.Fill([msaaSampleCount]float32{d, d, d, d})
			} else {
				depth.Buf.Fill(d)
			}
		}
	}
}

// Draw runs the seven pipeline stages for the bound state. Missing
// framebuffer, geometry or program make the call a logged no-op.
func (r *Renderer) Draw(topology gputypes.PrimitiveTopology) {
	if r.fbo == nil || r.vao == nil || !r.program.Valid() {
		Logger().Warn("softgl: draw without framebuffer, vertex array or program")
		return
	}
	if !r.fbo.IsValid() {
		Logger().Warn("softgl: draw with incomplete framebuffer", "fbo", r.fbo.ID())
		return
	}

	switch topology {
	case gputypes.PrimitiveTopologyPointList,
		gputypes.PrimitiveTopologyLineList,
		gputypes.PrimitiveTopologyTriangleList:
	default:
		Logger().Warn("softgl: unsupported primitive topology", "topology", topology)
		return
	}

	r.topology = topology
	r.fboColor = r.fbo.colorBuffer()
	r.fboDepth = r.fbo.depthBuffer()

	switch {
	case r.fboColor != nil:
		r.rasterSamples = r.fboColor.Samples
	case r.fboDepth != nil:
		r.rasterSamples = r.fboDepth.Samples
	default:
		r.rasterSamples = 1
	}

	r.processVertexShader()
	r.processPrimitiveAssembly()
	r.processClipping()
	r.processPerspectiveDivide()
	r.processViewportTransform()
	r.processFaceCulling()
	r.processRasterization()

	if r.fboColor != nil && r.fboColor.MultiSample {
		r.multiSampleResolve()
	}
}
