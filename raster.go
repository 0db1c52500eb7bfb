package softgl

import (
	"cogentcore.org/core/math32"
	m32 "github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgl/buffer"
	"github.com/gogpu/softgl/internal/wide"
)

// processRasterization dispatches the bound primitives to their raster
// paths. The triangle path fans out to the worker pool and barriers.
func (r *Renderer) processRasterization() {
	switch r.topology {
	case gputypes.PrimitiveTopologyPointList:
		for i := range r.primitives {
			p := &r.primitives[i]
			if p.Discard {
				continue
			}
			r.rasterizationPoint(&r.vertexes[p.Indices[0]], r.pointSize)
		}

	case gputypes.PrimitiveTopologyLineList:
		for i := range r.primitives {
			p := &r.primitives[i]
			if p.Discard {
				continue
			}
			r.rasterizationLine(
				&r.vertexes[p.Indices[0]],
				&r.vertexes[p.Indices[1]],
				r.renderState.LineWidth)
		}

	case gputypes.PrimitiveTopologyTriangleList:
		r.setupThreadContexts()
		r.rasterizationPolygons()
		r.pool.Wait()
	}
}

// setupThreadContexts prepares one pixel-quad context per worker, each
// with its own shader clone wired to its own derivative context.
func (r *Renderer) setupThreadContexts() {
	workers := r.pool.Workers()
	if len(r.threadQuadCtx) != workers {
		r.threadQuadCtx = make([]*pixelQuadContext, workers)
		for i := range r.threadQuadCtx {
			r.threadQuadCtx[i] = &pixelQuadContext{}
		}
	}

	for _, ctx := range r.threadQuadCtx {
		ctx.setVaryingsSize(r.varyingsAlignedCount)
		ctx.Program = r.program.CloneForThread()

		ctx.Program.Builtins().DF = DerivativeContext{
			P0: ctx.Pixels[0].Varyings,
			P1: ctx.Pixels[1].Varyings,
			P2: ctx.Pixels[2].Varyings,
			P3: ctx.Pixels[3].Varyings,
		}
		ctx.Program.prepareFragmentShader()
	}
}

// rasterizationPolygons routes triangles per the polygon mode.
func (r *Renderer) rasterizationPolygons() {
	switch r.renderState.PolygonMode {
	case PolygonModePoint:
		r.rasterizationPolygonsPoint()
	case PolygonModeLine:
		r.rasterizationPolygonsLine()
	default:
		r.rasterizationPolygonsTriangle()
	}
}

// rasterizationPolygonsTriangle rasterizes every live triangle.
func (r *Renderer) rasterizationPolygonsTriangle() {
	for i := range r.primitives {
		tri := &r.primitives[i]
		if tri.Discard {
			continue
		}
		r.rasterizationTriangle(
			&r.vertexes[tri.Indices[0]],
			&r.vertexes[tri.Indices[1]],
			&r.vertexes[tri.Indices[2]],
			tri.FrontFacing)
	}
}

// rasterizationTriangle partitions the triangle's bounding box into
// blocks and pushes one task per block; each task owns its block's
// pixels exclusively.
func (r *Renderer) rasterizationTriangle(v0, v1, v2 *VertexHolder, frontFacing bool) {
	minX := m32.Min(m32.Min(v0.FragPos.X, v1.FragPos.X), v2.FragPos.X)
	minY := m32.Min(m32.Min(v0.FragPos.Y, v1.FragPos.Y), v2.FragPos.Y)
	maxX := m32.Max(m32.Max(v0.FragPos.X, v1.FragPos.X), v2.FragPos.X)
	maxY := m32.Max(m32.Max(v0.FragPos.Y, v1.FragPos.Y), v2.FragPos.Y)

	minX = m32.Max(minX-0.5, 0)
	minY = m32.Max(minY-0.5, 0)
	maxX = m32.Min(maxX+0.5, r.viewport.Width-1)
	maxY = m32.Min(maxY+0.5, r.viewport.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	// Anchor the block grid on even coordinates so 2x2 quads never
	// straddle blocks.
	startX := int(minX) &^ 1
	startY := int(minY) &^ 1
	endX := int(maxX)
	endY := int(maxY)

	blockSize := r.rasterBlockSize
	blockCountX := (endX - startX + blockSize) / blockSize
	blockCountY := (endY - startY + blockSize) / blockSize

	samples := r.rasterSamples
	for blockY := 0; blockY < blockCountY; blockY++ {
		for blockX := 0; blockX < blockCountX; blockX++ {
			blockStartX := startX + blockX*blockSize
			blockStartY := startY + blockY*blockSize

			r.pool.Submit(func(worker int) {
				quad := r.threadQuadCtx[worker]
				quad.setupTriangle(v0, v1, v2, frontFacing)

				for y := blockStartY; y < blockStartY+blockSize && y <= endY; y += 2 {
					for x := blockStartX; x < blockStartX+blockSize && x <= endX; x += 2 {
						quad.initQuad(x, y, samples)
						r.rasterizationPixelQuad(quad)
					}
				}
			})
		}
	}
}

// rasterizationPixelQuad runs coverage, attribute interpolation and
// shading for one 2x2 quad.
func (r *Renderer) rasterizationPixelQuad(quad *pixelQuadContext) {
	if !quad.coverage() {
		return
	}

	// Interpolate z and 1/w at every covered sample, clip against the
	// depth range, and perspective-correct the barycentrics.
	z := [3]float32{quad.VertPos[0].Z, quad.VertPos[1].Z, quad.VertPos[2].Z}
	for i := range quad.Pixels {
		p := &quad.Pixels[i]
		for s := range p.Samples {
			sample := &p.Samples[s]
			if !sample.Inside {
				continue
			}
			bc := &sample.Barycentric
			sample.Position.Z = bc[0]*z[0] + bc[1]*z[1] + bc[2]*z[2]
			sample.Position.W = bc[0]*quad.VertW[0] + bc[1]*quad.VertW[1] + bc[2]*quad.VertW[2]

			if sample.Position.Z < r.viewport.AbsMinDepth || sample.Position.Z > r.viewport.AbsMaxDepth {
				sample.Inside = false
				continue
			}

			// Perspective correction: weight by each vertex 1/w and
			// renormalize by the interpolated 1/w.
			invW := 1 / sample.Position.W
			bc[0] *= invW * quad.VertW[0]
			bc[1] *= invW * quad.VertW[1]
			bc[2] *= invW * quad.VertW[2]
		}
	}

	if r.earlyZ && r.renderState.DepthTest {
		if !r.earlyZTest(quad) {
			return
		}
	}

	// Every pixel interpolates varyings, covered or not, so the quad's
	// derivative context stays defined.
	for i := range quad.Pixels {
		p := &quad.Pixels[i]
		bc := p.SampleShading.Barycentric
		if r.varyingsAlignedCount > 0 {
			wide.InterpolateBarycentric(p.Varyings,
				quad.VertVaryings[0], quad.VertVaryings[1], quad.VertVaryings[2],
				bc[0], bc[1], bc[2])
		}
	}

	for i := range quad.Pixels {
		p := &quad.Pixels[i]
		if !p.Inside {
			continue
		}

		r.processFragmentShader(p.SampleShading.Position, quad.FrontFacing, p.Varyings, quad.Program)

		builtins := quad.Program.Builtins()
		if builtins.Discard {
			continue
		}

		if p.SampleCount > 1 {
			for s := 0; s < p.SampleCount; s++ {
				sample := &p.Samples[s]
				if !sample.Inside {
					continue
				}
				r.processPerSampleOperations(sample.FboCoord[0], sample.FboCoord[1],
					sample.Position.Z, builtins.FragColor, s)
			}
		} else {
			sample := p.SampleShading
			r.processPerSampleOperations(sample.FboCoord[0], sample.FboCoord[1],
				sample.Position.Z, builtins.FragColor, 0)
		}
	}
}

// earlyZTest depth-tests every covered sample without writing; pixels
// whose samples all fail drop out of shading.
func (r *Renderer) earlyZTest(quad *pixelQuadContext) bool {
	for i := range quad.Pixels {
		p := &quad.Pixels[i]
		if !p.Inside {
			continue
		}
		if p.SampleCount > 1 {
			inside := false
			for s := 0; s < p.SampleCount; s++ {
				sample := &p.Samples[s]
				if !sample.Inside {
					continue
				}
				sample.Inside = r.processDepthTest(sample.FboCoord[0], sample.FboCoord[1],
					sample.Position.Z, s, true)
				if sample.Inside {
					inside = true
				}
			}
			p.Inside = inside
		} else {
			sample := p.SampleShading
			sample.Inside = r.processDepthTest(sample.FboCoord[0], sample.FboCoord[1],
				sample.Position.Z, 0, true)
			p.Inside = sample.Inside
		}
	}
	return quad.anyInside()
}

// processFragmentShader runs the fragment stage for one pixel. Skipped
// on depth-only targets; the stale outputs are never written.
func (r *Renderer) processFragmentShader(screenPos math32.Vector4, frontFacing bool, varyings []float32, program *Program) {
	if r.fboColor == nil {
		return
	}

	builtins := program.Builtins()
	builtins.FragCoord = screenPos
	builtins.FrontFacing = frontFacing

	program.bindFragmentVaryings(varyings)
	program.execFragmentShader()
}

// processPerSampleOperations runs the per-sample output pipeline:
// depth test (with write), blending, color write.
func (r *Renderer) processPerSampleOperations(x, y int, depth float32, color math32.Vector4, sample int) {
	if !r.processDepthTest(x, y, depth, sample, false) {
		return
	}
	if r.fboColor == nil {
		return
	}

	color.Clamp(math32.Vector4{}, math32.Vec4(1, 1, 1, 1))

	if r.renderState.Blend {
		dst := math32.Vec4(0, 0, 0, 0)
		if ptr := r.frameColorPtr(x, y, sample); ptr != nil {
			dst = math32.Vec4(
				float32(ptr[0])/255,
				float32(ptr[1])/255,
				float32(ptr[2])/255,
				float32(ptr[3])/255,
			)
		}
		color = blendColor(color, dst, &r.renderState.BlendParams)
	}

	r.setFrameColor(x, y, color, sample)
}

// processDepthTest clamps, compares and conditionally writes one
// sample's depth. Without a depth test or buffer it always passes.
func (r *Renderer) processDepthTest(x, y int, depth float32, sample int, skipWrite bool) bool {
	if !r.renderState.DepthTest || r.fboDepth == nil {
		return true
	}

	if depth < r.viewport.AbsMinDepth {
		depth = r.viewport.AbsMinDepth
	} else if depth > r.viewport.AbsMaxDepth {
		depth = r.viewport.AbsMaxDepth
	}

	zPtr := r.frameDepthPtr(x, y, sample)
	if zPtr == nil {
		return false
	}
	if !depthTestPass(depth, *zPtr, r.renderState.DepthFunc) {
		return false
	}
	if !skipWrite && r.renderState.DepthMask {
		*zPtr = depth
	}
	return true
}

// frameColorPtr returns the color storage of one sample, or nil.
func (r *Renderer) frameColorPtr(x, y, sample int) *RGBA {
	if r.fboColor == nil {
		return nil
	}
	if r.fboColor.MultiSample {
		ms := r.fboColor.BufMS.Ptr(x, y)
		if ms == nil {
			return nil
		}
		return &ms[sample]
	}
	return r.fboColor.Buf.Ptr(x, y)
}

// frameDepthPtr returns the depth storage of one sample, or nil.
func (r *Renderer) frameDepthPtr(x, y, sample int) *float32 {
	if r.fboDepth == nil {
		return nil
	}
	if r.fboDepth.MultiSample {
		ms := r.fboDepth.BufMS.Ptr(x, y)
		if ms == nil {
			return nil
		}
		return &ms[sample]
	}
	return r.fboDepth.Buf.Ptr(x, y)
}

// setFrameColor clamps a [0, 1] color to RGBA8 and stores it.
func (r *Renderer) setFrameColor(x, y int, color math32.Vector4, sample int) {
	ptr := r.frameColorPtr(x, y, sample)
	if ptr == nil {
		return
	}
	*ptr = RGBA{
		uint8(clamp01(color.X) * 255),
		uint8(clamp01(color.Y) * 255),
		uint8(clamp01(color.Z) * 255),
		uint8(clamp01(color.W) * 255),
	}
}

// multiSampleResolve averages the four sub-samples of every pixel into
// the single-sample color buffer, one row per task, and barriers.
func (r *Renderer) multiSampleResolve() {
	if r.fboColor.Buf == nil {
		r.fboColor.Buf, _ = buffer.NewLinear[RGBA](r.fboColor.Width, r.fboColor.Height)
	}

	for row := 0; row < r.fboColor.Height; row++ {
		y := row
		r.pool.Submit(func(worker int) {
			for x := 0; x < r.fboColor.Width; x++ {
				samples := r.fboColor.BufMS.Get(x, y)
				var sum [4]int
				for _, s := range samples {
					sum[0] += int(s[0])
					sum[1] += int(s[1])
					sum[2] += int(s[2])
					sum[3] += int(s[3])
				}
				r.fboColor.Buf.Set(x, y, RGBA{
					uint8(sum[0] / msaaSampleCount),
					uint8(sum[1] / msaaSampleCount),
					uint8(sum[2] / msaaSampleCount),
					uint8(sum[3] / msaaSampleCount),
				})
			}
		})
	}
	r.pool.Wait()
}
