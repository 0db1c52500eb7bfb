package softgl

import (
	"cogentcore.org/core/math32"
	m32 "github.com/chewxy/math32"

	"github.com/gogpu/softgl/internal/wide"
)

// sampleOffsets4x is the 4x multisample pattern inside one pixel.
var sampleOffsets4x = [msaaSampleCount][2]float32{
	{0.25, 0.25},
	{0.75, 0.25},
	{0.25, 0.75},
	{0.75, 0.75},
}

// pixelSample is one coverage sample of a pixel: its window position
// (z and w interpolated in after the coverage test), barycentric weights,
// framebuffer coordinate and coverage flag.
type pixelSample struct {
	Position    math32.Vector4
	Barycentric [3]float32
	FboCoord    [2]int
	Inside      bool
}

// pixelContext is one pixel of a quad. Under 4x multisampling it carries
// the four coverage samples plus a fifth center sample used for shading;
// single-sample pixels shade at their only (center) sample.
type pixelContext struct {
	Inside   bool
	Varyings []float32

	Samples       []pixelSample
	SampleShading *pixelSample
	SampleCount   int

	samplesBacking [msaaSampleCount + 1]pixelSample
}

// initCoverage derives pixel coverage from its real samples.
func (p *pixelContext) initCoverage() {
	p.Inside = false
	for i := 0; i < p.SampleCount; i++ {
		if p.Samples[i].Inside {
			p.Inside = true
			break
		}
	}
}

// initShadingSample selects the sample whose barycentric drives varying
// interpolation: the extra center sample under multisampling, the only
// sample otherwise.
func (p *pixelContext) initShadingSample() {
	if p.SampleCount > 1 {
		p.SampleShading = &p.Samples[p.SampleCount]
	} else {
		p.SampleShading = &p.Samples[0]
	}
}

// pixelQuadContext is the 2x2-pixel shading unit. Each worker owns one,
// with its own shader clone and varying scratch; the rasterizer reuses it
// across every quad the worker processes.
type pixelQuadContext struct {
	FrontFacing bool

	// VertPos holds the three window-space vertex positions; VertW their
	// 1/w values; VertVaryings their varying slots.
	VertPos      [3]math32.Vector4
	VertW        [3]float32
	VertVaryings [3][]float32

	// Triangle setup for the barycentric kernel: edge deltas of v2 and
	// v1 relative to v0 and the reciprocal cross-product denominator.
	ax, ay, bx, by float32
	invD           float32
	degenerate     bool

	// Pixels are ordered top-left, top-right, bottom-left, bottom-right,
	// matching the derivative context.
	Pixels [4]pixelContext

	// Program is this worker's shading instance.
	Program *Program
}

// setVaryingsSize allocates the per-pixel varying scratch, padded to the
// interpolation batch granularity.
func (q *pixelQuadContext) setVaryingsSize(alignedCount int) {
	for i := range q.Pixels {
		q.Pixels[i].Varyings = make([]float32, alignedCount)
	}
}

// setupTriangle precomputes the barycentric kernel inputs for one
// triangle.
func (q *pixelQuadContext) setupTriangle(v0, v1, v2 *VertexHolder, frontFacing bool) {
	q.FrontFacing = frontFacing
	q.VertPos[0] = v0.FragPos
	q.VertPos[1] = v1.FragPos
	q.VertPos[2] = v2.FragPos
	q.VertW[0] = v0.FragPos.W
	q.VertW[1] = v1.FragPos.W
	q.VertW[2] = v2.FragPos.W
	q.VertVaryings[0] = v0.Varyings
	q.VertVaryings[1] = v1.Varyings
	q.VertVaryings[2] = v2.Varyings

	q.ax = v2.FragPos.X - v0.FragPos.X
	q.ay = v2.FragPos.Y - v0.FragPos.Y
	q.bx = v1.FragPos.X - v0.FragPos.X
	q.by = v1.FragPos.Y - v0.FragPos.Y

	d := q.ax*q.by - q.bx*q.ay
	q.degenerate = m32.Abs(d) < 1e-10
	if !q.degenerate {
		q.invD = 1 / d
	}
}

// initQuad positions the quad with its top-left pixel at (x, y) and
// resets the per-pixel sample state for the given sample count.
func (q *pixelQuadContext) initQuad(x, y int, sampleCount int) {
	for i := range q.Pixels {
		p := &q.Pixels[i]
		px := x + i&1
		py := y + i>>1

		p.SampleCount = sampleCount
		if sampleCount > 1 {
			p.Samples = p.samplesBacking[:sampleCount+1]
			for s := 0; s < sampleCount; s++ {
				p.Samples[s].Position = math32.Vec4(
					float32(px)+sampleOffsets4x[s][0],
					float32(py)+sampleOffsets4x[s][1], 0, 0)
				p.Samples[s].FboCoord = [2]int{px, py}
				p.Samples[s].Inside = false
			}
			// Extra center sample for shading.
			center := &p.Samples[sampleCount]
			center.Position = math32.Vec4(float32(px)+0.5, float32(py)+0.5, 0, 0)
			center.FboCoord = [2]int{px, py}
			center.Inside = false
		} else {
			p.Samples = p.samplesBacking[:1]
			p.Samples[0].Position = math32.Vec4(float32(px)+0.5, float32(py)+0.5, 0, 0)
			p.Samples[0].FboCoord = [2]int{px, py}
			p.Samples[0].Inside = false
		}
		p.Inside = false
		p.initShadingSample()
	}
}

// barycentricSample evaluates one sample against the triangle setup.
func (q *pixelQuadContext) barycentricSample(s *pixelSample) bool {
	if q.degenerate {
		return false
	}
	dx := q.VertPos[0].X - s.Position.X
	dy := q.VertPos[0].Y - s.Position.Y

	ux := q.bx*dy - dx*q.by
	uy := dx*q.ay - q.ax*dy

	bc2 := ux * q.invD
	bc1 := uy * q.invD
	bc0 := 1 - (bc1 + bc2)

	s.Barycentric = [3]float32{bc0, bc1, bc2}
	return bc0 >= 0 && bc1 >= 0 && bc2 >= 0
}

// coverage runs the barycentric kernel over the quad. Single-sample
// quads batch the four pixel centers through the wide kernel; multisample
// quads evaluate per sample. Reports whether any pixel is covered.
func (q *pixelQuadContext) coverage() bool {
	if q.Pixels[0].SampleCount == 1 && !q.degenerate {
		var px, py wide.F32x4
		for i := range q.Pixels {
			px[i] = q.Pixels[i].Samples[0].Position.X
			py[i] = q.Pixels[i].Samples[0].Position.Y
		}
		bc0, bc1, bc2, inside := wide.BarycentricQuad(
			q.ax, q.ay, q.bx, q.by, q.invD, px, py, q.VertPos[0].X, q.VertPos[0].Y)
		for i := range q.Pixels {
			s := &q.Pixels[i].Samples[0]
			s.Barycentric = [3]float32{bc0[i], bc1[i], bc2[i]}
			s.Inside = inside[i]
			q.Pixels[i].Inside = inside[i]
		}
	} else {
		for i := range q.Pixels {
			p := &q.Pixels[i]
			for s := range p.Samples {
				p.Samples[s].Inside = q.barycentricSample(&p.Samples[s])
			}
			p.initCoverage()
		}
	}

	return q.anyInside()
}

// anyInside reports whether any pixel of the quad is covered.
func (q *pixelQuadContext) anyInside() bool {
	for i := range q.Pixels {
		if q.Pixels[i].Inside {
			return true
		}
	}
	return false
}
