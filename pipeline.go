package softgl

import (
	"encoding/binary"
	"math"

	"cogentcore.org/core/math32"
	m32 "github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgl/internal/wide"
)

// processVertexShader materializes one VertexHolder per input vertex and
// runs the vertex stage over each.
func (r *Renderer) processVertexShader() {
	r.varyingsCount = r.program.VaryingsSize()
	r.varyingsAlignedCount = alignVaryings(r.varyingsCount)

	backing := make([]float32, r.vao.vertexCount*r.varyingsAlignedCount)

	r.vertexes = make([]VertexHolder, r.vao.vertexCount)
	r.pointSize = r.renderState.PointSize
	for idx := 0; idx < r.vao.vertexCount; idx++ {
		h := &r.vertexes[idx]
		h.Discard = false
		h.Index = idx
		h.Vertex = r.vao.vertexBytes(idx)
		if r.varyingsAlignedCount > 0 {
			h.Varyings = backing[idx*r.varyingsAlignedCount : (idx+1)*r.varyingsAlignedCount]
		}
		r.vertexShaderImpl(h)
	}
}

// vertexShaderImpl runs the vertex stage for one holder and derives its
// clip mask.
func (r *Renderer) vertexShaderImpl(h *VertexHolder) {
	r.program.bindVertexAttributes(h.Vertex)
	r.program.bindVertexVaryings(h.Varyings)
	r.program.execVertexShader()

	if ps := r.program.Builtins().PointSize; ps > 0 {
		r.pointSize = ps
	}
	h.ClipPos = r.program.Builtins().Position
	h.ClipMask = countFrustumClipMask(h.ClipPos)
}

// processPrimitiveAssembly groups the index stream into primitives.
// Primitives referencing out-of-range indices are dropped with a log
// entry rather than taking the draw down.
func (r *Renderer) processPrimitiveAssembly() {
	indices := r.vao.indices
	r.primitives = r.primitives[:0]

	stride := 1
	switch r.topology {
	case gputypes.PrimitiveTopologyLineList:
		stride = 2
	case gputypes.PrimitiveTopologyTriangleList:
		stride = 3
	}

	for i := 0; i+stride-1 < len(indices); i += stride {
		var prim PrimitiveHolder
		ok := true
		for k := 0; k < stride; k++ {
			idx := int(indices[i+k])
			if idx < 0 || idx >= r.vao.vertexCount {
				Logger().Warn("softgl: index out of range", "index", idx, "vertices", r.vao.vertexCount)
				ok = false
				break
			}
			prim.Indices[k] = idx
		}
		if !ok {
			continue
		}
		r.primitives = append(r.primitives, prim)
	}
}

// processClipping clips every primitive against the view frustum, then
// recomputes the vertex discard flags from the surviving primitives.
func (r *Renderer) processClipping() {
	// Clipping appends vertices and triangles; iterate by index over the
	// original count.
	primitiveCount := len(r.primitives)
	for i := 0; i < primitiveCount; i++ {
		if r.primitives[i].Discard {
			continue
		}
		switch r.topology {
		case gputypes.PrimitiveTopologyPointList:
			r.clippingPoint(&r.primitives[i])
		case gputypes.PrimitiveTopologyLineList:
			r.clippingLine(&r.primitives[i], false)
		case gputypes.PrimitiveTopologyTriangleList:
			// Point and line polygon modes clip per edge during
			// rasterization instead.
			if r.renderState.PolygonMode != PolygonModeFill {
				continue
			}
			r.clippingTriangle(i)
		}
	}

	// Only vertices referenced by live primitives continue down the
	// pipeline.
	for i := range r.vertexes {
		r.vertexes[i].Discard = true
	}
	for i := range r.primitives {
		p := &r.primitives[i]
		if p.Discard {
			continue
		}
		switch r.topology {
		case gputypes.PrimitiveTopologyPointList:
			r.vertexes[p.Indices[0]].Discard = false
		case gputypes.PrimitiveTopologyLineList:
			r.vertexes[p.Indices[0]].Discard = false
			r.vertexes[p.Indices[1]].Discard = false
		case gputypes.PrimitiveTopologyTriangleList:
			r.vertexes[p.Indices[0]].Discard = false
			r.vertexes[p.Indices[1]].Discard = false
			r.vertexes[p.Indices[2]].Discard = false
		}
	}
}

// clippingPoint discards a point whose vertex violates any clip plane.
func (r *Renderer) clippingPoint(p *PrimitiveHolder) {
	p.Discard = r.vertexes[p.Indices[0]].ClipMask != 0
}

// clippingLine clips a line parametrically against the violated planes.
// When postVertexProcess is set (triangle edges rasterized in line
// polygon mode), synthesized endpoints immediately run perspective
// divide and viewport transform, since those stages have already passed.
func (r *Renderer) clippingLine(line *PrimitiveHolder, postVertexProcess bool) {
	idx0 := line.Indices[0]
	idx1 := line.Indices[1]

	fullClip := false
	t0 := float32(0)
	t1 := float32(1)

	mask := r.vertexes[idx0].ClipMask | r.vertexes[idx1].ClipMask
	if mask != 0 {
		for i := 0; i < 6; i++ {
			if mask&(1<<i) == 0 {
				continue
			}
			d0 := frustumClipPlanes[i].Dot(r.vertexes[idx0].ClipPos)
			d1 := frustumClipPlanes[i].Dot(r.vertexes[idx1].ClipPos)

			switch {
			case d0 < 0 && d1 < 0:
				fullClip = true
			case d0 < 0:
				t := -d0 / (d1 - d0)
				t0 = m32.Max(t0, t)
			default:
				t := d0 / (d0 - d1)
				t1 = m32.Min(t1, t)
			}
			if fullClip {
				break
			}
		}
	}

	if fullClip {
		line.Discard = true
		return
	}

	if r.vertexes[idx0].ClipMask != 0 {
		line.Indices[0] = r.clippingNewVertex(idx0, idx1, t0, postVertexProcess)
	}
	if r.vertexes[idx1].ClipMask != 0 {
		line.Indices[1] = r.clippingNewVertex(idx0, idx1, t1, postVertexProcess)
	}
}

// clippingTriangle runs Sutherland-Hodgman over the violated planes and
// re-triangulates the surviving polygon as a fan, appending the extra
// triangles to the primitive list.
func (r *Renderer) clippingTriangle(prim int) {
	tri := &r.primitives[prim]
	mask := r.vertexes[tri.Indices[0]].ClipMask |
		r.vertexes[tri.Indices[1]].ClipMask |
		r.vertexes[tri.Indices[2]].ClipMask
	if mask == 0 {
		return
	}

	fullClip := false
	indicesIn := []int{tri.Indices[0], tri.Indices[1], tri.Indices[2]}
	var indicesOut []int

	for plane := 0; plane < 6; plane++ {
		if mask&(1<<plane) == 0 {
			continue
		}
		if len(indicesIn) < 3 {
			fullClip = true
			break
		}

		indicesOut = indicesOut[:0]
		idxPre := indicesIn[0]
		dPre := frustumClipPlanes[plane].Dot(r.vertexes[idxPre].ClipPos)

		indicesIn = append(indicesIn, idxPre)
		for i := 1; i < len(indicesIn); i++ {
			idx := indicesIn[i]
			d := frustumClipPlanes[plane].Dot(r.vertexes[idx].ClipPos)

			if dPre >= 0 {
				indicesOut = append(indicesOut, idxPre)
			}

			if math.Signbit(float64(dPre)) != math.Signbit(float64(d)) {
				var t float32
				if d < 0 {
					t = dPre / (dPre - d)
				} else {
					t = -dPre / (d - dPre)
				}
				indicesOut = append(indicesOut, r.clippingNewVertex(idxPre, idx, t, false))
			}

			idxPre = idx
			dPre = d
		}

		indicesIn, indicesOut = indicesOut, indicesIn
	}

	if fullClip || len(indicesIn) == 0 {
		r.primitives[prim].Discard = true
		return
	}

	tri = &r.primitives[prim]
	tri.Indices[0] = indicesIn[0]
	tri.Indices[1] = indicesIn[1]
	tri.Indices[2] = indicesIn[2]

	frontFacing := tri.FrontFacing
	for i := 3; i < len(indicesIn); i++ {
		r.primitives = append(r.primitives, PrimitiveHolder{
			Indices:     [3]int{indicesIn[0], indicesIn[i-1], indicesIn[i]},
			FrontFacing: frontFacing,
		})
	}
}

// clippingNewVertex synthesizes a vertex at parameter t between two
// holders: the raw input attributes interpolate linearly, then the
// vertex stage re-runs so clip position and varyings stay consistent.
// Returns the new vertex index.
func (r *Renderer) clippingNewVertex(idx0, idx1 int, t float32, postVertexProcess bool) int {
	r.vertexes = append(r.vertexes, VertexHolder{})
	idx := len(r.vertexes) - 1
	h := &r.vertexes[idx]
	h.Index = idx
	h.Vertex = make([]byte, r.vao.vertexStride)
	if r.varyingsAlignedCount > 0 {
		h.Varyings = make([]float32, r.varyingsAlignedCount)
	}

	lerpVertexBytes(h.Vertex, r.vertexes[idx0].Vertex, r.vertexes[idx1].Vertex, t)
	r.vertexShaderImpl(h)

	if postVertexProcess {
		perspectiveDivide(h)
		r.viewportTransform(h)
	}
	return idx
}

// lerpVertexBytes interpolates raw vertex attributes, which are always
// little-endian float32s.
func lerpVertexBytes(out, a, b []byte, t float32) {
	n := len(out) / 4
	for i := 0; i < n; i++ {
		av := math.Float32frombits(binary.LittleEndian.Uint32(a[i*4:]))
		bv := math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(av+(bv-av)*t))
	}
}

// processPerspectiveDivide converts clip space to normalized device
// coordinates, keeping 1/w in the w slot for perspective correction.
func (r *Renderer) processPerspectiveDivide() {
	for i := range r.vertexes {
		if r.vertexes[i].Discard {
			continue
		}
		perspectiveDivide(&r.vertexes[i])
	}
}

func perspectiveDivide(h *VertexHolder) {
	invW := 1 / h.ClipPos.W
	h.FragPos = math32.Vec4(
		h.ClipPos.X*invW,
		h.ClipPos.Y*invW,
		h.ClipPos.Z*invW,
		invW,
	)
}

// processViewportTransform maps NDC to window space.
func (r *Renderer) processViewportTransform() {
	for i := range r.vertexes {
		if r.vertexes[i].Discard {
			continue
		}
		r.viewportTransform(&r.vertexes[i])
	}
}

func (r *Renderer) viewportTransform(h *VertexHolder) {
	h.FragPos = h.FragPos.Mul(r.viewport.InnerP).Add(r.viewport.InnerO)
}

// processFaceCulling derives winding from the signed screen-space area
// and discards back faces when culling is enabled.
func (r *Renderer) processFaceCulling() {
	if r.topology != gputypes.PrimitiveTopologyTriangleList {
		return
	}

	for i := range r.primitives {
		tri := &r.primitives[i]
		if tri.Discard {
			continue
		}

		v0 := r.vertexes[tri.Indices[0]].FragPos
		v1 := r.vertexes[tri.Indices[1]].FragPos
		v2 := r.vertexes[tri.Indices[2]].FragPos

		e1 := math32.Vec3(v1.X-v0.X, v1.Y-v0.Y, v1.Z-v0.Z)
		e2 := math32.Vec3(v2.X-v0.X, v2.Y-v0.Y, v2.Z-v0.Z)
		area := e1.Cross(e2).Z
		tri.FrontFacing = area > 0

		if r.renderState.CullFace {
			tri.Discard = !tri.FrontFacing
		}
	}
}

// interpolateLinearVaryings mixes two varying slots into out at t.
func interpolateLinearVaryings(out []float32, in0, in1 []float32, t float32) {
	if len(in0) == 0 || len(in1) == 0 {
		return
	}
	wide.InterpolateLinear(out, in0, in1, t)
}
