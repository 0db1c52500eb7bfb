package softgl

import "cogentcore.org/core/math32"

// rasterizationPoint fills the square of side size centered on the
// vertex's window position, shading once per pixel. Depth comes from the
// vertex, undistorted across the square.
func (r *Renderer) rasterizationPoint(v *VertexHolder, size float32) {
	if r.fboColor == nil {
		return
	}

	left := v.FragPos.X - size/2 + 0.5
	right := left + size
	top := v.FragPos.Y - size/2 + 0.5
	bottom := top + size

	screenPos := v.FragPos
	for x := int(left); x < int(right); x++ {
		for y := int(top); y < int(bottom); y++ {
			screenPos.X = float32(x)
			screenPos.Y = float32(y)
			r.processFragmentShader(screenPos, true, v.Varyings, r.program)

			builtins := r.program.Builtins()
			if builtins.Discard {
				continue
			}
			for idx := 0; idx < r.rasterSamples; idx++ {
				r.processPerSampleOperations(x, y, screenPos.Z, builtins.FragColor, idx)
			}
		}
	}
}

// rasterizationLine steps a Bresenham line between the two window-space
// endpoints, interpolating z, 1/w and varyings along the dominant axis
// and stamping each step through the point path at the line width.
func (r *Renderer) rasterizationLine(v0, v1 *VertexHolder, lineWidth float32) {
	x0, y0 := int(v0.FragPos.X), int(v0.FragPos.Y)
	x1, y1 := int(v1.FragPos.X), int(v1.FragPos.Y)

	z0, z1 := v0.FragPos.Z, v1.FragPos.Z
	w0, w1 := v0.FragPos.W, v1.FragPos.W

	steep := false
	if absInt(x0-x1) < absInt(y0-y1) {
		x0, y0 = y0, x0
		x1, y1 = y1, x1
		steep = true
	}

	varyingsIn := [2][]float32{v0.Varyings, v1.Varyings}

	if x0 > x1 {
		x0, x1 = x1, x0
		y0, y1 = y1, y0
		z0, z1 = z1, z0
		w0, w1 = w1, w0
		varyingsIn[0], varyingsIn[1] = varyingsIn[1], varyingsIn[0]
	}

	dx := x1 - x0
	dy := y1 - y0

	errAcc := 0
	dErr := 2 * absInt(dy)

	y := y0

	pt := VertexHolder{}
	if r.varyingsCount > 0 {
		pt.Varyings = make([]float32, r.varyingsCount)
	}

	for x := x0; x <= x1; x++ {
		t := float32(0)
		if dx != 0 {
			t = float32(x-x0) / float32(dx)
		}
		pt.FragPos = math32.Vec4(float32(x), float32(y), mix(z0, z1, t), mix(w0, w1, t))
		if steep {
			pt.FragPos.X, pt.FragPos.Y = pt.FragPos.Y, pt.FragPos.X
		}
		interpolateLinearVaryings(pt.Varyings, varyingsIn[0][:min(len(varyingsIn[0]), r.varyingsCount)],
			varyingsIn[1][:min(len(varyingsIn[1]), r.varyingsCount)], t)
		r.rasterizationPoint(&pt, lineWidth)

		errAcc += dErr
		if errAcc > dx {
			if y1 > y0 {
				y++
			} else {
				y--
			}
			errAcc -= 2 * dx
		}
	}
}

// rasterizationPolygonsPoint rasterizes triangle vertices as points
// (point polygon mode), clipping each point on the fly.
func (r *Renderer) rasterizationPolygonsPoint() {
	for i := range r.primitives {
		tri := r.primitives[i]
		if tri.Discard {
			continue
		}
		for _, idx := range tri.Indices {
			point := PrimitiveHolder{
				Indices:     [3]int{idx},
				FrontFacing: tri.FrontFacing,
			}

			r.clippingPoint(&point)
			if point.Discard {
				continue
			}
			r.rasterizationPoint(&r.vertexes[point.Indices[0]], r.pointSize)
		}
	}
}

// rasterizationPolygonsLine rasterizes triangle edges as lines (line
// polygon mode). Edge clipping happens here, after the vertex transform
// stages, so synthesized endpoints run divide and viewport immediately.
func (r *Renderer) rasterizationPolygonsLine() {
	for i := range r.primitives {
		tri := r.primitives[i]
		if tri.Discard {
			continue
		}
		for e := 0; e < 3; e++ {
			line := PrimitiveHolder{
				Indices:     [3]int{tri.Indices[e], tri.Indices[(e+1)%3]},
				FrontFacing: tri.FrontFacing,
			}

			r.clippingLine(&line, true)
			if line.Discard {
				continue
			}
			r.rasterizationLine(
				&r.vertexes[line.Indices[0]],
				&r.vertexes[line.Indices[1]],
				r.renderState.LineWidth)
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func mix(a, b, t float32) float32 {
	return a + (b-a)*t
}
