package wide

// InterpolateBarycentric computes out[i] = in0[i]*bc0 + in1[i]*bc1 + in2[i]*bc2
// for every element of out. The main loop runs 8 lanes at a time, then 4,
// then a scalar tail, mirroring the AVX/SSE/scalar split of the attribute
// interpolation path. Callers that pad their varying slots to a multiple
// of 8 stay on the widest loop throughout.
func InterpolateBarycentric(out, in0, in1, in2 []float32, bc0, bc1, bc2 float32) {
	n := len(out)
	idx := 0

	if end := n &^ 7; end > 0 {
		b0 := SplatF32x8(bc0)
		b1 := SplatF32x8(bc1)
		b2 := SplatF32x8(bc2)
		for ; idx < end; idx += 8 {
			sum := LoadF32x8(in0, idx).Mul(b0)
			sum = LoadF32x8(in1, idx).MulAdd(b1, sum)
			sum = LoadF32x8(in2, idx).MulAdd(b2, sum)
			sum.Store(out, idx)
		}
	}

	if end := idx + ((n - idx) &^ 3); end > idx {
		b0 := SplatF32x4(bc0)
		b1 := SplatF32x4(bc1)
		b2 := SplatF32x4(bc2)
		for ; idx < end; idx += 4 {
			sum := LoadF32x4(in0, idx).Mul(b0)
			sum = LoadF32x4(in1, idx).MulAdd(b1, sum)
			sum = LoadF32x4(in2, idx).MulAdd(b2, sum)
			sum.Store(out, idx)
		}
	}

	for ; idx < n; idx++ {
		out[idx] = in0[idx]*bc0 + in1[idx]*bc1 + in2[idx]*bc2
	}
}

// InterpolateBarycentricScalar is the scalar reference for
// InterpolateBarycentric. Both must agree within float rounding; the
// tests compare them on random inputs.
func InterpolateBarycentricScalar(out, in0, in1, in2 []float32, bc0, bc1, bc2 float32) {
	for i := range out {
		out[i] = in0[i]*bc0 + in1[i]*bc1 + in2[i]*bc2
	}
}

// InterpolateLinear computes out[i] = in0[i] + (in1[i]-in0[i])*t, the
// two-endpoint mix used by line clipping and line rasterization.
func InterpolateLinear(out, in0, in1 []float32, t float32) {
	n := len(out)
	idx := 0

	if end := n &^ 7; end > 0 {
		tv := SplatF32x8(t)
		for ; idx < end; idx += 8 {
			a := LoadF32x8(in0, idx)
			d := LoadF32x8(in1, idx).Sub(a)
			d.MulAdd(tv, a).Store(out, idx)
		}
	}

	for ; idx < n; idx++ {
		out[idx] = in0[idx] + (in1[idx]-in0[idx])*t
	}
}

// BarycentricQuad evaluates the barycentric coordinates of four sample
// points against one triangle in a single batch.
//
// The triangle is pre-flattened into edge deltas: ax, ay are the deltas
// of vertex 2 relative to vertex 0, bx, by of vertex 1 relative to
// vertex 0, and invD is the reciprocal of the constant cross-product
// denominator. px and py hold the four sample positions. On return
// bc0/bc1/bc2 hold the per-lane barycentrics and inside flags lanes
// where all three are non-negative.
func BarycentricQuad(ax, ay, bx, by, invD float32, px, py F32x4, x0, y0 float32) (bc0, bc1, bc2 F32x4, inside [4]bool) {
	dx := SplatF32x4(x0).Sub(px)
	dy := SplatF32x4(y0).Sub(py)

	var ux, uy F32x4
	for i := range ux {
		ux[i] = bx*dy[i] - dx[i]*by
		uy[i] = dx[i]*ay - ax*dy[i]
	}

	inv := SplatF32x4(invD)
	bc2 = ux.Mul(inv)
	bc1 = uy.Mul(inv)
	for i := range bc0 {
		bc0[i] = 1 - (bc1[i] + bc2[i])
		inside[i] = bc0[i] >= 0 && bc1[i] >= 0 && bc2[i] >= 0
	}
	return bc0, bc1, bc2, inside
}
