package wide

// F32x4 represents 4 float32 values for SIMD-style operations.
// Used where the natural batch width is four: one value per pixel of a
// 2x2 quad, or one per lane of a barycentric triple.
type F32x4 [4]float32

// SplatF32x4 creates an F32x4 with all elements set to n.
func SplatF32x4(n float32) F32x4 {
	var result F32x4
	for i := range result {
		result[i] = n
	}
	return result
}

// LoadF32x4 loads 4 consecutive values from s starting at off.
// The caller guarantees len(s) >= off+4.
func LoadF32x4(s []float32, off int) F32x4 {
	var result F32x4
	copy(result[:], s[off:off+4])
	return result
}

// Store writes the 4 lanes to s starting at off.
// The caller guarantees len(s) >= off+4.
func (v F32x4) Store(s []float32, off int) {
	copy(s[off:off+4], v[:])
}

// Add performs element-wise addition.
func (v F32x4) Add(other F32x4) F32x4 {
	var result F32x4
	for i := range v {
		result[i] = v[i] + other[i]
	}
	return result
}

// Sub performs element-wise subtraction.
func (v F32x4) Sub(other F32x4) F32x4 {
	var result F32x4
	for i := range v {
		result[i] = v[i] - other[i]
	}
	return result
}

// Mul performs element-wise multiplication.
func (v F32x4) Mul(other F32x4) F32x4 {
	var result F32x4
	for i := range v {
		result[i] = v[i] * other[i]
	}
	return result
}

// MulAdd returns v*m + a per element.
func (v F32x4) MulAdd(m F32x4, a F32x4) F32x4 {
	var result F32x4
	for i := range v {
		result[i] = v[i]*m[i] + a[i]
	}
	return result
}
