package wide

// F32x8 represents 8 float32 values for SIMD-style operations.
// Designed for Go compiler auto-vectorization with fixed-size arrays.
type F32x8 [8]float32

// SplatF32x8 creates an F32x8 with all elements set to n.
func SplatF32x8(n float32) F32x8 {
	var result F32x8
	for i := range result {
		result[i] = n
	}
	return result
}

// LoadF32x8 loads 8 consecutive values from s starting at off.
// The caller guarantees len(s) >= off+8.
func LoadF32x8(s []float32, off int) F32x8 {
	var result F32x8
	copy(result[:], s[off:off+8])
	return result
}

// Store writes the 8 lanes to s starting at off.
// The caller guarantees len(s) >= off+8.
func (v F32x8) Store(s []float32, off int) {
	copy(s[off:off+8], v[:])
}

// Add performs element-wise addition.
func (v F32x8) Add(other F32x8) F32x8 {
	var result F32x8
	for i := range v {
		result[i] = v[i] + other[i]
	}
	return result
}

// Sub performs element-wise subtraction.
func (v F32x8) Sub(other F32x8) F32x8 {
	var result F32x8
	for i := range v {
		result[i] = v[i] - other[i]
	}
	return result
}

// Mul performs element-wise multiplication.
func (v F32x8) Mul(other F32x8) F32x8 {
	var result F32x8
	for i := range v {
		result[i] = v[i] * other[i]
	}
	return result
}

// MulScalar multiplies every lane by n.
func (v F32x8) MulScalar(n float32) F32x8 {
	var result F32x8
	for i := range v {
		result[i] = v[i] * n
	}
	return result
}

// MulAdd returns v*m + a per element, the fused shape of the
// interpolation inner loop.
func (v F32x8) MulAdd(m F32x8, a F32x8) F32x8 {
	var result F32x8
	for i := range v {
		result[i] = v[i]*m[i] + a[i]
	}
	return result
}
