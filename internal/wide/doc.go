// Package wide provides SIMD-style batch operations on fixed-size arrays.
//
// The types use fixed-size float32 arrays with simple per-element loops,
// a shape the Go compiler can auto-vectorize on amd64 and arm64. The
// rasterizer's hot paths (barycentric evaluation and varying
// interpolation) are expressed through these batches, with scalar
// reference implementations kept alongside for the loop tails and for
// differential testing.
package wide
