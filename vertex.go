package softgl

import (
	"encoding/binary"

	"cogentcore.org/core/math32"
	"github.com/gogpu/gputypes"
)

// VertexAttributeDesc describes one interleaved float attribute:
// component count, byte stride between consecutive vertices, and byte
// offset of the first component. Attribute 0 is position.
type VertexAttributeDesc struct {
	Size   int
	Stride int
	Offset int
}

// VertexArray is the caller-provided geometry: interleaved little-endian
// float32 vertex bytes plus 32-bit indices. The renderer borrows the
// slices for the duration of CreateVertexArrayObject, which copies them.
type VertexArray struct {
	VertexSize    int
	VertexesDesc  []VertexAttributeDesc
	VertexesBytes []byte

	// IndexBytes holds tightly packed little-endian int32 indices.
	IndexBytes []byte
}

// IndexFormat returns the one supported index format.
func (VertexArray) IndexFormat() gputypes.IndexFormat {
	return gputypes.IndexFormatUint32
}

// VertexArrayObject is the renderer-side copy of a VertexArray.
type VertexArrayObject struct {
	id uint32

	vertexStride int
	vertexCount  int
	vertexes     []byte
	indices      []int32
}

// newVertexArrayObject is backed by Renderer.CreateVertexArrayObject.
func newVertexArrayObject(id uint32, va VertexArray) *VertexArrayObject {
	vao := &VertexArrayObject{id: id}

	if len(va.VertexesDesc) == 0 || va.VertexesDesc[0].Stride <= 0 {
		Logger().Warn("softgl: vertex array without attribute descriptions", "vao", id)
		return vao
	}

	vao.vertexStride = va.VertexesDesc[0].Stride
	vao.vertexCount = len(va.VertexesBytes) / vao.vertexStride
	vao.vertexes = make([]byte, vao.vertexCount*vao.vertexStride)
	copy(vao.vertexes, va.VertexesBytes)

	indexCount := len(va.IndexBytes) / 4
	vao.indices = make([]int32, indexCount)
	for i := 0; i < indexCount; i++ {
		vao.indices[i] = int32(binary.LittleEndian.Uint32(va.IndexBytes[i*4:]))
	}

	return vao
}

// ID returns the renderer-unique VAO id.
func (v *VertexArrayObject) ID() uint32 { return v.id }

// UpdateVertexData overwrites the vertex bytes in place, up to the
// existing size.
func (v *VertexArrayObject) UpdateVertexData(data []byte) {
	copy(v.vertexes, data)
}

// vertexBytes returns the byte slice of one vertex.
func (v *VertexArrayObject) vertexBytes(idx int) []byte {
	off := idx * v.vertexStride
	return v.vertexes[off : off+v.vertexStride]
}

// Clip-plane bit assignments of the frustum clip mask.
const (
	clipPositiveX = 1 << iota
	clipNegativeX
	clipPositiveY
	clipNegativeY
	clipPositiveZ
	clipNegativeZ
)

// frustumClipPlanes are the six homogeneous clip planes w±{x,y,z} >= 0,
// indexed to match the clip mask bits.
var frustumClipPlanes = [6]math32.Vector4{
	{X: -1, Y: 0, Z: 0, W: 1},
	{X: 1, Y: 0, Z: 0, W: 1},
	{X: 0, Y: -1, Z: 0, W: 1},
	{X: 0, Y: 1, Z: 0, W: 1},
	{X: 0, Y: 0, Z: -1, W: 1},
	{X: 0, Y: 0, Z: 1, W: 1},
}

// countFrustumClipMask records which clip planes a clip-space position
// violates, one bit per plane.
func countFrustumClipMask(p math32.Vector4) uint8 {
	var mask uint8
	if p.W < p.X {
		mask |= clipPositiveX
	}
	if p.W < -p.X {
		mask |= clipNegativeX
	}
	if p.W < p.Y {
		mask |= clipPositiveY
	}
	if p.W < -p.Y {
		mask |= clipNegativeY
	}
	if p.W < p.Z {
		mask |= clipPositiveZ
	}
	if p.W < -p.Z {
		mask |= clipNegativeZ
	}
	return mask
}

// VertexHolder is the per-vertex working record of one draw call.
type VertexHolder struct {
	Index int

	// Vertex is the raw input bytes of this vertex. Clipping-synthesized
	// vertices own a fresh allocation.
	Vertex []byte

	// Varyings is the vertex stage's output slot, padded to the
	// interpolation batch granularity.
	Varyings []float32

	// ClipPos is the clip-space position from the vertex stage.
	ClipPos math32.Vector4

	// FragPos is the window-space position after perspective divide and
	// viewport transform; w holds 1/clip_w.
	FragPos math32.Vector4

	// ClipMask records violated clip planes.
	ClipMask uint8

	Discard bool
}

// PrimitiveHolder groups 1 to 3 vertex indices into a point, line or
// triangle.
type PrimitiveHolder struct {
	Indices     [3]int
	Discard     bool
	FrontFacing bool
}
