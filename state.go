package softgl

import (
	"cogentcore.org/core/math32"
	m32 "github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
)

// PolygonMode selects how assembled triangles are rasterized.
type PolygonMode uint8

const (
	// PolygonModePoint rasterizes only the triangle vertices as points.
	PolygonModePoint PolygonMode = iota

	// PolygonModeLine rasterizes only the triangle edges as lines.
	PolygonModeLine

	// PolygonModeFill rasterizes the full triangle interior.
	PolygonModeFill
)

// BlendParams holds the blend equation: an operation plus source and
// destination factors, specified separately for the RGB and alpha
// channels. The zero-configured NewBlendParams value is the pass-through
// equation src*ONE + dst*ZERO.
type BlendParams struct {
	FuncRGB gputypes.BlendOperation
	SrcRGB  gputypes.BlendFactor
	DstRGB  gputypes.BlendFactor

	FuncAlpha gputypes.BlendOperation
	SrcAlpha  gputypes.BlendFactor
	DstAlpha  gputypes.BlendFactor
}

// NewBlendParams returns the default pass-through blend equation.
func NewBlendParams() BlendParams {
	return BlendParams{
		FuncRGB:   gputypes.BlendOperationAdd,
		SrcRGB:    gputypes.BlendFactorOne,
		DstRGB:    gputypes.BlendFactorZero,
		FuncAlpha: gputypes.BlendOperationAdd,
		SrcAlpha:  gputypes.BlendFactorOne,
		DstAlpha:  gputypes.BlendFactorZero,
	}
}

// SetFactor sets the same source and destination factors for RGB and alpha.
func (p *BlendParams) SetFactor(src, dst gputypes.BlendFactor) {
	p.SrcRGB = src
	p.SrcAlpha = src
	p.DstRGB = dst
	p.DstAlpha = dst
}

// SetFunc sets the same blend operation for RGB and alpha.
func (p *BlendParams) SetFunc(op gputypes.BlendOperation) {
	p.FuncRGB = op
	p.FuncAlpha = op
}

// RenderState is the full fixed-function state consulted by a draw call.
type RenderState struct {
	Blend       bool
	BlendParams BlendParams

	DepthTest bool
	DepthMask bool
	DepthFunc gputypes.CompareFunction

	// CullFace discards back faces when set; front faces are never culled.
	CullFace    bool
	PolygonMode PolygonMode

	LineWidth float32
	PointSize float32
}

// NewRenderState returns the default state: no blending, depth test off
// with LESS and writes enabled, no culling, filled polygons, unit-width
// lines and points.
func NewRenderState() RenderState {
	return RenderState{
		BlendParams: NewBlendParams(),
		DepthMask:   true,
		DepthFunc:   gputypes.CompareFunctionLess,
		PolygonMode: PolygonModeFill,
		LineWidth:   1,
		PointSize:   1,
	}
}

// ClearState describes what Clear writes.
type ClearState struct {
	ColorFlag  bool
	DepthFlag  bool
	ClearColor math32.Vector4
	ClearDepth float32
}

// DefaultDepthFunc returns the depth comparison matching the depth
// convention: GreaterEqual under reversed-Z, Less otherwise.
func DefaultDepthFunc(reverseZ bool) gputypes.CompareFunction {
	if reverseZ {
		return gputypes.CompareFunctionGreaterEqual
	}
	return gputypes.CompareFunctionLess
}

// DefaultClearDepth returns the depth-buffer clear value matching the
// depth convention: 0 under reversed-Z (far plane), 1 otherwise.
func DefaultClearDepth(reverseZ bool) float32 {
	if reverseZ {
		return 0
	}
	return 1
}

// Viewport is the window-space transform state. The inner origin and
// scale vectors are precomputed so the per-vertex transform is a single
// multiply-add.
type Viewport struct {
	X      float32
	Y      float32
	Width  float32
	Height float32

	MinDepth float32
	MaxDepth float32

	// AbsMinDepth and AbsMaxDepth bound the depth range regardless of
	// min/max ordering; samples are clamped against them.
	AbsMinDepth float32
	AbsMaxDepth float32

	// InnerO and InnerP hold the precomputed origin and scale:
	// fragPos = ndc*InnerP + InnerO.
	InnerO math32.Vector4
	InnerP math32.Vector4
}

// SetViewport recomputes the viewport for the given rectangle with the
// standard [0, 1] depth range.
func (v *Viewport) SetViewport(x, y, width, height int) {
	v.X = float32(x)
	v.Y = float32(y)
	v.Width = float32(width)
	v.Height = float32(height)

	v.MinDepth = 0
	v.MaxDepth = 1
	v.AbsMinDepth = m32.Min(v.MinDepth, v.MaxDepth)
	v.AbsMaxDepth = m32.Max(v.MinDepth, v.MaxDepth)

	v.InnerO = math32.Vec4(v.X+v.Width/2, v.Y+v.Height/2, v.MinDepth, 0)
	v.InnerP = math32.Vec4(v.Width/2, v.Height/2, v.MaxDepth-v.MinDepth, 1)
}
