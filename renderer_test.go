package softgl

import (
	"sync/atomic"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/gogpu/gputypes"
)

// testTarget bundles a renderer draw target for the pipeline tests.
type testTarget struct {
	fb    *Framebuffer
	color *Texture
	depth *Texture
}

func newTestTarget(t *testing.T, r *Renderer, w, h int, multiSample, withDepth bool) *testTarget {
	t.Helper()

	color := r.CreateTexture(TextureDesc{
		Width: w, Height: h,
		Format:      gputypes.TextureFormatRGBA8Unorm,
		Usage:       TextureUsageAttachmentColor,
		MultiSample: multiSample,
	})
	if color == nil {
		t.Fatal("CreateTexture(color) = nil")
	}
	color.InitImageData()

	fb := r.CreateFrameBuffer(true)
	fb.SetColorAttachment(color, 0)

	tt := &testTarget{fb: fb, color: color}
	if withDepth {
		depth := r.CreateTexture(TextureDesc{
			Width: w, Height: h,
			Format:      gputypes.TextureFormatDepth32Float,
			Usage:       TextureUsageAttachmentDepth,
			MultiSample: multiSample,
		})
		depth.InitImageData()
		fb.SetDepthAttachment(depth)
		tt.depth = depth
	}
	return tt
}

// pixel reads back one resolved color pixel.
func (tt *testTarget) pixel(x, y int) RGBA {
	return tt.fb.colorBuffer().Buf.Get(x, y)
}

// vertexBytes packs vec4 positions (plus optional extra floats per
// vertex) into interleaved vertex bytes.
func vertexBytes(verts ...[]float32) []byte {
	var b []byte
	for _, v := range verts {
		for _, f := range v {
			b = putFloat32(b, f)
		}
	}
	return b
}

func indexBytes(indices ...int32) []byte {
	b := make([]byte, 0, len(indices)*4)
	for _, idx := range indices {
		b = append(b, byte(idx), byte(idx>>8), byte(idx>>16), byte(idx>>24))
	}
	return b
}

// fullScreenTriangle is a single triangle covering the whole viewport
// after clipping, at depth z.
func fullScreenTriangle(z float32) []byte {
	return vertexBytes(
		[]float32{-1, -1, z, 1},
		[]float32{3, -1, z, 1},
		[]float32{-1, 3, z, 1},
	)
}

func newFlatProgram(t *testing.T, r *Renderer) *Program {
	t.Helper()
	prog := r.CreateShaderProgram()
	if !prog.SetShaders(&flatVertexShader{}, &flatFragmentShader{}) {
		t.Fatal("SetShaders failed")
	}
	return prog
}

func flatUniforms(r *Renderer, color math32.Vector4) *ShaderUniforms {
	block := r.CreateUniformBlock("UniformColor", 16)
	block.SetData(vec4Bytes(color))
	u := NewShaderUniforms()
	u.Blocks[block.Name()] = block
	return u
}

func drawFlatTriangles(t *testing.T, r *Renderer, tt *testTarget, verts []byte, indices []byte, color math32.Vector4, state RenderState) {
	t.Helper()
	vao := r.CreateVertexArrayObject(VertexArray{
		VertexSize:    16,
		VertexesDesc:  []VertexAttributeDesc{{Size: 4, Stride: 16, Offset: 0}},
		VertexesBytes: verts,
		IndexBytes:    indices,
	})

	r.SetFrameBuffer(tt.fb)
	r.SetRenderState(state)
	r.SetVertexArrayObject(vao)
	prog := newFlatProgram(t, r)
	r.SetShaderProgram(prog)
	r.SetShaderUniforms(flatUniforms(r, color))
	r.Draw(gputypes.PrimitiveTopologyTriangleList)
}

// TestClearSolidColor is the solid clear scenario: every texel matches
// the scaled clear color, with no draws.
func TestClearSolidColor(t *testing.T) {
	r := NewRenderer()
	defer r.Close()
	tt := newTestTarget(t, r, 16, 16, false, false)

	r.SetFrameBuffer(tt.fb)
	r.SetViewPort(0, 0, 16, 16)
	r.Clear(ClearState{ColorFlag: true, ClearColor: math32.Vec4(1, 0, 0, 1)})

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if got := tt.pixel(x, y); got != (RGBA{255, 0, 0, 255}) {
				t.Fatalf("pixel(%d, %d) = %v, want {255 0 0 255}", x, y, got)
			}
		}
	}
}

// TestFullScreenTriangle draws one clipped full-screen triangle with a
// flat color: all texels covered.
func TestFullScreenTriangle(t *testing.T) {
	r := NewRenderer()
	defer r.Close()
	tt := newTestTarget(t, r, 4, 4, false, false)

	r.SetFrameBuffer(tt.fb)
	r.SetViewPort(0, 0, 4, 4)
	r.Clear(ClearState{ColorFlag: true, ClearColor: math32.Vec4(0, 0, 0, 1)})

	drawFlatTriangles(t, r, tt, fullScreenTriangle(0), indexBytes(0, 1, 2),
		math32.Vec4(0, 1, 0, 1), NewRenderState())

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := tt.pixel(x, y); got != (RGBA{0, 255, 0, 255}) {
				t.Fatalf("pixel(%d, %d) = %v, want {0 255 0 255}", x, y, got)
			}
		}
	}
}

// TestDepthTestResolvesOverlap draws a far red triangle then a near blue
// one under LESS: blue wins everywhere, in either draw order.
func TestDepthTestResolvesOverlap(t *testing.T) {
	run := func(t *testing.T, redFirst bool) {
		r := NewRenderer()
		defer r.Close()
		tt := newTestTarget(t, r, 2, 2, false, true)

		r.SetFrameBuffer(tt.fb)
		r.SetViewPort(0, 0, 2, 2)
		r.Clear(ClearState{
			ColorFlag: true, DepthFlag: true,
			ClearColor: math32.Vec4(0, 0, 0, 1), ClearDepth: 1,
		})

		state := NewRenderState()
		state.DepthTest = true
		state.DepthMask = true
		state.DepthFunc = gputypes.CompareFunctionLess

		red := func() {
			drawFlatTriangles(t, r, tt, fullScreenTriangle(0.8), indexBytes(0, 1, 2),
				math32.Vec4(1, 0, 0, 1), state)
		}
		blue := func() {
			drawFlatTriangles(t, r, tt, fullScreenTriangle(0.2), indexBytes(0, 1, 2),
				math32.Vec4(0, 0, 1, 1), state)
		}
		if redFirst {
			red()
			blue()
		} else {
			blue()
			red()
		}

		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				if got := tt.pixel(x, y); got != (RGBA{0, 0, 255, 255}) {
					t.Fatalf("pixel(%d, %d) = %v, want blue", x, y, got)
				}
			}
		}
	}

	t.Run("far then near", func(t *testing.T) { run(t, true) })
	t.Run("near then far", func(t *testing.T) { run(t, false) })
}

// TestBlending draws a half-transparent red triangle over black with
// SRC_ALPHA/ONE_MINUS_SRC_ALPHA ADD.
func TestBlending(t *testing.T) {
	r := NewRenderer()
	defer r.Close()
	tt := newTestTarget(t, r, 1, 1, false, false)

	r.SetFrameBuffer(tt.fb)
	r.SetViewPort(0, 0, 1, 1)
	r.Clear(ClearState{ColorFlag: true, ClearColor: math32.Vec4(0, 0, 0, 1)})

	state := NewRenderState()
	state.Blend = true
	state.BlendParams.SetFactor(gputypes.BlendFactorSrcAlpha, gputypes.BlendFactorOneMinusSrcAlpha)
	state.BlendParams.SetFunc(gputypes.BlendOperationAdd)

	drawFlatTriangles(t, r, tt, fullScreenTriangle(0), indexBytes(0, 1, 2),
		math32.Vec4(1, 0, 0, 0.5), state)

	got := tt.pixel(0, 0)
	// rgb: 1*0.5 + 0*0.5 = 0.5; alpha: 0.5*0.5 + 1*0.5 = 0.75.
	want := RGBA{128, 0, 0, 191}
	for i := range got {
		if d := int(got[i]) - int(want[i]); d < -1 || d > 1 {
			t.Fatalf("pixel = %v, want %v (+-1)", got, want)
		}
	}
}

// TestZeroAreaTriangleDiscarded rasterizes a degenerate triangle: the
// target must stay untouched.
func TestZeroAreaTriangleDiscarded(t *testing.T) {
	r := NewRenderer()
	defer r.Close()
	tt := newTestTarget(t, r, 4, 4, false, false)

	r.SetFrameBuffer(tt.fb)
	r.SetViewPort(0, 0, 4, 4)
	r.Clear(ClearState{ColorFlag: true, ClearColor: math32.Vec4(0, 0, 0, 1)})

	// Collinear vertices.
	verts := vertexBytes(
		[]float32{-0.5, -0.5, 0, 1},
		[]float32{0, 0, 0, 1},
		[]float32{0.5, 0.5, 0, 1},
	)
	drawFlatTriangles(t, r, tt, verts, indexBytes(0, 1, 2),
		math32.Vec4(0, 1, 0, 1), NewRenderState())

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := tt.pixel(x, y); got != (RGBA{0, 0, 0, 255}) {
				t.Fatalf("pixel(%d, %d) = %v, want untouched black", x, y, got)
			}
		}
	}
}

// TestMSAAResolve draws a half-screen triangle on a 4x target: interior
// pixels fully green, exterior red, the diagonal averaged.
func TestMSAAResolve(t *testing.T) {
	r := NewRenderer()
	defer r.Close()
	tt := newTestTarget(t, r, 4, 4, true, false)

	r.SetFrameBuffer(tt.fb)
	r.SetViewPort(0, 0, 4, 4)
	r.Clear(ClearState{ColorFlag: true, ClearColor: math32.Vec4(1, 0, 0, 1)})

	// Lower-left half: window-space triangle (0,0) (4,0) (0,4).
	verts := vertexBytes(
		[]float32{-1, -1, 0, 1},
		[]float32{1, -1, 0, 1},
		[]float32{-1, 1, 0, 1},
	)
	drawFlatTriangles(t, r, tt, verts, indexBytes(0, 1, 2),
		math32.Vec4(0, 1, 0, 1), NewRenderState())

	// Fully covered pixel: all samples green.
	if got := tt.pixel(0, 0); got != (RGBA{0, 255, 0, 255}) {
		t.Errorf("interior pixel = %v, want full green", got)
	}
	// Fully uncovered pixel: clear color intact.
	if got := tt.pixel(3, 3); got != (RGBA{255, 0, 0, 255}) {
		t.Errorf("exterior pixel = %v, want clear red", got)
	}
	// Diagonal pixel (1, 2): 3 of 4 samples inside (two land exactly on
	// the edge and count as covered).
	got := tt.pixel(1, 2)
	want := RGBA{63, 191, 0, 255}
	for i := range got {
		if d := int(got[i]) - int(want[i]); d < -1 || d > 1 {
			t.Errorf("edge pixel = %v, want ~%v", got, want)
			break
		}
	}
}

// countingFragmentShader counts invocations; used to observe early-Z.
type countingFragmentShader struct {
	ShaderBase
	count *atomic.Int64
}

func (s *countingFragmentShader) Main() {
	s.count.Add(1)
	s.GL.FragColor = math32.Vec4(1, 1, 0, 1)
}

func (s *countingFragmentShader) Defines() []string          { return nil }
func (s *countingFragmentShader) UniformsDesc() []UniformDesc { return nil }
func (s *countingFragmentShader) UniformsSize() int           { return 0 }
func (s *countingFragmentShader) VaryingsSize() int           { return 0 }
func (s *countingFragmentShader) Clone() Shader               { c := *s; return &c }

// countingVertexShader is the pass-through vertex stage for the counting
// fragment shader.
type countingVertexShader struct {
	ShaderBase
}

func (s *countingVertexShader) Main() {
	s.GL.Position = math32.Vec4(
		float32At(s.A, 0), float32At(s.A, 4), float32At(s.A, 8), float32At(s.A, 12))
}

func (s *countingVertexShader) Defines() []string          { return nil }
func (s *countingVertexShader) UniformsDesc() []UniformDesc { return nil }
func (s *countingVertexShader) UniformsSize() int           { return 0 }
func (s *countingVertexShader) VaryingsSize() int           { return 0 }
func (s *countingVertexShader) Clone() Shader               { c := *s; return &c }

// TestEarlyZSkipsShading occludes a far triangle behind a near one; with
// early-Z on, the far triangle's fragments never shade.
func TestEarlyZSkipsShading(t *testing.T) {
	r := NewRenderer()
	defer r.Close()
	r.SetEarlyZ(true)
	tt := newTestTarget(t, r, 4, 4, false, true)

	r.SetFrameBuffer(tt.fb)
	r.SetViewPort(0, 0, 4, 4)
	r.Clear(ClearState{
		ColorFlag: true, DepthFlag: true,
		ClearColor: math32.Vec4(0, 0, 0, 1), ClearDepth: 1,
	})

	state := NewRenderState()
	state.DepthTest = true

	// Near blue triangle writes depth 0.2 everywhere.
	drawFlatTriangles(t, r, tt, fullScreenTriangle(0.2), indexBytes(0, 1, 2),
		math32.Vec4(0, 0, 1, 1), state)

	// Far triangle with the counting shader: every sample fails early-Z.
	var count atomic.Int64
	vao := r.CreateVertexArrayObject(VertexArray{
		VertexSize:    16,
		VertexesDesc:  []VertexAttributeDesc{{Size: 4, Stride: 16, Offset: 0}},
		VertexesBytes: fullScreenTriangle(0.8),
		IndexBytes:    indexBytes(0, 1, 2),
	})
	prog := r.CreateShaderProgram()
	prog.SetShaders(&countingVertexShader{}, &countingFragmentShader{count: &count})

	r.SetRenderState(state)
	r.SetVertexArrayObject(vao)
	r.SetShaderProgram(prog)
	r.Draw(gputypes.PrimitiveTopologyTriangleList)

	if got := count.Load(); got != 0 {
		t.Errorf("occluded fragment shader ran %d times, want 0", got)
	}
	if got := tt.pixel(1, 1); got != (RGBA{0, 0, 255, 255}) {
		t.Errorf("pixel = %v, want near blue", got)
	}
}

// TestDiscardDropsFragments draws with a discarding shader: no writes.
func TestDiscardDropsFragments(t *testing.T) {
	r := NewRenderer()
	defer r.Close()
	tt := newTestTarget(t, r, 2, 2, false, false)

	r.SetFrameBuffer(tt.fb)
	r.SetViewPort(0, 0, 2, 2)
	r.Clear(ClearState{ColorFlag: true, ClearColor: math32.Vec4(1, 0, 0, 1)})

	vao := r.CreateVertexArrayObject(VertexArray{
		VertexSize:    16,
		VertexesDesc:  []VertexAttributeDesc{{Size: 4, Stride: 16, Offset: 0}},
		VertexesBytes: fullScreenTriangle(0),
		IndexBytes:    indexBytes(0, 1, 2),
	})
	prog := r.CreateShaderProgram()
	prog.SetShaders(&countingVertexShader{}, &discardFragmentShader{})

	r.SetFrameBuffer(tt.fb)
	r.SetRenderState(NewRenderState())
	r.SetVertexArrayObject(vao)
	r.SetShaderProgram(prog)
	r.Draw(gputypes.PrimitiveTopologyTriangleList)

	if got := tt.pixel(0, 0); got != (RGBA{255, 0, 0, 255}) {
		t.Errorf("pixel = %v, want untouched red", got)
	}
}

// TestReverseZDefaults checks the convention-dependent defaults and the
// reversed comparison end to end.
func TestReverseZDefaults(t *testing.T) {
	r := NewRenderer()
	defer r.Close()

	if got := r.DefaultDepthFunc(); got != gputypes.CompareFunctionLess {
		t.Errorf("DefaultDepthFunc() = %v, want Less", got)
	}
	if got := r.DefaultClearDepth(); got != 1 {
		t.Errorf("DefaultClearDepth() = %v, want 1", got)
	}

	r.SetReverseZ(true)
	if got := r.DefaultDepthFunc(); got != gputypes.CompareFunctionGreaterEqual {
		t.Errorf("reverse-Z DefaultDepthFunc() = %v, want GreaterEqual", got)
	}
	if got := r.DefaultClearDepth(); got != 0 {
		t.Errorf("reverse-Z DefaultClearDepth() = %v, want 0", got)
	}

	// Under reversed depth the larger z wins.
	tt := newTestTarget(t, r, 2, 2, false, true)
	r.SetFrameBuffer(tt.fb)
	r.SetViewPort(0, 0, 2, 2)
	r.Clear(ClearState{
		ColorFlag: true, DepthFlag: true,
		ClearColor: math32.Vec4(0, 0, 0, 1), ClearDepth: r.DefaultClearDepth(),
	})

	state := NewRenderState()
	state.DepthTest = true
	state.DepthFunc = r.DefaultDepthFunc()

	drawFlatTriangles(t, r, tt, fullScreenTriangle(0.8), indexBytes(0, 1, 2),
		math32.Vec4(1, 0, 0, 1), state)
	drawFlatTriangles(t, r, tt, fullScreenTriangle(0.2), indexBytes(0, 1, 2),
		math32.Vec4(0, 0, 1, 1), state)

	if got := tt.pixel(0, 0); got != (RGBA{255, 0, 0, 255}) {
		t.Errorf("pixel = %v, want red (z=0.8 wins under GreaterEqual)", got)
	}
}

// TestDrawWithoutBindingsIsNoOp exercises the silent-failure contract.
func TestDrawWithoutBindingsIsNoOp(t *testing.T) {
	r := NewRenderer()
	defer r.Close()

	// Nothing bound at all.
	r.Draw(gputypes.PrimitiveTopologyTriangleList)

	// Framebuffer without attachments.
	fb := r.CreateFrameBuffer(true)
	if fb.IsValid() {
		t.Error("empty framebuffer reports valid")
	}
	r.SetFrameBuffer(fb)
	r.Draw(gputypes.PrimitiveTopologyTriangleList)
}

// TestPointRasterization draws one point of size 2 at the viewport
// center.
func TestPointRasterization(t *testing.T) {
	r := NewRenderer()
	defer r.Close()
	tt := newTestTarget(t, r, 4, 4, false, false)

	r.SetFrameBuffer(tt.fb)
	r.SetViewPort(0, 0, 4, 4)
	r.Clear(ClearState{ColorFlag: true, ClearColor: math32.Vec4(0, 0, 0, 1)})

	state := NewRenderState()
	state.PointSize = 2

	vao := r.CreateVertexArrayObject(VertexArray{
		VertexSize:    16,
		VertexesDesc:  []VertexAttributeDesc{{Size: 4, Stride: 16, Offset: 0}},
		VertexesBytes: vertexBytes([]float32{0, 0, 0, 1}),
		IndexBytes:    indexBytes(0),
	})
	r.SetRenderState(state)
	r.SetVertexArrayObject(vao)
	prog := newFlatProgram(t, r)
	r.SetShaderProgram(prog)
	r.SetShaderUniforms(flatUniforms(r, math32.Vec4(0, 1, 0, 1)))
	r.Draw(gputypes.PrimitiveTopologyPointList)

	want := map[[2]int]bool{{1, 1}: true, {2, 1}: true, {1, 2}: true, {2, 2}: true}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			green := tt.pixel(x, y) == RGBA{0, 255, 0, 255}
			if green != want[[2]int{x, y}] {
				t.Errorf("pixel(%d, %d) green = %v, want %v", x, y, green, want[[2]int{x, y}])
			}
		}
	}
}

// TestLineRasterization draws the main diagonal and a zero-length line.
func TestLineRasterization(t *testing.T) {
	r := NewRenderer()
	defer r.Close()
	tt := newTestTarget(t, r, 4, 4, false, false)

	r.SetFrameBuffer(tt.fb)
	r.SetViewPort(0, 0, 4, 4)
	r.Clear(ClearState{ColorFlag: true, ClearColor: math32.Vec4(0, 0, 0, 1)})

	vao := r.CreateVertexArrayObject(VertexArray{
		VertexSize:   16,
		VertexesDesc: []VertexAttributeDesc{{Size: 4, Stride: 16, Offset: 0}},
		VertexesBytes: vertexBytes(
			[]float32{-1, -1, 0, 1},
			[]float32{1, 1, 0, 1},
		),
		IndexBytes: indexBytes(0, 1),
	})
	r.SetRenderState(NewRenderState())
	r.SetVertexArrayObject(vao)
	prog := newFlatProgram(t, r)
	r.SetShaderProgram(prog)
	r.SetShaderUniforms(flatUniforms(r, math32.Vec4(0, 1, 0, 1)))
	r.Draw(gputypes.PrimitiveTopologyLineList)

	for i := 0; i < 4; i++ {
		if got := tt.pixel(i, i); got != (RGBA{0, 255, 0, 255}) {
			t.Errorf("diagonal pixel(%d, %d) = %v, want green", i, i, got)
		}
	}

	// Zero-length line: exactly one stamped point.
	r.Clear(ClearState{ColorFlag: true, ClearColor: math32.Vec4(0, 0, 0, 1)})
	vao2 := r.CreateVertexArrayObject(VertexArray{
		VertexSize:   16,
		VertexesDesc: []VertexAttributeDesc{{Size: 4, Stride: 16, Offset: 0}},
		VertexesBytes: vertexBytes(
			[]float32{0, 0, 0, 1},
			[]float32{0, 0, 0, 1},
		),
		IndexBytes: indexBytes(0, 1),
	})
	r.SetVertexArrayObject(vao2)
	r.Draw(gputypes.PrimitiveTopologyLineList)

	covered := 0
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if tt.pixel(x, y) == (RGBA{0, 255, 0, 255}) {
				covered++
			}
		}
	}
	if covered != 1 {
		t.Errorf("zero-length line covered %d pixels, want 1", covered)
	}
}

// TestPerspectiveCorrectInterpolation verifies the interpolation law:
// the shaded attribute equals sum(bc*a/w) / sum(bc/w).
func TestPerspectiveCorrectInterpolation(t *testing.T) {
	r := NewRenderer()
	defer r.Close()
	tt := newTestTarget(t, r, 4, 4, false, false)

	r.SetFrameBuffer(tt.fb)
	r.SetViewPort(0, 0, 4, 4)
	r.Clear(ClearState{ColorFlag: true, ClearColor: math32.Vec4(0, 0, 0, 1)})

	// Clip positions with distinct w; attributes 0, 1, 0.5.
	clip := [3][4]float32{
		{-2, -2, 0, 2},
		{3, -3, 0, 3},
		{-1, 1, 0, 1},
	}
	attr := [3]float32{0, 1, 0.5}

	verts := vertexBytes(
		append(clip[0][:], attr[0]),
		append(clip[1][:], attr[1]),
		append(clip[2][:], attr[2]),
	)

	vao := r.CreateVertexArrayObject(VertexArray{
		VertexSize: 20,
		VertexesDesc: []VertexAttributeDesc{
			{Size: 4, Stride: 20, Offset: 0},
			{Size: 1, Stride: 20, Offset: 16},
		},
		VertexesBytes: verts,
		IndexBytes:    indexBytes(0, 1, 2),
	})

	prog := r.CreateShaderProgram()
	prog.SetShaders(&varyingVertexShader{}, &varyingFragmentShader{})

	r.SetRenderState(NewRenderState())
	r.SetVertexArrayObject(vao)
	r.SetShaderProgram(prog)
	r.Draw(gputypes.PrimitiveTopologyTriangleList)

	// Window-space vertex data.
	var wx, wy, invW [3]float32
	for i, c := range clip {
		inv := 1 / c[3]
		wx[i] = (c[0]*inv + 1) * 2 // viewport 4x4
		wy[i] = (c[1]*inv + 1) * 2
		invW[i] = inv
	}

	// Screen barycentric at a covered pixel center.
	px, py := float32(1.5), float32(1.5)
	d := (wy[1]-wy[2])*(wx[0]-wx[2]) + (wx[2]-wx[1])*(wy[0]-wy[2])
	l0 := ((wy[1]-wy[2])*(px-wx[2]) + (wx[2]-wx[1])*(py-wy[2])) / d
	l1 := ((wy[2]-wy[0])*(px-wx[2]) + (wx[0]-wx[2])*(py-wy[2])) / d
	l2 := 1 - l0 - l1
	if l0 < 0 || l1 < 0 || l2 < 0 {
		t.Fatalf("test pixel not inside triangle: bc = (%v, %v, %v)", l0, l1, l2)
	}

	num := l0*attr[0]*invW[0] + l1*attr[1]*invW[1] + l2*attr[2]*invW[2]
	den := l0*invW[0] + l1*invW[1] + l2*invW[2]
	want := num / den

	got := float32(tt.pixel(1, 1)[0]) / 255
	if diff := got - want; diff < -0.01 || diff > 0.01 {
		t.Errorf("interpolated attribute = %v, want %v (perspective-correct)", got, want)
	}
}

// TestClippedLineEndpoint draws a line extending outside the frustum;
// the visible span still rasterizes.
func TestClippedLineEndpoint(t *testing.T) {
	r := NewRenderer()
	defer r.Close()
	tt := newTestTarget(t, r, 4, 4, false, false)

	r.SetFrameBuffer(tt.fb)
	r.SetViewPort(0, 0, 4, 4)
	r.Clear(ClearState{ColorFlag: true, ClearColor: math32.Vec4(0, 0, 0, 1)})

	vao := r.CreateVertexArrayObject(VertexArray{
		VertexSize:   16,
		VertexesDesc: []VertexAttributeDesc{{Size: 4, Stride: 16, Offset: 0}},
		VertexesBytes: vertexBytes(
			[]float32{-3, 0, 0, 1}, // outside -X
			[]float32{0.75, 0, 0, 1},
		),
		IndexBytes: indexBytes(0, 1),
	})
	r.SetRenderState(NewRenderState())
	r.SetVertexArrayObject(vao)
	prog := newFlatProgram(t, r)
	r.SetShaderProgram(prog)
	r.SetShaderUniforms(flatUniforms(r, math32.Vec4(0, 1, 0, 1)))
	r.Draw(gputypes.PrimitiveTopologyLineList)

	// The in-frustum span crosses the middle row.
	if got := tt.pixel(1, 2); got != (RGBA{0, 255, 0, 255}) {
		t.Errorf("pixel(1, 2) = %v, want green on the clipped line", got)
	}
}

// TestCullFace discards back faces only when enabled.
func TestCullFace(t *testing.T) {
	r := NewRenderer()
	defer r.Close()
	tt := newTestTarget(t, r, 2, 2, false, false)

	r.SetFrameBuffer(tt.fb)
	r.SetViewPort(0, 0, 2, 2)

	// Clockwise (back-facing) full-screen triangle.
	verts := vertexBytes(
		[]float32{-1, -1, 0, 1},
		[]float32{-1, 3, 0, 1},
		[]float32{3, -1, 0, 1},
	)

	state := NewRenderState()
	state.CullFace = true
	r.Clear(ClearState{ColorFlag: true, ClearColor: math32.Vec4(0, 0, 0, 1)})
	drawFlatTriangles(t, r, tt, verts, indexBytes(0, 1, 2), math32.Vec4(0, 1, 0, 1), state)
	if got := tt.pixel(0, 0); got != (RGBA{0, 0, 0, 255}) {
		t.Errorf("culled draw wrote %v, want untouched", got)
	}

	state.CullFace = false
	drawFlatTriangles(t, r, tt, verts, indexBytes(0, 1, 2), math32.Vec4(0, 1, 0, 1), state)
	if got := tt.pixel(0, 0); got != (RGBA{0, 255, 0, 255}) {
		t.Errorf("uncullled draw wrote %v, want green", got)
	}
}

// TestTextureLODSelection draws a minified textured triangle: the
// quad-derivative LOD must select mip level 1 (two texels per pixel).
func TestTextureLODSelection(t *testing.T) {
	r := NewRenderer()
	defer r.Close()
	tt := newTestTarget(t, r, 4, 4, false, false)

	// 8x8 base filled with 100; generated levels overwritten so each
	// level has a distinct red value.
	desc := NewSamplerDesc()
	desc.FilterMin = FilterNearestMipmapNearest
	desc.WrapS = gputypes.AddressModeClampToEdge
	desc.WrapT = gputypes.AddressModeClampToEdge

	texels := make([]RGBA, 64)
	for i := range texels {
		texels[i] = RGBA{100, 0, 0, 255}
	}
	tex := makeColorTexture(t, 8, 8, texels, desc, true)
	img := tex.imageRGBA(0)
	for lv := 1; lv < len(img.Levels); lv++ {
		img.Levels[lv].Buf.Fill(RGBA{uint8(100 + lv), 0, 0, 255})
	}

	// Full-screen triangle with uv = (ndc+1)/2.
	verts := vertexBytes(
		[]float32{-1, -1, 0, 1, 0, 0},
		[]float32{3, -1, 0, 1, 2, 0},
		[]float32{-1, 3, 0, 1, 0, 2},
	)
	vao := r.CreateVertexArrayObject(VertexArray{
		VertexSize: 24,
		VertexesDesc: []VertexAttributeDesc{
			{Size: 4, Stride: 24, Offset: 0},
			{Size: 2, Stride: 24, Offset: 16},
		},
		VertexesBytes: verts,
		IndexBytes:    indexBytes(0, 1, 2),
	})

	prog := r.CreateShaderProgram()
	prog.SetShaders(&texturedVertexShader{}, &texturedFragmentShader{})

	sampler := r.CreateUniformSampler("SamplerAlbedo", TextureKind2D, gputypes.TextureFormatRGBA8Unorm)
	sampler.SetTexture(tex)
	u := NewShaderUniforms()
	u.Samplers[sampler.Name()] = sampler

	r.SetFrameBuffer(tt.fb)
	r.SetViewPort(0, 0, 4, 4)
	r.Clear(ClearState{ColorFlag: true, ClearColor: math32.Vec4(0, 0, 0, 1)})
	r.SetRenderState(NewRenderState())
	r.SetVertexArrayObject(vao)
	r.SetShaderProgram(prog)
	r.SetShaderUniforms(u)
	r.Draw(gputypes.PrimitiveTopologyTriangleList)

	// Two texels per pixel: lod = 1, so every pixel reads level 1.
	want := RGBA{101, 0, 0, 255}
	if got := tt.pixel(1, 1); got != want {
		t.Errorf("pixel(1, 1) = %v, want level-1 value %v", got, want)
	}
	if got := tt.pixel(3, 3); got != want {
		t.Errorf("pixel(3, 3) = %v, want level-1 value %v", got, want)
	}
}
