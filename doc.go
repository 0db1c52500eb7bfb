// Package softgl is a software rasterization pipeline: a programmable,
// GPU-style graphics pipeline executed entirely on CPU cores.
//
// A draw call runs seven stages in order: programmable vertex shading,
// primitive assembly, homogeneous clipping, perspective divide plus
// viewport transform, face culling, tiled rasterization with
// perspective-correct attribute interpolation, and per-sample output
// (depth test, blending, color write), with an optional 4x multisample
// resolve at the end of the pass.
//
// Shaders are plain Go values implementing the [Shader] interface; the
// renderer binds their inputs (attributes, uniforms, varyings, builtins)
// before each invocation and clones one shading instance per worker so
// pixel quads shade in parallel. Texture sampling supports 2D and cube
// textures, the full GL wrap and filter matrix, mipmaps, and analytic
// derivative-driven level of detail computed per 2x2 pixel quad.
//
// The minimal drawing sequence:
//
//	r := softgl.NewRenderer()
//	defer r.Close()
//
//	r.SetFrameBuffer(fb)
//	r.SetViewPort(0, 0, w, h)
//	r.Clear(softgl.ClearState{ColorFlag: true, ClearColor: bg})
//	r.SetRenderState(softgl.NewRenderState())
//	r.SetVertexArrayObject(vao)
//	r.SetShaderProgram(prog)
//	r.SetShaderUniforms(uniforms)
//	r.Draw(gputypes.PrimitiveTopologyTriangleList)
package softgl
