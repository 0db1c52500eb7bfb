package softgl

import (
	"cogentcore.org/core/math32"
	"github.com/gogpu/gputypes"
)

// blendFactorRGB resolves a blend factor for the RGB channels.
func blendFactorRGB(src math32.Vector3, srcAlpha float32, dst math32.Vector3, dstAlpha float32, factor gputypes.BlendFactor) math32.Vector3 {
	switch factor {
	case gputypes.BlendFactorZero:
		return math32.Vector3{}
	case gputypes.BlendFactorOne:
		return math32.Vec3(1, 1, 1)
	case gputypes.BlendFactorSrc:
		return src
	case gputypes.BlendFactorSrcAlpha:
		return math32.Vector3Scalar(srcAlpha)
	case gputypes.BlendFactorDst:
		return dst
	case gputypes.BlendFactorDstAlpha:
		return math32.Vector3Scalar(dstAlpha)
	case gputypes.BlendFactorOneMinusSrc:
		return math32.Vec3(1, 1, 1).Sub(src)
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return math32.Vector3Scalar(1 - srcAlpha)
	case gputypes.BlendFactorOneMinusDst:
		return math32.Vec3(1, 1, 1).Sub(dst)
	case gputypes.BlendFactorOneMinusDstAlpha:
		return math32.Vector3Scalar(1 - dstAlpha)
	}
	return math32.Vector3{}
}

// blendFactorAlpha resolves a blend factor for the alpha channel.
func blendFactorAlpha(srcAlpha, dstAlpha float32, factor gputypes.BlendFactor) float32 {
	switch factor {
	case gputypes.BlendFactorZero:
		return 0
	case gputypes.BlendFactorOne:
		return 1
	case gputypes.BlendFactorSrc, gputypes.BlendFactorSrcAlpha:
		return srcAlpha
	case gputypes.BlendFactorDst, gputypes.BlendFactorDstAlpha:
		return dstAlpha
	case gputypes.BlendFactorOneMinusSrc, gputypes.BlendFactorOneMinusSrcAlpha:
		return 1 - srcAlpha
	case gputypes.BlendFactorOneMinusDst, gputypes.BlendFactorOneMinusDstAlpha:
		return 1 - dstAlpha
	}
	return 0
}

// blendOpRGB applies a blend operation to factor-scaled RGB terms.
func blendOpRGB(src, dst math32.Vector3, op gputypes.BlendOperation) math32.Vector3 {
	switch op {
	case gputypes.BlendOperationSubtract:
		return src.Sub(dst)
	case gputypes.BlendOperationReverseSubtract:
		return dst.Sub(src)
	case gputypes.BlendOperationMin:
		return src.Min(dst)
	case gputypes.BlendOperationMax:
		return src.Max(dst)
	default:
		return src.Add(dst)
	}
}

// blendOpAlpha applies a blend operation to factor-scaled alpha terms.
func blendOpAlpha(src, dst float32, op gputypes.BlendOperation) float32 {
	switch op {
	case gputypes.BlendOperationSubtract:
		return src - dst
	case gputypes.BlendOperationReverseSubtract:
		return dst - src
	case gputypes.BlendOperationMin:
		return math32.Min(src, dst)
	case gputypes.BlendOperationMax:
		return math32.Max(src, dst)
	default:
		return src + dst
	}
}

// blendColor evaluates the full blend equation for one sample.
// Colors are in the [0, 1] range; the result is not clamped here, the
// framebuffer write clamps.
func blendColor(src, dst math32.Vector4, params *BlendParams) math32.Vector4 {
	srcRGB := math32.Vec3(src.X, src.Y, src.Z)
	dstRGB := math32.Vec3(dst.X, dst.Y, dst.Z)

	srcF := blendFactorRGB(srcRGB, src.W, dstRGB, dst.W, params.SrcRGB)
	dstF := blendFactorRGB(srcRGB, src.W, dstRGB, dst.W, params.DstRGB)
	rgb := blendOpRGB(srcRGB.Mul(srcF), dstRGB.Mul(dstF), params.FuncRGB)

	srcAF := blendFactorAlpha(src.W, dst.W, params.SrcAlpha)
	dstAF := blendFactorAlpha(src.W, dst.W, params.DstAlpha)
	alpha := blendOpAlpha(src.W*srcAF, dst.W*dstAF, params.FuncAlpha)

	return math32.Vec4(rgb.X, rgb.Y, rgb.Z, alpha)
}
