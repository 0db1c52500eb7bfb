package softgl

import "github.com/gogpu/gputypes"

// depthTestPass compares an incoming depth value against the stored one
// under the given comparison function.
func depthTestPass(depth, stored float32, fn gputypes.CompareFunction) bool {
	switch fn {
	case gputypes.CompareFunctionNever:
		return false
	case gputypes.CompareFunctionLess:
		return depth < stored
	case gputypes.CompareFunctionEqual:
		return depth == stored
	case gputypes.CompareFunctionLessEqual:
		return depth <= stored
	case gputypes.CompareFunctionGreater:
		return depth > stored
	case gputypes.CompareFunctionNotEqual:
		return depth != stored
	case gputypes.CompareFunctionGreaterEqual:
		return depth >= stored
	case gputypes.CompareFunctionAlways:
		return true
	}
	return false
}
