package conv

import "math"

// Int64ToInt converts v to int and reports whether it is non-negative and
// fits on the current platform.
func Int64ToInt(v int64) (int, bool) {
	if v < 0 || v > math.MaxInt {
		return 0, false
	}
	return int(v), true
}

// MulInt64 returns a*b for non-negative operands and reports whether the
// product fits in an int64.
func MulInt64(a, b int64) (int64, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}
