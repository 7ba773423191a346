package column

import "math"

// tinyPivot marks a pivot as singular.
const tinyPivot = 1e-30

// solveTridiagonal solves the system with sub-diagonal a, diagonal b and super-diagonal c
// by forward elimination and back substitution (Thomas algorithm). a[0] and c[n-1] are
// ignored. scratch and x must have length n. It reports false on a singular pivot,
// leaving x unspecified.
func solveTridiagonal(a, b, c, d, scratch, x []float64) bool {
	n := len(d)
	if n == 0 {
		return true
	}
	if math.Abs(b[0]) < tinyPivot {
		return false
	}
	scratch[0] = 0
	if n > 1 {
		scratch[0] = c[0] / b[0]
	}
	x[0] = d[0] / b[0]
	for i := 1; i < n; i++ {
		m := b[i] - a[i]*scratch[i-1]
		if math.Abs(m) < tinyPivot || math.IsNaN(m) {
			return false
		}
		if i < n-1 {
			scratch[i] = c[i] / m
		}
		x[i] = (d[i] - a[i]*x[i-1]) / m
	}
	for i := n - 2; i >= 0; i-- {
		x[i] -= scratch[i] * x[i+1]
	}
	return true
}
