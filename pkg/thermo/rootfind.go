package thermo

import (
	"fmt"
	"math"

	"github.com/aretw0/tower/pkg/domain"
)

const (
	maxRootIterations = 200
	rachfordRiceTol   = 1e-14
)

// rachfordRice returns the molar vapor fraction for feed composition z and K-values.
// Subcooled and superheated feeds return exactly 0 and 1.
func rachfordRice(z, k []float64) float64 {
	g0, g1 := -1.0, 1.0
	for i := range z {
		g0 += z[i] * k[i]
		g1 -= z[i] / k[i]
	}
	if g0 <= 0 {
		return 0
	}
	if g1 >= 0 {
		return 1
	}

	lo, hi := 0.0, 1.0
	beta := 0.5
	for iter := 0; iter < maxRootIterations; iter++ {
		g, dg := 0.0, 0.0
		for i := range z {
			d := 1 + beta*(k[i]-1)
			g += z[i] * (k[i] - 1) / d
			dg -= z[i] * (k[i] - 1) * (k[i] - 1) / (d * d)
		}
		if math.Abs(g) < rachfordRiceTol {
			return beta
		}
		// g decreases in beta
		if g > 0 {
			lo = beta
		} else {
			hi = beta
		}
		next := beta - g/dg
		if dg == 0 || next <= lo || next >= hi || math.IsNaN(next) {
			next = 0.5 * (lo + hi)
		}
		if math.Abs(next-beta) < rachfordRiceTol {
			return next
		}
		beta = next
	}
	return beta
}

// illinois finds the root of an increasing function f on [a, b] by the Illinois
// variant of false position. f(a) must be negative and f(b) positive.
func illinois(f func(float64) (float64, error), a, b, xtol, ftol float64) (float64, error) {
	fa, err := f(a)
	if err != nil {
		return 0, err
	}
	fb, err := f(b)
	if err != nil {
		return 0, err
	}
	if fa > 0 || fb < 0 {
		return 0, fmt.Errorf("%w: no sign change on [%g, %g]", domain.ErrFlashOutOfRange, a, b)
	}
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}

	side := 0
	c := a
	for iter := 0; iter < maxRootIterations; iter++ {
		c = (a*fb - b*fa) / (fb - fa)
		fc, err := f(c)
		if err != nil {
			return 0, err
		}
		if math.Abs(fc) <= ftol || b-a <= xtol {
			return c, nil
		}
		if fc < 0 {
			a, fa = c, fc
			if side == -1 {
				fb /= 2
			}
			side = -1
		} else {
			b, fb = c, fc
			if side == 1 {
				fa /= 2
			}
			side = 1
		}
	}
	return c, fmt.Errorf("%w: root not found in %d iterations", domain.ErrFlashFailed, maxRootIterations)
}

// bracket widens [guess-step, guess+step] geometrically inside [lo, hi] until f changes sign.
// It falls back to the full interval.
func bracket(f func(float64) (float64, error), guess, step, lo, hi float64) (float64, float64) {
	if guess <= lo || guess >= hi || math.IsNaN(guess) {
		return lo, hi
	}
	a, b := math.Max(lo, guess-step), math.Min(hi, guess+step)
	for i := 0; i < 30; i++ {
		fa, errA := f(a)
		fb, errB := f(b)
		if errA == nil && errB == nil && fa <= 0 && fb >= 0 {
			return a, b
		}
		if a == lo && b == hi {
			break
		}
		step *= 2
		a, b = math.Max(lo, guess-step), math.Min(hi, guess+step)
	}
	return lo, hi
}
