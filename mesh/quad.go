package mesh

import "gonum.org/v1/gonum/integrate/quad"

// quadPoints is enough Gauss-Legendre points to integrate the quadratic
// spherical volume element exactly.
const quadPoints = 2

// QuadLegendre integrates f over [min, max] with an n point Gauss-Legendre
// rule.  xs and weights are scratch buffers that are reallocated when their
// length is not n.
func QuadLegendre(f func(float64) float64, min, max float64, n int, xs, weights []float64) float64 {
	if n <= 0 {
		panic("quad: non-positive number of locations")
	} else if min > max {
		panic("quad: min > max")
	} else if min == max {
		return 0
	}

	if len(xs) != n {
		xs = make([]float64, n)
	}
	if len(weights) != n {
		weights = make([]float64, n)
	}

	rule := quad.Legendre{}
	rule.FixedLocations(xs, weights, min, max)

	var integral float64
	for i, x := range xs {
		integral += weights[i] * f(x)
	}
	return integral
}

// volume returns the volume swept by [lo, hi] in the coordinate system.
func (c CoordinateSystem) volume(lo, hi float64) float64 {
	return QuadLegendre(c.measure, lo, hi, quadPoints, nil, nil)
}
