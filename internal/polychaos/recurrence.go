// Package polychaos builds orthogonal polynomial chaos expansions: the
// recurrence coefficients of each marginal, the multivariate total-degree
// basis, Gaussian quadrature and sparse grids, and the quadrature and
// regression fits with the statistics derived from their coefficients.
package polychaos

import (
	"fmt"
	"math"

	"gouq/internal/distribution"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/stat/distuv"
)

// stieltjesPoints is the size of the Gauss-Legendre discretisation of the
// quantile function used for marginals without a closed form recurrence.
const stieltjesPoints = 400

// Recurrence holds the coefficients of the three-term recurrence
//
//	π_{k+1}(x) = (x - Alpha[k]) π_k(x) - Beta[k] π_{k-1}(x)
//
// of the monic orthogonal polynomials of a probability measure. Beta[0] is 1.
type Recurrence struct {
	Alpha []float64
	Beta  []float64
}

// Len is the number of coefficient pairs available.
func (r Recurrence) Len() int { return len(r.Alpha) }

// RecurrenceFor computes n coefficient pairs for m.
func RecurrenceFor(m distribution.Marginal, n int) (Recurrence, error) {
	if n <= 0 {
		return Recurrence{}, fmt.Errorf("recurrence length must be positive, got %d", n)
	}
	switch d := m.(type) {
	case distuv.Normal:
		return hermite(d.Mu, d.Sigma, n), nil
	case distuv.Uniform:
		return legendre(d.Min, d.Max, n), nil
	default:
		return stieltjes(m, n)
	}
}

func hermite(mu, sigma float64, n int) Recurrence {
	r := Recurrence{Alpha: make([]float64, n), Beta: make([]float64, n)}
	for k := 0; k < n; k++ {
		r.Alpha[k] = mu
		r.Beta[k] = float64(k) * sigma * sigma
	}
	r.Beta[0] = 1
	return r
}

func legendre(lo, hi float64, n int) Recurrence {
	r := Recurrence{Alpha: make([]float64, n), Beta: make([]float64, n)}
	half := (hi - lo) / 2
	for k := 0; k < n; k++ {
		r.Alpha[k] = (lo + hi) / 2
		kk := float64(k * k)
		r.Beta[k] = half * half * kk / (4*kk - 1)
	}
	r.Beta[0] = 1
	return r
}

// stieltjes runs the orthonormal Stieltjes procedure on the discrete measure
// obtained by pushing Gauss-Legendre points on (0, 1) through the quantile.
func stieltjes(m distribution.Marginal, n int) (Recurrence, error) {
	t := make([]float64, stieltjesPoints)
	w := make([]float64, stieltjesPoints)
	quad.Legendre{}.FixedLocations(t, w, 0, 1)

	x := make([]float64, stieltjesPoints)
	for j := range t {
		x[j] = m.Quantile(t[j])
		if math.IsInf(x[j], 0) || math.IsNaN(x[j]) {
			return Recurrence{}, fmt.Errorf("quantile is not finite at p=%g", t[j])
		}
	}

	r := Recurrence{Alpha: make([]float64, n), Beta: make([]float64, n)}
	r.Beta[0] = 1
	prev := make([]float64, stieltjesPoints)
	cur := make([]float64, stieltjesPoints)
	for j := range cur {
		cur[j] = 1
	}
	for k := 0; k < n; k++ {
		var a float64
		for j := range x {
			a += w[j] * x[j] * cur[j] * cur[j]
		}
		r.Alpha[k] = a
		if k == n-1 {
			break
		}
		sb := math.Sqrt(r.Beta[k])
		if k == 0 {
			sb = 0
		}
		next := make([]float64, stieltjesPoints)
		var b float64
		for j := range x {
			next[j] = (x[j]-a)*cur[j] - sb*prev[j]
			b += w[j] * next[j] * next[j]
		}
		if !(b > 0) {
			return Recurrence{}, fmt.Errorf("measure supports only %d orthogonal polynomials", k+1)
		}
		r.Beta[k+1] = b
		sqb := math.Sqrt(b)
		for j := range next {
			next[j] /= sqb
		}
		prev, cur = cur, next
	}
	return r, nil
}

// orthonormal fills dst[0..len(dst)-1] with the orthonormal polynomials of
// degree 0..len(dst)-1 at x. r must hold at least len(dst) pairs.
func (r Recurrence) orthonormal(dst []float64, x float64) {
	if len(dst) == 0 {
		return
	}
	dst[0] = 1
	if len(dst) == 1 {
		return
	}
	dst[1] = (x - r.Alpha[0]) / math.Sqrt(r.Beta[1])
	for k := 1; k+1 < len(dst); k++ {
		dst[k+1] = ((x-r.Alpha[k])*dst[k] - math.Sqrt(r.Beta[k])*dst[k-1]) / math.Sqrt(r.Beta[k+1])
	}
}
