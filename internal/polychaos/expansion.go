package polychaos

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Expansion is a fitted polynomial chaos surrogate: one coefficient per basis
// polynomial and output point.
type Expansion struct {
	basis *Basis
	coef  *mat.Dense
}

// Basis returns the basis the expansion was fitted on.
func (e *Expansion) Basis() *Basis { return e.basis }

// Outputs is the length of the feature's output axis.
func (e *Expansion) Outputs() int {
	_, c := e.coef.Dims()
	return c
}

// Coefficients returns a copy of the coefficient matrix (basis x outputs).
func (e *Expansion) Coefficients() *mat.Dense {
	return mat.DenseCopyOf(e.coef)
}

// Evaluate returns the surrogate at every column of nodes, one row per node.
func (e *Expansion) Evaluate(nodes mat.Matrix) *mat.Dense {
	a := e.basis.Matrix(nodes)
	var out mat.Dense
	out.Mul(a, e.coef)
	return &out
}

// Mean is the expectation of the surrogate under the basis measure.
func (e *Expansion) Mean() []float64 {
	return mat.Row(nil, 0, e.coef)
}

// Variance is the variance of the surrogate under the basis measure.
func (e *Expansion) Variance() []float64 {
	k, m := e.coef.Dims()
	out := make([]float64, m)
	for i := 1; i < k; i++ {
		for j := 0; j < m; j++ {
			c := e.coef.At(i, j)
			out[j] += c * c
		}
	}
	return out
}

// FirstOrderSobol returns the main-effect index of every parameter at every
// output point, [parameter][output]. Points whose variance is round-off
// relative to the mean get zero.
func (e *Expansion) FirstOrderSobol() [][]float64 {
	return e.sobol(func(idx []int, i int) bool {
		if idx[i] == 0 {
			return false
		}
		for l, deg := range idx {
			if l != i && deg != 0 {
				return false
			}
		}
		return true
	})
}

// TotalSobol returns the total-effect index of every parameter at every
// output point, [parameter][output]. Points whose variance is round-off
// relative to the mean get zero.
func (e *Expansion) TotalSobol() [][]float64 {
	return e.sobol(func(idx []int, i int) bool {
		return idx[i] != 0
	})
}

// varianceTol is the relative variance below which an output point counts
// as constant.
const varianceTol = 1e-12

func (e *Expansion) sobol(contributes func(idx []int, i int) bool) [][]float64 {
	variance := e.Variance()
	mean := e.Mean()
	dim := e.basis.Dim()
	m := len(variance)
	out := make([][]float64, dim)
	for i := range out {
		out[i] = make([]float64, m)
	}
	for k, idx := range e.basis.indices {
		if k == 0 {
			continue
		}
		for i := 0; i < dim; i++ {
			if !contributes(idx, i) {
				continue
			}
			for j := 0; j < m; j++ {
				c := e.coef.At(k, j)
				out[i][j] += c * c
			}
		}
	}
	for i := range out {
		for j := range out[i] {
			if variance[j] <= varianceTol*math.Max(1, mean[j]*mean[j]) {
				out[i][j] = 0
				continue
			}
			out[i][j] /= variance[j]
		}
	}
	return out
}
