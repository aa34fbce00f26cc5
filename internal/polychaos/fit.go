package polychaos

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gouq/domain/core"

	"gonum.org/v1/gonum/mat"
)

// RegressionRule selects the solver of the collocation fit.
type RegressionRule string

const (
	// RegressionLeastSquares solves the ordinary least squares problem.
	RegressionLeastSquares RegressionRule = "LS"
	// RegressionTikhonov adds a ridge penalty Alpha*||c||² to the least squares problem.
	RegressionTikhonov RegressionRule = "T"
)

// ParseRegressionRule accepts the short codes and long names.
func ParseRegressionRule(s string) (RegressionRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ls", "lstsq", "least_squares", "":
		return RegressionLeastSquares, nil
	case "t", "tikhonov", "ridge":
		return RegressionTikhonov, nil
	default:
		return "", fmt.Errorf("%w: unknown regression rule %q", core.ErrConfiguration, s)
	}
}

// Regression configures FitRegression.
type Regression struct {
	Rule  RegressionRule
	Alpha float64
}

// FitQuadrature projects values onto the basis with weighted quadrature:
//
//	c_k = Σ_i w_i Ψ_k(x_i) y_i / Σ_i w_i Ψ_k(x_i)²
//
// nodes has one column per sample, values one row per sample.
func FitQuadrature(b *Basis, nodes mat.Matrix, weights []float64, values mat.Matrix) (*Expansion, error) {
	_, n := nodes.Dims()
	rows, outputs := values.Dims()
	if rows != n || len(weights) != n {
		return nil, fmt.Errorf("quadrature fit needs matching sample counts: nodes=%d weights=%d values=%d", n, len(weights), rows)
	}
	if n == 0 {
		return nil, fmt.Errorf("quadrature fit needs at least one sample")
	}

	a := b.Matrix(nodes)
	coef := mat.NewDense(b.Size(), outputs, nil)
	for k := 0; k < b.Size(); k++ {
		var norm float64
		for i := 0; i < n; i++ {
			p := a.At(i, k)
			norm += weights[i] * p * p
		}
		if norm == 0 {
			continue
		}
		for j := 0; j < outputs; j++ {
			var s float64
			for i := 0; i < n; i++ {
				s += weights[i] * a.At(i, k) * values.At(i, j)
			}
			coef.Set(k, j, s/norm)
		}
	}
	return &Expansion{basis: b, coef: coef}, nil
}

// FitRegression fits the basis to values at nodes by least squares.
func FitRegression(b *Basis, nodes mat.Matrix, values mat.Matrix, reg Regression) (*Expansion, error) {
	_, n := nodes.Dims()
	rows, outputs := values.Dims()
	if rows != n {
		return nil, fmt.Errorf("regression fit needs matching sample counts: nodes=%d values=%d", n, rows)
	}
	if n == 0 {
		return nil, fmt.Errorf("regression fit needs at least one sample")
	}

	a := b.Matrix(nodes)
	coef := mat.NewDense(b.Size(), outputs, nil)

	switch reg.Rule {
	case RegressionTikhonov:
		var ata mat.Dense
		ata.Mul(a.T(), a)
		for k := 0; k < b.Size(); k++ {
			ata.Set(k, k, ata.At(k, k)+reg.Alpha)
		}
		var aty mat.Dense
		aty.Mul(a.T(), values)
		if err := acceptable(coef.Solve(&ata, &aty), coef); err != nil {
			return nil, fmt.Errorf("tikhonov regression: %w", err)
		}
	case RegressionLeastSquares, "":
		if err := acceptable(coef.Solve(a, values), coef); err != nil {
			return nil, fmt.Errorf("least squares regression: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown regression rule %q", reg.Rule)
	}
	return &Expansion{basis: b, coef: coef}, nil
}

// acceptable tolerates an ill-conditioning report from mat as long as the
// solution it produced is finite.
func acceptable(err error, coef *mat.Dense) error {
	if err == nil {
		return nil
	}
	var cond mat.Condition
	if !errors.As(err, &cond) {
		return err
	}
	r, c := coef.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := coef.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return err
			}
		}
	}
	return nil
}
