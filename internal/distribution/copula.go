package distribution

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianCopula joins arbitrary marginals through a Gaussian dependence
// structure with the given correlation matrix. Its forward transform is the
// Rosenblatt transform through the Cholesky factor of the correlation.
type GaussianCopula struct {
	marginals []Marginal
	l         *mat.TriDense
	detL      float64
}

// NewGaussianCopula builds a dependent joint distribution. corr must be a
// positive definite correlation matrix of matching dimension.
func NewGaussianCopula(marginals []Marginal, corr mat.Symmetric) (*GaussianCopula, error) {
	n := corr.SymmetricDim()
	if n != len(marginals) {
		return nil, fmt.Errorf("correlation matrix is %dx%d but there are %d marginals", n, n, len(marginals))
	}
	for i := 0; i < n; i++ {
		if math.Abs(corr.At(i, i)-1) > 1e-9 {
			return nil, fmt.Errorf("correlation matrix diagonal must be 1, got %g at %d", corr.At(i, i), i)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(corr); !ok {
		return nil, fmt.Errorf("correlation matrix is not positive definite")
	}
	var l mat.TriDense
	chol.LTo(&l)

	ms := make([]Marginal, len(marginals))
	copy(ms, marginals)
	return &GaussianCopula{
		marginals: ms,
		l:         &l,
		detL:      math.Exp(chol.LogDet() / 2),
	}, nil
}

func (g *GaussianCopula) Dim() int { return len(g.marginals) }

func (g *GaussianCopula) Marginals() []Marginal {
	out := make([]Marginal, len(g.marginals))
	copy(out, g.marginals)
	return out
}

func (g *GaussianCopula) Independent() bool { return false }

// latent returns the correlated normal scores y and the decorrelated scores z of x.
func (g *GaussianCopula) latent(x []float64) (y, z []float64) {
	n := len(g.marginals)
	y = make([]float64, n)
	for i, m := range g.marginals {
		y[i] = distuv.UnitNormal.Quantile(clampUnit(m.CDF(x[i])))
	}
	// Forward substitution L z = y.
	z = make([]float64, n)
	for i := 0; i < n; i++ {
		s := y[i]
		for j := 0; j < i; j++ {
			s -= g.l.At(i, j) * z[j]
		}
		z[i] = s / g.l.At(i, i)
	}
	return y, z
}

func (g *GaussianCopula) Fwd(dst, x []float64) {
	checkDim(g, dst, x)
	_, z := g.latent(x)
	for i := range z {
		dst[i] = distuv.UnitNormal.CDF(z[i])
	}
}

func (g *GaussianCopula) Inv(dst, u []float64) {
	checkDim(g, dst, u)
	n := len(g.marginals)
	z := make([]float64, n)
	for i := range z {
		z[i] = distuv.UnitNormal.Quantile(clampUnit(u[i]))
	}
	for i := 0; i < n; i++ {
		y := 0.0
		for j := 0; j <= i; j++ {
			y += g.l.At(i, j) * z[j]
		}
		dst[i] = g.marginals[i].Quantile(clampUnit(distuv.UnitNormal.CDF(y)))
	}
}

func (g *GaussianCopula) PDF(x []float64) float64 {
	if len(x) != len(g.marginals) {
		panic(fmt.Sprintf("distribution: point has %d coordinates, want %d", len(x), len(g.marginals)))
	}
	p := 1.0
	for i, m := range g.marginals {
		p *= m.Prob(x[i])
	}
	if p == 0 {
		return 0
	}
	y, z := g.latent(x)
	var zz, yy float64
	for i := range z {
		zz += z[i] * z[i]
		yy += y[i] * y[i]
	}
	return p * math.Exp(-0.5*(zz-yy)) / g.detL
}
