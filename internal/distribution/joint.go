package distribution

import (
	"fmt"
)

// Distribution is a joint probability distribution over an ordered set of
// parameters. The axis order is the order of Marginals.
type Distribution interface {
	// Dim is the number of parameters.
	Dim() int
	// Marginals returns the per-parameter marginal distributions.
	Marginals() []Marginal
	// Independent reports whether the joint density is the product of the marginals.
	Independent() bool
	// Fwd maps a point to the unit hypercube (forward Rosenblatt transform).
	Fwd(dst, x []float64)
	// Inv maps a point of the unit hypercube back (inverse Rosenblatt transform).
	Inv(dst, u []float64)
	// PDF evaluates the joint density at x.
	PDF(x []float64) float64
}

// Independent is the product of independent marginals.
type Independent struct {
	marginals []Marginal
}

// J composes independent marginals into one joint distribution, preserving order.
func J(marginals ...Marginal) *Independent {
	ms := make([]Marginal, len(marginals))
	copy(ms, marginals)
	return &Independent{marginals: ms}
}

// StandardNormalJoint returns dim independent unit normals, one per parameter.
func StandardNormalJoint(dim int) *Independent {
	ms := make([]Marginal, dim)
	for i := range ms {
		ms[i] = StandardNormal()
	}
	return &Independent{marginals: ms}
}

func (d *Independent) Dim() int { return len(d.marginals) }

func (d *Independent) Marginals() []Marginal {
	out := make([]Marginal, len(d.marginals))
	copy(out, d.marginals)
	return out
}

func (d *Independent) Independent() bool { return true }

func (d *Independent) Fwd(dst, x []float64) {
	checkDim(d, dst, x)
	for i, m := range d.marginals {
		dst[i] = m.CDF(x[i])
	}
}

func (d *Independent) Inv(dst, u []float64) {
	checkDim(d, dst, u)
	for i, m := range d.marginals {
		dst[i] = m.Quantile(clampUnit(u[i]))
	}
}

func (d *Independent) PDF(x []float64) float64 {
	if len(x) != len(d.marginals) {
		panic(fmt.Sprintf("distribution: point has %d coordinates, want %d", len(x), len(d.marginals)))
	}
	p := 1.0
	for i, m := range d.marginals {
		p *= m.Prob(x[i])
	}
	return p
}

func checkDim(d Distribution, dst, src []float64) {
	if len(dst) != d.Dim() || len(src) != d.Dim() {
		panic(fmt.Sprintf("distribution: dimension mismatch dst=%d src=%d dim=%d", len(dst), len(src), d.Dim()))
	}
}
