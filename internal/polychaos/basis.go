package polychaos

import (
	"fmt"

	"gouq/internal/distribution"

	"gonum.org/v1/gonum/mat"
)

// Basis is the total-degree orthonormal polynomial basis of a product of
// marginals. Index k corresponds to the multi-index Indices[k]; the first
// element is the constant polynomial.
type Basis struct {
	degree  int
	recs    []Recurrence
	indices [][]int
}

// NewBasis builds the basis of all products of univariate orthonormal
// polynomials with total degree at most degree, ordered by degree.
func NewBasis(d distribution.Distribution, degree int) (*Basis, error) {
	if degree < 0 {
		return nil, fmt.Errorf("polynomial degree must be non-negative, got %d", degree)
	}
	marginals := d.Marginals()
	if len(marginals) == 0 {
		return nil, fmt.Errorf("cannot build a basis without parameters")
	}
	recs := make([]Recurrence, len(marginals))
	for i, m := range marginals {
		rec, err := RecurrenceFor(m, degree+1)
		if err != nil {
			return nil, fmt.Errorf("recurrence for parameter %d: %w", i, err)
		}
		recs[i] = rec
	}
	return &Basis{
		degree:  degree,
		recs:    recs,
		indices: multiIndices(len(marginals), degree),
	}, nil
}

// Size is the number of basis polynomials, C(degree+dim, dim).
func (b *Basis) Size() int { return len(b.indices) }

// Dim is the number of variables.
func (b *Basis) Dim() int { return len(b.recs) }

// Degree is the maximal total degree.
func (b *Basis) Degree() int { return b.degree }

// Indices returns a copy of the multi-index of every basis polynomial.
func (b *Basis) Indices() [][]int {
	out := make([][]int, len(b.indices))
	for k, idx := range b.indices {
		out[k] = append([]int(nil), idx...)
	}
	return out
}

// Matrix evaluates every basis polynomial at every column of nodes. The
// result has one row per node and one column per polynomial.
func (b *Basis) Matrix(nodes mat.Matrix) *mat.Dense {
	dim, n := nodes.Dims()
	if dim != b.Dim() {
		panic(fmt.Sprintf("polychaos: nodes have %d rows, basis has %d variables", dim, b.Dim()))
	}
	out := mat.NewDense(n, b.Size(), nil)
	uni := make([][]float64, dim)
	for i := range uni {
		uni[i] = make([]float64, b.degree+1)
	}
	row := make([]float64, b.Size())
	for j := 0; j < n; j++ {
		for i := 0; i < dim; i++ {
			b.recs[i].orthonormal(uni[i], nodes.At(i, j))
		}
		for k, idx := range b.indices {
			v := 1.0
			for i, deg := range idx {
				v *= uni[i][deg]
			}
			row[k] = v
		}
		out.SetRow(j, row)
	}
	return out
}

// multiIndices enumerates all multi-indices of length dim with total degree
// at most degree, graded by degree and reverse lexicographic within a degree.
func multiIndices(dim, degree int) [][]int {
	var out [][]int
	for g := 0; g <= degree; g++ {
		cur := make([]int, dim)
		var rec func(pos, left int)
		rec = func(pos, left int) {
			if pos == dim-1 {
				cur[pos] = left
				out = append(out, append([]int(nil), cur...))
				return
			}
			for v := left; v >= 0; v-- {
				cur[pos] = v
				rec(pos+1, left-v)
			}
		}
		rec(0, g)
	}
	return out
}
