package polychaos

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gouq/internal/distribution"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/combin"
)

// GaussRule returns the n-point Gaussian quadrature of the measure described
// by rec, computed with the Golub-Welsch algorithm. Weights sum to one.
func GaussRule(rec Recurrence, n int) (nodes, weights []float64, err error) {
	if n <= 0 || n > rec.Len() {
		return nil, nil, fmt.Errorf("gauss rule needs 1..%d points, got %d", rec.Len(), n)
	}
	if n == 1 {
		return []float64{rec.Alpha[0]}, []float64{1}, nil
	}

	jacobi := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		jacobi.SetSym(i, i, rec.Alpha[i])
		if i+1 < n {
			jacobi.SetSym(i, i+1, math.Sqrt(rec.Beta[i+1]))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(jacobi, true); !ok {
		return nil, nil, fmt.Errorf("eigendecomposition of the Jacobi matrix failed")
	}
	nodes = eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	weights = make([]float64, n)
	for i := 0; i < n; i++ {
		v := vecs.At(0, i)
		weights[i] = v * v
	}
	return nodes, weights, nil
}

type rule struct {
	nodes   []float64
	weights []float64
}

// Quadrature generates nodes and weights integrating polynomials against d.
// order is the Smolyak level when sparse is set; otherwise every parameter
// uses order+1 Gaussian points in a full tensor grid. For dependent
// distributions the product-measure weights are corrected by the ratio of
// the joint density to the product of the marginal densities.
func Quadrature(d distribution.Distribution, order int, sparse bool) (*mat.Dense, []float64, error) {
	if order < 0 {
		return nil, nil, fmt.Errorf("quadrature order must be non-negative, got %d", order)
	}
	marginals := d.Marginals()
	dim := len(marginals)
	if dim == 0 {
		return nil, nil, fmt.Errorf("cannot build quadrature without parameters")
	}

	// rules[i][l] is the (l+1)-point rule of parameter i.
	rules := make([][]rule, dim)
	for i, m := range marginals {
		rec, err := RecurrenceFor(m, order+1)
		if err != nil {
			return nil, nil, fmt.Errorf("recurrence for parameter %d: %w", i, err)
		}
		rules[i] = make([]rule, order+1)
		for l := 0; l <= order; l++ {
			x, w, err := GaussRule(rec, l+1)
			if err != nil {
				return nil, nil, fmt.Errorf("gauss rule for parameter %d: %w", i, err)
			}
			rules[i][l] = rule{nodes: x, weights: w}
		}
	}

	acc := newGridAccumulator(dim)
	if sparse {
		for _, levels := range multiIndices(dim, order) {
			total := 0
			for _, l := range levels {
				total += l
			}
			gap := order - total
			if gap > dim-1 {
				continue
			}
			coef := float64(combin.Binomial(dim-1, gap))
			if gap%2 == 1 {
				coef = -coef
			}
			acc.addTensor(rules, levels, coef)
		}
	} else {
		levels := make([]int, dim)
		for i := range levels {
			levels[i] = order
		}
		acc.addTensor(rules, levels, 1)
	}

	nodes, weights := acc.result()
	if !d.Independent() {
		correctDependentWeights(d, marginals, nodes, weights)
	}
	return nodes, weights, nil
}

func correctDependentWeights(d distribution.Distribution, marginals []distribution.Marginal, nodes *mat.Dense, weights []float64) {
	joint := distribution.PDFNodes(d, nodes)
	dim := len(marginals)
	for j := range weights {
		product := 1.0
		for i := 0; i < dim; i++ {
			product *= marginals[i].Prob(nodes.At(i, j))
		}
		if product == 0 {
			weights[j] = 0
			continue
		}
		weights[j] *= joint[j] / product
	}
}

// gridAccumulator merges tensor grids, summing the weights of coinciding nodes.
type gridAccumulator struct {
	dim     int
	index   map[string]int
	points  [][]float64
	weights []float64
}

func newGridAccumulator(dim int) *gridAccumulator {
	return &gridAccumulator{dim: dim, index: make(map[string]int)}
}

func (g *gridAccumulator) addTensor(rules [][]rule, levels []int, coef float64) {
	counter := make([]int, g.dim)
	point := make([]float64, g.dim)
	for {
		w := coef
		for i, l := range levels {
			r := rules[i][l]
			point[i] = r.nodes[counter[i]]
			w *= r.weights[counter[i]]
		}
		g.add(point, w)

		// Odometer increment over the tensor grid.
		i := 0
		for ; i < g.dim; i++ {
			counter[i]++
			if counter[i] < len(rules[i][levels[i]].nodes) {
				break
			}
			counter[i] = 0
		}
		if i == g.dim {
			return
		}
	}
}

func (g *gridAccumulator) add(point []float64, w float64) {
	var sb strings.Builder
	for i, v := range point {
		if i > 0 {
			sb.WriteByte(',')
		}
		if math.Abs(v) < 1e-13 {
			v = 0
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', 12, 64))
	}
	key := sb.String()
	if k, ok := g.index[key]; ok {
		g.weights[k] += w
		return
	}
	g.index[key] = len(g.points)
	g.points = append(g.points, append([]float64(nil), point...))
	g.weights = append(g.weights, w)
}

// result drops nodes whose weights cancelled and returns nodes as columns.
func (g *gridAccumulator) result() (*mat.Dense, []float64) {
	var maxW float64
	for _, w := range g.weights {
		maxW = math.Max(maxW, math.Abs(w))
	}
	keep := make([]int, 0, len(g.points))
	for k, w := range g.weights {
		if math.Abs(w) > 1e-14*maxW {
			keep = append(keep, k)
		}
	}
	nodes := mat.NewDense(g.dim, len(keep), nil)
	weights := make([]float64, len(keep))
	for j, k := range keep {
		nodes.SetCol(j, g.points[k])
		weights[j] = g.weights[k]
	}
	return nodes, weights
}
