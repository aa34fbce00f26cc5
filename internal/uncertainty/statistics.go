package uncertainty

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// summary holds the per-output-point statistics of a sample matrix.
type summary struct {
	mean, variance, p5, p95 []float64
}

// summarize computes the mean, population variance and the 5th and 95th
// percentiles of every column of values (one row per sample). NaN entries
// propagate into the mean and variance of their column.
func summarize(values mat.Matrix) (summary, error) {
	n, m := values.Dims()
	s := summary{
		mean:     make([]float64, m),
		variance: make([]float64, m),
		p5:       make([]float64, m),
		p95:      make([]float64, m),
	}
	col := make([]float64, n)
	for j := 0; j < m; j++ {
		mat.Col(col, j, values)

		mean, err := stats.Mean(col)
		if err != nil {
			return summary{}, fmt.Errorf("mean of output %d: %w", j, err)
		}
		variance, err := stats.PopulationVariance(col)
		if err != nil {
			return summary{}, fmt.Errorf("variance of output %d: %w", j, err)
		}
		s.mean[j] = mean
		s.variance[j] = variance
		s.p5[j], s.p95[j] = percentiles(col)
	}
	return s, nil
}

// percentiles returns the 5th and 95th percentile of x, which it sorts.
// Both are NaN if x contains NaN.
func percentiles(x []float64) (p5, p95 float64) {
	for _, v := range x {
		if math.IsNaN(v) {
			return math.NaN(), math.NaN()
		}
	}
	sort.Float64s(x)
	return quantile(x, 0.05), quantile(x, 0.95)
}

// quantile interpolates linearly between the order statistics of sorted at
// rank (n-1)*p.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}
