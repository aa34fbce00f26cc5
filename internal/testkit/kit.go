package testkit

import (
	"context"
	"fmt"
	"math"
	"sync"

	"gouq/domain/parameter"
	"gouq/domain/result"
	"gouq/internal/distribution"

	"gonum.org/v1/gonum/mat"
)

// Output computes one feature's values at a node (one value per parameter
// in the order the runner was called with).
type Output func(x []float64) []float64

// FeatureFunc names an Output.
type FeatureFunc struct {
	Name string
	F    Output
}

// FuncRunner is an in-process model runner over plain Go functions. It
// records the nodes of every call and can fail chosen evaluations.
type FuncRunner struct {
	Features []FeatureFunc
	// NaNAt makes the evaluations at these node indices return NaN.
	NaNAt map[int]bool
	// FailAt makes the evaluations at these node indices fail outright.
	FailAt map[int]bool
	// Err is returned instead of data when set.
	Err error

	mu    sync.Mutex
	calls []*mat.Dense
}

// NewFuncRunner returns a runner computing a single feature named name.
func NewFuncRunner(name string, f Output) *FuncRunner {
	return &FuncRunner{Features: []FeatureFunc{{Name: name, F: f}}}
}

// Run evaluates every feature at every column of nodes.
func (r *FuncRunner) Run(ctx context.Context, nodes *mat.Dense, uncertain []string) (*result.Data, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.calls = append(r.calls, mat.DenseCopyOf(nodes))
	r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	dim, n := nodes.Dims()
	if dim != len(uncertain) {
		return nil, fmt.Errorf("nodes have %d rows for %d uncertain parameters", dim, len(uncertain))
	}
	data := result.NewData(uncertain)
	x := make([]float64, dim)
	for _, ff := range r.Features {
		f := &result.Feature{Name: ff.Name, Evaluations: make([]result.Evaluation, n)}
		for i := 0; i < n; i++ {
			mat.Col(x, i, nodes)
			switch {
			case r.FailAt[i]:
				f.Evaluations[i] = result.Failure(fmt.Errorf("node %d failed", i))
			case r.NaNAt[i]:
				values := ff.F(x)
				for j := range values {
					values[j] = math.NaN()
				}
				f.Evaluations[i] = result.Success(values)
			default:
				f.Evaluations[i] = result.Success(ff.F(x))
			}
		}
		data.Add(f)
	}
	return data, nil
}

// Calls returns the node matrices the runner has been called with.
func (r *FuncRunner) Calls() []*mat.Dense {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*mat.Dense(nil), r.calls...)
}

// Scalar adapts a scalar function to an Output.
func Scalar(f func(x []float64) float64) Output {
	return func(x []float64) []float64 { return []float64{f(x)} }
}

// Linear returns f(x) = Σ c_i x_i.
func Linear(coef ...float64) Output {
	return Scalar(func(x []float64) float64 {
		var s float64
		for i, c := range coef {
			s += c * x[i]
		}
		return s
	})
}

// UniformParameters builds a parameter set of independent uniform
// parameters, one per name, each with its nominal value at the centre.
func UniformParameters(names []string, bounds [][2]float64) (*parameter.Set, error) {
	if len(names) != len(bounds) {
		return nil, fmt.Errorf("%d names for %d bounds", len(names), len(bounds))
	}
	params := make([]parameter.Parameter, len(names))
	for i, name := range names {
		m, err := distribution.Uniform(bounds[i][0], bounds[i][1])
		if err != nil {
			return nil, err
		}
		params[i] = parameter.Parameter{Name: name, Value: (bounds[i][0] + bounds[i][1]) / 2, Distribution: m}
	}
	return parameter.NewSet(params)
}

// Data builds result data for one feature from scalar values; NaN marks a
// failed node.
func Data(uncertain []string, feature string, values ...float64) *result.Data {
	data := result.NewData(uncertain)
	f := &result.Feature{Name: feature, Evaluations: make([]result.Evaluation, len(values))}
	for i, v := range values {
		f.Evaluations[i] = result.Success([]float64{v})
	}
	data.Add(f)
	return data
}
