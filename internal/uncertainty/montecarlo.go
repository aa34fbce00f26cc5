package uncertainty

import (
	"context"
	"math"

	"gouq/domain/core"
	"gouq/domain/result"
	"gouq/internal/distribution"
	apperrors "gouq/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// MonteCarlo evaluates the model at NrMCSamples samples of the input
// distribution and computes the statistics of every feature directly from
// the evaluations. Failed evaluations are not masked: they count as NaN and
// make the statistics of their output points NaN.
func (c *Calculations) MonteCarlo(ctx context.Context, uncertain []string) (*result.Data, error) {
	names, err := c.ResolveUncertainParameters(uncertain)
	if err != nil {
		return nil, err
	}
	dist, err := c.CreateDistribution(names)
	if err != nil {
		return nil, err
	}

	nodes := distribution.Sample(dist, c.opts.NrMCSamples, c.opts.MCRule, c.newRand())
	data, err := c.runModel(ctx, nodes, names)
	if err != nil {
		return nil, err
	}

	for _, f := range data.Features() {
		values, err := evaluationMatrix(f)
		if err != nil {
			return nil, err
		}
		if values == nil {
			c.logger.Warn("Feature: %s yields no results, statistics are not calculated", f.Name)
			data.MarkIncomplete(f.Name)
			continue
		}
		s, err := summarize(values)
		if err != nil {
			return nil, apperrors.Wrapf(err, "cannot summarise %s", f.Name)
		}
		f.Mean = s.mean
		f.Variance = s.variance
		f.Percentile5 = s.p5
		f.Percentile95 = s.p95
	}
	data.Method = "monte_carlo"
	return data, nil
}

// evaluationMatrix stacks the evaluations of f into one row per node.
// Failed evaluations become rows of NaN. It returns nil if no evaluation
// carries values.
func evaluationMatrix(f *result.Feature) (*mat.Dense, error) {
	width := -1
	for _, e := range f.Evaluations {
		if e.Err != nil || len(e.Values) == 0 {
			continue
		}
		if width < 0 {
			width = len(e.Values)
		} else if len(e.Values) != width {
			return nil, apperrors.InvalidInput("cannot collect evaluations",
				core.NewRaggedValuesError(f.Name, width, len(e.Values)))
		}
	}
	if width < 0 {
		return nil, nil
	}

	out := mat.NewDense(len(f.Evaluations), width, nil)
	nan := make([]float64, width)
	for j := range nan {
		nan[j] = math.NaN()
	}
	for i, e := range f.Evaluations {
		if e.Err != nil || len(e.Values) == 0 {
			out.SetRow(i, nan)
			continue
		}
		out.SetRow(i, e.Values)
	}
	return out, nil
}
