package uncertainty

import (
	"math"

	"gouq/domain/result"
	"gouq/internal/distribution"
	apperrors "gouq/internal/errors"
	"gouq/internal/polychaos"

	"gonum.org/v1/gonum/mat"
)

// analysePCE fills in the statistics of every feature with a surrogate.
// Mean and variance come from the expansion coefficients when the analysis
// distribution is independent. Otherwise the surrogate is integrated under
// the dependent distribution by quadrature. Percentiles come from the
// surrogate ensemble. Sobol indices need at least two uncertain parameters.
func (c *Calculations) analysePCE(run *pceRun) error {
	sensitivity := len(run.uncertain) > 1
	if !sensitivity {
		c.logger.Info("Only 1 uncertain parameter. Sensitivity is not calculated")
	}

	samples := distribution.Sample(run.dist, c.opts.NrPCMCSamples, c.opts.PCMCRule, run.rng)

	var moments *momentRule
	if !run.dist.Independent() {
		var err error
		if moments, err = c.newMomentRule(run.dist); err != nil {
			return apperrors.Wrap(err, "cannot integrate surrogate under dependent distribution")
		}
	}

	for _, f := range run.data.Features() {
		expansion, ok := run.surrogates[f.Name]
		if !ok {
			continue
		}
		ensemble := expansion.Evaluate(samples)
		run.ensembles[f.Name] = ensemble

		s, err := summarize(ensemble)
		if err != nil {
			return apperrors.Wrapf(err, "cannot summarise surrogate of %s", f.Name)
		}
		if moments == nil {
			f.Mean = expansion.Mean()
			f.Variance = expansion.Variance()
		} else {
			f.Mean, f.Variance = moments.apply(expansion)
		}
		f.Percentile5 = s.p5
		f.Percentile95 = s.p95

		if sensitivity {
			f.Sensitivity1 = expansion.FirstOrderSobol()
			f.SensitivityT = expansion.TotalSobol()
		}
	}

	if sensitivity {
		if err := CalculateSensitivitySum(run.data, string(result.SensitivityFirst)); err != nil {
			return err
		}
		if err := CalculateSensitivitySum(run.data, string(result.SensitivityTotal)); err != nil {
			return err
		}
	}
	return nil
}

// momentRule integrates over a dependent distribution: a sparse Gauss-Hermite
// grid in standard normal space pushed through the Rosenblatt map. The map
// is linear for a Gaussian copula of normal marginals, so polynomial
// surrogates of degree P get exact moments.
type momentRule struct {
	nodes   *mat.Dense
	weights []float64
}

func (c *Calculations) newMomentRule(d distribution.Distribution) (*momentRule, error) {
	order := max(c.opts.P, c.opts.QuadratureOrder, 1)
	r := newRosenblatt(d)
	z, w, err := polychaos.Quadrature(r.normal, order, true)
	if err != nil {
		return nil, err
	}
	return &momentRule{nodes: r.toTrue(z), weights: w}, nil
}

// apply returns the weighted mean and second central moment of e.
func (r *momentRule) apply(e *polychaos.Expansion) (mean, variance []float64) {
	values := e.Evaluate(r.nodes)
	n, m := values.Dims()
	mean = make([]float64, m)
	variance = make([]float64, m)
	var total float64
	for _, w := range r.weights {
		total += w
	}
	for j := 0; j < m; j++ {
		for i := 0; i < n; i++ {
			mean[j] += r.weights[i] * values.At(i, j)
		}
		mean[j] /= total
		for i := 0; i < n; i++ {
			d := values.At(i, j) - mean[j]
			variance[j] += r.weights[i] * d * d
		}
		variance[j] = math.Max(variance[j]/total, 0)
	}
	return mean, variance
}

// CalculateSensitivitySum stores, for every feature carrying indices of the
// given kind, each parameter's index summed over the output axis and
// divided by the total over all parameters. A zero total leaves the raw
// sums. kind is "sensitivity_1", "sensitivity_t", "1" or "t".
func CalculateSensitivitySum(data *result.Data, kind string) error {
	sens, err := result.ParseSensitivity(kind)
	if err != nil {
		return apperrors.ConfigInvalidCause(err, "cannot sum sensitivities")
	}

	for _, f := range data.Features() {
		indices := f.Sensitivity(sens)
		if indices == nil {
			continue
		}
		sums := make([]float64, len(indices))
		var total float64
		for i, row := range indices {
			for _, v := range row {
				sums[i] += v
			}
			total += sums[i]
		}
		if total != 0 {
			for i := range sums {
				sums[i] /= total
			}
		}
		f.SetSensitivitySum(sens, sums)
	}
	return nil
}
