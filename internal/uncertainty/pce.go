package uncertainty

import (
	"context"
	"math/rand/v2"

	"gouq/domain/result"
	"gouq/internal/distribution"
	apperrors "gouq/internal/errors"
	"gouq/internal/polychaos"

	"gonum.org/v1/gonum/mat"
)

// pceRun is the state of one polynomial chaos analysis. dist is the
// distribution of record: the basis measure, the source of surrogate
// samples and, for independent inputs, the measure statistics are taken
// under.
type pceRun struct {
	uncertain []string
	dist      distribution.Distribution
	basis     *polychaos.Basis
	data      *result.Data
	rng       *rand.Rand

	surrogates map[string]*polychaos.Expansion
	ensembles  map[string]*mat.Dense
}

// PolynomialChaos builds a polynomial chaos surrogate of every feature and
// computes its statistics and Sobol indices. With rosenblatt set the
// expansion is built in an independent standard normal space, which is the
// way to treat dependent inputs exactly.
func (c *Calculations) PolynomialChaos(ctx context.Context, uncertain []string, method Method, rosenblatt bool) (*result.Data, error) {
	names, err := c.ResolveUncertainParameters(uncertain)
	if err != nil {
		return nil, err
	}

	var run *pceRun
	switch method {
	case MethodCollocation:
		if rosenblatt {
			run, err = c.collocationRosenblatt(ctx, names)
		} else {
			run, err = c.collocation(ctx, names)
		}
	case MethodSpectral:
		if rosenblatt {
			run, err = c.spectralRosenblatt(ctx, names)
		} else {
			run, err = c.spectral(ctx, names)
		}
	case MethodCustom:
		return nil, apperrors.NotImplemented("custom polynomial chaos expansion method not implemented")
	default:
		return nil, apperrors.ConfigInvalidCause(errUnknownMethod(method), "cannot run polynomial chaos")
	}
	if err != nil {
		return nil, err
	}

	if err := c.analysePCE(run); err != nil {
		return nil, err
	}
	run.data.Method = "polynomial_chaos_" + method.String()
	if rosenblatt {
		run.data.Method += "_rosenblatt"
	}
	return run.data, nil
}

func (c *Calculations) newPCERun(names []string, dist distribution.Distribution) (*pceRun, error) {
	basis, err := polychaos.NewBasis(dist, c.opts.P)
	if err != nil {
		return nil, apperrors.ConfigInvalidCause(err, "cannot build polynomial basis")
	}
	return &pceRun{
		uncertain:  names,
		dist:       dist,
		basis:      basis,
		rng:        c.newRand(),
		surrogates: make(map[string]*polychaos.Expansion),
		ensembles:  make(map[string]*mat.Dense),
	}, nil
}

func (c *Calculations) collocationNodeCount(basis *polychaos.Basis) int {
	if c.opts.NrCollocationNodes > 0 {
		return c.opts.NrCollocationNodes
	}
	return 2*basis.Size() + 2
}

func (c *Calculations) collocation(ctx context.Context, names []string) (*pceRun, error) {
	dist, err := c.CreateDistribution(names)
	if err != nil {
		return nil, err
	}
	run, err := c.newPCERun(names, dist)
	if err != nil {
		return nil, err
	}
	nodes := distribution.Sample(dist, c.collocationNodeCount(run.basis), c.opts.CollocationRule, run.rng)
	if run.data, err = c.runModel(ctx, nodes, names); err != nil {
		return nil, err
	}
	return run, c.fitFeatures(run, nodes, nil, c.regressionFit(run.basis))
}

func (c *Calculations) collocationRosenblatt(ctx context.Context, names []string) (*pceRun, error) {
	truth, err := c.CreateDistribution(names)
	if err != nil {
		return nil, err
	}
	r := newRosenblatt(truth)
	run, err := c.newPCERun(names, r.normal)
	if err != nil {
		return nil, err
	}
	z := distribution.Sample(r.normal, c.collocationNodeCount(run.basis), c.opts.CollocationRule, run.rng)
	if run.data, err = c.runModel(ctx, r.toTrue(z), names); err != nil {
		return nil, err
	}
	return run, c.fitFeatures(run, z, nil, c.regressionFit(run.basis))
}

func (c *Calculations) spectral(ctx context.Context, names []string) (*pceRun, error) {
	dist, err := c.CreateDistribution(names)
	if err != nil {
		return nil, err
	}
	run, err := c.newPCERun(names, dist)
	if err != nil {
		return nil, err
	}
	nodes, weights, err := polychaos.Quadrature(dist, c.opts.QuadratureOrder, c.opts.Sparse)
	if err != nil {
		return nil, apperrors.Wrap(err, "cannot generate quadrature")
	}
	if run.data, err = c.runModel(ctx, nodes, names); err != nil {
		return nil, err
	}
	return run, c.fitFeatures(run, nodes, weights, quadratureFit(run.basis))
}

func (c *Calculations) spectralRosenblatt(ctx context.Context, names []string) (*pceRun, error) {
	truth, err := c.CreateDistribution(names)
	if err != nil {
		return nil, err
	}
	r := newRosenblatt(truth)
	run, err := c.newPCERun(names, r.normal)
	if err != nil {
		return nil, err
	}
	z, w, err := polychaos.Quadrature(r.normal, c.opts.QuadratureOrder, c.opts.Sparse)
	if err != nil {
		return nil, apperrors.Wrap(err, "cannot generate quadrature")
	}
	x := r.toTrue(z)
	if run.data, err = c.runModel(ctx, x, names); err != nil {
		return nil, err
	}
	return run, c.fitFeatures(run, z, r.weights(w, z, x), quadratureFit(run.basis))
}

// fitter fits one feature's masked data.
type fitter func(m *Masked) (*polychaos.Expansion, error)

func quadratureFit(b *polychaos.Basis) fitter {
	return func(m *Masked) (*polychaos.Expansion, error) {
		return polychaos.FitQuadrature(b, m.Nodes, m.Weights, m.Values)
	}
}

func (c *Calculations) regressionFit(b *polychaos.Basis) fitter {
	return func(m *Masked) (*polychaos.Expansion, error) {
		return polychaos.FitRegression(b, m.Nodes, m.Values, c.opts.Regression)
	}
}

// fitFeatures masks every feature of run.data and fits the ones with enough
// valid nodes.
func (c *Calculations) fitFeatures(run *pceRun, nodes *mat.Dense, weights []float64, fit fitter) error {
	for _, feature := range run.data.FeatureNames() {
		masked, err := c.CreateMask(run.data, nodes, feature, weights)
		if err != nil {
			return err
		}

		if (masked.Complete() || c.opts.AllowIncomplete) && masked.Valid() > 0 {
			expansion, err := fit(masked)
			if err != nil {
				c.logger.Warn("Uncertainty quantification is not performed for feature: %s: %v", feature, err)
			} else {
				run.surrogates[feature] = expansion
			}
		} else {
			c.logger.Warn("Uncertainty quantification is not performed for feature: %s "+
				"due to not all parameter combinations giving a result. "+
				"Set allow_incomplete to calculate the uncertainties anyway.", feature)
		}

		if !masked.Complete() {
			run.data.MarkIncomplete(feature)
		}
	}
	return nil
}

// runModel evaluates the model at nodes. Collaborator failures abort the
// analysis.
func (c *Calculations) runModel(ctx context.Context, nodes *mat.Dense, names []string) (*result.Data, error) {
	_, n := nodes.Dims()
	c.logger.Debug("Running model at %d nodes for %v", n, names)
	data, err := c.runner.Run(ctx, nodes, names)
	if err != nil {
		return nil, apperrors.ExternalServiceError("model", err)
	}
	if data == nil {
		return nil, apperrors.ExternalServiceError("model", errNoData)
	}
	if len(data.UncertainParameters) == 0 {
		data.UncertainParameters = append([]string(nil), names...)
	}
	return data, nil
}
