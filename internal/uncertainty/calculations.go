package uncertainty

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gouq/domain/parameter"
	"gouq/internal"
	"gouq/internal/distribution"
	apperrors "gouq/internal/errors"
	"gouq/internal/polychaos"
	"gouq/ports"
)

var errNoData = errors.New("model runner returned no data")

// Options tunes node generation, fitting and surrogate sampling.
type Options struct {
	// P is the total degree of the polynomial basis.
	P int
	// QuadratureOrder is the level of the spectral quadrature rule.
	QuadratureOrder int
	// Sparse selects a Smolyak sparse grid over the full tensor grid.
	Sparse bool
	// NrCollocationNodes is the collocation sample count; zero means
	// twice the basis size plus two.
	NrCollocationNodes int
	NrMCSamples        int
	NrPCMCSamples      int
	// AllowIncomplete fits features on their valid nodes even when some
	// evaluations failed.
	AllowIncomplete bool

	MCRule          distribution.Rule
	CollocationRule distribution.Rule
	PCMCRule        distribution.Rule
	Regression      polychaos.Regression

	// Seed fixes the random stream of every call when Seeded is set.
	Seed   uint64
	Seeded bool
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		P:               3,
		QuadratureOrder: 4,
		Sparse:          true,
		NrMCSamples:     30,
		NrPCMCSamples:   50,
		MCRule:          distribution.RuleRandom,
		CollocationRule: distribution.RuleHammersley,
		PCMCRule:        distribution.RuleHalton,
		Regression:      polychaos.Regression{Rule: polychaos.RegressionLeastSquares},
	}
}

func (o Options) validate() error {
	switch {
	case o.P < 0:
		return apperrors.ConfigInvalid(fmt.Sprintf("polynomial degree must be non-negative, got %d", o.P))
	case o.QuadratureOrder < 0:
		return apperrors.ConfigInvalid(fmt.Sprintf("quadrature order must be non-negative, got %d", o.QuadratureOrder))
	case o.NrCollocationNodes < 0:
		return apperrors.ConfigInvalid(fmt.Sprintf("collocation node count must be non-negative, got %d", o.NrCollocationNodes))
	case o.NrMCSamples < 1:
		return apperrors.ConfigInvalid(fmt.Sprintf("monte carlo sample count must be positive, got %d", o.NrMCSamples))
	case o.NrPCMCSamples < 1:
		return apperrors.ConfigInvalid(fmt.Sprintf("surrogate sample count must be positive, got %d", o.NrPCMCSamples))
	case o.Regression.Rule == polychaos.RegressionTikhonov && o.Regression.Alpha < 0:
		return apperrors.ConfigInvalid("tikhonov penalty must be non-negative")
	}
	return nil
}

// Calculations runs uncertainty quantification and sensitivity analysis of
// a model over a parameter set. It keeps no state between calls, so one
// value may serve concurrent callers as long as the parameter set is not
// modified meanwhile.
type Calculations struct {
	runner     ports.ModelRunner
	parameters *parameter.Set
	opts       Options
	logger     *internal.Logger
}

// New validates opts and returns a Calculations. A nil logger uses
// internal.DefaultLogger.
func New(runner ports.ModelRunner, parameters *parameter.Set, opts Options, logger *internal.Logger) (*Calculations, error) {
	if runner == nil {
		return nil, apperrors.ConfigInvalid("model runner is required")
	}
	if parameters == nil {
		return nil, apperrors.ConfigInvalid("parameter set is required")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Calculations{
		runner:     runner,
		parameters: parameters,
		opts:       opts,
		logger:     logger,
	}, nil
}

// Options returns the options the engine was built with.
func (c *Calculations) Options() Options { return c.opts }

// Parameters returns the parameter set under analysis.
func (c *Calculations) Parameters() *parameter.Set { return c.parameters }

// newRand returns the random stream for one top-level call.
func (c *Calculations) newRand() *rand.Rand {
	if c.opts.Seeded {
		return rand.New(rand.NewPCG(c.opts.Seed, c.opts.Seed^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
