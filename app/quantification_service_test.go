package app

import (
	"bytes"
	"context"
	"testing"

	"gouq/adapters/runmodel"
	"gouq/domain/core"
	"gouq/domain/parameter"
	"gouq/internal"
	"gouq/internal/config"
	"gouq/internal/errors"
	"gouq/internal/testkit"
	"gouq/internal/uncertainty"
	"gouq/models"
	"gouq/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(tweak func(*uncertainty.Options)) *QuantificationService {
	opts := uncertainty.DefaultOptions()
	opts.Seeded = true
	opts.Seed = 11
	if tweak != nil {
		tweak(&opts)
	}
	return NewQuantificationService(opts, 2, internal.NewWriterLogger(internal.LogLevelError, &bytes.Buffer{}))
}

func TestQuantifyPolynomialChaos(t *testing.T) {
	svc := newService(func(o *uncertainty.Options) { o.P = 1 })
	params, err := models.LinearParameters()
	require.NoError(t, err)

	res, err := svc.Quantify(context.Background(), QuantifyRequest{
		Model:      models.Linear(),
		Parameters: params,
		Method:     MethodPolynomialChaos,
		PCMethod:   "collocation",
	})
	require.NoError(t, err)

	assert.Equal(t, MethodPolynomialChaos, res.Method)
	assert.Equal(t, res.Data.ID, res.RunID)
	assert.Equal(t, "linear", res.Data.Model)
	f, ok := res.Data.Feature("linear")
	require.True(t, ok)
	assert.InDelta(t, 2.5, f.Mean[0], 1e-9)
	assert.InDelta(t, 5.0/12, f.Variance[0], 1e-9)
	assert.InDeltaSlice(t, []float64{0.2, 0.8}, f.Sensitivity1Sum, 1e-9)
}

func TestQuantifyMonteCarlo(t *testing.T) {
	svc := newService(func(o *uncertainty.Options) { o.NrMCSamples = 200 })
	params, err := models.LinearParameters()
	require.NoError(t, err)

	res, err := svc.Quantify(context.Background(), QuantifyRequest{
		Model:      models.Linear(),
		Parameters: params,
		Method:     MethodMonteCarlo,
	})
	require.NoError(t, err)
	f, _ := res.Data.Feature("linear")
	assert.InDelta(t, 2.5, f.Mean[0], 0.2)
	assert.Equal(t, "monte_carlo", res.Data.Method)
}

func TestQuantifyRejectsUnknownMethods(t *testing.T) {
	svc := newService(nil)
	params, err := models.LinearParameters()
	require.NoError(t, err)
	req := QuantifyRequest{Model: models.Linear(), Parameters: params}

	req.Method = MethodCustom
	_, err = svc.Quantify(context.Background(), req)
	assert.True(t, core.IsNotImplemented(err))

	req.Method = "bayesian"
	_, err = svc.Quantify(context.Background(), req)
	assert.ErrorIs(t, err, core.ErrUnknownMethod)

	req.Method = MethodPolynomialChaos
	req.PCMethod = "custom"
	_, err = svc.Quantify(context.Background(), req)
	assert.True(t, core.IsNotImplemented(err))

	req.PCMethod = "galerkin"
	_, err = svc.Quantify(context.Background(), req)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	_, err = svc.Quantify(context.Background(), QuantifyRequest{Parameters: params})
	assert.True(t, core.IsConfigurationError(err))
}

func TestQuantifyUsesRunnerFactory(t *testing.T) {
	fake := testkit.NewFuncRunner("double", testkit.Linear(2, 2))
	svc := newService(func(o *uncertainty.Options) { o.P = 1 }).WithRunnerFactory(
		func(runmodel.Model, *parameter.Set, []runmodel.Feature) (ports.ModelRunner, error) {
			return fake, nil
		})
	params, err := models.LinearParameters()
	require.NoError(t, err)

	res, err := svc.Quantify(context.Background(), QuantifyRequest{
		Model:      models.Linear(),
		Parameters: params,
		PCMethod:   "spectral",
	})
	require.NoError(t, err)
	f, _ := res.Data.Feature("double")
	assert.InDelta(t, 5.0, f.Mean[0], 1e-9)
	assert.Len(t, fake.Calls(), 1)
}

func TestQuantifyProblemWithDependentInputs(t *testing.T) {
	svc := newService(func(o *uncertainty.Options) { o.P = 2 })
	problem, err := config.ParseProblem([]byte(`
model: coffee_cup_dependent
parameters:
  - {name: kappa, value: -0.05}
  - {name: u_env, value: 20}
  - {name: alpha, value: 1}
interval: {type: uniform, width: 0.5}
correlation:
  - [1, 0, 0.5]
  - [0, 1, 0]
  - [0.5, 0, 1]
`))
	require.NoError(t, err)

	res, err := svc.QuantifyProblem(context.Background(), problem, MethodPolynomialChaos, "collocation", true)
	require.NoError(t, err)

	f, ok := res.Data.Feature("coffee_cup_dependent")
	require.True(t, ok)
	require.Len(t, f.Mean, 150)
	require.Len(t, f.Time, 150)
	assert.InDelta(t, 95, f.Mean[0], 1e-6)
	assert.Less(t, f.Mean[149], f.Mean[0])
	require.Len(t, f.Sensitivity1, 3)
	var total float64
	for _, v := range f.SensitivityTSum {
		total += v
	}
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.Equal(t, "polynomial_chaos_collocation_rosenblatt", res.Data.Method)
}

func TestQuantifyProblemUsesModelDefaults(t *testing.T) {
	svc := newService(func(o *uncertainty.Options) {
		o.P = 2
		o.QuadratureOrder = 2
	})
	res, err := svc.QuantifyProblem(context.Background(), &config.Problem{Model: "coffee_cup"}, MethodPolynomialChaos, "spectral", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"kappa", "T_env"}, res.Data.UncertainParameters)

	_, err = svc.QuantifyProblem(context.Background(), &config.Problem{Model: "nope"}, MethodMonteCarlo, "", false)
	assert.True(t, core.IsConfigurationError(err))
}
