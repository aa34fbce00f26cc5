package models

import (
	"context"
	"math"
	"testing"

	"gouq/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"coffee_cup", "coffee_cup_dependent", "ishigami", "linear"}, Names())

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			e, err := Lookup(name)
			require.NoError(t, err)
			assert.Equal(t, name, e.Model.Name())

			params, err := e.Parameters()
			require.NoError(t, err)
			assert.NotEmpty(t, params.UncertainNames())

			out, err := e.Model.Run(context.Background(), params.Nominal())
			require.NoError(t, err)
			assert.NotEmpty(t, out.Values)
		})
	}

	_, err := Lookup("hodgkin_huxley")
	assert.True(t, core.IsConfigurationError(err))
}

func TestCoffeeCupCools(t *testing.T) {
	out, err := CoffeeCup().Run(context.Background(), map[string]float64{"kappa": 0.05, "T_env": 20})
	require.NoError(t, err)

	require.Len(t, out.Time, 150)
	require.Len(t, out.Values, 150)
	assert.Equal(t, 0.0, out.Time[0])
	assert.Equal(t, 200.0, out.Time[149])
	assert.InDelta(t, 95, out.Values[0], 1e-12)
	assert.InDelta(t, 20+75*math.Exp(-10), out.Values[149], 1e-9)
	for i := 1; i < len(out.Values); i++ {
		assert.Less(t, out.Values[i], out.Values[i-1])
	}
}

func TestCoffeeCupDependentMatchesIndependentModel(t *testing.T) {
	dep, err := CoffeeCupDependent().Run(context.Background(), map[string]float64{"kappa": -0.05, "u_env": 20, "alpha": 1})
	require.NoError(t, err)
	ind, err := CoffeeCup().Run(context.Background(), map[string]float64{"kappa": 0.05, "T_env": 20})
	require.NoError(t, err)
	assert.InDeltaSlice(t, ind.Values, dep.Values, 1e-12)

	params, err := CoffeeCupDependentParameters()
	require.NoError(t, err)
	kappa, ok := params.Get("kappa")
	require.True(t, ok)
	assert.InDelta(t, -0.05, kappa.Distribution.Mean(), 1e-12)
	assert.InDelta(t, 0.025*0.025/12, kappa.Distribution.Variance(), 1e-15)
}

func TestIshigamiVariance(t *testing.T) {
	v, s := IshigamiVariance(7, 0.1)
	assert.InDelta(t, 13.8446, v, 1e-3)
	assert.InDelta(t, 0.3139, s[0], 1e-3)
	assert.InDelta(t, 0.4424, s[1], 1e-3)

	out, err := Ishigami(7, 0.1).Run(context.Background(), map[string]float64{"x1": math.Pi / 2, "x2": 0, "x3": 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.1, out.Values[0], 1e-12)
}
