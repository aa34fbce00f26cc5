// Package models holds analytic test models and the coffee cup cooling
// models used by the examples and the CLI.
package models

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gouq/adapters/runmodel"
	"gouq/domain/core"
	"gouq/domain/parameter"
	"gouq/internal/distribution"

	"gonum.org/v1/gonum/floats"
)

// Entry is a registered model with its default parameter set.
type Entry struct {
	Model      runmodel.Model
	Parameters func() (*parameter.Set, error)
}

var registry = map[string]Entry{
	"coffee_cup":           {Model: CoffeeCup(), Parameters: CoffeeCupParameters},
	"coffee_cup_dependent": {Model: CoffeeCupDependent(), Parameters: CoffeeCupDependentParameters},
	"linear":               {Model: Linear(), Parameters: LinearParameters},
	"ishigami":             {Model: Ishigami(7, 0.1), Parameters: IshigamiParameters},
}

// Lookup returns the named model.
func Lookup(name string) (Entry, error) {
	e, ok := registry[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: unknown model %s (known: %v)", core.ErrConfiguration, name, Names())
	}
	return e, nil
}

// Names lists the registered models.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

const (
	coffeeT0    = 95.0
	coffeeTEnd  = 200.0
	coffeeSteps = 150
)

func coffeeTime() []float64 {
	return floats.Span(make([]float64, coffeeSteps), 0, coffeeTEnd)
}

// CoffeeCup is Newton's law of cooling for a cup of coffee at 95 °C,
//
//	dT/dt = -kappa (T - T_env),
//
// reported on 150 points over 200 minutes.
func CoffeeCup() runmodel.Model {
	return runmodel.ModelFunc{
		ModelName:   "coffee_cup",
		ModelLabels: []string{"Time (min)", "Temperature (C)"},
		F: func(_ context.Context, p map[string]float64) (runmodel.Output, error) {
			return cooling(-p["kappa"], p["T_env"]), nil
		},
	}
}

// CoffeeCupParameters gives kappa and T_env uniform distributions.
func CoffeeCupParameters() (*parameter.Set, error) {
	kappa, err := distribution.Uniform(0.025, 0.075)
	if err != nil {
		return nil, err
	}
	tEnv, err := distribution.Uniform(15, 25)
	if err != nil {
		return nil, err
	}
	return parameter.NewSet([]parameter.Parameter{
		{Name: "kappa", Value: 0.05, Distribution: kappa},
		{Name: "T_env", Value: 20, Distribution: tEnv},
	})
}

// CoffeeCupDependent cools at rate alpha*kappa towards u_env, so kappa
// and alpha only act through their product:
//
//	dT/dt = alpha kappa (T - u_env)
func CoffeeCupDependent() runmodel.Model {
	return runmodel.ModelFunc{
		ModelName:   "coffee_cup_dependent",
		ModelLabels: []string{"time [s]", "Temperature [C]"},
		F: func(_ context.Context, p map[string]float64) (runmodel.Output, error) {
			return cooling(p["alpha"]*p["kappa"], p["u_env"]), nil
		},
	}
}

// CoffeeCupDependentParameters assigns every parameter a uniform
// distribution of width 50 % around its nominal value.
func CoffeeCupDependentParameters() (*parameter.Set, error) {
	params, err := parameter.NewSet([]parameter.Parameter{
		{Name: "kappa", Value: -0.05},
		{Name: "u_env", Value: 20},
		{Name: "alpha", Value: 1},
	})
	if err != nil {
		return nil, err
	}
	if err := params.SetAllDistributions(parameter.UniformInterval(0.5)); err != nil {
		return nil, err
	}
	return params, nil
}

// cooling solves dT/dt = rate (T - env) from T(0) = 95 in closed form.
func cooling(rate, env float64) runmodel.Output {
	t := coffeeTime()
	temp := make([]float64, len(t))
	for i, ti := range t {
		temp[i] = env + (coffeeT0-env)*math.Exp(rate*ti)
	}
	return runmodel.Output{Time: t, Values: temp}
}

// Linear is f(a, b) = a + b.
func Linear() runmodel.Model {
	return runmodel.ModelFunc{
		ModelName: "linear",
		F: func(_ context.Context, p map[string]float64) (runmodel.Output, error) {
			return runmodel.Output{Values: []float64{p["a"] + p["b"]}}, nil
		},
	}
}

// LinearParameters puts a on U(0, 1) and b on U(1, 3).
func LinearParameters() (*parameter.Set, error) {
	a, err := distribution.Uniform(0, 1)
	if err != nil {
		return nil, err
	}
	b, err := distribution.Uniform(1, 3)
	if err != nil {
		return nil, err
	}
	return parameter.NewSet([]parameter.Parameter{
		{Name: "a", Value: 0.5, Distribution: a},
		{Name: "b", Value: 2, Distribution: b},
	})
}

// Ishigami is sin x1 + a sin² x2 + b x3⁴ sin x1.
func Ishigami(a, b float64) runmodel.Model {
	return runmodel.ModelFunc{
		ModelName: "ishigami",
		F: func(_ context.Context, p map[string]float64) (runmodel.Output, error) {
			x1, x2, x3 := p["x1"], p["x2"], p["x3"]
			s2 := math.Sin(x2)
			return runmodel.Output{Values: []float64{
				math.Sin(x1) + a*s2*s2 + b*math.Pow(x3, 4)*math.Sin(x1),
			}}, nil
		},
	}
}

// IshigamiParameters puts x1, x2, x3 on U(-π, π).
func IshigamiParameters() (*parameter.Set, error) {
	params := make([]parameter.Parameter, 3)
	for i := range params {
		u, err := distribution.Uniform(-math.Pi, math.Pi)
		if err != nil {
			return nil, err
		}
		params[i] = parameter.Parameter{Name: fmt.Sprintf("x%d", i+1), Distribution: u}
	}
	return parameter.NewSet(params)
}

// IshigamiVariance returns the analytic variance and first-order Sobol
// indices of Ishigami(a, b) on U(-π, π)³.
func IshigamiVariance(a, b float64) (variance float64, first [3]float64) {
	pi4 := math.Pow(math.Pi, 4)
	pi8 := pi4 * pi4
	v1 := 0.5 * math.Pow(1+b*pi4/5, 2)
	v2 := a * a / 8
	v13 := b * b * pi8 * (1.0/18 - 1.0/50)
	variance = v1 + v2 + v13
	return variance, [3]float64{v1 / variance, v2 / variance, 0}
}
