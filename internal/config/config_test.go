package config

import (
	"os"
	"path/filepath"
	"testing"

	"gouq/domain/core"
	"gouq/internal/distribution"
	"gouq/internal/errors"
	"gouq/internal/polychaos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	opts, err := cfg.Engine.Options()
	require.NoError(t, err)
	assert.Equal(t, 3, opts.P)
	assert.Equal(t, 4, opts.QuadratureOrder)
	assert.True(t, opts.Sparse)
	assert.Equal(t, 30, opts.NrMCSamples)
	assert.Equal(t, distribution.RuleRandom, opts.MCRule)
	assert.Equal(t, polychaos.RegressionLeastSquares, opts.Regression.Rule)
	assert.False(t, opts.Seeded)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("UQ_P", "5")
	t.Setenv("UQ_MC_SAMPLES", "1000")
	t.Setenv("UQ_MC_RULE", "M")
	t.Setenv("UQ_ALLOW_INCOMPLETE", "true")
	t.Setenv("UQ_REGRESSION", "T")
	t.Setenv("UQ_SEED", "42")
	t.Setenv("LOG_FILE", "uq.log")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "uq.log", cfg.Logging.File)

	opts, err := cfg.Engine.Options()
	require.NoError(t, err)
	assert.Equal(t, 5, opts.P)
	assert.Equal(t, 1000, opts.NrMCSamples)
	assert.Equal(t, distribution.RuleHammersley, opts.MCRule)
	assert.True(t, opts.AllowIncomplete)
	assert.Equal(t, polychaos.RegressionTikhonov, opts.Regression.Rule)
	assert.True(t, opts.Seeded)
	assert.Equal(t, uint64(42), opts.Seed)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("seed", func(t *testing.T) {
		t.Setenv("UQ_SEED", "-3")
		_, err := Load()
		require.Error(t, err)
		assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	})
	t.Run("rule", func(t *testing.T) {
		t.Setenv("UQ_PC_MC_RULE", "sobol")
		_, err := Load()
		require.Error(t, err)
		assert.True(t, core.IsConfigurationError(err))
	})
	t.Run("samples", func(t *testing.T) {
		t.Setenv("UQ_PC_MC_SAMPLES", "0")
		_, err := Load()
		assert.True(t, core.IsConfigurationError(err))
	})
}

func TestParseProblem(t *testing.T) {
	problem, err := ParseProblem([]byte(`
model: coffee_cup
parameters:
  - name: kappa
    value: 0.05
    distribution: {type: uniform, lower: 0.025, upper: 0.075}
  - name: T_env
    value: 20
    distribution: {type: normal, mean: 20, std: 1.5}
  - name: T_0
    value: 95
uncertain: [kappa]
`))
	require.NoError(t, err)

	assert.Equal(t, "coffee_cup", problem.Model)
	assert.Equal(t, []string{"kappa"}, problem.Uncertain)
	require.NotNil(t, problem.Parameters)
	assert.Equal(t, []string{"kappa", "T_env"}, problem.Parameters.UncertainNames())
	p, _ := problem.Parameters.Get("T_env")
	assert.InDelta(t, 2.25, p.Distribution.Variance(), 1e-12)
	assert.Nil(t, problem.Parameters.Joint())
}

func TestParseProblemWithIntervalAndCorrelation(t *testing.T) {
	problem, err := ParseProblem([]byte(`
model: coffee_cup_dependent
parameters:
  - {name: kappa, value: -0.05}
  - {name: u_env, value: 20}
interval: {type: uniform, width: 0.5}
correlation:
  - [1, 0.4]
  - [0.4, 1]
`))
	require.NoError(t, err)

	joint := problem.Parameters.Joint()
	require.NotNil(t, joint)
	assert.False(t, joint.Independent())
	assert.Equal(t, 2, joint.Dim())
	assert.InDelta(t, 20, joint.Marginals()[1].Mean(), 1e-12)
}

func TestParseProblemErrors(t *testing.T) {
	testCases := map[string]string{
		"no model":          "parameters: []",
		"bad yaml":          "model: [",
		"unknown type":      "model: m\nparameters:\n  - {name: a, distribution: {type: cauchy}}",
		"invalid bounds":    "model: m\nparameters:\n  - {name: a, distribution: {type: uniform, lower: 2, upper: 1}}",
		"duplicate name":    "model: m\nparameters:\n  - {name: a}\n  - {name: a}",
		"correlation shape": "model: m\nparameters:\n  - {name: a, distribution: {type: normal, std: 1}}\ncorrelation: [[1, 0], [0, 1]]",
		"not definite": "model: m\nparameters:\n  - {name: a, distribution: {type: normal, std: 1}}\n  - {name: b, distribution: {type: normal, std: 1}}\n" +
			"correlation: [[1, 2], [2, 1]]",
		"missing marginal": "model: m\nparameters:\n  - {name: a, distribution: {type: normal, std: 1}}\n  - {name: b}\n" +
			"correlation: [[1, 0.2], [0.2, 1]]",
	}
	for name, raw := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProblem([]byte(raw))
			require.Error(t, err)
			assert.True(t, errors.IsAppError(err))
		})
	}
}

func TestLoadProblemFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problem.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: ishigami\n"), 0o600))

	problem, err := LoadProblem(path)
	require.NoError(t, err)
	assert.Equal(t, "ishigami", problem.Model)
	assert.Nil(t, problem.Parameters)

	_, err = LoadProblem(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
