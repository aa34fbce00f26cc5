package distribution

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"pgregory.net/rapid"
)

func mustUniform(t *testing.T, lo, hi float64) Marginal {
	t.Helper()
	m, err := Uniform(lo, hi)
	require.NoError(t, err)
	return m
}

func TestMarginalValidation(t *testing.T) {
	testCases := []struct {
		name string
		ctor func() (Marginal, error)
		ok   bool
	}{
		{"uniform", func() (Marginal, error) { return Uniform(0, 1) }, true},
		{"uniform reversed", func() (Marginal, error) { return Uniform(1, 0) }, false},
		{"normal", func() (Marginal, error) { return Normal(0, 2) }, true},
		{"normal zero sigma", func() (Marginal, error) { return Normal(0, 0) }, false},
		{"lognormal", func() (Marginal, error) { return LogNormal(0, 0.5) }, true},
		{"beta", func() (Marginal, error) { return Beta(2, 3) }, true},
		{"beta negative", func() (Marginal, error) { return Beta(-1, 3) }, false},
		{"gamma", func() (Marginal, error) { return Gamma(2, 1) }, true},
		{"exponential", func() (Marginal, error) { return Exponential(0) }, false},
		{"triangle", func() (Marginal, error) { return Triangle(0, 2, 1) }, true},
		{"triangle mode outside", func() (Marginal, error) { return Triangle(0, 2, 3) }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := tc.ctor()
			if tc.ok {
				require.NoError(t, err)
				assert.NotNil(t, m)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSampleShapeAndOrder(t *testing.T) {
	d := J(mustUniform(t, 0, 1), mustUniform(t, 10, 20))
	rng := rand.New(rand.NewPCG(1, 2))

	for _, rule := range []Rule{RuleRandom, RuleHalton, RuleHammersley, RuleLatinHypercube} {
		t.Run(string(rule), func(t *testing.T) {
			nodes := Sample(d, 50, rule, rng)
			r, c := nodes.Dims()
			assert.Equal(t, 2, r)
			assert.Equal(t, 50, c)
			for j := 0; j < c; j++ {
				assert.True(t, nodes.At(0, j) > 0 && nodes.At(0, j) < 1)
				assert.True(t, nodes.At(1, j) > 10 && nodes.At(1, j) < 20)
			}
		})
	}
}

func TestHaltonIsDeterministic(t *testing.T) {
	a := UnitSamples(3, 8, RuleHalton, nil)
	b := UnitSamples(3, 8, RuleHalton, nil)
	assert.True(t, mat.Equal(a, b))
	assert.InDelta(t, 0.5, a.At(0, 0), 1e-15)
	assert.InDelta(t, 1.0/3, a.At(1, 0), 1e-15)
	assert.InDelta(t, 0.2, a.At(2, 0), 1e-15)
}

func TestParseRule(t *testing.T) {
	rule, err := ParseRule("M")
	require.NoError(t, err)
	assert.Equal(t, RuleHammersley, rule)

	rule, err = ParseRule("halton")
	require.NoError(t, err)
	assert.Equal(t, RuleHalton, rule)

	_, err = ParseRule("sobol-ish")
	assert.Error(t, err)
}

func TestStandardNormalJointHasOneFactorPerParameter(t *testing.T) {
	d := StandardNormalJoint(3)
	assert.Equal(t, 3, d.Dim())
	assert.True(t, d.Independent())
	assert.InDelta(t, math.Pow(1/math.Sqrt(2*math.Pi), 3), d.PDF([]float64{0, 0, 0}), 1e-12)
}

func TestIndependentRoundTrip(t *testing.T) {
	d := J(mustUniform(t, -1, 3), StandardNormal())
	rapid.Check(t, func(rt *rapid.T) {
		u := []float64{
			rapid.Float64Range(0.001, 0.999).Draw(rt, "u0"),
			rapid.Float64Range(0.001, 0.999).Draw(rt, "u1"),
		}
		x := make([]float64, 2)
		back := make([]float64, 2)
		d.Inv(x, u)
		d.Fwd(back, x)
		for i := range u {
			if math.Abs(back[i]-u[i]) > 1e-9 {
				rt.Fatalf("round trip mismatch at %d: %g vs %g", i, back[i], u[i])
			}
		}
	})
}

func TestGaussianCopula(t *testing.T) {
	corr := mat.NewSymDense(2, []float64{1, 0.8, 0.8, 1})
	normal, err := Normal(0, 1)
	require.NoError(t, err)
	g, err := NewGaussianCopula([]Marginal{normal, normal}, corr)
	require.NoError(t, err)
	assert.False(t, g.Independent())

	t.Run("round trip", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			u := []float64{
				rapid.Float64Range(0.01, 0.99).Draw(rt, "u0"),
				rapid.Float64Range(0.01, 0.99).Draw(rt, "u1"),
			}
			x := make([]float64, 2)
			back := make([]float64, 2)
			g.Inv(x, u)
			g.Fwd(back, x)
			for i := range u {
				if math.Abs(back[i]-u[i]) > 1e-8 {
					rt.Fatalf("round trip mismatch at %d: %g vs %g", i, back[i], u[i])
				}
			}
		})
	})

	t.Run("density matches bivariate normal", func(t *testing.T) {
		x := []float64{0.3, -0.2}
		rho := 0.8
		q := (x[0]*x[0] - 2*rho*x[0]*x[1] + x[1]*x[1]) / (1 - rho*rho)
		want := math.Exp(-q/2) / (2 * math.Pi * math.Sqrt(1-rho*rho))
		assert.InDelta(t, want, g.PDF(x), 1e-9)
	})

	t.Run("samples are correlated", func(t *testing.T) {
		nodes := Sample(g, 4000, RuleHalton, nil)
		r := stat.Correlation(mat.Row(nil, 0, nodes), mat.Row(nil, 1, nodes), nil)
		assert.InDelta(t, 0.8, r, 0.05)
	})

	t.Run("rejects invalid correlation", func(t *testing.T) {
		_, err := NewGaussianCopula([]Marginal{normal, normal}, mat.NewSymDense(2, []float64{1, 1.5, 1.5, 1}))
		assert.Error(t, err)
		_, err = NewGaussianCopula([]Marginal{normal}, corr)
		assert.Error(t, err)
	})
}

func TestPDFNodes(t *testing.T) {
	d := J(mustUniform(t, 0, 2), mustUniform(t, 0, 4))
	nodes := mat.NewDense(2, 2, []float64{0.5, 1.5, 1, 3})
	assert.Equal(t, []float64{0.125, 0.125}, PDFNodes(d, nodes))
}
