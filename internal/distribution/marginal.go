// Package distribution provides the probability distributions the engine
// samples from, integrates against and transforms between.
package distribution

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Marginal is a univariate distribution. The gonum distuv types satisfy it.
type Marginal interface {
	CDF(x float64) float64
	Quantile(p float64) float64
	Prob(x float64) float64
	Mean() float64
	Variance() float64
}

// Uniform returns a uniform distribution on [lo, hi].
func Uniform(lo, hi float64) (Marginal, error) {
	if !(lo < hi) {
		return nil, fmt.Errorf("uniform requires lo < hi, got [%g, %g]", lo, hi)
	}
	return distuv.Uniform{Min: lo, Max: hi}, nil
}

// Normal returns a normal distribution with mean mu and standard deviation sigma.
func Normal(mu, sigma float64) (Marginal, error) {
	if !(sigma > 0) {
		return nil, fmt.Errorf("normal requires sigma > 0, got %g", sigma)
	}
	return distuv.Normal{Mu: mu, Sigma: sigma}, nil
}

// StandardNormal is the unit normal used by the Rosenblatt transform.
func StandardNormal() Marginal {
	return distuv.UnitNormal
}

// LogNormal returns a log-normal distribution whose logarithm has mean mu
// and standard deviation sigma.
func LogNormal(mu, sigma float64) (Marginal, error) {
	if !(sigma > 0) {
		return nil, fmt.Errorf("lognormal requires sigma > 0, got %g", sigma)
	}
	return distuv.LogNormal{Mu: mu, Sigma: sigma}, nil
}

// Beta returns a beta distribution on [0, 1].
func Beta(alpha, beta float64) (Marginal, error) {
	if !(alpha > 0 && beta > 0) {
		return nil, fmt.Errorf("beta requires positive shape parameters, got alpha=%g beta=%g", alpha, beta)
	}
	return distuv.Beta{Alpha: alpha, Beta: beta}, nil
}

// Gamma returns a gamma distribution with shape alpha and rate beta.
func Gamma(alpha, beta float64) (Marginal, error) {
	if !(alpha > 0 && beta > 0) {
		return nil, fmt.Errorf("gamma requires positive shape and rate, got alpha=%g beta=%g", alpha, beta)
	}
	return distuv.Gamma{Alpha: alpha, Beta: beta}, nil
}

// Exponential returns an exponential distribution with the given rate.
func Exponential(rate float64) (Marginal, error) {
	if !(rate > 0) {
		return nil, fmt.Errorf("exponential requires rate > 0, got %g", rate)
	}
	return distuv.Exponential{Rate: rate}, nil
}

// Triangle returns a triangular distribution on [a, b] with mode c.
func Triangle(a, b, c float64) (Marginal, error) {
	if !(a < b && a <= c && c <= b) {
		return nil, fmt.Errorf("triangle requires a <= c <= b and a < b, got a=%g b=%g c=%g", a, b, c)
	}
	return distuv.NewTriangle(a, b, c, nil), nil
}

// unitEps keeps probabilities away from 0 and 1 where quantiles diverge.
const unitEps = 1e-12

func clampUnit(p float64) float64 {
	if math.IsNaN(p) {
		return p
	}
	return math.Min(math.Max(p, unitEps), 1-unitEps)
}
