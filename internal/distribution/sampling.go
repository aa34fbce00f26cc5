package distribution

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"gouq/domain/core"

	"gonum.org/v1/gonum/mat"
)

// Rule selects how points of the unit hypercube are generated.
type Rule string

const (
	RuleRandom         Rule = "R"
	RuleHalton         Rule = "H"
	RuleHammersley     Rule = "M"
	RuleLatinHypercube Rule = "L"
)

// ParseRule accepts the one-letter codes and their long names.
func ParseRule(s string) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "random", "":
		return RuleRandom, nil
	case "h", "halton":
		return RuleHalton, nil
	case "m", "hammersley":
		return RuleHammersley, nil
	case "l", "latin_hypercube", "lhs":
		return RuleLatinHypercube, nil
	default:
		return "", fmt.Errorf("%w: unknown sampling rule %q", core.ErrConfiguration, s)
	}
}

// UnitSamples returns a dim x n matrix of points strictly inside the unit
// hypercube. rng is only consulted by the random and latin hypercube rules.
func UnitSamples(dim, n int, rule Rule, rng *rand.Rand) *mat.Dense {
	if dim <= 0 || n <= 0 {
		panic(fmt.Sprintf("distribution: cannot draw %d samples in %d dimensions", n, dim))
	}
	out := mat.NewDense(dim, n, nil)

	switch rule {
	case RuleHalton:
		primes := firstPrimes(dim)
		for i := 0; i < dim; i++ {
			for k := 0; k < n; k++ {
				out.Set(i, k, radicalInverse(k+1, primes[i]))
			}
		}
	case RuleHammersley:
		primes := firstPrimes(dim)
		for i := 0; i < dim-1; i++ {
			for k := 0; k < n; k++ {
				out.Set(i, k, radicalInverse(k+1, primes[i]))
			}
		}
		for k := 0; k < n; k++ {
			out.Set(dim-1, k, float64(k+1)/float64(n+1))
		}
	case RuleLatinHypercube:
		for i := 0; i < dim; i++ {
			perm := rng.Perm(n)
			for k := 0; k < n; k++ {
				out.Set(i, k, clampUnit((float64(perm[k])+rng.Float64())/float64(n)))
			}
		}
	default:
		for k := 0; k < n; k++ {
			for i := 0; i < dim; i++ {
				out.Set(i, k, clampUnit(rng.Float64()))
			}
		}
	}
	return out
}

// Sample draws n points from d under rule by pushing unit samples through
// the inverse transform. The result has one row per parameter.
func Sample(d Distribution, n int, rule Rule, rng *rand.Rand) *mat.Dense {
	return InvNodes(d, UnitSamples(d.Dim(), n, rule, rng))
}

func radicalInverse(k, base int) float64 {
	inv := 1.0 / float64(base)
	f := inv
	r := 0.0
	for k > 0 {
		r += float64(k%base) * f
		k /= base
		f *= inv
	}
	return r
}

func firstPrimes(n int) []int {
	primes := make([]int, 0, n)
	for c := 2; len(primes) < n; c++ {
		prime := true
		for _, p := range primes {
			if p*p > c {
				break
			}
			if c%p == 0 {
				prime = false
				break
			}
		}
		if prime {
			primes = append(primes, c)
		}
	}
	return primes
}
