package parameter

import (
	"fmt"
	"math"

	"gouq/domain/core"
	"gouq/internal/distribution"
)

// Parameter is one model input: a unique name, a nominal value and an
// optional marginal distribution. Parameters without a distribution keep
// their nominal value in every model evaluation.
type Parameter struct {
	Name         string                `json:"name"`
	Value        float64               `json:"value"`
	Distribution distribution.Marginal `json:"-"`
}

// IsUncertain reports whether the parameter has a marginal distribution.
func (p Parameter) IsUncertain() bool {
	return p.Distribution != nil
}

// Set is an ordered collection of parameters with unique names. It may carry
// one joint distribution covering every parameter, in which case the
// per-parameter marginals are not used for analysis.
type Set struct {
	params []Parameter
	index  map[string]int
	joint  distribution.Distribution
}

// NewSet validates names and builds a set in the given order.
func NewSet(params []Parameter) (*Set, error) {
	s := &Set{index: make(map[string]int, len(params))}
	for _, p := range params {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: parameter name cannot be empty", core.ErrConfiguration)
		}
		if _, dup := s.index[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate parameter %s", core.ErrConfiguration, p.Name)
		}
		s.index[p.Name] = len(s.params)
		s.params = append(s.params, p)
	}
	return s, nil
}

// Len is the number of parameters.
func (s *Set) Len() int { return len(s.params) }

// All returns a copy of the parameters in order.
func (s *Set) All() []Parameter {
	out := make([]Parameter, len(s.params))
	copy(out, s.params)
	return out
}

// Names returns every parameter name in order.
func (s *Set) Names() []string {
	out := make([]string, len(s.params))
	for i, p := range s.params {
		out[i] = p.Name
	}
	return out
}

// UncertainNames returns, in order, the names of parameters with a marginal.
func (s *Set) UncertainNames() []string {
	var out []string
	for _, p := range s.params {
		if p.IsUncertain() {
			out = append(out, p.Name)
		}
	}
	return out
}

// Get returns the named parameter.
func (s *Set) Get(name string) (Parameter, bool) {
	i, ok := s.index[name]
	if !ok {
		return Parameter{}, false
	}
	return s.params[i], true
}

// Marginals returns the marginal distribution of each named parameter, in
// the order of names.
func (s *Set) Marginals(names []string) ([]distribution.Marginal, error) {
	out := make([]distribution.Marginal, len(names))
	for i, name := range names {
		p, ok := s.Get(name)
		if !ok {
			return nil, core.NewUnknownParameterError(name)
		}
		if !p.IsUncertain() {
			return nil, fmt.Errorf("%w: parameter %s has no distribution", core.ErrConfiguration, name)
		}
		out[i] = p.Distribution
	}
	return out, nil
}

// Nominal returns every parameter's nominal value keyed by name.
func (s *Set) Nominal() map[string]float64 {
	out := make(map[string]float64, len(s.params))
	for _, p := range s.params {
		out[p.Name] = p.Value
	}
	return out
}

// Joint returns the joint distribution covering all parameters, or nil.
func (s *Set) Joint() distribution.Distribution { return s.joint }

// SetJoint installs a joint distribution over every parameter in order.
func (s *Set) SetJoint(d distribution.Distribution) error {
	if d != nil && d.Dim() != len(s.params) {
		return fmt.Errorf("%w: joint distribution has %d dimensions, parameter set has %d",
			core.ErrConfiguration, d.Dim(), len(s.params))
	}
	s.joint = d
	return nil
}

// SetDistribution assigns a marginal to the named parameter.
func (s *Set) SetDistribution(name string, m distribution.Marginal) error {
	i, ok := s.index[name]
	if !ok {
		return core.NewUnknownParameterError(name)
	}
	s.params[i].Distribution = m
	return nil
}

// Assigner derives a marginal from a parameter, usually from its nominal value.
type Assigner func(p Parameter) (distribution.Marginal, error)

// SetAllDistributions assigns a marginal to every parameter.
func (s *Set) SetAllDistributions(assign Assigner) error {
	for i, p := range s.params {
		m, err := assign(p)
		if err != nil {
			return fmt.Errorf("distribution for %s: %w", p.Name, err)
		}
		s.params[i].Distribution = m
	}
	return nil
}

// UniformInterval returns an Assigner producing a uniform distribution of
// total width |interval*value| centred on the nominal value.
func UniformInterval(interval float64) Assigner {
	return func(p Parameter) (distribution.Marginal, error) {
		half := math.Abs(interval / 2 * p.Value)
		return distribution.Uniform(p.Value-half, p.Value+half)
	}
}

// NormalInterval returns an Assigner producing a normal distribution around
// the nominal value with standard deviation |interval*value|.
func NormalInterval(interval float64) Assigner {
	return func(p Parameter) (distribution.Marginal, error) {
		return distribution.Normal(p.Value, math.Abs(interval*p.Value))
	}
}
