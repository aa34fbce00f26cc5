package config

import (
	"fmt"
	"os"
	"strings"

	"gouq/domain/parameter"
	"gouq/internal/distribution"
	"gouq/internal/errors"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// Problem is an analysis definition read from a YAML file.
type Problem struct {
	// Model names a registered model.
	Model string
	// Parameters is nil when the file relies on the model's defaults.
	Parameters *parameter.Set
	// Uncertain restricts the analysis; nil means every uncertain parameter.
	Uncertain []string
}

type problemFile struct {
	Model       string          `yaml:"model"`
	Parameters  []parameterSpec `yaml:"parameters"`
	Interval    *intervalSpec   `yaml:"interval"`
	Correlation [][]float64     `yaml:"correlation"`
	Uncertain   []string        `yaml:"uncertain"`
}

type parameterSpec struct {
	Name         string            `yaml:"name"`
	Value        float64           `yaml:"value"`
	Distribution *distributionSpec `yaml:"distribution"`
}

// intervalSpec assigns every parameter a distribution derived from its
// nominal value.
type intervalSpec struct {
	Type  string  `yaml:"type"`
	Width float64 `yaml:"width"`
}

type distributionSpec struct {
	Type  string  `yaml:"type"`
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
	Mode  float64 `yaml:"mode"`
	Mean  float64 `yaml:"mean"`
	Std   float64 `yaml:"std"`
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`
	Rate  float64 `yaml:"rate"`
}

// LoadProblem reads and validates a problem file.
func LoadProblem(path string) (*Problem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read problem file %s", path)
	}
	return ParseProblem(raw)
}

// ParseProblem decodes a YAML problem definition.
func ParseProblem(raw []byte) (*Problem, error) {
	var file problemFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.InvalidInput("malformed problem file", err)
	}
	if file.Model == "" {
		return nil, errors.ConfigInvalid("problem file must name a model")
	}

	problem := &Problem{Model: file.Model, Uncertain: file.Uncertain}
	if len(file.Parameters) == 0 {
		if file.Interval != nil || file.Correlation != nil {
			return nil, errors.ConfigInvalid("interval and correlation need explicit parameters")
		}
		return problem, nil
	}

	params := make([]parameter.Parameter, len(file.Parameters))
	for i, spec := range file.Parameters {
		params[i] = parameter.Parameter{Name: spec.Name, Value: spec.Value}
		if spec.Distribution == nil {
			continue
		}
		m, err := spec.Distribution.marginal()
		if err != nil {
			return nil, errors.ConfigInvalidCause(err, fmt.Sprintf("invalid distribution for %s", spec.Name))
		}
		params[i].Distribution = m
	}
	set, err := parameter.NewSet(params)
	if err != nil {
		return nil, errors.ConfigInvalidCause(err, "invalid parameters")
	}

	if file.Interval != nil {
		assign, err := file.Interval.assigner()
		if err != nil {
			return nil, err
		}
		if err := set.SetAllDistributions(assign); err != nil {
			return nil, errors.ConfigInvalidCause(err, "invalid interval")
		}
	}

	if file.Correlation != nil {
		if err := applyCorrelation(set, file.Correlation); err != nil {
			return nil, err
		}
	}

	problem.Parameters = set
	return problem, nil
}

func (s intervalSpec) assigner() (parameter.Assigner, error) {
	switch strings.ToLower(s.Type) {
	case "uniform", "":
		return parameter.UniformInterval(s.Width), nil
	case "normal":
		return parameter.NormalInterval(s.Width), nil
	}
	return nil, errors.ConfigInvalid(fmt.Sprintf("unknown interval type %q", s.Type))
}

func (s distributionSpec) marginal() (distribution.Marginal, error) {
	switch strings.ToLower(s.Type) {
	case "uniform":
		return distribution.Uniform(s.Lower, s.Upper)
	case "normal":
		return distribution.Normal(s.Mean, s.Std)
	case "lognormal":
		return distribution.LogNormal(s.Mean, s.Std)
	case "beta":
		return distribution.Beta(s.Alpha, s.Beta)
	case "gamma":
		return distribution.Gamma(s.Alpha, s.Rate)
	case "exponential":
		return distribution.Exponential(s.Rate)
	case "triangle", "triangular":
		return distribution.Triangle(s.Lower, s.Upper, s.Mode)
	}
	return nil, fmt.Errorf("unknown distribution type %q", s.Type)
}

// applyCorrelation couples every parameter's marginal with a Gaussian
// copula of the given correlation matrix.
func applyCorrelation(set *parameter.Set, corr [][]float64) error {
	n := set.Len()
	if len(corr) != n {
		return errors.ConfigInvalid(fmt.Sprintf("correlation matrix has %d rows for %d parameters", len(corr), n))
	}
	data := make([]float64, 0, n*n)
	for i, row := range corr {
		if len(row) != n {
			return errors.ConfigInvalid(fmt.Sprintf("correlation row %d has %d entries, want %d", i, len(row), n))
		}
		data = append(data, row...)
	}
	sym := mat.NewSymDense(n, data)
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			if corr[i][j] != corr[j][i] {
				return errors.ConfigInvalid("correlation matrix must be symmetric")
			}
		}
	}

	marginals, err := set.Marginals(set.Names())
	if err != nil {
		return errors.ConfigInvalidCause(err, "a correlated problem needs a distribution for every parameter")
	}
	copula, err := distribution.NewGaussianCopula(marginals, sym)
	if err != nil {
		return errors.ConfigInvalidCause(err, "invalid correlation matrix")
	}
	if err := set.SetJoint(copula); err != nil {
		return errors.ConfigInvalidCause(err, "invalid correlation matrix")
	}
	return nil
}
