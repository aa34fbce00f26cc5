package result

import (
	"encoding/json"
	"fmt"
	"math"

	"gouq/domain/core"
)

// Evaluation is the outcome of one model or feature evaluation at one node.
// A failed evaluation carries Err and no values.
type Evaluation struct {
	Values []float64 `json:"values,omitempty"`
	Err    error     `json:"-"`
}

// Success wraps the values of a successful evaluation.
func Success(values []float64) Evaluation {
	return Evaluation{Values: values}
}

// Failure records a failed evaluation.
func Failure(err error) Evaluation {
	if err == nil {
		err = fmt.Errorf("evaluation failed")
	}
	return Evaluation{Err: err}
}

// OK reports whether the evaluation succeeded and every value is finite.
func (e Evaluation) OK() bool {
	if e.Err != nil || len(e.Values) == 0 {
		return false
	}
	for _, v := range e.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Sensitivity names one kind of Sobol index.
type Sensitivity string

const (
	SensitivityFirst Sensitivity = "sensitivity_1"
	SensitivityTotal Sensitivity = "sensitivity_t"
)

// ParseSensitivity accepts the full names and the aliases "1" and "t".
func ParseSensitivity(s string) (Sensitivity, error) {
	switch s {
	case "sensitivity_1", "1":
		return SensitivityFirst, nil
	case "sensitivity_t", "t":
		return SensitivityTotal, nil
	default:
		return "", fmt.Errorf("%w: sensitivity must be either sensitivity_1, sensitivity_t, 1, or t, got %q",
			core.ErrUnknownSensitivity, s)
	}
}

// Feature holds the evaluations of one output quantity and the statistics
// computed from them. Sensitivity matrices are indexed [parameter][output].
type Feature struct {
	Name        string       `json:"name"`
	Labels      []string     `json:"labels,omitempty"`
	Time        []float64    `json:"time,omitempty"`
	Evaluations []Evaluation `json:"-"`

	Mean         []float64 `json:"mean,omitempty"`
	Variance     []float64 `json:"variance,omitempty"`
	Percentile5  []float64 `json:"percentile_5,omitempty"`
	Percentile95 []float64 `json:"percentile_95,omitempty"`

	Sensitivity1    [][]float64 `json:"sensitivity_1,omitempty"`
	SensitivityT    [][]float64 `json:"sensitivity_t,omitempty"`
	Sensitivity1Sum []float64   `json:"sensitivity_1_sum,omitempty"`
	SensitivityTSum []float64   `json:"sensitivity_t_sum,omitempty"`
}

// Sensitivity returns the index matrix of the given kind, nil if absent.
func (f *Feature) Sensitivity(kind Sensitivity) [][]float64 {
	switch kind {
	case SensitivityFirst:
		return f.Sensitivity1
	case SensitivityTotal:
		return f.SensitivityT
	}
	return nil
}

// SetSensitivitySum stores the normalised per-parameter sums of kind.
func (f *Feature) SetSensitivitySum(kind Sensitivity, sum []float64) {
	switch kind {
	case SensitivityFirst:
		f.Sensitivity1Sum = sum
	case SensitivityTotal:
		f.SensitivityTSum = sum
	}
}

// SensitivitySum returns the normalised per-parameter sums of kind.
func (f *Feature) SensitivitySum(kind Sensitivity) []float64 {
	switch kind {
	case SensitivityFirst:
		return f.Sensitivity1Sum
	case SensitivityTotal:
		return f.SensitivityTSum
	}
	return nil
}

// Data is the result of one analysis: the features returned by the model
// runner and the statistics accumulated on them.
type Data struct {
	ID                  core.RunID `json:"id"`
	Model               string     `json:"model,omitempty"`
	Method              string     `json:"method,omitempty"`
	UncertainParameters []string   `json:"uncertain_parameters"`
	Incomplete          []string   `json:"incomplete,omitempty"`

	features map[string]*Feature
	order    []string
}

// NewData creates empty result data for the given uncertain parameters.
func NewData(uncertain []string) *Data {
	return &Data{
		ID:                  core.NewRunID(),
		UncertainParameters: append([]string(nil), uncertain...),
		features:            make(map[string]*Feature),
	}
}

// Add stores a feature; a feature with the same name is replaced in place.
func (d *Data) Add(f *Feature) {
	if _, ok := d.features[f.Name]; !ok {
		d.order = append(d.order, f.Name)
	}
	d.features[f.Name] = f
}

// Feature returns the named feature.
func (d *Data) Feature(name string) (*Feature, bool) {
	f, ok := d.features[name]
	return f, ok
}

// FeatureNames returns feature names in insertion order.
func (d *Data) FeatureNames() []string {
	return append([]string(nil), d.order...)
}

// Features returns the features in insertion order.
func (d *Data) Features() []*Feature {
	out := make([]*Feature, len(d.order))
	for i, name := range d.order {
		out[i] = d.features[name]
	}
	return out
}

// MarkIncomplete records that name lost at least one node to masking.
func (d *Data) MarkIncomplete(name string) {
	if d.IsIncomplete(name) {
		return
	}
	d.Incomplete = append(d.Incomplete, name)
}

// IsIncomplete reports whether name is recorded as incomplete.
func (d *Data) IsIncomplete(name string) bool {
	for _, n := range d.Incomplete {
		if n == name {
			return true
		}
	}
	return false
}

// MarshalJSON emits the features as an ordered list next to the run metadata.
func (d *Data) MarshalJSON() ([]byte, error) {
	type alias Data
	return json.Marshal(struct {
		*alias
		Features []*Feature `json:"features"`
	}{
		alias:    (*alias)(d),
		Features: d.Features(),
	})
}
