package runmodel

import (
	"context"
	"errors"
)

// ErrAbort marks a model error that must stop the whole analysis instead of
// failing a single evaluation.
var ErrAbort = errors.New("model run aborted")

// Output is one model or feature evaluation. Time is the optional axis the
// values are reported on.
type Output struct {
	Time   []float64
	Values []float64
}

// Model is the simulation under analysis. Run receives every parameter of
// the set by name: uncertain ones at the node value, others at nominal.
type Model interface {
	Name() string
	Labels() []string
	Run(ctx context.Context, params map[string]float64) (Output, error)
}

// ModelFunc adapts a plain function to Model.
type ModelFunc struct {
	ModelName   string
	ModelLabels []string
	F           func(ctx context.Context, params map[string]float64) (Output, error)
}

func (m ModelFunc) Name() string     { return m.ModelName }
func (m ModelFunc) Labels() []string { return m.ModelLabels }

func (m ModelFunc) Run(ctx context.Context, params map[string]float64) (Output, error) {
	return m.F(ctx, params)
}

// Feature derives a quantity from the model output.
type Feature struct {
	Name    string
	Labels  []string
	Compute func(out Output) (Output, error)
}
