package runmodel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gouq/domain/core"
	"gouq/domain/parameter"
	"gouq/internal"
	"gouq/internal/distribution"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testParameters(t *testing.T) *parameter.Set {
	t.Helper()
	u, err := distribution.Uniform(0, 1)
	require.NoError(t, err)
	params, err := parameter.NewSet([]parameter.Parameter{
		{Name: "a", Value: 0.5, Distribution: u},
		{Name: "b", Value: 0.5, Distribution: u},
		{Name: "offset", Value: 100},
	})
	require.NoError(t, err)
	return params
}

func sumModel(fail func(params map[string]float64) error) ModelFunc {
	return ModelFunc{
		ModelName:   "sum",
		ModelLabels: []string{"time [s]", "value"},
		F: func(ctx context.Context, p map[string]float64) (Output, error) {
			if fail != nil {
				if err := fail(p); err != nil {
					return Output{}, err
				}
			}
			return Output{Time: []float64{0, 1}, Values: []float64{p["offset"], p["a"] + p["b"] + p["offset"]}}, nil
		},
	}
}

func quietLogger() *internal.Logger {
	return internal.NewWriterLogger(internal.LogLevelError, &bytes.Buffer{})
}

func TestRunnerEvaluatesEveryNode(t *testing.T) {
	maxFeature := Feature{
		Name: "max",
		Compute: func(out Output) (Output, error) {
			m := out.Values[0]
			for _, v := range out.Values {
				if v > m {
					m = v
				}
			}
			return Output{Values: []float64{m}}, nil
		},
	}
	runner, err := NewRunner(sumModel(nil), testParameters(t), []Feature{maxFeature}, 2, quietLogger())
	require.NoError(t, err)

	nodes := mat.NewDense(2, 3, []float64{
		0.1, 0.2, 0.3,
		1, 2, 3,
	})
	data, err := runner.Run(context.Background(), nodes, []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, "sum", data.Model)
	assert.Equal(t, []string{"sum", "max"}, data.FeatureNames())
	assert.Equal(t, []string{"a", "b"}, data.UncertainParameters)

	model, _ := data.Feature("sum")
	assert.Equal(t, []string{"time [s]", "value"}, model.Labels)
	assert.Equal(t, []float64{0, 1}, model.Time)
	require.Len(t, model.Evaluations, 3)
	for j, want := range []float64{101.1, 102.2, 103.3} {
		assert.True(t, model.Evaluations[j].OK())
		assert.InDelta(t, want, model.Evaluations[j].Values[1], 1e-12)
	}

	peakValue, _ := data.Feature("max")
	assert.InDelta(t, 103.3, peakValue.Evaluations[2].Values[0], 1e-12)
}

func TestRunnerRecordsFailures(t *testing.T) {
	model := sumModel(func(p map[string]float64) error {
		if p["a"] > 0.25 {
			return errors.New("diverged")
		}
		if p["a"] < 0 {
			panic("negative")
		}
		return nil
	})
	broken := Feature{Name: "broken", Compute: func(Output) (Output, error) {
		return Output{}, errors.New("no spikes")
	}}
	runner, err := NewRunner(model, testParameters(t), []Feature{broken}, 0, quietLogger())
	require.NoError(t, err)

	nodes := mat.NewDense(1, 3, []float64{0.1, 0.5, -1})
	data, err := runner.Run(context.Background(), nodes, []string{"a"})
	require.NoError(t, err)

	model0, _ := data.Feature("sum")
	assert.True(t, model0.Evaluations[0].OK())
	assert.EqualError(t, model0.Evaluations[1].Err, "diverged")
	assert.Contains(t, model0.Evaluations[2].Err.Error(), "panicked")

	f, _ := data.Feature("broken")
	for _, e := range f.Evaluations {
		assert.False(t, e.OK())
	}
}

func TestRunnerAbort(t *testing.T) {
	model := sumModel(func(p map[string]float64) error {
		if p["a"] > 0.5 {
			return fmt.Errorf("license server down: %w", ErrAbort)
		}
		return nil
	})
	runner, err := NewRunner(model, testParameters(t), nil, 1, quietLogger())
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), mat.NewDense(1, 2, []float64{0.1, 0.9}), []string{"a"})
	assert.ErrorIs(t, err, ErrAbort)
}

func TestRunnerHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner, err := NewRunner(sumModel(nil), testParameters(t), nil, 1, quietLogger())
	require.NoError(t, err)

	_, err = runner.Run(ctx, mat.NewDense(1, 4, nil), []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunnerBoundsConcurrency(t *testing.T) {
	var running, peak int32
	model := ModelFunc{
		ModelName: "slow",
		F: func(ctx context.Context, p map[string]float64) (Output, error) {
			now := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return Output{Values: []float64{p["a"]}}, nil
		},
	}
	runner, err := NewRunner(model, testParameters(t), nil, 2, quietLogger())
	require.NoError(t, err)

	data, err := runner.Run(context.Background(), mat.NewDense(1, 12, nil), []string{"a"})
	require.NoError(t, err)
	f, _ := data.Feature("slow")
	assert.Len(t, f.Evaluations, 12)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRunnerValidation(t *testing.T) {
	params := testParameters(t)

	_, err := NewRunner(nil, params, nil, 1, nil)
	assert.True(t, core.IsConfigurationError(err))

	_, err = NewRunner(sumModel(nil), params, []Feature{{Name: "sum", Compute: func(o Output) (Output, error) { return o, nil }}}, 1, nil)
	assert.True(t, core.IsConfigurationError(err))

	runner, err := NewRunner(sumModel(nil), params, nil, 1, quietLogger())
	require.NoError(t, err)
	_, err = runner.Run(context.Background(), mat.NewDense(1, 1, nil), []string{"missing"})
	assert.ErrorIs(t, err, core.ErrUnknownParameter)

	_, err = runner.Run(context.Background(), mat.NewDense(2, 1, nil), []string{"a"})
	assert.Error(t, err)
}
