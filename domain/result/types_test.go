package result

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"gouq/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluationOK(t *testing.T) {
	testCases := []struct {
		name string
		eval Evaluation
		ok   bool
	}{
		{"finite", Success([]float64{1, 2, 3}), true},
		{"nan", Success([]float64{1, math.NaN()}), false},
		{"inf", Success([]float64{math.Inf(1)}), false},
		{"empty", Success(nil), false},
		{"failure", Failure(errors.New("solver diverged")), false},
		{"failure without error", Failure(nil), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, tc.eval.OK())
		})
	}
}

func TestParseSensitivity(t *testing.T) {
	for in, want := range map[string]Sensitivity{
		"1":             SensitivityFirst,
		"sensitivity_1": SensitivityFirst,
		"t":             SensitivityTotal,
		"sensitivity_t": SensitivityTotal,
	} {
		got, err := ParseSensitivity(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseSensitivity("bogus")
	assert.ErrorIs(t, err, core.ErrUnknownSensitivity)
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestDataKeepsInsertionOrder(t *testing.T) {
	data := NewData([]string{"a", "b"})
	data.Add(&Feature{Name: "model"})
	data.Add(&Feature{Name: "spikes"})
	data.Add(&Feature{Name: "model", Labels: []string{"time"}})

	assert.Equal(t, []string{"model", "spikes"}, data.FeatureNames())
	f, ok := data.Feature("model")
	require.True(t, ok)
	assert.Equal(t, []string{"time"}, f.Labels)
	assert.False(t, data.ID == "")
}

func TestMarkIncompleteIsIdempotent(t *testing.T) {
	data := NewData([]string{"a"})
	data.MarkIncomplete("model")
	data.MarkIncomplete("model")
	assert.Equal(t, []string{"model"}, data.Incomplete)
	assert.True(t, data.IsIncomplete("model"))
	assert.False(t, data.IsIncomplete("spikes"))
}

func TestFeatureSensitivityAccessors(t *testing.T) {
	f := &Feature{Sensitivity1: [][]float64{{0.5}}}
	assert.Equal(t, [][]float64{{0.5}}, f.Sensitivity(SensitivityFirst))
	assert.Nil(t, f.Sensitivity(SensitivityTotal))

	f.SetSensitivitySum(SensitivityTotal, []float64{1})
	assert.Equal(t, []float64{1}, f.SensitivitySum(SensitivityTotal))
	assert.Nil(t, f.SensitivitySum(SensitivityFirst))
}

func TestDataJSON(t *testing.T) {
	data := NewData([]string{"a"})
	data.Model = "linear"
	data.Add(&Feature{Name: "linear", Mean: []float64{1.5}})

	raw, err := json.Marshal(data)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "linear", decoded["model"])
	features := decoded["features"].([]interface{})
	require.Len(t, features, 1)
	assert.Equal(t, []interface{}{1.5}, features[0].(map[string]interface{})["mean"])
}

func TestFeatureJSONWritesNaNAsNull(t *testing.T) {
	f := &Feature{
		Name:         "spikes",
		Mean:         []float64{1, math.NaN()},
		Sensitivity1: [][]float64{{0.25, math.Inf(1)}},
	}
	raw, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"spikes","mean":[1,null],"sensitivity_1":[[0.25,null]]}`, string(raw))
}
