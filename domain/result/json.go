package result

import (
	"encoding/json"
	"math"
	"strconv"
)

// floats encodes non-finite values as null, which encoding/json rejects.
type floats []float64

func (f floats) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, 2+8*len(f))
	buf = append(buf, '[')
	for i, v := range f {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

func matrix(m [][]float64) []floats {
	if m == nil {
		return nil
	}
	out := make([]floats, len(m))
	for i, row := range m {
		out[i] = row
	}
	return out
}

// MarshalJSON writes NaN and infinite statistics as null.
func (f *Feature) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name            string   `json:"name"`
		Labels          []string `json:"labels,omitempty"`
		Time            floats   `json:"time,omitempty"`
		Mean            floats   `json:"mean,omitempty"`
		Variance        floats   `json:"variance,omitempty"`
		Percentile5     floats   `json:"percentile_5,omitempty"`
		Percentile95    floats   `json:"percentile_95,omitempty"`
		Sensitivity1    []floats `json:"sensitivity_1,omitempty"`
		SensitivityT    []floats `json:"sensitivity_t,omitempty"`
		Sensitivity1Sum floats   `json:"sensitivity_1_sum,omitempty"`
		SensitivityTSum floats   `json:"sensitivity_t_sum,omitempty"`
	}{
		Name:            f.Name,
		Labels:          f.Labels,
		Time:            f.Time,
		Mean:            f.Mean,
		Variance:        f.Variance,
		Percentile5:     f.Percentile5,
		Percentile95:    f.Percentile95,
		Sensitivity1:    matrix(f.Sensitivity1),
		SensitivityT:    matrix(f.SensitivityT),
		Sensitivity1Sum: f.Sensitivity1Sum,
		SensitivityTSum: f.SensitivityTSum,
	})
}
