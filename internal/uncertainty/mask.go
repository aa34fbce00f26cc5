package uncertainty

import (
	"fmt"

	"gouq/domain/core"
	"gouq/domain/result"
	apperrors "gouq/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// Masked is a feature's data restricted to the nodes that produced a valid
// result. Nodes keep one row per parameter and one column per valid node;
// Values hold one row per valid node. Both are nil when no node is valid.
type Masked struct {
	Nodes   *mat.Dense
	Values  *mat.Dense
	Weights []float64
	Mask    []bool
}

// Valid counts the nodes kept by the mask.
func (m *Masked) Valid() int {
	n := 0
	for _, ok := range m.Mask {
		if ok {
			n++
		}
	}
	return n
}

// Complete reports whether every node produced a valid result.
func (m *Masked) Complete() bool {
	return m.Valid() == len(m.Mask)
}

// CreateMask drops the nodes at which feature failed or produced a
// non-finite value. weights may be nil; otherwise it is sliced like the
// nodes.
func (c *Calculations) CreateMask(data *result.Data, nodes *mat.Dense, feature string, weights []float64) (*Masked, error) {
	f, ok := data.Feature(feature)
	if !ok {
		return nil, apperrors.ConfigInvalidCause(core.NewUnknownFeatureError(feature), "cannot mask results")
	}
	dim, n := nodes.Dims()
	if len(f.Evaluations) != n {
		return nil, apperrors.InvalidInput(
			fmt.Sprintf("feature %s has %d evaluations for %d nodes", feature, len(f.Evaluations), n),
			core.ErrInsufficientData)
	}
	if weights != nil && len(weights) != n {
		return nil, apperrors.InvalidInput(
			fmt.Sprintf("%d weights for %d nodes", len(weights), n), nil)
	}

	masked := &Masked{Mask: make([]bool, n)}
	var kept []int
	width := -1
	for i, eval := range f.Evaluations {
		if !eval.OK() {
			continue
		}
		if width < 0 {
			width = len(eval.Values)
		} else if len(eval.Values) != width {
			return nil, apperrors.InvalidInput("cannot mask results", core.NewRaggedValuesError(feature, width, len(eval.Values)))
		}
		masked.Mask[i] = true
		kept = append(kept, i)
	}

	if len(kept) < n {
		c.logger.Warn("Feature: %s only yields results for %d/%d parameter combinations.", feature, len(kept), n)
	}
	if weights != nil {
		masked.Weights = make([]float64, 0, len(kept))
		for _, i := range kept {
			masked.Weights = append(masked.Weights, weights[i])
		}
	}
	if len(kept) == 0 {
		return masked, nil
	}

	masked.Nodes = mat.NewDense(dim, len(kept), nil)
	masked.Values = mat.NewDense(len(kept), width, nil)
	for j, i := range kept {
		for r := 0; r < dim; r++ {
			masked.Nodes.Set(r, j, nodes.At(r, i))
		}
		masked.Values.SetRow(j, f.Evaluations[i].Values)
	}
	return masked, nil
}
