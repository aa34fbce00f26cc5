package ports

import (
	"context"

	"gouq/domain/result"

	"gonum.org/v1/gonum/mat"
)

// ModelRunner evaluates the model (and its features) at every node.
//
// nodes has one row per uncertain parameter, in the order of uncertain, and
// one column per evaluation. The returned data carries one Evaluation per
// node for every feature, in column order. A failed evaluation is reported
// in the Evaluation; a returned error aborts the whole analysis.
type ModelRunner interface {
	Run(ctx context.Context, nodes *mat.Dense, uncertain []string) (*result.Data, error)
}
