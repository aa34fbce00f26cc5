package uncertainty

import (
	"gouq/internal/distribution"

	"gonum.org/v1/gonum/mat"
)

// rosenblatt carries an analysis through an independent standard normal
// space: nodes are generated for normal, mapped to the true distribution
// for model evaluation, and the expansion is fitted against normal.
type rosenblatt struct {
	truth  distribution.Distribution
	normal distribution.Distribution
}

func newRosenblatt(truth distribution.Distribution) rosenblatt {
	return rosenblatt{truth: truth, normal: distribution.StandardNormalJoint(truth.Dim())}
}

// toTrue maps normal-space nodes z to x = truth.Inv(normal.Fwd(z)).
func (r rosenblatt) toTrue(z mat.Matrix) *mat.Dense {
	return distribution.InvNodes(r.truth, distribution.FwdNodes(r.normal, z))
}

// weights rescales normal-space quadrature weights by the density ratio
// truth.PDF(x) / normal.PDF(z). A node where the normal density underflows
// gets zero weight.
func (r rosenblatt) weights(w []float64, z, x mat.Matrix) []float64 {
	pz := distribution.PDFNodes(r.normal, z)
	px := distribution.PDFNodes(r.truth, x)
	out := make([]float64, len(w))
	for i := range w {
		if pz[i] == 0 {
			continue
		}
		out[i] = w[i] * px[i] / pz[i]
	}
	return out
}
