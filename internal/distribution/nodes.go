package distribution

import (
	"gonum.org/v1/gonum/mat"
)

// FwdNodes applies d.Fwd to every column of nodes.
func FwdNodes(d Distribution, nodes mat.Matrix) *mat.Dense {
	return mapColumns(nodes, d.Fwd)
}

// InvNodes applies d.Inv to every column of nodes.
func InvNodes(d Distribution, nodes mat.Matrix) *mat.Dense {
	return mapColumns(nodes, d.Inv)
}

// PDFNodes evaluates the joint density at every column of nodes.
func PDFNodes(d Distribution, nodes mat.Matrix) []float64 {
	r, c := nodes.Dims()
	out := make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, nodes)
		out[j] = d.PDF(col)
	}
	return out
}

func mapColumns(nodes mat.Matrix, f func(dst, src []float64)) *mat.Dense {
	r, c := nodes.Dims()
	out := mat.NewDense(r, c, nil)
	src := make([]float64, r)
	dst := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(src, j, nodes)
		f(dst, src)
		out.SetCol(j, dst)
	}
	return out
}
