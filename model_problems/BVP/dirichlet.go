package BVP

import (
	"github.com/james-bowman/sparse"

	"github.com/notargets/gofea/utils"
)

// ApplyDirichlet fixes dofs to vals by symmetric elimination: the fixed
// columns move to the right hand side and the fixed rows and columns are
// replaced by those of the identity. K and f are not modified.
func ApplyDirichlet(K *sparse.CSR, f []float64, dofs []int, vals []float64) (Kd *sparse.CSR, fd []float64) {
	var (
		n, _  = K.Dims()
		raw   = K.RawMatrix()
		fixed = make([]bool, n)
		g     = make([]float64, n)
		dok   = utils.NewDOK(n, n)
	)
	for k, dof := range dofs {
		fixed[dof] = true
		g[dof] = vals[k]
	}
	fd = append([]float64(nil), f...)
	for i := 0; i < n; i++ {
		if fixed[i] {
			dok.Add(i, i, 1)
			fd[i] = g[i]
			continue
		}
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			j, v := raw.Ind[k], raw.Data[k]
			if fixed[j] {
				fd[i] -= v * g[j]
				continue
			}
			dok.Add(i, j, v)
		}
	}
	Kd = dok.ToCSR()
	return
}
