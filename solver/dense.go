package solver

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/formulation"
	"github.com/notargets/gofea/utils"
)

// Dense factors a dense copy of the matrix: Cholesky when it is symmetric
// positive definite, LU otherwise
type Dense struct{}

func NewDense() *Dense { return &Dense{} }

func (ds *Dense) Name() string                               { return "Dense" }
func (ds *Dense) SetParameters(formulation.Parameters) error { return nil }

func (ds *Dense) Solve(A *sparse.CSR, b []float64) (x []float64, info Info, err error) {
	var (
		n int
	)
	if n, err = checkSystem(A, b); err != nil {
		return
	}
	var (
		bv = mat.NewVecDense(n, append([]float64(nil), b...))
		xv = mat.NewVecDense(n, nil)
	)
	if utils.CSRIsSymmetric(A, 0) {
		var (
			chol mat.Cholesky
			sym  = mat.NewSymDense(n, nil)
		)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				sym.SetSym(i, j, A.At(i, j))
			}
		}
		if chol.Factorize(sym) {
			if err = chol.SolveVecTo(xv, bv); err != nil {
				return nil, info, fmt.Errorf("cholesky solve failed: %w", err)
			}
			x = xv.RawVector().Data
			info.FinalResNorm = relativeResidual(A, x, b)
			return
		}
	}
	var lu mat.LU
	lu.Factorize(mat.DenseCopyOf(A))
	if err = lu.SolveVecTo(xv, false, bv); err != nil {
		return nil, info, fmt.Errorf("LU solve failed: %w", err)
	}
	x = xv.RawVector().Data
	info.FinalResNorm = relativeResidual(A, x, b)
	return
}
