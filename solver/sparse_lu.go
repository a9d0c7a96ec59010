package solver

import (
	"fmt"

	"github.com/edp1096/sparse"
	jsparse "github.com/james-bowman/sparse"

	"github.com/notargets/gofea/formulation"
)

// SparseLU is a direct solver with a pivoting sparse LU factorization. The
// native matrix lives for one Solve call.
type SparseLU struct{}

func NewSparseLU() *SparseLU { return &SparseLU{} }

func (sl *SparseLU) Name() string                               { return "SparseLU" }
func (sl *SparseLU) SetParameters(formulation.Parameters) error { return nil }

func (sl *SparseLU) Solve(A *jsparse.CSR, b []float64) (x []float64, info Info, err error) {
	var (
		n      int
		matrix *sparse.Matrix
	)
	if n, err = checkSystem(A, b); err != nil {
		return
	}
	config := &sparse.Configuration{
		Real:           true,
		Expandable:     false,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}
	if matrix, err = sparse.Create(int64(n), config); err != nil {
		return nil, info, fmt.Errorf("error creating sparse matrix: %w", err)
	}
	defer matrix.Destroy()
	// 1-based indexing
	raw := A.RawMatrix()
	for i := 0; i < n; i++ {
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			matrix.GetElement(int64(i+1), int64(raw.Ind[k]+1)).Real += raw.Data[k]
		}
	}
	if err = matrix.Factor(); err != nil {
		return nil, info, fmt.Errorf("matrix factorization failed: %w", err)
	}
	var (
		rhs = make([]float64, n+1)
		sol []float64
	)
	copy(rhs[1:], b)
	if sol, err = matrix.Solve(rhs); err != nil {
		return nil, info, fmt.Errorf("matrix solve failed: %w", err)
	}
	x = append([]float64(nil), sol[1:n+1]...)
	info.FinalResNorm = relativeResidual(A, x, b)
	return
}
