package solver

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gofea/formulation"
	"github.com/notargets/gofea/utils"
)

// PCG is the preconditioned conjugate gradient method for symmetric positive
// definite systems, preconditioned with symmetric Gauss-Seidel sweeps. It
// stops when the relative residual two norm falls below ConvTol.
type PCG struct {
	MaxIter    int
	ConvTol    float64
	PreMaxIter int
}

func NewPCG() *PCG {
	return &PCG{
		MaxIter:    1000,
		ConvTol:    1.e-10,
		PreMaxIter: 1,
	}
}

func (cg *PCG) Name() string { return "PCG" }

// SetParameters reads max_iter, conv_tol and pre_max_iter, the number of
// preconditioner sweeps (0 disables preconditioning)
func (cg *PCG) SetParameters(params formulation.Parameters) (err error) {
	var (
		next = *cg
	)
	if next.MaxIter, err = params.Int("max_iter", cg.MaxIter); err != nil {
		return
	}
	if next.ConvTol, err = params.Float("conv_tol", cg.ConvTol); err != nil {
		return
	}
	if next.PreMaxIter, err = params.Int("pre_max_iter", cg.PreMaxIter); err != nil {
		return
	}
	switch {
	case next.MaxIter < 1:
		return fmt.Errorf("max_iter must be positive, have %d", next.MaxIter)
	case next.ConvTol <= 0:
		return fmt.Errorf("conv_tol must be positive, have %g", next.ConvTol)
	case next.PreMaxIter < 0:
		return fmt.Errorf("pre_max_iter must not be negative, have %d", next.PreMaxIter)
	}
	*cg = next
	return
}

func (cg *PCG) Solve(A *sparse.CSR, b []float64) (x []float64, info Info, err error) {
	var (
		n int
	)
	if n, err = checkSystem(A, b); err != nil {
		return
	}
	var (
		diag = utils.CSRDiagonal(A)
		nb   = floats.Norm(b, 2)
	)
	for i, d := range diag {
		if d <= 0 {
			return nil, info, fmt.Errorf("PCG needs a positive diagonal, A(%d,%d) = %g", i, i, d)
		}
	}
	x = make([]float64, n)
	if nb == 0 {
		return
	}
	var (
		r  = append([]float64(nil), b...)
		z  = make([]float64, n)
		p  = make([]float64, n)
		Ap = make([]float64, n)
	)
	cg.precondition(A, diag, r, z)
	copy(p, z)
	rz := floats.Dot(r, z)
	info.FinalResNorm = 1
	for k := 1; k <= cg.MaxIter; k++ {
		utils.CSRMulVec(A, p, Ap)
		pAp := floats.Dot(p, Ap)
		if pAp <= 0 {
			return x, info, fmt.Errorf("PCG breakdown at iteration %d: matrix is not positive definite", k)
		}
		alpha := rz / pAp
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, Ap)
		info.Iterations = k
		info.FinalResNorm = floats.Norm(r, 2) / nb
		if info.FinalResNorm < cg.ConvTol {
			return
		}
		cg.precondition(A, diag, r, z)
		rzNext := floats.Dot(r, z)
		floats.AddScaledTo(p, z, rzNext/rz, p)
		rz = rzNext
	}
	err = fmt.Errorf("%w: relative residual %g after %d iterations, tolerance %g",
		ErrNotConverged, info.FinalResNorm, info.Iterations, cg.ConvTol)
	return
}

// precondition sets z = M^-1 r with PreMaxIter symmetric Gauss-Seidel
// sweeps on A z = r from z = 0
func (cg *PCG) precondition(A *sparse.CSR, diag, r, z []float64) {
	if cg.PreMaxIter == 0 {
		copy(z, r)
		return
	}
	var (
		raw = A.RawMatrix()
		n   = len(r)
	)
	relax := func(i int) {
		s := r[i]
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			if j := raw.Ind[k]; j != i {
				s -= raw.Data[k] * z[j]
			}
		}
		z[i] = s / diag[i]
	}
	for i := range z {
		z[i] = 0
	}
	for sweep := 0; sweep < cg.PreMaxIter; sweep++ {
		for i := 0; i < n; i++ {
			relax(i)
		}
		for i := n - 1; i >= 0; i-- {
			relax(i)
		}
	}
}
