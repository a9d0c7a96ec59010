// Package solver provides the linear solver backends used to solve the
// assembled global systems
package solver

import (
	"errors"
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gofea/formulation"
	"github.com/notargets/gofea/utils"
)

var ErrNotConverged = errors.New("linear solver did not converge")

// Info reports how a solve went
type Info struct {
	Iterations   int
	FinalResNorm float64 // relative residual |b - Ax| / |b|
}

// Map reports Info under the keys used in configuration files
func (info Info) Map() map[string]interface{} {
	return map[string]interface{}{
		"num_iterations": info.Iterations,
		"final_res_norm": info.FinalResNorm,
	}
}

// LinearSolver solves A x = b for an assembled square matrix
type LinearSolver interface {
	Name() string
	SetParameters(params formulation.Parameters) error
	// Solve returns the solution; on ErrNotConverged x is the last iterate
	Solve(A *sparse.CSR, b []float64) (x []float64, info Info, err error)
}

var allocators = map[string]func() LinearSolver{
	"Dense":    func() LinearSolver { return NewDense() },
	"SparseLU": func() LinearSolver { return NewSparseLU() },
	"PCG":      func() LinearSolver { return NewPCG() },
}

// New returns the solver registered under name with default parameters
func New(name string) (LinearSolver, error) {
	fcn, ok := allocators[name]
	if !ok {
		return nil, fmt.Errorf("unknown linear solver %q, valid solvers are: %v", name, Names())
	}
	return fcn(), nil
}

func Names() (names []string) {
	for name := range allocators {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

func checkSystem(A *sparse.CSR, b []float64) (n int, err error) {
	if A == nil {
		return 0, fmt.Errorf("no matrix")
	}
	r, c := A.Dims()
	if r != c {
		return 0, fmt.Errorf("matrix is %dx%d, need a square matrix", r, c)
	}
	if len(b) != r {
		return 0, fmt.Errorf("right hand side has length %d, need %d", len(b), r)
	}
	return r, nil
}

// relativeResidual returns |b - Ax| / |b|, |b - Ax| when b vanishes
func relativeResidual(A *sparse.CSR, x, b []float64) float64 {
	var (
		r = make([]float64, len(b))
	)
	utils.CSRMulVec(A, x, r)
	floats.SubTo(r, b, r)
	res := floats.Norm(r, 2)
	if nb := floats.Norm(b, 2); nb > 0 {
		res /= nb
	}
	return res
}
