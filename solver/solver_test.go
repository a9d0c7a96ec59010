package solver

import (
	"errors"
	"testing"

	"github.com/james-bowman/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gofea/formulation"
	"github.com/notargets/gofea/utils"
)

// poisson1D is tridiag(-1, 2, -1), whose solution for b = 1 is
// x_k = (k+1)(n-k)/2
func poisson1D(n int) (A *sparse.CSR, b, x []float64) {
	dok := utils.NewDOK(n, n)
	b, x = make([]float64, n), make([]float64, n)
	for k := 0; k < n; k++ {
		dok.Add(k, k, 2)
		if k > 0 {
			dok.Add(k, k-1, -1)
		}
		if k < n-1 {
			dok.Add(k, k+1, -1)
		}
		b[k] = 1
		x[k] = float64((k+1)*(n-k)) / 2
	}
	A = dok.ToCSR()
	return
}

func fromRows(rows [][]float64) *sparse.CSR {
	dok := utils.NewDOK(len(rows), len(rows[0]))
	for i, row := range rows {
		for j, v := range row {
			if v != 0 {
				dok.Add(i, j, v)
			}
		}
	}
	return dok.ToCSR()
}

func TestSolvers(t *testing.T) {
	var (
		A, b, want = poisson1D(20)
	)
	assert.Equal(t, []string{"Dense", "PCG", "SparseLU"}, Names())
	for _, name := range Names() {
		s, err := New(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
		x, info, err := s.Solve(A, b)
		require.NoError(t, err, name)
		assert.InDeltaSlice(t, want, x, 1.e-6, name)
		assert.Less(t, info.FinalResNorm, 1.e-10, name)
		_, _, err = s.Solve(A, b[1:])
		assert.Error(t, err, name)
	}
	_, err := New("GMRES")
	assert.Error(t, err)
}

func TestDirectSolvers(t *testing.T) {
	{ // Nonsymmetric system
		A := fromRows([][]float64{{4, 1}, {2, 3}})
		for _, s := range []LinearSolver{NewDense(), NewSparseLU()} {
			x, _, err := s.Solve(A, []float64{1, 2})
			require.NoError(t, err, s.Name())
			assert.InDeltaSlice(t, []float64{0.1, 0.6}, x, 1.e-14, s.Name())
		}
	}
	{ // Symmetric indefinite system falls back to LU
		A := fromRows([][]float64{{1, 2}, {2, 1}})
		for _, s := range []LinearSolver{NewDense(), NewSparseLU()} {
			x, _, err := s.Solve(A, []float64{3, 3})
			require.NoError(t, err, s.Name())
			assert.InDeltaSlice(t, []float64{1, 1}, x, 1.e-14, s.Name())
		}
		_, _, err := NewPCG().Solve(A, []float64{3, 3})
		assert.Error(t, err)
	}
	{ // Singular system
		A := fromRows([][]float64{{1, 1}, {1, 1}})
		_, _, err := NewDense().Solve(A, []float64{1, 2})
		assert.Error(t, err)
	}
}

func TestPCG(t *testing.T) {
	var (
		A, b, want = poisson1D(50)
	)
	{ // Converges with and without preconditioning
		cg := NewPCG()
		x, info, err := cg.Solve(A, b)
		require.NoError(t, err)
		assert.InDeltaSlice(t, want, x, 1.e-5)
		assert.Less(t, info.Iterations, 100)
		m := info.Map()
		assert.Equal(t, info.Iterations, m["num_iterations"])
		assert.Equal(t, info.FinalResNorm, m["final_res_norm"])

		plain := NewPCG()
		require.NoError(t, plain.SetParameters(formulation.Parameters{"pre_max_iter": 0}))
		x, infoPlain, err := plain.Solve(A, b)
		require.NoError(t, err)
		assert.InDeltaSlice(t, want, x, 1.e-5)
		assert.Less(t, infoPlain.FinalResNorm, 1.e-10)
	}
	{ // Iteration limit reached: the iterate is returned with ErrNotConverged
		cg := NewPCG()
		require.NoError(t, cg.SetParameters(formulation.Parameters{"max_iter": 2, "conv_tol": 1.e-12}))
		x, info, err := cg.Solve(A, b)
		assert.True(t, errors.Is(err, ErrNotConverged))
		assert.Len(t, x, 50)
		assert.Equal(t, 2, info.Iterations)
		assert.Greater(t, info.FinalResNorm, 1.e-12)
	}
	{ // Zero right hand side
		x, info, err := NewPCG().Solve(A, make([]float64, 50))
		require.NoError(t, err)
		assert.Equal(t, make([]float64, 50), x)
		assert.Equal(t, 0, info.Iterations)
	}
	{ // Rejected parameters leave the solver untouched
		cg := NewPCG()
		assert.Error(t, cg.SetParameters(formulation.Parameters{"max_iter": 0}))
		assert.Error(t, cg.SetParameters(formulation.Parameters{"conv_tol": -1}))
		assert.Error(t, cg.SetParameters(formulation.Parameters{"pre_max_iter": 1.5}))
		assert.Equal(t, NewPCG(), cg)
	}
}
