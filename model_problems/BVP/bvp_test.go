package BVP

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/InputParameters"
	"github.com/notargets/gofea/formulation"
	"github.com/notargets/gofea/utils"
)

func newSim(form, prob string, dim, n int) *InputParameters.Simulation {
	sim := InputParameters.NewSimulation()
	sim.Formulation, sim.Problem = form, prob
	sim.Mesh.Dim, sim.Mesh.N = dim, n
	return sim
}

func TestManufacturedLinearSolutionIsExact(t *testing.T) {
	for _, tc := range []struct {
		form, solver string
		dim, n       int
	}{
		{formulation.LaplacianName, "SparseLU", 2, 4},
		{formulation.LaplacianName, "PCG", 3, 2},
		{formulation.LinearElasticityName, "SparseLU", 2, 3},
		{formulation.HookeLinearElasticityName, "Dense", 2, 2},
		{formulation.LinearElasticityName, "SparseLU", 3, 2},
	} {
		sim := newSim(tc.form, "Manufactured", tc.dim, tc.n)
		sim.Solver = tc.solver
		sim.ProblemParams = map[string]interface{}{"solution": "linear"}
		b, err := NewBVP(sim)
		require.NoError(t, err, tc.form)
		res, err := b.Run()
		require.NoError(t, err, tc.form)
		assert.Len(t, res.U, b.NumDOFs())
		assert.InDelta(t, 0, res.MaxNodalError, 1.e-8, "%s dim %d", tc.form, tc.dim)
		assert.Greater(t, res.NNZ, 0)
	}
}

func TestManufacturedSineConverges(t *testing.T) {
	var (
		errs []float64
	)
	for _, n := range []int{4, 8} {
		sim := newSim(formulation.LaplacianName, "Manufactured", 2, n)
		sim.ProblemParams = map[string]interface{}{"solution": "sine"}
		b, err := NewBVP(sim)
		require.NoError(t, err)
		res, err := b.Run()
		require.NoError(t, err)
		errs = append(errs, res.MaxNodalError)
	}
	assert.Less(t, errs[0], 0.1)
	assert.Less(t, errs[1], errs[0]/2)
}

func TestFlowTranslation(t *testing.T) {
	// Inflow and outflow faces move by the same amount, so the exact
	// displacement is a rigid translation
	sim := newSim(formulation.LinearElasticityName, "Flow", 2, 4)
	sim.Time = 2
	sim.ParallelDegree = 3
	b, err := NewBVP(sim)
	require.NoError(t, err)
	res, err := b.Run()
	require.NoError(t, err)
	for v := 0; v < b.NBasis; v++ {
		assert.InDelta(t, 0.5, res.U[2*v], 1.e-10)
		assert.InDelta(t, 0, res.U[2*v+1], 1.e-10)
	}
	assert.InDelta(t, 0, res.MaxScalarValue, 1.e-8)
	assert.True(t, math.IsNaN(res.MaxNodalError))
}

func TestDrivenCavity(t *testing.T) {
	sim := newSim(formulation.LinearElasticityName, "DrivenCavity", 2, 4)
	sim.Solver = "PCG"
	b, err := NewBVP(sim)
	require.NoError(t, err)
	dofs, vals, err := b.Dirichlet()
	require.NoError(t, err)
	// Every boundary vertex is fixed, both components
	assert.Equal(t, 2*16, len(dofs))
	for k, dof := range dofs {
		want := 0.
		if dof%2 == 1 && b.Mesh.Tags[dof/2] == 1 {
			want = 0.25
		}
		assert.Equal(t, want, vals[k])
	}
	res, err := b.Run()
	require.NoError(t, err)
	for k, dof := range dofs {
		assert.InDelta(t, vals[k], res.U[dof], 1.e-12)
	}
	assert.Greater(t, res.MaxScalarValue, 0.)
}

func TestSaintVenantEnergy(t *testing.T) {
	sim := newSim(formulation.SaintVenantElasticityName, "Flow", 2, 3)
	b, err := NewBVP(sim)
	require.NoError(t, err)
	assert.False(t, b.Linear)
	res, err := b.Run()
	require.NoError(t, err)
	assert.Greater(t, res.Energy, 0.)
	assert.Greater(t, res.GradientNorm, 0.)
	assert.Greater(t, res.NNZ, 0)

	sim.Time = 0
	b, err = NewBVP(sim)
	require.NoError(t, err)
	res, err = b.Run()
	require.NoError(t, err)
	assert.Equal(t, 0., res.Energy)
	assert.Equal(t, 0., res.GradientNorm)
}

func TestCategoryMismatch(t *testing.T) {
	_, err := NewBVP(newSim(formulation.LaplacianName, "Flow", 2, 2))
	assert.Error(t, err)
}

func TestApplyDirichlet(t *testing.T) {
	var (
		dok = utils.NewDOK(3, 3)
		f   = []float64{1, 2, 3}
	)
	for i, row := range [][]float64{{2, -1, 0}, {-1, 2, -1}, {0, -1, 2}} {
		for j, v := range row {
			if v != 0 {
				dok.Add(i, j, v)
			}
		}
	}
	K := dok.ToCSR()
	Kd, fd := ApplyDirichlet(K, f, []int{2}, []float64{4})
	assert.Equal(t, []float64{1, 6, 4}, fd)
	assert.Equal(t, []float64{1, 2, 3}, f)
	assert.True(t, mat.Equal(mat.NewDense(3, 3, []float64{2, -1, 0, -1, 2, 0, 0, 0, 1}), Kd))
	assert.True(t, utils.CSRIsSymmetric(Kd, 0))
}
