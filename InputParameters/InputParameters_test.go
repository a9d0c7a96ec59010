package InputParameters

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gofea/assembler"
	"github.com/notargets/gofea/formulation"
	"github.com/notargets/gofea/problem"
)

func TestSimulationParse(t *testing.T) {
	fileInput := []byte(`
Title: Channel
Formulation: LinearElasticity
Problem: Flow
Solver: PCG
Mesh:
  Dim: 3
  N: 4
Time: 2.
Params:
  E: 210.
  nu: 0.3
  LinearElasticity:
    mu: 50
ProblemParams:
  inflow: 1
  outflow: 3
  direction: 0
  inflow_amout: 0.25
  obstacle: ["5:6", 2]
SolverParams:
  max_iter: 500
  conv_tol: 1.e-8
`)
	sim := NewSimulation()
	require.NoError(t, sim.Parse(fileInput))
	sim.Print()
	assert.Equal(t, "Channel", sim.Title)
	assert.Equal(t, 3, sim.Mesh.Dim)
	assert.True(t, sim.IsVolume())
	assert.Equal(t, 2., sim.Time)
	assert.Equal(t, 210., sim.Params["E"])
	// Defaults survive for absent keys
	assert.Equal(t, assembler.PartitionContiguous, sim.Partitioner)
	require.NoError(t, sim.Validate())
	{ // Nested formulation parameters
		d, err := sim.NewDispatcher()
		require.NoError(t, err)
		f, err := d.Formulation(formulation.LinearElasticityName)
		require.NoError(t, err)
		_, mu := f.(*formulation.LinearElasticity).Lame()
		assert.Equal(t, 50., mu)
	}
	{ // Problem parameters decoded from YAML
		p, err := sim.NewProblem()
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 5, 6}, p.BoundaryIDs())
	}
	{
		s, err := sim.NewSolver()
		require.NoError(t, err)
		assert.Equal(t, "PCG", s.Name())
	}
}

func TestSimulationValidate(t *testing.T) {
	{ // Defaults are valid, the manufactured problem follows the formulation
		sim := NewSimulation()
		require.NoError(t, sim.Validate())
		sim.Formulation = formulation.SaintVenantElasticityName
		require.NoError(t, sim.Validate())
		p, err := sim.NewProblem()
		require.NoError(t, err)
		assert.False(t, p.(*problem.Manufactured).IsScalar())
	}
	{ // Unknown names
		sim := NewSimulation()
		sim.Formulation = "DoesNotExist"
		assert.True(t, errors.Is(sim.Validate(), assembler.ErrUnknownFormulation))
		sim = NewSimulation()
		sim.Problem = "Poiseuille"
		assert.Error(t, sim.Validate())
		sim = NewSimulation()
		sim.Solver = "GMRES"
		assert.Error(t, sim.Validate())
		sim = NewSimulation()
		sim.Partitioner = "random"
		assert.Error(t, sim.Validate())
	}
	{ // Scalar formulation with a vector problem
		sim := NewSimulation()
		sim.Problem = "Flow"
		assert.True(t, errors.Is(sim.Validate(), assembler.ErrCategoryMismatch))
		sim = NewSimulation()
		sim.ProblemParams = map[string]interface{}{"scalar": false}
		assert.True(t, errors.Is(sim.Validate(), assembler.ErrCategoryMismatch))
	}
	{ // Invalid values
		sim := NewSimulation()
		sim.Mesh.Dim = 4
		assert.Error(t, sim.Validate())
		sim = NewSimulation()
		sim.Mesh.N = 0
		assert.Error(t, sim.Validate())
		sim = NewSimulation()
		sim.Params = map[string]interface{}{"diffusivity": -1.}
		assert.True(t, errors.Is(sim.Validate(), assembler.ErrInvalidParameters))
		sim = NewSimulation()
		sim.Solver = "PCG"
		sim.SolverParams = map[string]interface{}{"max_iter": 0.}
		assert.Error(t, sim.Validate())
		sim = NewSimulation()
		sim.Formulation = formulation.HookeLinearElasticityName
		sim.Mesh.Dim = 3
		sim.Params = map[string]interface{}{
			"elasticity_tensor": []interface{}{4., 1., 0., 3., 0., 1.},
		}
		assert.Error(t, sim.Validate())
	}
}
