// Package formulation implements the local (per element) physics of the
// assembly core. Linear formulations produce local stiffness blocks for a
// pair of bases; nonlinear formulations produce a local energy with its
// gradient and Hessian for a local displacement.
package formulation

import (
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/autodiff"
	"github.com/notargets/gofea/basis"
)

// Registered formulation names
const (
	LaplacianName             = "Laplacian"
	HelmholtzName             = "Helmholtz"
	LinearElasticityName      = "LinearElasticity"
	HookeLinearElasticityName = "HookeLinearElasticity"
	SaintVenantElasticityName = "SaintVenantElasticity"
)

// Formulation is the capability set shared by every local formulation
type Formulation interface {
	Name() string
	// Size is the number of DOFs per basis in dimension dim: 1 for scalar
	// formulations, dim for tensor formulations
	Size(dim int) int
	SetParameters(params Parameters) error
	// Validate reports whether the formulation, as parameterized, can
	// assemble in dimension dim
	Validate(dim int) error
	// ComputeRHS applies the strong form operator to an exact solution
	ComputeRHS(pt autodiff.HessianPt) ([]float64, error)
	// ComputeScalarValue reconstructs one scalar per point of vals from the
	// local coefficients, interleaved by component
	ComputeScalarValue(vals *basis.AssemblyValues, local []float64) []float64
}

// LinearFormulation computes local stiffness blocks
type LinearFormulation interface {
	Formulation
	// Assemble returns the Size x Size block coupling bases i and j,
	// integrated with the measure da
	Assemble(vals *basis.AssemblyValues, i, j int, da []float64) *mat.Dense
}

// NonlinearFormulation computes a local energy and its derivatives with
// respect to the local displacement, interleaved by component
type NonlinearFormulation interface {
	Formulation
	ComputeEnergy(vals *basis.AssemblyValues, local []float64, da []float64) float64
	AssembleGradient(vals *basis.AssemblyValues, local []float64, da []float64) []float64
	// AssembleHessian returns the full, exactly symmetric local Hessian
	AssembleHessian(vals *basis.AssemblyValues, local []float64, da []float64) *mat.Dense
}

// interpolate computes sum_i phi_i(x_q) u_i for a scalar field
func interpolate(vals *basis.AssemblyValues, local []float64) (res []float64) {
	res = make([]float64, vals.NumPoints())
	for i, u := range local {
		for q := range res {
			res[q] += vals.Val[i][q] * u
		}
	}
	return
}

// displacementGradient computes G[a][b] = du_a/dx_b at point q
func displacementGradient(vals *basis.AssemblyValues, local []float64, q int) (G *mat.Dense) {
	var (
		dim = vals.Dim
	)
	G = mat.NewDense(dim, dim, nil)
	for i := 0; i < vals.NumBases(); i++ {
		g := vals.Grad[i][q]
		for a := 0; a < dim; a++ {
			u := local[i*dim+a]
			for b := 0; b < dim; b++ {
				G.Set(a, b, G.At(a, b)+u*g[b])
			}
		}
	}
	return
}

func checkDim(name string, dim int, allowed ...int) error {
	for _, d := range allowed {
		if d == dim {
			return nil
		}
	}
	return &DimensionError{Name: name, Dim: dim, Allowed: allowed}
}
