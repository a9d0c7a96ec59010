package formulation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/autodiff"
	"github.com/notargets/gofea/basis"
)

// LinearElasticity is isotropic small strain elasticity in Lame form,
// sigma = lambda tr(eps) I + 2 mu eps
type LinearElasticity struct {
	material elasticMaterial
}

func NewLinearElasticity() *LinearElasticity {
	return &LinearElasticity{material: newElasticMaterial()}
}

func (le *LinearElasticity) Name() string     { return LinearElasticityName }
func (le *LinearElasticity) Size(dim int) int { return dim }

// Lame returns the Lame parameters in use
func (le *LinearElasticity) Lame() (lambda, mu float64) {
	return le.material.lambda, le.material.mu
}

func (le *LinearElasticity) SetParameters(params Parameters) error {
	return le.material.set(params, false)
}

func (le *LinearElasticity) Validate(dim int) error {
	return le.material.validate(LinearElasticityName, dim)
}

func (le *LinearElasticity) Assemble(vals *basis.AssemblyValues, i, j int, da []float64) (K *mat.Dense) {
	var (
		dim        = vals.Dim
		lambda, mu = le.Lame()
	)
	K = mat.NewDense(dim, dim, nil)
	for q, w := range da {
		var (
			gi, gj = vals.Grad[i][q], vals.Grad[j][q]
			dot    = floats.Dot(gi, gj)
		)
		for a := 0; a < dim; a++ {
			for b := 0; b < dim; b++ {
				v := mu*gi[b]*gj[a] + lambda*gi[a]*gj[b]
				if a == b {
					v += mu * dot
				}
				K.Set(a, b, K.At(a, b)+w*v)
			}
		}
	}
	return
}

// ComputeRHS returns mu laplacian(u) + (lambda+mu) grad(div u)
func (le *LinearElasticity) ComputeRHS(pt autodiff.HessianPt) (res []float64, err error) {
	var (
		dim        = pt.Dim()
		lambda, mu = le.Lame()
	)
	if err = le.Validate(dim); err != nil {
		return
	}
	if err = pt.Check(dim, dim); err != nil {
		return
	}
	res = make([]float64, dim)
	for a := 0; a < dim; a++ {
		var lap, graddiv float64
		for b := 0; b < dim; b++ {
			lap += pt[a].Hess[b][b]
			graddiv += pt[b].Hess[a][b]
		}
		res[a] = mu*lap + (lambda+mu)*graddiv
	}
	return
}

// ComputeScalarValue returns the von Mises stress at each point
func (le *LinearElasticity) ComputeScalarValue(vals *basis.AssemblyValues, local []float64) []float64 {
	return linearVonMises(le.material.tensors[vals.Dim], vals, local)
}

func linearVonMises(C *ElasticityTensor, vals *basis.AssemblyValues, local []float64) (res []float64) {
	res = make([]float64, vals.NumPoints())
	for q := range res {
		G := displacementGradient(vals, local, q)
		res[q] = vonMises(C.Contract(strain(G)))
	}
	return
}
