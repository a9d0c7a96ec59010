package formulation

import (
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/autodiff"
	"github.com/notargets/gofea/basis"
)

// HookeLinearElasticity is small strain elasticity with a general, possibly
// anisotropic, elasticity tensor: sigma_ab = C_abcd eps_cd
type HookeLinearElasticity struct {
	material elasticMaterial
}

func NewHookeLinearElasticity() *HookeLinearElasticity {
	return &HookeLinearElasticity{material: newElasticMaterial()}
}

func (hk *HookeLinearElasticity) Name() string     { return HookeLinearElasticityName }
func (hk *HookeLinearElasticity) Size(dim int) int { return dim }

// Tensor returns the elasticity tensor for dim, nil when none is configured
func (hk *HookeLinearElasticity) Tensor(dim int) *ElasticityTensor {
	return hk.material.tensors[dim]
}

func (hk *HookeLinearElasticity) SetParameters(params Parameters) error {
	return hk.material.set(params, true)
}

func (hk *HookeLinearElasticity) Validate(dim int) error {
	return hk.material.validate(HookeLinearElasticityName, dim)
}

func (hk *HookeLinearElasticity) Assemble(vals *basis.AssemblyValues, i, j int, da []float64) (K *mat.Dense) {
	var (
		dim = vals.Dim
		C   = hk.Tensor(dim)
	)
	K = mat.NewDense(dim, dim, nil)
	for q, w := range da {
		gi, gj := vals.Grad[i][q], vals.Grad[j][q]
		for a := 0; a < dim; a++ {
			for c := 0; c < dim; c++ {
				var v float64
				for b := 0; b < dim; b++ {
					for d := 0; d < dim; d++ {
						v += C.At(a, b, c, d) * gi[b] * gj[d]
					}
				}
				K.Set(a, c, K.At(a, c)+w*v)
			}
		}
	}
	return
}

// ComputeRHS returns div(C : grad u), C_abcd d_b d_d u_c
func (hk *HookeLinearElasticity) ComputeRHS(pt autodiff.HessianPt) (res []float64, err error) {
	var (
		dim = pt.Dim()
	)
	if err = hk.Validate(dim); err != nil {
		return
	}
	if err = pt.Check(dim, dim); err != nil {
		return
	}
	C := hk.Tensor(dim)
	res = make([]float64, dim)
	for a := 0; a < dim; a++ {
		for b := 0; b < dim; b++ {
			for c := 0; c < dim; c++ {
				for d := 0; d < dim; d++ {
					res[a] += C.At(a, b, c, d) * pt[c].Hess[b][d]
				}
			}
		}
	}
	return
}

// ComputeScalarValue returns the von Mises stress at each point
func (hk *HookeLinearElasticity) ComputeScalarValue(vals *basis.AssemblyValues, local []float64) []float64 {
	return linearVonMises(hk.Tensor(vals.Dim), vals, local)
}
