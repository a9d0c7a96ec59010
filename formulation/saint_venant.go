package formulation

import (
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/autodiff"
	"github.com/notargets/gofea/basis"
)

// SaintVenantElasticity is the Saint Venant-Kirchhoff hyperelastic model,
// W = 1/2 E:C:E with the Green-Lagrange strain E = 1/2 (F^T F - I)
type SaintVenantElasticity struct {
	material elasticMaterial
}

func NewSaintVenantElasticity() *SaintVenantElasticity {
	return &SaintVenantElasticity{material: newElasticMaterial()}
}

func (sv *SaintVenantElasticity) Name() string     { return SaintVenantElasticityName }
func (sv *SaintVenantElasticity) Size(dim int) int { return dim }

func (sv *SaintVenantElasticity) Tensor(dim int) *ElasticityTensor {
	return sv.material.tensors[dim]
}

func (sv *SaintVenantElasticity) SetParameters(params Parameters) error {
	return sv.material.set(params, true)
}

func (sv *SaintVenantElasticity) Validate(dim int) error {
	return sv.material.validate(SaintVenantElasticityName, dim)
}

// kinematics holds the state of the material at one point
type kinematics struct {
	F, S, P *mat.Dense
	W       float64
}

func (sv *SaintVenantElasticity) state(C *ElasticityTensor, G mat.Matrix) (k kinematics) {
	var (
		dim = C.Dim()
		E   = mat.NewDense(dim, dim, nil)
	)
	k.F = mat.NewDense(dim, dim, nil)
	k.F.Copy(G)
	for a := 0; a < dim; a++ {
		k.F.Set(a, a, k.F.At(a, a)+1)
	}
	E.Mul(k.F.T(), k.F)
	for a := 0; a < dim; a++ {
		E.Set(a, a, E.At(a, a)-1)
	}
	E.Scale(0.5, E)
	k.S = C.Contract(E)
	k.P = mat.NewDense(dim, dim, nil)
	k.P.Mul(k.F, k.S)
	k.W = 0.5 * mat.Sum(elementProduct(k.S, E))
	return
}

func elementProduct(a, b mat.Matrix) *mat.Dense {
	r, c := a.Dims()
	res := mat.NewDense(r, c, nil)
	res.MulElem(a, b)
	return res
}

// tangent returns A_abcd = dP_ab/dF_cd = d_ac S_bd + F_ae C_ebdg F_cg,
// stored at ((a*dim+b)*dim+c)*dim+d
func (sv *SaintVenantElasticity) tangent(C *ElasticityTensor, k kinematics) (A []float64) {
	var (
		dim = C.Dim()
	)
	A = make([]float64, dim*dim*dim*dim)
	for a := 0; a < dim; a++ {
		for b := 0; b < dim; b++ {
			for c := 0; c < dim; c++ {
				for d := 0; d < dim; d++ {
					var v float64
					if a == c {
						v = k.S.At(b, d)
					}
					for e := 0; e < dim; e++ {
						fae := k.F.At(a, e)
						if fae == 0 {
							continue
						}
						for g := 0; g < dim; g++ {
							v += fae * C.At(e, b, d, g) * k.F.At(c, g)
						}
					}
					A[((a*dim+b)*dim+c)*dim+d] = v
				}
			}
		}
	}
	return
}

func (sv *SaintVenantElasticity) ComputeEnergy(vals *basis.AssemblyValues, local []float64, da []float64) (energy float64) {
	C := sv.Tensor(vals.Dim)
	for q, w := range da {
		energy += w * sv.state(C, displacementGradient(vals, local, q)).W
	}
	return
}

// AssembleGradient returns dW/du_(ia) = int P_ab dphi_i/dx_b
func (sv *SaintVenantElasticity) AssembleGradient(vals *basis.AssemblyValues, local []float64, da []float64) (grad []float64) {
	var (
		dim = vals.Dim
		C   = sv.Tensor(dim)
	)
	grad = make([]float64, vals.NumBases()*dim)
	for q, w := range da {
		k := sv.state(C, displacementGradient(vals, local, q))
		for i := 0; i < vals.NumBases(); i++ {
			g := vals.Grad[i][q]
			for a := 0; a < dim; a++ {
				var v float64
				for b := 0; b < dim; b++ {
					v += k.P.At(a, b) * g[b]
				}
				grad[i*dim+a] += w * v
			}
		}
	}
	return
}

// AssembleHessian returns int A_abcd dphi_i/dx_b dphi_j/dx_d. Only the upper
// triangle is integrated, the lower one is its exact mirror.
func (sv *SaintVenantElasticity) AssembleHessian(vals *basis.AssemblyValues, local []float64, da []float64) (H *mat.Dense) {
	var (
		dim = vals.Dim
		C   = sv.Tensor(dim)
		n   = vals.NumBases() * dim
	)
	H = mat.NewDense(n, n, nil)
	for q, w := range da {
		A := sv.tangent(C, sv.state(C, displacementGradient(vals, local, q)))
		for r := 0; r < n; r++ {
			i, a := r/dim, r%dim
			gi := vals.Grad[i][q]
			for s := r; s < n; s++ {
				j, c := s/dim, s%dim
				gj := vals.Grad[j][q]
				var v float64
				for b := 0; b < dim; b++ {
					for d := 0; d < dim; d++ {
						v += A[((a*dim+b)*dim+c)*dim+d] * gi[b] * gj[d]
					}
				}
				H.Set(r, s, H.At(r, s)+w*v)
			}
		}
	}
	for r := 0; r < n; r++ {
		for s := r + 1; s < n; s++ {
			H.Set(s, r, H.At(r, s))
		}
	}
	return
}

// ComputeRHS returns div P(F), A_abcd(F) d_b F_cd for the exact solution
func (sv *SaintVenantElasticity) ComputeRHS(pt autodiff.HessianPt) (res []float64, err error) {
	var (
		dim = pt.Dim()
	)
	if err = sv.Validate(dim); err != nil {
		return
	}
	if err = pt.Check(dim, dim); err != nil {
		return
	}
	var (
		C = sv.Tensor(dim)
		G = mat.NewDense(dim, dim, nil)
	)
	for a := 0; a < dim; a++ {
		for b := 0; b < dim; b++ {
			G.Set(a, b, pt[a].Grad[b])
		}
	}
	A := sv.tangent(C, sv.state(C, G))
	res = make([]float64, dim)
	for a := 0; a < dim; a++ {
		for b := 0; b < dim; b++ {
			for c := 0; c < dim; c++ {
				for d := 0; d < dim; d++ {
					res[a] += A[((a*dim+b)*dim+c)*dim+d] * pt[c].Hess[d][b]
				}
			}
		}
	}
	return
}

// ComputeScalarValue returns the von Mises norm of the Cauchy stress
// J^-1 F S F^T at each point
func (sv *SaintVenantElasticity) ComputeScalarValue(vals *basis.AssemblyValues, local []float64) (res []float64) {
	var (
		dim   = vals.Dim
		C     = sv.Tensor(dim)
		sigma = mat.NewDense(dim, dim, nil)
	)
	res = make([]float64, vals.NumPoints())
	for q := range res {
		k := sv.state(C, displacementGradient(vals, local, q))
		sigma.Mul(k.P, k.F.T())
		sigma.Scale(1/mat.Det(k.F), sigma)
		res[q] = vonMises(sigma)
	}
	return
}
