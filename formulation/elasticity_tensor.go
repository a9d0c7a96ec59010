package formulation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ElasticityTensor is a fourth order tensor with minor and major symmetries,
// stored as its symmetric Voigt matrix. Voigt order is (00, 11, 01) in 2D and
// (00, 11, 22, 12, 02, 01) in 3D.
type ElasticityTensor struct {
	dim   int
	Voigt *mat.SymDense
	full  []float64 // C_ijkl at ((i*dim+j)*dim+k)*dim+l
}

func voigtSize(dim int) int { return dim * (dim + 1) / 2 }

func voigtIndex(dim, i, j int) int {
	if i == j {
		return i
	}
	if dim == 2 {
		return 2
	}
	// 3D off diagonal: 12 -> 3, 02 -> 4, 01 -> 5
	return 6 - i - j
}

// NewIsotropicTensor builds C_ijkl = lambda d_ij d_kl + mu (d_ik d_jl + d_il d_jk)
func NewIsotropicTensor(dim int, lambda, mu float64) (C *ElasticityTensor, err error) {
	if err = checkDim("isotropic elasticity tensor", dim, 2, 3); err != nil {
		return
	}
	var (
		n = voigtSize(dim)
		V = mat.NewSymDense(n, nil)
	)
	for a := 0; a < dim; a++ {
		for b := a; b < dim; b++ {
			V.SetSym(a, b, lambda)
		}
		V.SetSym(a, a, lambda+2*mu)
	}
	for a := dim; a < n; a++ {
		V.SetSym(a, a, mu)
	}
	C = newTensor(dim, V)
	return
}

// NewElasticityTensor builds a tensor from the row major upper triangle of
// its Voigt matrix: 6 entries in 2D, 21 in 3D. The tensor must be positive
// definite.
func NewElasticityTensor(upper []float64) (C *ElasticityTensor, err error) {
	var (
		dim int
	)
	switch len(upper) {
	case 6:
		dim = 2
	case 21:
		dim = 3
	default:
		err = fmt.Errorf("elasticity tensor needs 6 (2D) or 21 (3D) Voigt entries, have %d",
			len(upper))
		return
	}
	var (
		n = voigtSize(dim)
		V = mat.NewSymDense(n, nil)
		k int
	)
	for r := 0; r < n; r++ {
		for c := r; c < n; c++ {
			V.SetSym(r, c, upper[k])
			k++
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(V); !ok {
		err = fmt.Errorf("elasticity tensor is not positive definite")
		return
	}
	C = newTensor(dim, V)
	return
}

// LameFromYoung converts Young's modulus and Poisson's ratio to the Lame
// parameters
func LameFromYoung(E, nu float64) (lambda, mu float64, err error) {
	if E <= 0 {
		err = fmt.Errorf("Young's modulus must be positive, have %g", E)
		return
	}
	if nu <= -1 || nu >= 0.5 {
		err = fmt.Errorf("Poisson's ratio must lie in (-1, 0.5), have %g", nu)
		return
	}
	lambda = E * nu / ((1 + nu) * (1 - 2*nu))
	mu = E / (2 * (1 + nu))
	return
}

func newTensor(dim int, V *mat.SymDense) (C *ElasticityTensor) {
	C = &ElasticityTensor{
		dim:   dim,
		Voigt: V,
		full:  make([]float64, dim*dim*dim*dim),
	}
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			for k := 0; k < dim; k++ {
				for l := 0; l < dim; l++ {
					C.full[((i*dim+j)*dim+k)*dim+l] = V.At(voigtIndex(dim, i, j), voigtIndex(dim, k, l))
				}
			}
		}
	}
	return
}

func (C *ElasticityTensor) Dim() int { return C.dim }

func (C *ElasticityTensor) At(i, j, k, l int) float64 {
	d := C.dim
	return C.full[((i*d+j)*d+k)*d+l]
}

// Contract returns sigma_ij = C_ijkl eps_kl
func (C *ElasticityTensor) Contract(eps mat.Matrix) (sigma *mat.Dense) {
	var (
		d = C.dim
	)
	sigma = mat.NewDense(d, d, nil)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			var s float64
			for k := 0; k < d; k++ {
				for l := 0; l < d; l++ {
					s += C.At(i, j, k, l) * eps.At(k, l)
				}
			}
			sigma.Set(i, j, s)
		}
	}
	return
}

// elasticMaterial holds the constitutive parameters shared by the elastic
// formulations, with one tensor per supported dimension
type elasticMaterial struct {
	lambda, mu float64
	E, nu      float64 // equivalent to lambda and mu, defaults for a partial E/nu update
	tensors    map[int]*ElasticityTensor
	explicit   bool
}

func newElasticMaterial() (m elasticMaterial) {
	lambda, mu, _ := LameFromYoung(1, 0.3)
	m.setLame(lambda, mu)
	return
}

func (m *elasticMaterial) setLame(lambda, mu float64) {
	m.lambda, m.mu = lambda, mu
	m.E = mu * (3*lambda + 2*mu) / (lambda + mu)
	m.nu = lambda / (2 * (lambda + mu))
	m.explicit = false
	m.tensors = make(map[int]*ElasticityTensor)
	for _, dim := range []int{2, 3} {
		m.tensors[dim], _ = NewIsotropicTensor(dim, lambda, mu)
	}
}

// set reads E/nu, then lambda/mu, then elasticity_tensor when allowTensor.
// Later keys take precedence. A missing one of E and nu keeps its current
// value.
func (m *elasticMaterial) set(params Parameters, allowTensor bool) (err error) {
	var (
		lambda, mu = m.lambda, m.mu
		E, nu      float64
	)
	if params.Has("E") || params.Has("nu") {
		if E, err = params.Float("E", m.E); err != nil {
			return
		}
		if nu, err = params.Float("nu", m.nu); err != nil {
			return
		}
		if lambda, mu, err = LameFromYoung(E, nu); err != nil {
			return
		}
	}
	if lambda, err = params.Float("lambda", lambda); err != nil {
		return
	}
	if mu, err = params.Float("mu", mu); err != nil {
		return
	}
	if mu <= 0 {
		return fmt.Errorf("shear modulus mu must be positive, have %g", mu)
	}
	if lambda+2*mu/3 <= 0 {
		return fmt.Errorf("bulk modulus must be positive, have lambda = %g, mu = %g", lambda, mu)
	}
	if !allowTensor || !params.Has("elasticity_tensor") {
		if params.Has("E") || params.Has("nu") || params.Has("lambda") || params.Has("mu") {
			m.setLame(lambda, mu)
		}
		return
	}
	var (
		upper []float64
		C     *ElasticityTensor
	)
	if upper, _, err = params.Floats("elasticity_tensor"); err != nil {
		return
	}
	if C, err = NewElasticityTensor(upper); err != nil {
		return
	}
	m.explicit = true
	m.tensors = map[int]*ElasticityTensor{C.Dim(): C}
	return
}

func (m *elasticMaterial) validate(name string, dim int) error {
	if _, ok := m.tensors[dim]; ok {
		return nil
	}
	var allowed []int
	for _, d := range []int{2, 3} {
		if _, ok := m.tensors[d]; ok {
			allowed = append(allowed, d)
		}
	}
	return &DimensionError{Name: name, Dim: dim, Allowed: allowed}
}

// vonMises returns the equivalent stress of a symmetric stress tensor
func vonMises(s mat.Matrix) float64 {
	if r, _ := s.Dims(); r == 2 {
		s00, s11, s01 := s.At(0, 0), s.At(1, 1), s.At(0, 1)
		return math.Sqrt(s00*s00 - s00*s11 + s11*s11 + 3*s01*s01)
	}
	var (
		d01 = s.At(0, 0) - s.At(1, 1)
		d12 = s.At(1, 1) - s.At(2, 2)
		d20 = s.At(2, 2) - s.At(0, 0)
		s01 = s.At(0, 1)
		s12 = s.At(1, 2)
		s02 = s.At(0, 2)
	)
	return math.Sqrt(0.5*(d01*d01+d12*d12+d20*d20) + 3*(s01*s01+s12*s12+s02*s02))
}

// strain returns the small strain (G + G^T)/2
func strain(G mat.Matrix) (eps *mat.Dense) {
	r, c := G.Dims()
	eps = mat.NewDense(r, c, nil)
	eps.Add(G, G.T())
	eps.Scale(0.5, eps)
	return
}
