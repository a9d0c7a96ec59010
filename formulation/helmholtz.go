package formulation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/autodiff"
	"github.com/notargets/gofea/basis"
)

// Helmholtz is the operator -laplacian(u) - k^2 u
type Helmholtz struct {
	k float64
}

func NewHelmholtz() *Helmholtz {
	return &Helmholtz{k: 1}
}

func (hz *Helmholtz) Name() string        { return HelmholtzName }
func (hz *Helmholtz) Size(dim int) int    { return 1 }
func (hz *Helmholtz) WaveNumber() float64 { return hz.k }

func (hz *Helmholtz) SetParameters(params Parameters) (err error) {
	var k float64
	if k, err = params.Float("k", hz.k); err != nil {
		return
	}
	hz.k = k
	return
}

func (hz *Helmholtz) Validate(dim int) error {
	return checkDim(HelmholtzName, dim, 1, 2, 3)
}

func (hz *Helmholtz) Assemble(vals *basis.AssemblyValues, i, j int, da []float64) (K *mat.Dense) {
	var (
		sum float64
		k2  = hz.k * hz.k
	)
	for q, w := range da {
		sum += w * (floats.Dot(vals.Grad[i][q], vals.Grad[j][q]) - k2*vals.Val[i][q]*vals.Val[j][q])
	}
	K = mat.NewDense(1, 1, []float64{sum})
	return
}

func (hz *Helmholtz) ComputeRHS(pt autodiff.HessianPt) (res []float64, err error) {
	if err = pt.Check(1, pt.Dim()); err != nil {
		return
	}
	res = []float64{pt[0].Laplacian() + hz.k*hz.k*pt[0].Value}
	return
}

func (hz *Helmholtz) ComputeScalarValue(vals *basis.AssemblyValues, local []float64) []float64 {
	return interpolate(vals, local)
}
