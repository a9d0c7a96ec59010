package formulation

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/autodiff"
	"github.com/notargets/gofea/basis"
)

// Laplacian is the scalar diffusion operator -div(kappa grad u)
type Laplacian struct {
	diffusivity float64
}

func NewLaplacian() *Laplacian {
	return &Laplacian{diffusivity: 1}
}

func (lp *Laplacian) Name() string         { return LaplacianName }
func (lp *Laplacian) Size(dim int) int     { return 1 }
func (lp *Laplacian) Diffusivity() float64 { return lp.diffusivity }

func (lp *Laplacian) SetParameters(params Parameters) (err error) {
	var k float64
	if k, err = params.Float("diffusivity", lp.diffusivity); err != nil {
		return
	}
	if k <= 0 {
		return fmt.Errorf("diffusivity must be positive, have %g", k)
	}
	lp.diffusivity = k
	return
}

func (lp *Laplacian) Validate(dim int) error {
	return checkDim(LaplacianName, dim, 1, 2, 3)
}

func (lp *Laplacian) Assemble(vals *basis.AssemblyValues, i, j int, da []float64) (K *mat.Dense) {
	var sum float64
	for q, w := range da {
		sum += w * floats.Dot(vals.Grad[i][q], vals.Grad[j][q])
	}
	K = mat.NewDense(1, 1, []float64{lp.diffusivity * sum})
	return
}

func (lp *Laplacian) ComputeRHS(pt autodiff.HessianPt) (res []float64, err error) {
	if err = pt.Check(1, pt.Dim()); err != nil {
		return
	}
	res = []float64{lp.diffusivity * pt[0].Laplacian()}
	return
}

func (lp *Laplacian) ComputeScalarValue(vals *basis.AssemblyValues, local []float64) []float64 {
	return interpolate(vals, local)
}
