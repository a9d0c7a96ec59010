package problem

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/autodiff"
	"github.com/notargets/gofea/formulation"
	"github.com/notargets/gofea/mesh"
)

func init() {
	SetAllocator("Manufactured", func(name string) Problem { return NewManufactured(name) })
}

// RHSFunc applies the strong form operator of a formulation to an exact
// solution at one point
type RHSFunc func(form string, pt autodiff.HessianPt) ([]float64, error)

// Manufactured solutions
const (
	SolutionLinear    = "linear"
	SolutionQuadratic = "quadratic"
	SolutionSine      = "sine"
)

// Manufactured is a problem with a known smooth solution. Its load is the
// formulation's strong operator applied to that solution, and its Dirichlet
// data is the solution itself on every boundary.
type Manufactured struct {
	name      string
	solution  string
	scalar    bool
	amplitude float64
	rhs       RHSFunc
}

func NewManufactured(name string) *Manufactured {
	return &Manufactured{
		name:      name,
		solution:  SolutionQuadratic,
		scalar:    true,
		amplitude: 1,
	}
}

func (mf *Manufactured) Name() string       { return mf.name }
func (mf *Manufactured) IsScalar() bool     { return mf.scalar }
func (mf *Manufactured) BoundaryIDs() []int { return nil }
func (mf *Manufactured) Solution() string   { return mf.solution }

// BindRHS sets the operator used to compute the load, usually a
// Dispatcher's ComputeRHS
func (mf *Manufactured) BindRHS(fn RHSFunc) { mf.rhs = fn }

// SetParameters reads solution (linear, quadratic or sine), amplitude and
// scalar
func (mf *Manufactured) SetParameters(params formulation.Parameters) (err error) {
	var (
		next = *mf
	)
	if v, ok := params["solution"]; ok {
		s, isString := v.(string)
		switch {
		case !isString:
			return fmt.Errorf("solution must be a string, have %T", v)
		case s != SolutionLinear && s != SolutionQuadratic && s != SolutionSine:
			return fmt.Errorf("unknown solution %q, valid solutions are: %s, %s, %s",
				s, SolutionLinear, SolutionQuadratic, SolutionSine)
		}
		next.solution = s
	}
	if next.amplitude, err = params.Float("amplitude", mf.amplitude); err != nil {
		return
	}
	if v, ok := params["scalar"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return fmt.Errorf("scalar must be a boolean, have %T", v)
		}
		next.scalar = b
	}
	*mf = next
	return
}

// field is the exact solution; component a of a vector solution is the
// scalar solution with its coordinates rotated by a
func (mf *Manufactured) field(x []autodiff.Scalar2) (u []autodiff.Scalar2) {
	var (
		dim   = len(x)
		ncomp = 1
	)
	if !mf.scalar {
		ncomp = dim
	}
	u = make([]autodiff.Scalar2, ncomp)
	for a := range u {
		var (
			s autodiff.Scalar2
		)
		switch mf.solution {
		case SolutionLinear:
			s = autodiff.Constant(dim, 1)
			for b := 0; b < dim; b++ {
				s = autodiff.Add(s, autodiff.Scale(x[(a+b)%dim], float64(b+1)))
			}
		case SolutionQuadratic:
			s = autodiff.Constant(dim, 0)
			for b := 0; b < dim; b++ {
				xb := x[(a+b)%dim]
				s = autodiff.Add(s, autodiff.Scale(autodiff.Mul(xb, xb), float64(b+1)))
			}
			s = autodiff.Add(s, autodiff.Mul(x[a%dim], x[(a+1)%dim]))
		case SolutionSine:
			s = autodiff.Constant(dim, 1)
			for b := 0; b < dim; b++ {
				s = autodiff.Mul(s, autodiff.Sin(autodiff.Scale(x[(a+b)%dim], math.Pi*float64(b+1)/2)))
			}
		}
		u[a] = autodiff.Scale(s, mf.amplitude)
	}
	return
}

func (mf *Manufactured) evaluate(pts *mat.Dense, fn func(i int, pt autodiff.HessianPt) ([]float64, error)) (val *mat.Dense, err error) {
	var (
		r, dim = pts.Dims()
		ncomp  = 1
	)
	if !mf.scalar {
		ncomp = dim
	}
	val = zeros(pts, ncomp)
	for i := 0; i < r; i++ {
		var res []float64
		pt := autodiff.NewHessianPt(mat.Row(nil, i, pts), mf.field)
		if res, err = fn(i, pt); err != nil {
			return nil, err
		}
		if len(res) != ncomp {
			return nil, fmt.Errorf("have %d values at point %d, need %d", len(res), i, ncomp)
		}
		val.SetRow(i, res)
	}
	return
}

// Exact evaluates the solution at pts
func (mf *Manufactured) Exact(pts *mat.Dense) (*mat.Dense, error) {
	return mf.evaluate(pts, func(_ int, pt autodiff.HessianPt) ([]float64, error) {
		return pt.Values(), nil
	})
}

func (mf *Manufactured) RHS(form string, pts *mat.Dense, _ float64) (*mat.Dense, error) {
	if mf.rhs == nil {
		return nil, fmt.Errorf("%s: no right hand side operator bound", mf.name)
	}
	return mf.evaluate(pts, func(_ int, pt autodiff.HessianPt) ([]float64, error) {
		return mf.rhs(form, pt)
	})
}

func (mf *Manufactured) BC(_ mesh.Mesh, globalIDs []int, _, pts *mat.Dense, _ float64) (*mat.Dense, error) {
	if r, _ := pts.Dims(); r != len(globalIDs) {
		return nil, fmt.Errorf("have %d points and %d global ids", r, len(globalIDs))
	}
	return mf.Exact(pts)
}
