package basis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/utils"
)

var (
	ErrDegenerateElement = errors.New("degenerate element")
	// ErrBasisShape reports basis functions whose output does not match the
	// dimension they are evaluated in
	ErrBasisShape = errors.New("basis shape mismatch")
)

// AssemblyValues is an element's basis data mapped to physical space at a set
// of reference points
type AssemblyValues struct {
	Dim     int
	Global  []int         // [nbasis] global index of each basis
	Weights []float64     // [npts] reference quadrature weights, nil when only evaluating
	Det     []float64     // [npts] |det J| of the geometric map
	X       [][]float64   // [npts][Dim] physical point
	Val     [][]float64   // [nbasis][npts]
	Grad    [][][]float64 // [nbasis][npts][Dim] physical gradients
}

func (v *AssemblyValues) NumBases() int  { return len(v.Val) }
func (v *AssemblyValues) NumPoints() int { return len(v.Det) }

// Measure returns the quadrature measure w_q |det J_q| for every point
func (v *AssemblyValues) Measure() (da []float64) {
	da = make([]float64, len(v.Det))
	for q := range da {
		da[q] = v.Weights[q] * v.Det[q]
	}
	return
}

// NewAssemblyValues evaluates bs at the element's own quadrature points,
// using gbs as geometric map
func NewAssemblyValues(dim int, bs, gbs ElementBases) (*AssemblyValues, error) {
	return EvaluateAt(dim, bs.Quadrature.Points, bs.Quadrature.Weights, bs, gbs)
}

// EvaluateAt evaluates bs at arbitrary reference points pts. weights may be
// nil when the values are not used for integration.
func EvaluateAt(dim int, pts [][]float64, weights []float64, bs, gbs ElementBases) (v *AssemblyValues, err error) {
	var (
		npts = len(pts)
		nb   = len(bs.Bases)
	)
	if err = gbs.CheckGeometry(dim); err != nil {
		return
	}
	if weights != nil && len(weights) != npts {
		err = fmt.Errorf("have %d points and %d weights", npts, len(weights))
		return
	}
	v = &AssemblyValues{
		Dim:     dim,
		Global:  bs.GlobalIDs(),
		Weights: weights,
		Det:     make([]float64, npts),
		X:       make([][]float64, npts),
		Val:     make([][]float64, nb),
		Grad:    make([][][]float64, nb),
	}
	for i := 0; i < nb; i++ {
		v.Val[i] = make([]float64, npts)
		v.Grad[i] = make([][]float64, npts)
	}
	var (
		J    = mat.NewDense(dim, dim, nil)
		Jinv = mat.NewDense(dim, dim, nil)
	)
	for _, set := range [][]Basis{bs.Bases, gbs.Bases} {
		for i, b := range set {
			if b.Value == nil || b.Gradient == nil {
				err = fmt.Errorf("%w: basis %d has no value or gradient function", ErrBasisShape, i)
				return
			}
		}
	}
	for q, uv := range pts {
		if len(uv) != dim {
			err = fmt.Errorf("reference point %d has %d coordinates, need %d", q, len(uv), dim)
			return
		}
		// J[r][c] = sum_k node_k[r] dphi_k/duv_c
		J.Zero()
		x := make([]float64, dim)
		for k, gb := range gbs.Bases {
			gval, ggrad := gb.Value(uv), gb.Gradient(uv)
			if len(ggrad) != dim {
				err = fmt.Errorf("%w: geometric basis %d has a gradient of length %d, need %d",
					ErrBasisShape, k, len(ggrad), dim)
				return
			}
			for r := 0; r < dim; r++ {
				x[r] += gb.Node[r] * gval
				for c := 0; c < dim; c++ {
					J.Set(r, c, J.At(r, c)+gb.Node[r]*ggrad[c])
				}
			}
		}
		det := mat.Det(J)
		if math.Abs(det) < utils.NODETOL {
			err = fmt.Errorf("%w: |det J| = %g at point %d", ErrDegenerateElement, math.Abs(det), q)
			return
		}
		if err = Jinv.Inverse(J); err != nil {
			err = fmt.Errorf("%w: %v", ErrDegenerateElement, err)
			return
		}
		v.Det[q] = math.Abs(det)
		v.X[q] = x
		// physical gradient = J^{-T} reference gradient
		for i, b := range bs.Bases {
			v.Val[i][q] = b.Value(uv)
			ref := b.Gradient(uv)
			if len(ref) != dim {
				err = fmt.Errorf("%w: basis %d has a gradient of length %d, need %d",
					ErrBasisShape, i, len(ref), dim)
				return
			}
			g := make([]float64, dim)
			for c := 0; c < dim; c++ {
				for r := 0; r < dim; r++ {
					g[c] += Jinv.At(r, c) * ref[r]
				}
			}
			v.Grad[i][q] = g
		}
	}
	return
}
