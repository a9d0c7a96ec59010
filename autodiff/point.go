package autodiff

import "fmt"

// HessianPt holds every component of a (possibly vector valued) field at one
// point, each component with its spatial gradient and Hessian.
type HessianPt []Scalar2

// Field maps spatial variables to the components of a field
type Field func(x []Scalar2) []Scalar2

// NewHessianPt evaluates fn at the coordinates x
func NewHessianPt(x []float64, fn Field) (pt HessianPt) {
	var (
		dim  = len(x)
		vars = make([]Scalar2, dim)
	)
	for i := range vars {
		vars[i] = Variable(i, dim, x[i])
	}
	pt = HessianPt(fn(vars))
	return
}

// Dim is the number of spatial variables, zero for an empty point
func (pt HessianPt) Dim() int {
	if len(pt) == 0 {
		return 0
	}
	return pt[0].Dim()
}

// Check verifies that the point has ncomp components over dim variables
func (pt HessianPt) Check(ncomp, dim int) error {
	if len(pt) != ncomp {
		return fmt.Errorf("point has %d components, need %d", len(pt), ncomp)
	}
	for c, s := range pt {
		if s.Dim() != dim {
			return fmt.Errorf("component %d is differentiated in %d variables, need %d",
				c, s.Dim(), dim)
		}
	}
	return nil
}

func (pt HessianPt) Values() (vals []float64) {
	vals = make([]float64, len(pt))
	for i, s := range pt {
		vals[i] = s.Value
	}
	return
}
