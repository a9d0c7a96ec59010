package autodiff

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalar2(t *testing.T) {
	var (
		tol = 1.e-12
	)
	{ // f = x^2 y + sin(y)
		pt := NewHessianPt([]float64{1.5, 0.3}, func(x []Scalar2) []Scalar2 {
			return []Scalar2{Add(Mul(Mul(x[0], x[0]), x[1]), Sin(x[1]))}
		})
		f := pt[0]
		x, y := 1.5, 0.3
		assert.InDelta(t, x*x*y+math.Sin(y), f.Value, tol)
		assert.InDelta(t, 2*x*y, f.Grad[0], tol)
		assert.InDelta(t, x*x+math.Cos(y), f.Grad[1], tol)
		assert.InDelta(t, 2*y, f.Hess[0][0], tol)
		assert.InDelta(t, 2*x, f.Hess[0][1], tol)
		assert.InDelta(t, 2*x, f.Hess[1][0], tol)
		assert.InDelta(t, -math.Sin(y), f.Hess[1][1], tol)
		assert.InDelta(t, 2*y-math.Sin(y), f.Laplacian(), tol)
	}
	{ // Quotient, power and exponential
		pt := NewHessianPt([]float64{2, 1}, func(x []Scalar2) []Scalar2 {
			return []Scalar2{
				Div(x[0], x[1]),
				Pow(x[0], 3),
				Exp(Scale(x[1], 2)),
				Sub(Cos(x[0]), AddConst(x[1], 1)),
			}
		})
		require.NoError(t, pt.Check(4, 2))
		q := pt[0]
		assert.InDelta(t, 2., q.Value, tol)
		assert.InDelta(t, 1., q.Grad[0], tol)
		assert.InDelta(t, -2., q.Grad[1], tol)
		assert.InDelta(t, -1., q.Hess[0][1], tol)
		assert.InDelta(t, 4., q.Hess[1][1], tol)
		p := pt[1]
		assert.InDelta(t, 8., p.Value, tol)
		assert.InDelta(t, 12., p.Grad[0], tol)
		assert.InDelta(t, 12., p.Hess[0][0], tol)
		e := pt[2]
		assert.InDelta(t, math.Exp(2), e.Value, tol)
		assert.InDelta(t, 4*math.Exp(2), e.Hess[1][1], tol)
		c := pt[3]
		assert.InDelta(t, math.Cos(2)-2, c.Value, tol)
		assert.InDelta(t, -math.Cos(2), c.Hess[0][0], tol)
		assert.Equal(t, []float64{2, 8, math.Exp(2), math.Cos(2) - 2}, pt.Values())
	}
	{ // Shape checks
		pt := NewHessianPt([]float64{0, 0, 0}, func(x []Scalar2) []Scalar2 {
			return []Scalar2{x[0], x[1]}
		})
		assert.Equal(t, 3, pt.Dim())
		assert.Error(t, pt.Check(3, 3))
		assert.Error(t, pt.Check(2, 2))
		assert.Panics(t, func() { Add(Constant(2, 1), Constant(3, 1)) })
		assert.Panics(t, func() { Variable(3, 3, 0) })
	}
}
