// Package autodiff implements second order forward mode automatic
// differentiation over a small number of independent variables, enough to
// evaluate a closed form field together with its gradient and Hessian at a
// point.
package autodiff

import (
	"fmt"
	"math"
)

// Scalar2 carries a value with its gradient and Hessian with respect to Dim
// independent variables.
type Scalar2 struct {
	Value float64
	Grad  []float64
	Hess  [][]float64
}

func newScalar2(dim int, value float64) (s Scalar2) {
	s = Scalar2{
		Value: value,
		Grad:  make([]float64, dim),
		Hess:  make([][]float64, dim),
	}
	for i := range s.Hess {
		s.Hess[i] = make([]float64, dim)
	}
	return
}

// Constant returns a scalar with zero derivatives
func Constant(dim int, value float64) Scalar2 {
	return newScalar2(dim, value)
}

// Variable returns independent variable number index out of dim
func Variable(index, dim int, value float64) (s Scalar2) {
	if index < 0 || index >= dim {
		panic(fmt.Errorf("variable index %d out of range for %d variables", index, dim))
	}
	s = newScalar2(dim, value)
	s.Grad[index] = 1
	return
}

func (a Scalar2) Dim() int { return len(a.Grad) }

func checkDims(a, b Scalar2) int {
	if a.Dim() != b.Dim() {
		panic(fmt.Errorf("mixing scalars of %d and %d variables", a.Dim(), b.Dim()))
	}
	return a.Dim()
}

func Add(a, b Scalar2) (s Scalar2) {
	dim := checkDims(a, b)
	s = newScalar2(dim, a.Value+b.Value)
	for i := 0; i < dim; i++ {
		s.Grad[i] = a.Grad[i] + b.Grad[i]
		for j := 0; j < dim; j++ {
			s.Hess[i][j] = a.Hess[i][j] + b.Hess[i][j]
		}
	}
	return
}

func Sub(a, b Scalar2) Scalar2 {
	return Add(a, Scale(b, -1))
}

func Scale(a Scalar2, c float64) (s Scalar2) {
	dim := a.Dim()
	s = newScalar2(dim, c*a.Value)
	for i := 0; i < dim; i++ {
		s.Grad[i] = c * a.Grad[i]
		for j := 0; j < dim; j++ {
			s.Hess[i][j] = c * a.Hess[i][j]
		}
	}
	return
}

func AddConst(a Scalar2, c float64) (s Scalar2) {
	s = Scale(a, 1)
	s.Value += c
	return
}

func Mul(a, b Scalar2) (s Scalar2) {
	dim := checkDims(a, b)
	s = newScalar2(dim, a.Value*b.Value)
	for i := 0; i < dim; i++ {
		s.Grad[i] = a.Value*b.Grad[i] + b.Value*a.Grad[i]
		for j := 0; j < dim; j++ {
			s.Hess[i][j] = a.Value*b.Hess[i][j] + b.Value*a.Hess[i][j] +
				a.Grad[i]*b.Grad[j] + b.Grad[i]*a.Grad[j]
		}
	}
	return
}

func Div(a, b Scalar2) Scalar2 {
	if b.Value == 0 {
		panic("autodiff: division by zero")
	}
	inv := compose(b, 1/b.Value, -1/(b.Value*b.Value), 2/(b.Value*b.Value*b.Value))
	return Mul(a, inv)
}

// compose applies a scalar function f given f(a), f'(a) and f”(a)
func compose(a Scalar2, f, df, d2f float64) (s Scalar2) {
	dim := a.Dim()
	s = newScalar2(dim, f)
	for i := 0; i < dim; i++ {
		s.Grad[i] = df * a.Grad[i]
		for j := 0; j < dim; j++ {
			s.Hess[i][j] = d2f*a.Grad[i]*a.Grad[j] + df*a.Hess[i][j]
		}
	}
	return
}

func Sin(a Scalar2) Scalar2 {
	sn, cs := math.Sin(a.Value), math.Cos(a.Value)
	return compose(a, sn, cs, -sn)
}

func Cos(a Scalar2) Scalar2 {
	sn, cs := math.Sin(a.Value), math.Cos(a.Value)
	return compose(a, cs, -sn, -cs)
}

func Exp(a Scalar2) Scalar2 {
	e := math.Exp(a.Value)
	return compose(a, e, e, e)
}

// Pow raises a to a constant power p
func Pow(a Scalar2, p float64) Scalar2 {
	return compose(a,
		math.Pow(a.Value, p),
		p*math.Pow(a.Value, p-1),
		p*(p-1)*math.Pow(a.Value, p-2))
}

// Laplacian is the trace of the Hessian
func (a Scalar2) Laplacian() (lap float64) {
	for i := range a.Hess {
		lap += a.Hess[i][i]
	}
	return
}
