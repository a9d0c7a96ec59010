// Package problem holds the boundary condition and right hand side
// providers consumed by the simulation driver. Problems register themselves
// by name and are allocated with New.
package problem

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/formulation"
	"github.com/notargets/gofea/mesh"
)

// Problem supplies the data of a boundary value problem. Point sets are
// given one point per row.
type Problem interface {
	Name() string
	// IsScalar reports whether the unknown is a scalar field, otherwise it
	// has one component per spatial dimension
	IsScalar() bool
	SetParameters(params formulation.Parameters) error
	// BoundaryIDs lists the boundary tags carrying Dirichlet conditions,
	// empty when every tagged boundary does
	BoundaryIDs() []int
	// RHS evaluates the volume load at pts for the named formulation
	RHS(form string, pts *mat.Dense, t float64) (*mat.Dense, error)
	// BC evaluates the Dirichlet values at boundary points; globalIDs[i] is
	// the global basis of row i, uv its reference coordinates
	BC(m mesh.Mesh, globalIDs []int, uv, pts *mat.Dense, t float64) (*mat.Dense, error)
}

// TimeDependent problems also provide an initial state
type TimeDependent interface {
	Problem
	InitialSolution(pts *mat.Dense) *mat.Dense
}

// Exact problems know their solution
type Exact interface {
	Problem
	Exact(pts *mat.Dense) (*mat.Dense, error)
}

// AllocatorType allocates a problem with its default parameters
type AllocatorType func(name string) Problem

var allocators = map[string]AllocatorType{}

// SetAllocator registers a problem under name
func SetAllocator(name string, fcn AllocatorType) {
	if _, ok := allocators[name]; ok {
		panic(fmt.Errorf("cannot set allocator for problem %q because the name exists already", name))
	}
	allocators[name] = fcn
}

// New allocates the problem registered under name
func New(name string) (p Problem, err error) {
	fcn, ok := allocators[name]
	if !ok {
		err = fmt.Errorf("unknown problem %q, valid problems are: %v", name, Names())
		return
	}
	p = fcn(name)
	return
}

// Names lists the registered problems in sorted order
func Names() (names []string) {
	for name := range allocators {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// zeros returns a value matrix shaped like pts with ncols columns
func zeros(pts *mat.Dense, ncols int) *mat.Dense {
	r, _ := pts.Dims()
	if r == 0 {
		return &mat.Dense{}
	}
	return mat.NewDense(r, ncols, nil)
}
