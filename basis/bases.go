// Package basis holds the per-element basis data consumed by the assemblers:
// shape functions with their reference gradients, local-to-global indices,
// geometric nodes and quadrature rules.
package basis

import (
	"fmt"
)

// Basis is one local shape function of an element
type Basis struct {
	Global   int                          // global basis (node) index
	Node     []float64                    // physical location, required for geometric bases
	Value    func(uv []float64) float64   // value at a reference point
	Gradient func(uv []float64) []float64 // gradient w.r.t. reference coordinates
}

// Quadrature is a rule on the reference element
type Quadrature struct {
	Points  [][]float64
	Weights []float64
}

func (q Quadrature) Dim() int {
	if len(q.Points) == 0 {
		return 0
	}
	return len(q.Points[0])
}

// ElementBases collects the shape functions of one element and its
// quadrature rule. The number and order of Bases is fixed once built.
type ElementBases struct {
	Bases      []Basis
	Quadrature Quadrature
}

func (eb ElementBases) NumBases() int { return len(eb.Bases) }

func (eb ElementBases) GlobalIDs() (ids []int) {
	ids = make([]int, len(eb.Bases))
	for i, b := range eb.Bases {
		ids[i] = b.Global
	}
	return
}

// Check verifies that the element is usable in dimension dim with nBasis
// global bases. Pass nBasis < 0 to skip the global index bound.
func (eb ElementBases) Check(dim, nBasis int) error {
	if len(eb.Bases) == 0 {
		return fmt.Errorf("element has no bases")
	}
	q := eb.Quadrature
	if len(q.Points) == 0 || len(q.Points) != len(q.Weights) {
		return fmt.Errorf("quadrature has %d points and %d weights", len(q.Points), len(q.Weights))
	}
	for _, p := range q.Points {
		if len(p) != dim {
			return fmt.Errorf("quadrature point has %d coordinates, need %d", len(p), dim)
		}
	}
	for i, b := range eb.Bases {
		if b.Value == nil || b.Gradient == nil {
			return fmt.Errorf("basis %d has no value or gradient function", i)
		}
		if b.Global < 0 || (nBasis >= 0 && b.Global >= nBasis) {
			return fmt.Errorf("basis %d maps to global %d, outside [0,%d)", i, b.Global, nBasis)
		}
	}
	return nil
}

// CheckGeometry verifies that every basis carries a node in dimension dim
func (eb ElementBases) CheckGeometry(dim int) error {
	for i, b := range eb.Bases {
		if len(b.Node) != dim {
			return fmt.Errorf("geometric basis %d has a %d dimensional node, need %d",
				i, len(b.Node), dim)
		}
	}
	return nil
}
