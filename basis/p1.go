package basis

import (
	"fmt"

	"github.com/notargets/gofea/mesh"
)

// TriangleQuadrature is the three point rule on the reference triangle,
// exact for quadratics
func TriangleQuadrature() Quadrature {
	var (
		a, b = 1. / 6., 2. / 3.
		w    = 1. / 6.
	)
	return Quadrature{
		Points:  [][]float64{{a, a}, {b, a}, {a, b}},
		Weights: []float64{w, w, w},
	}
}

// TetQuadrature is the four point rule on the reference tetrahedron, exact
// for quadratics
func TetQuadrature() Quadrature {
	var (
		a = 0.5854101966249685
		b = 0.1381966011250105
		w = 1. / 24.
	)
	return Quadrature{
		Points:  [][]float64{{b, b, b}, {a, b, b}, {b, a, b}, {b, b, a}},
		Weights: []float64{w, w, w, w},
	}
}

// SimplexQuadrature picks the reference simplex rule for dimension dim
func SimplexQuadrature(dim int) (q Quadrature, err error) {
	switch dim {
	case 2:
		q = TriangleQuadrature()
	case 3:
		q = TetQuadrature()
	default:
		err = fmt.Errorf("no simplex quadrature for dimension %d", dim)
	}
	return
}

// P1 returns local shape function k of the linear Lagrange simplex of
// dimension dim: 1-sum(uv) for k = 0, uv[k-1] otherwise.
func P1(k, dim int) (value func([]float64) float64, gradient func([]float64) []float64) {
	if k == 0 {
		value = func(uv []float64) (v float64) {
			v = 1
			for _, c := range uv {
				v -= c
			}
			return
		}
		gradient = func([]float64) []float64 {
			g := make([]float64, dim)
			for i := range g {
				g[i] = -1
			}
			return g
		}
		return
	}
	value = func(uv []float64) float64 { return uv[k-1] }
	gradient = func([]float64) []float64 {
		g := make([]float64, dim)
		g[k-1] = 1
		return g
	}
	return
}

// NewP1Element builds the bases of one linear simplex from its vertex ids and
// coordinates. The same bases serve as geometric bases (isoparametric).
func NewP1Element(ids []int, nodes [][]float64) (eb ElementBases, err error) {
	var (
		dim = len(ids) - 1
	)
	if len(nodes) != len(ids) {
		err = fmt.Errorf("have %d vertex ids and %d nodes", len(ids), len(nodes))
		return
	}
	if eb.Quadrature, err = SimplexQuadrature(dim); err != nil {
		return
	}
	eb.Bases = make([]Basis, len(ids))
	for k, id := range ids {
		value, gradient := P1(k, dim)
		eb.Bases[k] = Basis{
			Global:   id,
			Node:     append([]float64(nil), nodes[k]...),
			Value:    value,
			Gradient: gradient,
		}
	}
	return
}

// NewP1Bases builds linear bases for every element of m; one global basis per
// vertex, so nBasis is the vertex count.
func NewP1Bases(m *mesh.Simplex) (bases []ElementBases, nBasis int, err error) {
	bases = make([]ElementBases, m.NumElements())
	for e, verts := range m.Elements {
		nodes := make([][]float64, len(verts))
		for k, v := range verts {
			nodes[k] = m.Vertices[v]
		}
		if bases[e], err = NewP1Element(verts, nodes); err != nil {
			err = fmt.Errorf("element %d: %w", e, err)
			return
		}
	}
	nBasis = m.NumVertices()
	return
}
