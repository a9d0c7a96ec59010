// Package mesh provides the mesh side of assembly: the boundary tag lookup
// consumed by boundary condition problems, a structured simplex mesh of the
// unit square and cube, and partitioning of elements for parallel assembly.
package mesh

import "fmt"

// Mesh exposes the boundary tag of a global entity. Tags are stable for the
// duration of an assembly pass; interior entities have tag 0.
type Mesh interface {
	BoundaryID(globalID int) int
}

// Tagged is a Mesh backed by an explicit map, useful when a caller only has
// tags for a handful of boundary entities.
type Tagged map[int]int

func (m Tagged) BoundaryID(globalID int) int { return m[globalID] }

// Simplex is a conforming mesh of triangles (Dim 2) or tetrahedra (Dim 3)
type Simplex struct {
	Dim      int
	Vertices [][]float64 // [nvertex][Dim]
	Elements [][]int     // [nelement][Dim+1] vertex ids
	Tags     []int       // boundary tag per vertex
}

func (m *Simplex) BoundaryID(globalID int) int {
	if globalID < 0 || globalID >= len(m.Tags) {
		return 0
	}
	return m.Tags[globalID]
}

func (m *Simplex) IsVolume() bool   { return m.Dim == 3 }
func (m *Simplex) NumVertices() int { return len(m.Vertices) }
func (m *Simplex) NumElements() int { return len(m.Elements) }

// BoundaryVertices returns the ids of vertices carrying one of the tags, in
// ascending id order
func (m *Simplex) BoundaryVertices(tags []int) (ids []int) {
	var (
		want = make(map[int]bool, len(tags))
	)
	for _, t := range tags {
		want[t] = true
	}
	for i, t := range m.Tags {
		if t != 0 && want[t] {
			ids = append(ids, i)
		}
	}
	return
}

// NewUnitSquare triangulates [0,1]^2 with n x n cells, two counter-clockwise
// triangles per cell. Vertex tags: x=0 -> 1, x=1 -> 3, y=0 -> 2, y=1 -> 4,
// with the x faces taking precedence at corners.
func NewUnitSquare(n int) (m *Simplex, err error) {
	if n < 1 {
		err = fmt.Errorf("need at least one subdivision, have %d", n)
		return
	}
	var (
		np  = n + 1
		vid = func(i, j int) int { return i + np*j }
	)
	m = &Simplex{Dim: 2}
	for j := 0; j < np; j++ {
		for i := 0; i < np; i++ {
			x, y := float64(i)/float64(n), float64(j)/float64(n)
			m.Vertices = append(m.Vertices, []float64{x, y})
			m.Tags = append(m.Tags, squareTag(i, j, n))
		}
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			v00, v10, v01, v11 := vid(i, j), vid(i+1, j), vid(i, j+1), vid(i+1, j+1)
			m.Elements = append(m.Elements,
				[]int{v00, v10, v11},
				[]int{v00, v11, v01})
		}
	}
	return
}

func squareTag(i, j, n int) int {
	switch {
	case i == 0:
		return 1
	case i == n:
		return 3
	case j == 0:
		return 2
	case j == n:
		return 4
	}
	return 0
}

// NewUnitCube splits [0,1]^3 into n^3 cubes of six tetrahedra each (Kuhn
// subdivision along the main diagonal). Vertex tags: x=0 -> 1, y=0 -> 2,
// x=1 -> 3, y=1 -> 4, z=0 -> 5, z=1 -> 6, in that order of precedence.
func NewUnitCube(n int) (m *Simplex, err error) {
	if n < 1 {
		err = fmt.Errorf("need at least one subdivision, have %d", n)
		return
	}
	var (
		np  = n + 1
		vid = func(i, j, k int) int { return i + np*(j+np*k) }
		// axis orderings of the six paths from (0,0,0) to (1,1,1)
		perms = [6][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	)
	m = &Simplex{Dim: 3}
	for k := 0; k < np; k++ {
		for j := 0; j < np; j++ {
			for i := 0; i < np; i++ {
				m.Vertices = append(m.Vertices, []float64{
					float64(i) / float64(n), float64(j) / float64(n), float64(k) / float64(n)})
				m.Tags = append(m.Tags, cubeTag(i, j, k, n))
			}
		}
	}
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				for _, p := range perms {
					c := [3]int{i, j, k}
					tet := []int{vid(c[0], c[1], c[2])}
					for _, axis := range p {
						c[axis]++
						tet = append(tet, vid(c[0], c[1], c[2]))
					}
					m.Elements = append(m.Elements, tet)
				}
			}
		}
	}
	return
}

func cubeTag(i, j, k, n int) int {
	switch {
	case i == 0:
		return 1
	case j == 0:
		return 2
	case i == n:
		return 3
	case j == n:
		return 4
	case k == 0:
		return 5
	case k == n:
		return 6
	}
	return 0
}
