package utils

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// DOK is a scatter-add accumulator for a global sparse matrix. Entries are
// summed in the order Add is called, so a caller that adds in a fixed order
// gets bit-identical results from run to run.
type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims and At minimally satisfy the read side of the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) NNZ() int            { return m.M.NNZ() }

func (m *DOK) SetReadOnly(name ...string) DOK {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

// Add accumulates val into entry (i,j)
func (m DOK) Add(i, j int, val float64) {
	var (
		nr, nc = m.Dims()
	)
	m.checkWritable()
	if i < 0 || j < 0 || i >= nr || j >= nc {
		panic(fmt.Errorf("index out of bounds adding to %q: (%d,%d) in a %dx%d matrix",
			m.name, i, j, nr, nc))
	}
	m.M.Set(i, j, m.M.At(i, j)+val)
}

// AddBlock scatter-adds a dense local block, rows[ii] and cols[jj] being the
// global indices of block row ii and block column jj.
func (m DOK) AddBlock(rows, cols []int, block mat.Matrix) {
	var (
		nr, nc = block.Dims()
	)
	if nr != len(rows) || nc != len(cols) {
		panic(fmt.Errorf("block is %dx%d, have %d row and %d column indices",
			nr, nc, len(rows), len(cols)))
	}
	for ii, I := range rows {
		for jj, J := range cols {
			m.Add(I, J, block.At(ii, jj))
		}
	}
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

// ToCSR compresses the accumulated entries into a CSR matrix with column
// indices sorted within each row.
func (m DOK) ToCSR() (R *sparse.CSR) {
	type entry struct {
		i, j int
		v    float64
	}
	var (
		nr, nc  = m.Dims()
		entries = make([]entry, 0, m.NNZ())
	)
	m.M.DoNonZero(func(i, j int, v float64) {
		entries = append(entries, entry{i, j, v})
	})
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].i != entries[b].i {
			return entries[a].i < entries[b].i
		}
		return entries[a].j < entries[b].j
	})
	var (
		indptr = make([]int, nr+1)
		ind    = make([]int, len(entries))
		data   = make([]float64, len(entries))
	)
	for k, e := range entries {
		indptr[e.i+1]++
		ind[k] = e.j
		data[k] = e.v
	}
	for i := 0; i < nr; i++ {
		indptr[i+1] += indptr[i]
	}
	R = sparse.NewCSR(nr, nc, indptr, ind, data)
	return
}

// CSRRaw exposes the compressed storage of a CSR matrix
func CSRRaw(A *sparse.CSR) *blas.SparseMatrix {
	return A.RawMatrix()
}

// CSRMulVec computes y = A x using the compressed storage directly
func CSRMulVec(A *sparse.CSR, x, y []float64) {
	var (
		raw = A.RawMatrix()
	)
	if len(x) != raw.J || len(y) != raw.I {
		panic(fmt.Errorf("dimension mismatch: A is %dx%d, len(x) = %d, len(y) = %d",
			raw.I, raw.J, len(x), len(y)))
	}
	for i := 0; i < raw.I; i++ {
		var sum float64
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			sum += raw.Data[k] * x[raw.Ind[k]]
		}
		y[i] = sum
	}
}

// CSRDiagonal returns the main diagonal, zero where no entry is stored
func CSRDiagonal(A *sparse.CSR) (diag []float64) {
	var (
		raw = A.RawMatrix()
	)
	diag = make([]float64, raw.I)
	for i := 0; i < raw.I; i++ {
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			if raw.Ind[k] == i {
				diag[i] += raw.Data[k]
			}
		}
	}
	return
}

// CSRIsSymmetric reports whether |A(i,j) - A(j,i)| <= tol for every stored entry
func CSRIsSymmetric(A *sparse.CSR, tol float64) bool {
	var (
		raw = A.RawMatrix()
	)
	if raw.I != raw.J {
		return false
	}
	for i := 0; i < raw.I; i++ {
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			j := raw.Ind[k]
			d := raw.Data[k] - A.At(j, i)
			if d > tol || d < -tol {
				return false
			}
		}
	}
	return true
}

// CSRIdentical reports whether A and B have the same structure and bit-identical values
func CSRIdentical(A, B *sparse.CSR) bool {
	var (
		ra, rb = A.RawMatrix(), B.RawMatrix()
	)
	if ra.I != rb.I || ra.J != rb.J || len(ra.Data) != len(rb.Data) {
		return false
	}
	for i := range ra.Indptr {
		if ra.Indptr[i] != rb.Indptr[i] {
			return false
		}
	}
	for k := range ra.Data {
		if ra.Ind[k] != rb.Ind[k] || ra.Data[k] != rb.Data[k] {
			return false
		}
	}
	return true
}
