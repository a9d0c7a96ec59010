package assembler

import (
	"log"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/basis"
	"github.com/notargets/gofea/formulation"
	"github.com/notargets/gofea/utils"
)

// LinearAssembler builds global stiffness matrices for a linear formulation
type LinearAssembler[F formulation.LinearFormulation] struct {
	Formulation F
	options     Options
}

func NewLinearAssembler[F formulation.LinearFormulation](f F, options Options) *LinearAssembler[F] {
	return &LinearAssembler[F]{Formulation: f, options: options}
}

// elementMatrix is one element's arena slot: its local matrix, row major,
// and the global DOF of each local row
type elementMatrix struct {
	dofs []int
	data []float64
}

func localDOFs(global []int, size int) (dofs []int) {
	dofs = make([]int, len(global)*size)
	for i, g := range global {
		for a := 0; a < size; a++ {
			dofs[i*size+a] = g*size + a
		}
	}
	return
}

// Assemble returns the nBasis*size square global matrix. Only pairs j >= i
// are integrated; the lower triangle is copied, so the result is exactly
// symmetric.
func (la *LinearAssembler[F]) Assemble(isVolume bool, nBasis int, bases, gbases []basis.ElementBases) (K *sparse.CSR, err error) {
	var (
		f   = la.Formulation
		dim = dimension(isVolume)
	)
	if err = f.Validate(dim); err != nil {
		return nil, shapeMismatch("%v", err)
	}
	if err = checkShapes(dim, nBasis, bases, gbases); err != nil {
		return
	}
	var (
		size  = f.Size(dim)
		arena = make([]elementMatrix, len(bases))
	)
	err = la.options.forEachElement(dim, bases, gbases, func(e int, vals *basis.AssemblyValues) error {
		var (
			nb    = vals.NumBases()
			n     = nb * size
			local = make([]float64, n*n)
			da    = vals.Measure()
		)
		for i := 0; i < nb; i++ {
			for j := i; j < nb; j++ {
				blk := f.Assemble(vals, i, j, da)
				for a := 0; a < size; a++ {
					for b := 0; b < size; b++ {
						r, c := i*size+a, j*size+b
						if r > c {
							continue
						}
						v := blk.At(a, b)
						local[r*n+c] = v
						local[c*n+r] = v
					}
				}
			}
		}
		arena[e] = elementMatrix{dofs: localDOFs(vals.Global, size), data: local}
		return nil
	})
	if err != nil {
		return nil, err
	}
	K = reduceMatrix(nBasis*size, arena)
	if la.options.Verbose {
		log.Printf("%s: assembled %d elements into %d dofs, %d non-zeros",
			f.Name(), len(bases), nBasis*size, K.NNZ())
	}
	return
}

// reduceMatrix scatter-adds the arena in element order
func reduceMatrix(n int, arena []elementMatrix) *sparse.CSR {
	dok := utils.NewDOK(n, n)
	for _, em := range arena {
		nl := len(em.dofs)
		dok.AddBlock(em.dofs, em.dofs, mat.NewDense(nl, nl, em.data))
	}
	return dok.ToCSR()
}
