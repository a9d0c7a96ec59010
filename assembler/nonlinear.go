package assembler

import (
	"log"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/basis"
	"github.com/notargets/gofea/formulation"
)

// NLAssembler builds the energy of a nonlinear formulation with its global
// gradient and Hessian for a given displacement
type NLAssembler[F formulation.NonlinearFormulation] struct {
	Formulation F
	options     Options
}

func NewNLAssembler[F formulation.NonlinearFormulation](f F, options Options) *NLAssembler[F] {
	return &NLAssembler[F]{Formulation: f, options: options}
}

func (na *NLAssembler[F]) prepare(isVolume bool, nBasis int, bases, gbases []basis.ElementBases,
	displacement mat.Vector) (dim int, err error) {
	dim = dimension(isVolume)
	if err = na.Formulation.Validate(dim); err != nil {
		return dim, shapeMismatch("%v", err)
	}
	if displacement == nil {
		return dim, shapeMismatch("no displacement")
	}
	if displacement.Len() != nBasis*dim {
		return dim, shapeMismatch("displacement has length %d, need %d bases times %d components",
			displacement.Len(), nBasis, dim)
	}
	err = checkShapes(dim, nBasis, bases, gbases)
	return
}

// gather extracts the local, component interleaved displacement of an element
func gather(displacement mat.Vector, dofs []int) (local []float64) {
	local = make([]float64, len(dofs))
	for k, dof := range dofs {
		local[k] = displacement.AtVec(dof)
	}
	return
}

// Energy sums the element energies in element order. The basis count is
// implied by the displacement length.
func (na *NLAssembler[F]) Energy(isVolume bool, bases, gbases []basis.ElementBases, displacement mat.Vector) (energy float64, err error) {
	var (
		dim    = dimension(isVolume)
		nBasis int
	)
	if displacement != nil {
		if displacement.Len()%dim != 0 {
			return 0, shapeMismatch("displacement length %d is not a multiple of %d",
				displacement.Len(), dim)
		}
		nBasis = displacement.Len() / dim
	}
	if dim, err = na.prepare(isVolume, nBasis, bases, gbases, displacement); err != nil {
		return
	}
	arena := make([]float64, len(bases))
	err = na.options.forEachElement(dim, bases, gbases, func(e int, vals *basis.AssemblyValues) error {
		local := gather(displacement, localDOFs(vals.Global, dim))
		arena[e] = na.Formulation.ComputeEnergy(vals, local, vals.Measure())
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, w := range arena {
		energy += w
	}
	return
}

// Gradient returns the derivative of the energy with respect to every
// displacement DOF
func (na *NLAssembler[F]) Gradient(isVolume bool, nBasis int, bases, gbases []basis.ElementBases, displacement mat.Vector) (grad *mat.VecDense, err error) {
	var (
		dim int
	)
	if dim, err = na.prepare(isVolume, nBasis, bases, gbases, displacement); err != nil {
		return
	}
	type elementVector struct {
		dofs []int
		data []float64
	}
	arena := make([]elementVector, len(bases))
	err = na.options.forEachElement(dim, bases, gbases, func(e int, vals *basis.AssemblyValues) error {
		dofs := localDOFs(vals.Global, dim)
		arena[e] = elementVector{
			dofs: dofs,
			data: na.Formulation.AssembleGradient(vals, gather(displacement, dofs), vals.Measure()),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	grad = mat.NewVecDense(nBasis*dim, nil)
	for _, ev := range arena {
		for k, dof := range ev.dofs {
			grad.SetVec(dof, grad.AtVec(dof)+ev.data[k])
		}
	}
	return
}

// Hessian returns the second derivative of the energy. The upper triangle of
// every local Hessian is mirrored, so the result is exactly symmetric.
func (na *NLAssembler[F]) Hessian(isVolume bool, nBasis int, bases, gbases []basis.ElementBases, displacement mat.Vector) (H *sparse.CSR, err error) {
	var (
		dim int
	)
	if dim, err = na.prepare(isVolume, nBasis, bases, gbases, displacement); err != nil {
		return
	}
	arena := make([]elementMatrix, len(bases))
	err = na.options.forEachElement(dim, bases, gbases, func(e int, vals *basis.AssemblyValues) error {
		var (
			dofs = localDOFs(vals.Global, dim)
			n    = len(dofs)
			lh   = na.Formulation.AssembleHessian(vals, gather(displacement, dofs), vals.Measure())
		)
		if r, c := lh.Dims(); r != n || c != n {
			return shapeMismatch("%s returned a %dx%d local Hessian, need %dx%d",
				na.Formulation.Name(), r, c, n, n)
		}
		local := make([]float64, n*n)
		for r := 0; r < n; r++ {
			for c := r; c < n; c++ {
				v := lh.At(r, c)
				local[r*n+c] = v
				local[c*n+r] = v
			}
		}
		arena[e] = elementMatrix{dofs: dofs, data: local}
		return nil
	})
	if err != nil {
		return nil, err
	}
	H = reduceMatrix(nBasis*dim, arena)
	if na.options.Verbose {
		log.Printf("%s: assembled Hessian of %d elements into %d dofs, %d non-zeros",
			na.Formulation.Name(), len(bases), nBasis*dim, H.NNZ())
	}
	return
}
