package assembler

import (
	"errors"
	"math"
	"testing"

	"github.com/james-bowman/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/autodiff"
	"github.com/notargets/gofea/basis"
	"github.com/notargets/gofea/formulation"
	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/utils"
)

func meshBases(t *testing.T, dim, n int) (bases []basis.ElementBases, nBasis int) {
	var (
		m   *mesh.Simplex
		err error
	)
	if dim == 2 {
		m, err = mesh.NewUnitSquare(n)
	} else {
		m, err = mesh.NewUnitCube(n)
	}
	require.NoError(t, err)
	bases, nBasis, err = basis.NewP1Bases(m)
	require.NoError(t, err)
	return
}

func referenceTriangle(t *testing.T) []basis.ElementBases {
	eb, err := basis.NewP1Element([]int{0, 1, 2}, [][]float64{{0, 0}, {1, 0}, {0, 1}})
	require.NoError(t, err)
	return []basis.ElementBases{eb}
}

func newDispatcher(t *testing.T, params formulation.Parameters, opts ...Option) *Dispatcher {
	d, err := NewDispatcher(params, opts...)
	require.NoError(t, err)
	return d
}

func assembleLinear(d *Dispatcher, name string, isVolume bool, nBasis int, bases []basis.ElementBases) (*sparse.CSR, error) {
	if scalar, _ := d.IsScalar(name); scalar {
		return d.AssembleScalarProblem(name, isVolume, nBasis, bases, bases)
	}
	return d.AssembleTensorProblem(name, isVolume, nBasis, bases, bases)
}

// smoothDisplacement is a deterministic, non trivial displacement field
func smoothDisplacement(n int) *mat.VecDense {
	u := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		u.SetVec(i, 0.05*math.Sin(1.3*float64(i)+0.2))
	}
	return u
}

func TestUnitTriangleLaplacian(t *testing.T) {
	var (
		d     = newDispatcher(t, nil)
		bases = referenceTriangle(t)
		want  = [][]float64{
			{1, -0.5, -0.5},
			{-0.5, 0.5, 0},
			{-0.5, 0, 0.5},
		}
	)
	K, err := d.AssembleScalarProblem(formulation.LaplacianName, false, 3, bases, bases)
	require.NoError(t, err)
	r, c := K.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	for i := 0; i < 3; i++ {
		var sum float64
		for j := 0; j < 3; j++ {
			assert.InDelta(t, want[i][j], K.At(i, j), 1.e-14)
			sum += K.At(i, j)
		}
		assert.InDelta(t, 0, sum, 1.e-14)
	}
}

func TestLinearAssembly(t *testing.T) {
	linear := []string{
		formulation.LaplacianName,
		formulation.HelmholtzName,
		formulation.LinearElasticityName,
		formulation.HookeLinearElasticityName,
	}
	for _, dim := range []int{2, 3} {
		var (
			isVolume      = dim == 3
			bases, nBasis = meshBases(t, dim, 3)
			serial        = newDispatcher(t, nil, WithParallelDegree(1))
			parallel      = newDispatcher(t, nil, WithParallelDegree(5))
			metis         = newDispatcher(t, nil, WithParallelDegree(4), WithPartitioner(PartitionMETIS))
		)
		for _, name := range linear {
			K, err := assembleLinear(serial, name, isVolume, nBasis, bases)
			require.NoError(t, err, name)
			{ // Size and exact symmetry
				size := 1
				if scalar, _ := serial.IsScalar(name); !scalar {
					size = dim
				}
				r, c := K.Dims()
				assert.Equal(t, nBasis*size, r)
				assert.Equal(t, nBasis*size, c)
				assert.True(t, utils.CSRIsSymmetric(K, 0), name)
			}
			{ // Bit identical across repeated calls, parallel degrees and partitioners
				for _, d := range []*Dispatcher{serial, parallel, metis} {
					K2, err := assembleLinear(d, name, isVolume, nBasis, bases)
					require.NoError(t, err)
					assert.True(t, utils.CSRIdentical(K, K2), name)
				}
			}
		}
	}
	{ // Laplacian rows sum to zero, constants are in the kernel
		bases, nBasis := meshBases(t, 2, 4)
		K, err := newDispatcher(t, nil).AssembleScalarProblem(formulation.LaplacianName, false, nBasis, bases, bases)
		require.NoError(t, err)
		var (
			ones = make([]float64, nBasis)
			y    = make([]float64, nBasis)
		)
		for i := range ones {
			ones[i] = 1
		}
		utils.CSRMulVec(K, ones, y)
		for _, v := range y {
			assert.InDelta(t, 0, v, 1.e-13)
		}
	}
}

func TestNonlinearAssembly(t *testing.T) {
	var (
		name          = formulation.SaintVenantElasticityName
		d             = newDispatcher(t, formulation.Parameters{"E": 2, "nu": 0.25})
		bases, nBasis = meshBases(t, 2, 2)
		n             = 2 * nBasis
		u             = smoothDisplacement(n)
	)
	energy := func(x []float64) float64 {
		e, err := d.AssembleTensorEnergy(name, false, bases, bases, mat.NewVecDense(len(x), x))
		require.NoError(t, err)
		return e
	}
	gradient := func(y, x []float64) {
		g, err := d.AssembleTensorEnergyGradient(name, false, nBasis, bases, bases, mat.NewVecDense(len(x), x))
		require.NoError(t, err)
		copy(y, g.RawVector().Data)
	}
	{ // Gradient is the derivative of the energy
		g, err := d.AssembleTensorEnergyGradient(name, false, nBasis, bases, bases, u)
		require.NoError(t, err)
		want := fd.Gradient(nil, energy, u.RawVector().Data, &fd.Settings{Formula: fd.Central})
		assert.InDeltaSlice(t, want, g.RawVector().Data, 1.e-8)
	}
	{ // Hessian is the derivative of the gradient and exactly symmetric
		H, err := d.AssembleTensorEnergyHessian(name, false, nBasis, bases, bases, u)
		require.NoError(t, err)
		assert.True(t, utils.CSRIsSymmetric(H, 0))
		want := mat.NewDense(n, n, nil)
		fd.Jacobian(want, gradient, u.RawVector().Data, &fd.JacobianSettings{Formula: fd.Central})
		assert.True(t, mat.EqualApprox(want, H, 1.e-7))
	}
	{ // Bit identical across parallel degrees
		H1, err := d.AssembleTensorEnergyHessian(name, false, nBasis, bases, bases, u)
		require.NoError(t, err)
		d2, err := d.SetParameters(d.Parameters())
		require.NoError(t, err)
		d3 := newDispatcher(t, d.Parameters(), WithParallelDegree(3))
		for _, dd := range []*Dispatcher{d2, d3} {
			H2, err := dd.AssembleTensorEnergyHessian(name, false, nBasis, bases, bases, u)
			require.NoError(t, err)
			assert.True(t, utils.CSRIdentical(H1, H2))
			e1, err := d.AssembleTensorEnergy(name, false, bases, bases, u)
			require.NoError(t, err)
			e2, err := dd.AssembleTensorEnergy(name, false, bases, bases, u)
			require.NoError(t, err)
			assert.Equal(t, e1, e2)
		}
	}
	{ // Hessian at rest is the linear elastic stiffness
		H, err := d.AssembleTensorEnergyHessian(name, false, nBasis, bases, bases, mat.NewVecDense(n, nil))
		require.NoError(t, err)
		K, err := d.AssembleTensorProblem(formulation.LinearElasticityName, false, nBasis, bases, bases)
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(K, H, 1.e-12))
	}
	{ // A homogeneous deformation stores the same energy density everywhere
		var (
			G    = [2][2]float64{{0.1, 0.05}, {0, -0.02}}
			m, _ = mesh.NewUnitSquare(2)
			us   = mat.NewVecDense(n, nil)
			ref  = referenceTriangle(t)
			ur   = mat.NewVecDense(6, nil)
		)
		for v, x := range m.Vertices {
			for a := 0; a < 2; a++ {
				us.SetVec(2*v+a, G[a][0]*x[0]+G[a][1]*x[1])
			}
		}
		for v, x := range [][]float64{{0, 0}, {1, 0}, {0, 1}} {
			for a := 0; a < 2; a++ {
				ur.SetVec(2*v+a, G[a][0]*x[0]+G[a][1]*x[1])
			}
		}
		eSquare, err := d.AssembleTensorEnergy(name, false, bases, bases, us)
		require.NoError(t, err)
		eTriangle, err := d.AssembleTensorEnergy(name, false, ref, ref, ur)
		require.NoError(t, err)
		assert.Greater(t, eTriangle, 0.)
		assert.InDelta(t, 2*eTriangle, eSquare, 1.e-14)
	}
	{ // 3D Hessian symmetry
		bases3, nBasis3 := meshBases(t, 3, 2)
		H, err := d.AssembleTensorEnergyHessian(name, true, nBasis3, bases3, bases3, smoothDisplacement(3*nBasis3))
		require.NoError(t, err)
		assert.True(t, utils.CSRIsSymmetric(H, 0))
	}
}

func TestIsLinearConsistency(t *testing.T) {
	var (
		d             = newDispatcher(t, nil)
		bases, nBasis = meshBases(t, 2, 1)
		u             = mat.NewVecDense(2*nBasis, nil)
	)
	assert.Equal(t, []string{"Laplacian", "Helmholtz"}, ScalarAssemblers())
	assert.Equal(t, []string{"LinearElasticity", "HookeLinearElasticity", "SaintVenantElasticity"},
		TensorAssemblers())
	for _, name := range Formulations() {
		linear, err := d.IsLinear(name)
		require.NoError(t, err)
		scalar, err := d.IsScalar(name)
		require.NoError(t, err)
		if linear {
			_, err = d.AssembleTensorEnergy(name, false, bases, bases, u)
			assert.True(t, errors.Is(err, ErrCategoryMismatch), name)
			_, err = d.AssembleTensorEnergyGradient(name, false, nBasis, bases, bases, u)
			assert.True(t, errors.Is(err, ErrCategoryMismatch), name)
			_, err = d.AssembleTensorEnergyHessian(name, false, nBasis, bases, bases, u)
			assert.True(t, errors.Is(err, ErrCategoryMismatch), name)
			_, err = assembleLinear(d, name, false, nBasis, bases)
			assert.NoError(t, err, name)
		} else {
			_, err = d.AssembleTensorProblem(name, false, nBasis, bases, bases)
			assert.True(t, errors.Is(err, ErrCategoryMismatch), name)
			_, err = d.AssembleTensorEnergy(name, false, bases, bases, u)
			assert.NoError(t, err, name)
		}
		if scalar {
			_, err = d.AssembleTensorProblem(name, false, nBasis, bases, bases)
		} else {
			_, err = d.AssembleScalarProblem(name, false, nBasis, bases, bases)
		}
		assert.True(t, errors.Is(err, ErrCategoryMismatch), name)
	}
}

func TestUnknownFormulation(t *testing.T) {
	var (
		name          = "DoesNotExist"
		d             = newDispatcher(t, nil)
		bases, nBasis = meshBases(t, 2, 1)
		u             = mat.NewVecDense(2*nBasis, nil)
		errs          []error
	)
	_, err := d.AssembleScalarProblem(name, false, nBasis, bases, bases)
	errs = append(errs, err)
	_, err = d.AssembleTensorProblem(name, false, nBasis, bases, bases)
	errs = append(errs, err)
	_, err = d.AssembleTensorEnergy(name, false, bases, bases, u)
	errs = append(errs, err)
	_, err = d.AssembleTensorEnergyGradient(name, false, nBasis, bases, bases, u)
	errs = append(errs, err)
	_, err = d.AssembleTensorEnergyHessian(name, false, nBasis, bases, bases, u)
	errs = append(errs, err)
	_, err = d.ComputeScalarValue(name, bases[0], [][]float64{{0, 0}}, []float64{0, 0, 0})
	errs = append(errs, err)
	_, err = d.ComputeRHS(name, nil)
	errs = append(errs, err)
	_, err = d.IsLinear(name)
	errs = append(errs, err)
	for _, err := range errs {
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownFormulation))
		assert.Contains(t, err.Error(), name)
		assert.Contains(t, err.Error(), "Laplacian")
		assert.Contains(t, err.Error(), "SaintVenantElasticity")
	}
}

func TestShapeMismatch(t *testing.T) {
	var (
		d             = newDispatcher(t, nil)
		bases, nBasis = meshBases(t, 2, 2)
	)
	isShape := func(err error) bool { return errors.Is(err, ErrShapeMismatch) }
	{ // Element counts differ
		K, err := d.AssembleScalarProblem("Laplacian", false, nBasis, bases, bases[1:])
		assert.True(t, isShape(err))
		assert.Nil(t, K)
	}
	{ // Global index outside the basis count
		K, err := d.AssembleScalarProblem("Laplacian", false, nBasis-1, bases, bases)
		assert.True(t, isShape(err))
		assert.Nil(t, K)
	}
	{ // Volume measure on planar elements
		_, err := d.AssembleTensorProblem("LinearElasticity", true, nBasis, bases, bases)
		assert.True(t, isShape(err))
	}
	{ // Displacement of the wrong length
		u := mat.NewVecDense(2*nBasis+1, nil)
		_, err := d.AssembleTensorEnergy("SaintVenantElasticity", false, bases, bases, u)
		assert.True(t, isShape(err))
		g, err := d.AssembleTensorEnergyGradient("SaintVenantElasticity", false, nBasis, bases, bases, u)
		assert.True(t, isShape(err))
		assert.Nil(t, g)
		_, err = d.AssembleTensorEnergyHessian("SaintVenantElasticity", false, nBasis, bases, bases,
			mat.NewVecDense(3*nBasis, nil))
		assert.True(t, isShape(err))
	}
	{ // Two dimensional tensor used on volume elements
		d2 := newDispatcher(t, formulation.Parameters{
			"elasticity_tensor": []interface{}{4., 1., 0., 3., 0., 1.},
		})
		bases3, nBasis3 := meshBases(t, 3, 1)
		_, err := d2.AssembleTensorProblem("HookeLinearElasticity", true, nBasis3, bases3, bases3)
		assert.True(t, isShape(err))
		_, err = d2.AssembleTensorProblem("HookeLinearElasticity", false, nBasis, bases, bases)
		assert.NoError(t, err)
	}
	{ // Local values of the wrong length
		_, err := d.ComputeScalarValue("LinearElasticity", bases[0], [][]float64{{0, 0}}, []float64{1, 2, 3})
		assert.True(t, isShape(err))
	}
	{ // Degenerate elements are reported with their index
		eb, err := basis.NewP1Element([]int{0, 1, 2}, [][]float64{{0, 0}, {1, 1}, {2, 2}})
		require.NoError(t, err)
		bad := append(append([]basis.ElementBases{}, bases...), eb)
		_, err = d.AssembleScalarProblem("Laplacian", false, nBasis, bad, bad)
		assert.True(t, errors.Is(err, basis.ErrDegenerateElement))
		assert.Contains(t, err.Error(), "element 8")
	}
	// withBasis copies the first element and replaces one of its bases
	withBasis := func(k int, fn func(b *basis.Basis)) []basis.ElementBases {
		eb := bases[0]
		eb.Bases = append([]basis.Basis{}, eb.Bases...)
		fn(&eb.Bases[k])
		return append(append([]basis.ElementBases{}, bases[1:]...), eb)
	}
	{ // Gradient with too few components
		bad := withBasis(1, func(b *basis.Basis) {
			b.Gradient = func([]float64) []float64 { return []float64{1} }
		})
		for _, opt := range []Option{WithParallelDegree(1), WithParallelDegree(4)} {
			K, err := newDispatcher(t, nil, opt).AssembleScalarProblem("Laplacian", false, nBasis, bad, bad)
			assert.True(t, isShape(err))
			assert.True(t, errors.Is(err, basis.ErrBasisShape))
			assert.Contains(t, err.Error(), "element 7")
			assert.Nil(t, K)
		}
		_, err := d.ComputeScalarValue("Laplacian", bad[7], [][]float64{{0.25, 0.25}}, []float64{1, 2, 3})
		assert.True(t, isShape(err))
	}
	{ // A panicking basis function fails the assembly instead of the process
		bad := withBasis(2, func(b *basis.Basis) {
			b.Gradient = func([]float64) []float64 { panic("no gradient here") }
		})
		K, err := d.AssembleScalarProblem("Laplacian", false, nBasis, bad, bad)
		assert.True(t, isShape(err))
		assert.Contains(t, err.Error(), "no gradient here")
		assert.Nil(t, K)
	}
	{ // Missing value function when evaluating a scalar
		bad := withBasis(0, func(b *basis.Basis) { b.Value = nil })
		assert.NotPanics(t, func() {
			_, err := d.ComputeScalarValue("Laplacian", bad[7], [][]float64{{0.25, 0.25}}, []float64{1, 2, 3})
			assert.True(t, isShape(err))
		})
	}
}

func TestDispatcherParameters(t *testing.T) {
	var (
		d             = newDispatcher(t, nil)
		bases, nBasis = meshBases(t, 2, 2)
	)
	K1, err := d.AssembleScalarProblem("Laplacian", false, nBasis, bases, bases)
	require.NoError(t, err)
	{ // A new snapshot leaves the original untouched
		d2, err := d.SetParameters(formulation.Parameters{"diffusivity": 2})
		require.NoError(t, err)
		K2, err := d2.AssembleScalarProblem("Laplacian", false, nBasis, bases, bases)
		require.NoError(t, err)
		K3, err := d.AssembleScalarProblem("Laplacian", false, nBasis, bases, bases)
		require.NoError(t, err)
		assert.True(t, utils.CSRIdentical(K1, K3))
		var scaled mat.Dense
		scaled.Scale(2, K1)
		assert.True(t, mat.EqualApprox(&scaled, K2, 1.e-14))
		assert.Equal(t, d.Options(), d2.Options())
	}
	{ // Per formulation parameters override shared ones
		d2, err := d.SetParameters(formulation.Parameters{
			"diffusivity": 2,
			"Laplacian":   map[string]interface{}{"diffusivity": 3},
		})
		require.NoError(t, err)
		f, err := d2.Formulation("Laplacian")
		require.NoError(t, err)
		assert.Equal(t, 3., f.(*formulation.Laplacian).Diffusivity())
	}
	{ // A partial per formulation override keeps the shared Poisson ratio
		d2, err := d.SetParameters(formulation.Parameters{
			"E":                0.5,
			"nu":               0.45,
			"LinearElasticity": map[string]interface{}{"E": 100},
		})
		require.NoError(t, err)
		f, err := d2.Formulation("LinearElasticity")
		require.NoError(t, err)
		lambda, mu := f.(*formulation.LinearElasticity).Lame()
		wantLambda, wantMu, err := formulation.LameFromYoung(100, 0.45)
		require.NoError(t, err)
		assert.InDelta(t, wantLambda, lambda, 1.e-9)
		assert.InDelta(t, wantMu, mu, 1.e-9)
	}
	{ // Invalid values are rejected
		for _, params := range []formulation.Parameters{
			{"diffusivity": "high"},
			{"nu": 0.7},
			{"elasticity_tensor": []interface{}{1., 2.}},
			{"Helmholtz": 3},
			{"k": math.NaN()},
			{"Helmholtz": map[string]interface{}{"k": math.Inf(1)}},
		} {
			d2, err := d.SetParameters(params)
			assert.True(t, errors.Is(err, ErrInvalidParameters), "%v", params)
			assert.Nil(t, d2)
		}
		_, err := NewDispatcher(nil, WithPartitioner("random"))
		assert.Error(t, err)
	}
}

func TestComputeScalarValue(t *testing.T) {
	var (
		d   = newDispatcher(t, formulation.Parameters{"lambda": 2, "mu": 1})
		ref = referenceTriangle(t)[0]
		pts = [][]float64{{0, 0}, {1, 0}, {0.25, 0.25}}
	)
	{ // Scalar formulations interpolate
		v, err := d.ComputeScalarValue("Laplacian", ref, pts, []float64{1, 2, 3})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1, 2, 1.75}, v, 1.e-15)
	}
	{ // Tensor formulations return the von Mises stress
		fun := []float64{0, 0, 1, 0, 0, 0} // u = (x, 0)
		want := math.Sqrt(16 - 8 + 4)
		for _, name := range []string{"LinearElasticity", "HookeLinearElasticity"} {
			v, err := d.ComputeScalarValue(name, ref, pts, fun)
			require.NoError(t, err)
			for _, s := range v {
				assert.InDelta(t, want, s, 1.e-13)
			}
		}
		v, err := d.ComputeScalarValue("SaintVenantElasticity", ref, pts, make([]float64, 6))
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0, 0, 0}, v, 0)
	}
	{ // No points, no values
		v, err := d.ComputeScalarValue("Laplacian", ref, nil, []float64{1, 2, 3})
		require.NoError(t, err)
		assert.Empty(t, v)
	}
}

func TestComputeRHS(t *testing.T) {
	var (
		d = newDispatcher(t, formulation.Parameters{"k": 2})
		x = []float64{0.3, 0.4}
	)
	scalar := autodiff.NewHessianPt(x, func(x []autodiff.Scalar2) []autodiff.Scalar2 {
		return []autodiff.Scalar2{autodiff.Add(autodiff.Mul(x[0], x[0]), autodiff.Mul(x[1], x[1]))}
	})
	rhs, err := d.ComputeRHS("Laplacian", scalar)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{4}, rhs, 1.e-14)
	rhs, err = d.ComputeRHS("Helmholtz", scalar)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{4 + 4*0.25}, rhs, 1.e-14)
	_, err = d.ComputeRHS("LinearElasticity", scalar)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}
