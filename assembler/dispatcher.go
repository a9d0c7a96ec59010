// Package assembler builds global sparse systems, energies, gradients and
// Hessians from element bases, dispatching on a formulation name.
package assembler

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/autodiff"
	"github.com/notargets/gofea/basis"
	"github.com/notargets/gofea/formulation"
)

type linearProblem interface {
	Assemble(isVolume bool, nBasis int, bases, gbases []basis.ElementBases) (*sparse.CSR, error)
}

type energyProblem interface {
	Energy(isVolume bool, bases, gbases []basis.ElementBases, displacement mat.Vector) (float64, error)
	Gradient(isVolume bool, nBasis int, bases, gbases []basis.ElementBases, displacement mat.Vector) (*mat.VecDense, error)
	Hessian(isVolume bool, nBasis int, bases, gbases []basis.ElementBases, displacement mat.Vector) (*sparse.CSR, error)
}

// registered is one formulation with its category
type registered struct {
	formulation formulation.Formulation
	scalar      bool
	linear      linearProblem // nil for nonlinear formulations
	energy      energyProblem // nil for linear formulations
}

// Dispatcher routes assembly requests to the formulation named in the
// request. A Dispatcher never changes after construction and is safe for
// concurrent use.
type Dispatcher struct {
	params  formulation.Parameters
	options Options

	laplacian        *LinearAssembler[*formulation.Laplacian]
	helmholtz        *LinearAssembler[*formulation.Helmholtz]
	linearElasticity *LinearAssembler[*formulation.LinearElasticity]
	hooke            *LinearAssembler[*formulation.HookeLinearElasticity]
	saintVenant      *NLAssembler[*formulation.SaintVenantElasticity]
}

// ScalarAssemblers lists the scalar formulations in registration order
func ScalarAssemblers() []string {
	return []string{formulation.LaplacianName, formulation.HelmholtzName}
}

// TensorAssemblers lists the tensor formulations in registration order
func TensorAssemblers() []string {
	return []string{
		formulation.LinearElasticityName,
		formulation.HookeLinearElasticityName,
		formulation.SaintVenantElasticityName,
	}
}

// Formulations lists every registered formulation
func Formulations() []string {
	return append(ScalarAssemblers(), TensorAssemblers()...)
}

// NewDispatcher configures every formulation from params. Keys at the top
// level apply to all formulations; a nested map under a formulation name
// applies to that formulation only, after the top level keys.
func NewDispatcher(params formulation.Parameters, opts ...Option) (d *Dispatcher, err error) {
	var (
		options = defaultOptions()
	)
	for _, opt := range opts {
		opt(&options)
	}
	if err = options.validate(); err != nil {
		return
	}
	d = &Dispatcher{
		params:           copyParameters(params),
		options:          options,
		laplacian:        NewLinearAssembler(formulation.NewLaplacian(), options),
		helmholtz:        NewLinearAssembler(formulation.NewHelmholtz(), options),
		linearElasticity: NewLinearAssembler(formulation.NewLinearElasticity(), options),
		hooke:            NewLinearAssembler(formulation.NewHookeLinearElasticity(), options),
		saintVenant:      NewNLAssembler(formulation.NewSaintVenantElasticity(), options),
	}
	for _, name := range Formulations() {
		var (
			reg, _ = d.lookup(name)
			f      = reg.formulation
			sub    formulation.Parameters
		)
		if err = f.SetParameters(d.params); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParameters, name, err)
		}
		if sub, err = d.params.Sub(name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
		}
		if err = f.SetParameters(sub); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParameters, name, err)
		}
	}
	return
}

func copyParameters(params formulation.Parameters) (cp formulation.Parameters) {
	cp = make(formulation.Parameters, len(params))
	for k, v := range params {
		cp[k] = v
	}
	return
}

// lookup is the single dispatch point over the closed formulation set
func (d *Dispatcher) lookup(name string) (reg registered, err error) {
	switch name {
	case formulation.LaplacianName:
		reg = registered{d.laplacian.Formulation, true, d.laplacian, nil}
	case formulation.HelmholtzName:
		reg = registered{d.helmholtz.Formulation, true, d.helmholtz, nil}
	case formulation.LinearElasticityName:
		reg = registered{d.linearElasticity.Formulation, false, d.linearElasticity, nil}
	case formulation.HookeLinearElasticityName:
		reg = registered{d.hooke.Formulation, false, d.hooke, nil}
	case formulation.SaintVenantElasticityName:
		reg = registered{d.saintVenant.Formulation, false, nil, d.saintVenant}
	default:
		err = unknownFormulation(name)
	}
	return
}

// SetParameters returns a new Dispatcher configured with params. The
// receiver is left untouched.
func (d *Dispatcher) SetParameters(params formulation.Parameters) (*Dispatcher, error) {
	var (
		opts = []Option{
			WithParallelDegree(d.options.ParallelDegree),
			WithPartitioner(d.options.Partitioner),
			WithVerbose(d.options.Verbose),
		}
	)
	return NewDispatcher(params, opts...)
}

// Parameters returns a copy of the parameters the Dispatcher was built with
func (d *Dispatcher) Parameters() formulation.Parameters {
	return copyParameters(d.params)
}

// Options returns the assembly options shared by every formulation
func (d *Dispatcher) Options() Options { return d.options }

// Formulation returns the configured formulation registered under name
func (d *Dispatcher) Formulation(name string) (formulation.Formulation, error) {
	reg, err := d.lookup(name)
	return reg.formulation, err
}

// IsLinear reports whether name assembles a matrix rather than an energy
func (d *Dispatcher) IsLinear(name string) (bool, error) {
	reg, err := d.lookup(name)
	if err != nil {
		return false, err
	}
	return reg.linear != nil, nil
}

// IsScalar reports whether name has one unknown per basis
func (d *Dispatcher) IsScalar(name string) (bool, error) {
	reg, err := d.lookup(name)
	if err != nil {
		return false, err
	}
	return reg.scalar, nil
}

// AssembleScalarProblem returns the nBasis square stiffness matrix of a
// scalar linear formulation
func (d *Dispatcher) AssembleScalarProblem(name string, isVolume bool, nBasis int,
	bases, gbases []basis.ElementBases) (*sparse.CSR, error) {
	reg, err := d.lookup(name)
	if err != nil {
		return nil, err
	}
	if !reg.scalar || reg.linear == nil {
		return nil, categoryMismatch(name, "scalar linear")
	}
	return reg.linear.Assemble(isVolume, nBasis, bases, gbases)
}

// AssembleTensorProblem returns the nBasis*dim square stiffness matrix of a
// tensor linear formulation, DOFs interleaved as global*dim + component
func (d *Dispatcher) AssembleTensorProblem(name string, isVolume bool, nBasis int,
	bases, gbases []basis.ElementBases) (*sparse.CSR, error) {
	reg, err := d.lookup(name)
	if err != nil {
		return nil, err
	}
	if reg.scalar || reg.linear == nil {
		return nil, categoryMismatch(name, "tensor linear")
	}
	return reg.linear.Assemble(isVolume, nBasis, bases, gbases)
}

func (d *Dispatcher) energyProblem(name string) (energyProblem, error) {
	reg, err := d.lookup(name)
	if err != nil {
		return nil, err
	}
	if reg.energy == nil {
		return nil, categoryMismatch(name, "nonlinear")
	}
	return reg.energy, nil
}

// AssembleTensorEnergy returns the total energy of a nonlinear formulation
// at the displacement
func (d *Dispatcher) AssembleTensorEnergy(name string, isVolume bool,
	bases, gbases []basis.ElementBases, displacement mat.Vector) (float64, error) {
	ep, err := d.energyProblem(name)
	if err != nil {
		return 0, err
	}
	return ep.Energy(isVolume, bases, gbases, displacement)
}

// AssembleTensorEnergyGradient returns the derivative of the energy with
// respect to every DOF
func (d *Dispatcher) AssembleTensorEnergyGradient(name string, isVolume bool, nBasis int,
	bases, gbases []basis.ElementBases, displacement mat.Vector) (*mat.VecDense, error) {
	ep, err := d.energyProblem(name)
	if err != nil {
		return nil, err
	}
	return ep.Gradient(isVolume, nBasis, bases, gbases, displacement)
}

// AssembleTensorEnergyHessian returns the symmetric second derivative of the
// energy
func (d *Dispatcher) AssembleTensorEnergyHessian(name string, isVolume bool, nBasis int,
	bases, gbases []basis.ElementBases, displacement mat.Vector) (*sparse.CSR, error) {
	ep, err := d.energyProblem(name)
	if err != nil {
		return nil, err
	}
	return ep.Hessian(isVolume, nBasis, bases, gbases, displacement)
}

// ComputeScalarValue evaluates the scalar quantity of a formulation at the
// reference points localPts of one element: the field itself for scalar
// formulations, the von Mises stress for tensor ones. fun holds the
// element's local coefficients, component interleaved. bs also serves as
// geometric basis.
func (d *Dispatcher) ComputeScalarValue(name string, bs basis.ElementBases, localPts [][]float64,
	fun []float64) (res []float64, err error) {
	var (
		reg  registered
		vals *basis.AssemblyValues
	)
	if reg, err = d.lookup(name); err != nil {
		return
	}
	if len(localPts) == 0 {
		return []float64{}, nil
	}
	var (
		dim  = len(localPts[0])
		size = reg.formulation.Size(dim)
	)
	if err = reg.formulation.Validate(dim); err != nil {
		return nil, shapeMismatch("%v", err)
	}
	if err = bs.Check(dim, -1); err != nil {
		return nil, shapeMismatch("%v", err)
	}
	if len(fun) != bs.NumBases()*size {
		return nil, shapeMismatch("have %d local values for %d bases of size %d",
			len(fun), bs.NumBases(), size)
	}
	if vals, err = basis.EvaluateAt(dim, localPts, nil, bs, bs); err != nil {
		return nil, shapeMismatch("%v", err)
	}
	res = reg.formulation.ComputeScalarValue(vals, fun)
	return
}

// ComputeRHS applies the strong form operator of a formulation to the exact
// solution held in pt
func (d *Dispatcher) ComputeRHS(name string, pt autodiff.HessianPt) (res []float64, err error) {
	var (
		reg registered
	)
	if reg, err = d.lookup(name); err != nil {
		return
	}
	if res, err = reg.formulation.ComputeRHS(pt); err != nil {
		return nil, shapeMismatch("%s: %v", name, err)
	}
	return
}
