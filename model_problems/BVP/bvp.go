package BVP

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/InputParameters"
	"github.com/notargets/gofea/assembler"
	"github.com/notargets/gofea/basis"
	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/problem"
	"github.com/notargets/gofea/solver"
	"github.com/notargets/gofea/utils"
)

// BVP is a static boundary value problem on a structured simplex mesh,
// discretized with linear elements
type BVP struct {
	Sim        *InputParameters.Simulation
	Mesh       *mesh.Simplex
	Bases      []basis.ElementBases // one per element, also the geometric bases
	NBasis     int
	Dim, Size  int // spatial dimension and DOFs per basis
	Linear     bool
	Dispatcher *assembler.Dispatcher
	Problem    problem.Problem
	Solver     solver.LinearSolver
}

// Result of a run. Linear runs fill the solution fields, nonlinear runs the
// energy fields evaluated at the Dirichlet lift.
type Result struct {
	U              []float64 // DOFs interleaved as basis*Size + component
	Info           solver.Info
	NNZ            int
	MaxNodalError  float64 // against the exact solution, NaN when unknown
	MaxScalarValue float64 // largest element centroid value of the formulation's scalar
	Energy         float64
	GradientNorm   float64
	Elapsed        time.Duration
}

func NewBVP(sim *InputParameters.Simulation) (b *BVP, err error) {
	if err = sim.Validate(); err != nil {
		return
	}
	b = &BVP{Sim: sim, Dim: sim.Mesh.Dim}
	if b.Dim == 3 {
		b.Mesh, err = mesh.NewUnitCube(sim.Mesh.N)
	} else {
		b.Mesh, err = mesh.NewUnitSquare(sim.Mesh.N)
	}
	if err != nil {
		return nil, err
	}
	if b.Bases, b.NBasis, err = basis.NewP1Bases(b.Mesh); err != nil {
		return nil, err
	}
	if b.Dispatcher, err = sim.NewDispatcher(); err != nil {
		return nil, err
	}
	if b.Linear, err = b.Dispatcher.IsLinear(sim.Formulation); err != nil {
		return nil, err
	}
	b.Size = 1
	if scalar, _ := b.Dispatcher.IsScalar(sim.Formulation); !scalar {
		b.Size = b.Dim
	}
	if b.Problem, err = sim.NewProblem(); err != nil {
		return nil, err
	}
	if mf, ok := b.Problem.(*problem.Manufactured); ok {
		mf.BindRHS(b.Dispatcher.ComputeRHS)
	}
	if b.Solver, err = sim.NewSolver(); err != nil {
		return nil, err
	}
	if sim.Verbose {
		fmt.Printf("%s on the unit %s, %d elements, %d bases\n", sim.Formulation,
			map[int]string{2: "square", 3: "cube"}[b.Dim], b.Mesh.NumElements(), b.NBasis)
		fmt.Printf("Problem %s, linear solver %s\n", b.Problem.Name(), b.Solver.Name())
	}
	return
}

func (b *BVP) NumDOFs() int { return b.NBasis * b.Size }

// AssembleSystem returns the global matrix and the load vector
// f_(ia) = -int rhs_a phi_i, rhs being the strong operator applied by the
// problem's load
func (b *BVP) AssembleSystem() (K *sparse.CSR, f []float64, err error) {
	var (
		name = b.Sim.Formulation
	)
	if b.Size == 1 {
		K, err = b.Dispatcher.AssembleScalarProblem(name, b.Mesh.IsVolume(), b.NBasis, b.Bases, b.Bases)
	} else {
		K, err = b.Dispatcher.AssembleTensorProblem(name, b.Mesh.IsVolume(), b.NBasis, b.Bases, b.Bases)
	}
	if err != nil {
		return
	}
	f, err = b.LoadVector()
	return
}

// LoadVector integrates the problem's load against every basis, element by
// element in index order
func (b *BVP) LoadVector() (f []float64, err error) {
	f = make([]float64, b.NumDOFs())
	for e, eb := range b.Bases {
		var (
			vals *basis.AssemblyValues
			load *mat.Dense
		)
		if vals, err = basis.NewAssemblyValues(b.Dim, eb, eb); err != nil {
			return nil, fmt.Errorf("element %d: %w", e, err)
		}
		pts := mat.NewDense(vals.NumPoints(), b.Dim, nil)
		for q, x := range vals.X {
			pts.SetRow(q, x)
		}
		if load, err = b.Problem.RHS(b.Sim.Formulation, pts, b.Sim.Time); err != nil {
			return nil, fmt.Errorf("element %d: %w", e, err)
		}
		if _, c := load.Dims(); c != b.Size {
			return nil, fmt.Errorf("problem %s returned %d load components, need %d",
				b.Problem.Name(), c, b.Size)
		}
		da := vals.Measure()
		for i, g := range vals.Global {
			for a := 0; a < b.Size; a++ {
				var sum float64
				for q, w := range da {
					sum += w * vals.Val[i][q] * load.At(q, a)
				}
				f[g*b.Size+a] -= sum
			}
		}
	}
	return
}

// boundaryTags returns the problem's Dirichlet tags, every tag in the mesh
// when the problem names none
func (b *BVP) boundaryTags() (tags []int) {
	if tags = b.Problem.BoundaryIDs(); len(tags) != 0 {
		return
	}
	seen := map[int]bool{}
	for _, t := range b.Mesh.Tags {
		if t != 0 && !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	sort.Ints(tags)
	return
}

// Dirichlet returns the fixed DOFs, ascending, with their values
func (b *BVP) Dirichlet() (dofs []int, vals []float64, err error) {
	var (
		ids = b.Mesh.BoundaryVertices(b.boundaryTags())
		bc  *mat.Dense
	)
	if len(ids) == 0 {
		return
	}
	pts := mat.NewDense(len(ids), b.Dim, nil)
	for i, id := range ids {
		pts.SetRow(i, b.Mesh.Vertices[id])
	}
	// Vertex bases have no single reference point, uv is not supplied
	if bc, err = b.Problem.BC(b.Mesh, ids, nil, pts, b.Sim.Time); err != nil {
		return
	}
	if _, c := bc.Dims(); c != b.Size {
		err = fmt.Errorf("problem %s returned %d boundary components, need %d",
			b.Problem.Name(), c, b.Size)
		return
	}
	for i, id := range ids {
		for a := 0; a < b.Size; a++ {
			dofs = append(dofs, id*b.Size+a)
			vals = append(vals, bc.At(i, a))
		}
	}
	return
}

// Run solves a linear problem, or evaluates the energy of a nonlinear one at
// the Dirichlet lift
func (b *BVP) Run() (res *Result, err error) {
	start := time.Now()
	if b.Linear {
		res, err = b.solveLinear()
	} else {
		res, err = b.evaluateEnergy()
	}
	if res != nil {
		res.Elapsed = time.Since(start)
		if b.Sim.Verbose {
			b.Print(res)
		}
	}
	return
}

func (b *BVP) solveLinear() (res *Result, err error) {
	var (
		K     *sparse.CSR
		f     []float64
		dofs  []int
		fixed []float64
	)
	if K, f, err = b.AssembleSystem(); err != nil {
		return
	}
	if dofs, fixed, err = b.Dirichlet(); err != nil {
		return
	}
	Kd, fd := ApplyDirichlet(K, f, dofs, fixed)
	res = &Result{NNZ: K.NNZ()}
	res.U, res.Info, err = b.Solver.Solve(Kd, fd)
	if res.U == nil {
		return nil, err
	}
	if utils.IsNan(res.U) {
		return nil, fmt.Errorf("solver %s produced NaN, check the boundary conditions", b.Solver.Name())
	}
	// A non converged iterate is still reported, along with err
	res.MaxNodalError = b.maxNodalError(res.U)
	if sv, serr := b.maxScalarValue(res.U); serr == nil {
		res.MaxScalarValue = sv
	} else if err == nil {
		err = serr
	}
	return
}

func (b *BVP) evaluateEnergy() (res *Result, err error) {
	var (
		name     = b.Sim.Formulation
		isVolume = b.Mesh.IsVolume()
		dofs     []int
		fixed    []float64
		grad     *mat.VecDense
		H        *sparse.CSR
	)
	if dofs, fixed, err = b.Dirichlet(); err != nil {
		return
	}
	lift := mat.NewVecDense(b.NumDOFs(), nil)
	for k, dof := range dofs {
		lift.SetVec(dof, fixed[k])
	}
	res = &Result{U: lift.RawVector().Data, MaxNodalError: math.NaN()}
	if res.Energy, err = b.Dispatcher.AssembleTensorEnergy(name, isVolume, b.Bases, b.Bases, lift); err != nil {
		return nil, err
	}
	if grad, err = b.Dispatcher.AssembleTensorEnergyGradient(name, isVolume, b.NBasis, b.Bases, b.Bases, lift); err != nil {
		return nil, err
	}
	res.GradientNorm = mat.Norm(grad, 2)
	if H, err = b.Dispatcher.AssembleTensorEnergyHessian(name, isVolume, b.NBasis, b.Bases, b.Bases, lift); err != nil {
		return nil, err
	}
	res.NNZ = H.NNZ()
	if res.MaxScalarValue, err = b.maxScalarValue(res.U); err != nil {
		return nil, err
	}
	return
}

func (b *BVP) maxNodalError(u []float64) float64 {
	ex, ok := b.Problem.(problem.Exact)
	if !ok {
		return math.NaN()
	}
	pts := mat.NewDense(b.NBasis, b.Dim, nil)
	for v, x := range b.Mesh.Vertices {
		pts.SetRow(v, x)
	}
	exact, err := ex.Exact(pts)
	if err != nil {
		return math.NaN()
	}
	diff := make([]float64, len(u))
	for v := 0; v < b.NBasis; v++ {
		for a := 0; a < b.Size; a++ {
			diff[v*b.Size+a] = u[v*b.Size+a] - exact.At(v, a)
		}
	}
	return floats.Norm(diff, math.Inf(1))
}

// maxScalarValue evaluates the formulation's scalar at every element centroid
func (b *BVP) maxScalarValue(u []float64) (maxVal float64, err error) {
	var (
		centroid = make([]float64, b.Dim)
	)
	for d := range centroid {
		centroid[d] = 1 / float64(b.Dim+1)
	}
	maxVal = math.Inf(-1)
	for _, eb := range b.Bases {
		local := make([]float64, 0, eb.NumBases()*b.Size)
		for _, g := range eb.GlobalIDs() {
			local = append(local, u[g*b.Size:(g+1)*b.Size]...)
		}
		var v []float64
		if v, err = b.Dispatcher.ComputeScalarValue(b.Sim.Formulation, eb, [][]float64{centroid}, local); err != nil {
			return
		}
		maxVal = math.Max(maxVal, v[0])
	}
	return
}

func (b *BVP) Print(res *Result) {
	fmt.Printf("Non-zeros = %d, Elapsed = %v\n", res.NNZ, res.Elapsed)
	if b.Linear {
		fmt.Printf("Iterations = %d, Final Relative Residual Norm = %g\n",
			res.Info.Iterations, res.Info.FinalResNorm)
		if !math.IsNaN(res.MaxNodalError) {
			fmt.Printf("Max Nodal Error = %g\n", res.MaxNodalError)
		}
	} else {
		fmt.Printf("Energy = %g, |Gradient| = %g\n", res.Energy, res.GradientNorm)
	}
	fmt.Printf("Max Scalar Value = %g\n", res.MaxScalarValue)
	fmt.Println(utils.GetMemUsage())
}
