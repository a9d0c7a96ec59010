package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/gofea/assembler"
	"github.com/notargets/gofea/formulation"
	"github.com/notargets/gofea/problem"
	"github.com/notargets/gofea/solver"
)

// MeshParameters describes the structured simplex mesh on the unit square
// (Dim 2) or cube (Dim 3) with N cells per side
type MeshParameters struct {
	Dim int `json:"Dim"`
	N   int `json:"N"`
}

// Simulation holds the parameters obtained from the YAML input file. ghodss/yaml
// converts YAML to JSON before decoding, so the json tags name the keys.
type Simulation struct {
	Title          string                 `json:"Title"`
	Formulation    string                 `json:"Formulation"`
	Problem        string                 `json:"Problem"`
	Solver         string                 `json:"Solver"`
	Mesh           MeshParameters         `json:"Mesh"`
	Time           float64                `json:"Time"` // time at which loads and boundary values are evaluated
	Params         map[string]interface{} `json:"Params"`
	ProblemParams  map[string]interface{} `json:"ProblemParams"`
	SolverParams   map[string]interface{} `json:"SolverParams"`
	ParallelDegree int                    `json:"ParallelDegree"` // 0 uses every CPU
	Partitioner    string                 `json:"Partitioner"`
	Verbose        bool                   `json:"Verbose"`
}

// NewSimulation returns the defaults that Parse overlays
func NewSimulation() *Simulation {
	return &Simulation{
		Title:       "gofea",
		Formulation: formulation.LaplacianName,
		Problem:     "Manufactured",
		Solver:      "SparseLU",
		Mesh:        MeshParameters{Dim: 2, N: 8},
		Time:        1,
		Partitioner: assembler.PartitionContiguous,
	}
}

func (sim *Simulation) Parse(data []byte) error {
	return yaml.Unmarshal(data, sim)
}

func (sim *Simulation) IsVolume() bool { return sim.Mesh.Dim == 3 }

// AssemblerOptions translates the execution settings for the dispatcher
func (sim *Simulation) AssemblerOptions() (opts []assembler.Option) {
	opts = append(opts, assembler.WithPartitioner(sim.Partitioner), assembler.WithVerbose(sim.Verbose))
	if sim.ParallelDegree > 0 {
		opts = append(opts, assembler.WithParallelDegree(sim.ParallelDegree))
	}
	return
}

// NewDispatcher builds the dispatcher configured by Params
func (sim *Simulation) NewDispatcher() (*assembler.Dispatcher, error) {
	return assembler.NewDispatcher(formulation.Parameters(sim.Params), sim.AssemblerOptions()...)
}

// NewProblem allocates and configures the problem. A manufactured problem
// takes the field type of the formulation unless ProblemParams sets it.
func (sim *Simulation) NewProblem() (p problem.Problem, err error) {
	var (
		params = formulation.Parameters{}
	)
	if p, err = problem.New(sim.Problem); err != nil {
		return
	}
	for k, v := range sim.ProblemParams {
		params[k] = v
	}
	if _, ok := p.(*problem.Manufactured); ok && !params.Has("scalar") {
		params["scalar"] = isScalarFormulation(sim.Formulation)
	}
	if err = p.SetParameters(params); err != nil {
		err = fmt.Errorf("problem %s: %w", sim.Problem, err)
	}
	return
}

// NewSolver allocates and configures the linear solver
func (sim *Simulation) NewSolver() (s solver.LinearSolver, err error) {
	if s, err = solver.New(sim.Solver); err != nil {
		return
	}
	if err = s.SetParameters(formulation.Parameters(sim.SolverParams)); err != nil {
		err = fmt.Errorf("solver %s: %w", sim.Solver, err)
	}
	return
}

func isScalarFormulation(name string) bool {
	for _, n := range assembler.ScalarAssemblers() {
		if n == name {
			return true
		}
	}
	return false
}

// Validate rejects an inconsistent simulation before any work is done
func (sim *Simulation) Validate() (err error) {
	var (
		d *assembler.Dispatcher
		p problem.Problem
	)
	if sim.Mesh.Dim != 2 && sim.Mesh.Dim != 3 {
		return fmt.Errorf("mesh dimension must be 2 or 3, have %d", sim.Mesh.Dim)
	}
	if sim.Mesh.N < 1 {
		return fmt.Errorf("mesh resolution must be positive, have %d", sim.Mesh.N)
	}
	if d, err = sim.NewDispatcher(); err != nil {
		return
	}
	var scalar bool
	if scalar, err = d.IsScalar(sim.Formulation); err != nil {
		return
	}
	if f, _ := d.Formulation(sim.Formulation); f != nil {
		if err = f.Validate(sim.Mesh.Dim); err != nil {
			return
		}
	}
	if p, err = sim.NewProblem(); err != nil {
		return
	}
	if p.IsScalar() != scalar {
		return fmt.Errorf("%w: problem %s has a %s unknown, formulation %s a %s one",
			assembler.ErrCategoryMismatch, sim.Problem, fieldKind(p.IsScalar()),
			sim.Formulation, fieldKind(scalar))
	}
	if _, err = sim.NewSolver(); err != nil {
		return
	}
	return
}

func fieldKind(scalar bool) string {
	if scalar {
		return "scalar"
	}
	return "vector"
}

func printParams(label string, params map[string]interface{}) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%s[%s] = %v\n", label, key, params[key])
	}
}

func (sim *Simulation) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", sim.Title)
	fmt.Printf("[%s]\t= Formulation\n", sim.Formulation)
	fmt.Printf("[%s]\t= Problem\n", sim.Problem)
	fmt.Printf("[%s]\t\t= Solver\n", sim.Solver)
	fmt.Printf("[%dD, N=%d]\t\t= Mesh\n", sim.Mesh.Dim, sim.Mesh.N)
	fmt.Printf("%8.5f\t\t= Time\n", sim.Time)
	printParams("Params", sim.Params)
	printParams("ProblemParams", sim.ProblemParams)
	printParams("SolverParams", sim.SolverParams)
}
