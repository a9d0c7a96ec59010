package problem

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofea/formulation"
	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/utils"
)

func init() {
	SetAllocator("DrivenCavity", func(name string) Problem { return NewDrivenCavity(name) })
	SetAllocator("Flow", func(name string) Problem { return NewFlow(name) })
	SetAllocator("TimeDependentFlow", func(name string) Problem { return NewTimeDependentFlow(name) })
}

// DrivenCavity is the lid driven cavity: the lid (boundary 1) moves
// tangentially with a speed ramped linearly in time
type DrivenCavity struct {
	name string
}

func NewDrivenCavity(name string) *DrivenCavity { return &DrivenCavity{name: name} }

func (dc *DrivenCavity) Name() string   { return dc.name }
func (dc *DrivenCavity) IsScalar() bool { return false }

func (dc *DrivenCavity) SetParameters(formulation.Parameters) error { return nil }

func (dc *DrivenCavity) BoundaryIDs() []int { return nil }

func (dc *DrivenCavity) RHS(_ string, pts *mat.Dense, _ float64) (*mat.Dense, error) {
	_, c := pts.Dims()
	return zeros(pts, c), nil
}

func (dc *DrivenCavity) BC(m mesh.Mesh, globalIDs []int, _, pts *mat.Dense, t float64) (val *mat.Dense, err error) {
	var (
		r, c = pts.Dims()
	)
	if len(globalIDs) != r {
		err = fmt.Errorf("have %d points and %d global ids", r, len(globalIDs))
		return
	}
	if c < 2 {
		err = fmt.Errorf("driven cavity needs at least 2 dimensions, have %d", c)
		return
	}
	val = zeros(pts, c)
	for i, id := range globalIDs {
		if m.BoundaryID(id) == 1 {
			val.Set(i, 1, 0.25*t)
		}
	}
	return
}

// Flow drives a channel flow between an inflow and an outflow boundary.
// Obstacle boundaries carry a no slip condition.
type Flow struct {
	name            string
	boundaryIDs     []int
	inflow, outflow int
	direction       int
	inflowAmount    float64
	outflowAmount   float64
}

func NewFlow(name string) *Flow {
	return &Flow{
		name:          name,
		boundaryIDs:   []int{1, 3, 7},
		inflow:        1,
		outflow:       3,
		direction:     0,
		inflowAmount:  0.25,
		outflowAmount: 0.25,
	}
}

func (fl *Flow) Name() string   { return fl.name }
func (fl *Flow) IsScalar() bool { return false }

func (fl *Flow) BoundaryIDs() []int { return append([]int(nil), fl.boundaryIDs...) }

// SetParameters reads inflow, outflow, direction, inflow_amout, outflow_amout
// and obstacle. The Dirichlet boundaries become the obstacle ids together
// with the inflow and outflow ids, sorted and unique.
func (fl *Flow) SetParameters(params formulation.Parameters) (err error) {
	var (
		next = *fl
	)
	if next.inflow, err = params.Int("inflow", fl.inflow); err != nil {
		return
	}
	if next.outflow, err = params.Int("outflow", fl.outflow); err != nil {
		return
	}
	if next.direction, err = params.Int("direction", fl.direction); err != nil {
		return
	}
	if next.direction < 0 || next.direction > 2 {
		return fmt.Errorf("flow direction must be 0, 1 or 2, have %d", next.direction)
	}
	if next.inflowAmount, err = params.Float("inflow_amout", fl.inflowAmount); err != nil {
		return
	}
	if next.outflowAmount, err = params.Float("outflow_amout", fl.outflowAmount); err != nil {
		return
	}
	var (
		obstacle []interface{}
		ids      []int
	)
	if obstacle, _, err = params.List("obstacle"); err != nil {
		return
	}
	for _, spec := range obstacle {
		var r []int
		if r, err = utils.ParseIDRange(spec); err != nil {
			return fmt.Errorf("obstacle: %w", err)
		}
		ids = append(ids, r...)
	}
	next.boundaryIDs = sortedUnique(append(ids, next.inflow, next.outflow))
	*fl = next
	return
}

func sortedUnique(ids []int) (res []int) {
	sort.Ints(ids)
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			res = append(res, id)
		}
	}
	return
}

func (fl *Flow) RHS(_ string, pts *mat.Dense, _ float64) (*mat.Dense, error) {
	_, c := pts.Dims()
	return zeros(pts, c), nil
}

func (fl *Flow) BC(m mesh.Mesh, globalIDs []int, _, pts *mat.Dense, t float64) (val *mat.Dense, err error) {
	var (
		r, c = pts.Dims()
	)
	if len(globalIDs) != r {
		err = fmt.Errorf("have %d points and %d global ids", r, len(globalIDs))
		return
	}
	if fl.direction >= c {
		err = fmt.Errorf("flow direction %d is out of range in %d dimensions", fl.direction, c)
		return
	}
	val = zeros(pts, c)
	for i, id := range globalIDs {
		switch m.BoundaryID(id) {
		case fl.inflow:
			val.Set(i, fl.direction, fl.inflowAmount*t)
		case fl.outflow:
			val.Set(i, fl.direction, fl.outflowAmount*t)
		}
	}
	return
}

// TimeDependentFlow is Flow started from rest
type TimeDependentFlow struct {
	*Flow
}

func NewTimeDependentFlow(name string) *TimeDependentFlow {
	return &TimeDependentFlow{Flow: NewFlow(name)}
}

func (tf *TimeDependentFlow) InitialSolution(pts *mat.Dense) *mat.Dense {
	_, c := pts.Dims()
	return zeros(pts, c)
}
