package assembler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/notargets/gofea/basis"
	"github.com/notargets/gofea/mesh"
	"github.com/notargets/gofea/utils"
)

func dimension(isVolume bool) int {
	if isVolume {
		return 3
	}
	return 2
}

// buckets splits element indices into groups processed by one worker each
func (o Options) buckets(bases []basis.ElementBases) (buckets [][]int, err error) {
	var (
		ne = len(bases)
	)
	switch o.Partitioner {
	case PartitionMETIS:
		conn := make([][]int, ne)
		for e, eb := range bases {
			conn[e] = eb.GlobalIDs()
		}
		config := mesh.DefaultPartitionConfig(int32(o.ParallelDegree))
		config.Verbose = o.Verbose
		if buckets, err = mesh.PartitionElements(conn, config); err != nil {
			return
		}
	default:
		buckets = utils.NewPartitionMap(o.ParallelDegree, ne).Buckets()
	}
	return
}

// checkShapes validates the element data before any work is done
func checkShapes(dim, nBasis int, bases, gbases []basis.ElementBases) (err error) {
	if nBasis < 1 {
		return shapeMismatch("basis count must be positive, have %d", nBasis)
	}
	if len(bases) != len(gbases) {
		return shapeMismatch("have %d elements of bases and %d of geometric bases",
			len(bases), len(gbases))
	}
	for e := range bases {
		if err = bases[e].Check(dim, nBasis); err != nil {
			return shapeMismatch("element %d: %v", e, err)
		}
		if err = gbases[e].CheckGeometry(dim); err != nil {
			return shapeMismatch("element %d: %v", e, err)
		}
	}
	return
}

// forEachElement evaluates the assembly values of every element and calls
// fn with them. Elements of a bucket run in one goroutine; fn must only write
// to per-element storage. The error of the lowest failing element is
// returned.
func (o Options) forEachElement(dim int, bases, gbases []basis.ElementBases,
	fn func(e int, vals *basis.AssemblyValues) error) (err error) {
	var (
		buckets [][]int
		wg      = sync.WaitGroup{}
	)
	if buckets, err = o.buckets(bases); err != nil {
		return
	}
	var (
		errs    = make([]error, len(buckets))
		errElem = make([]int, len(buckets))
	)
	for np := range buckets {
		wg.Add(1)
		go func(np int) {
			var e int
			defer wg.Done()
			// A panicking basis function fails its element, not the process
			defer func() {
				if r := recover(); r != nil {
					errs[np] = shapeMismatch("evaluating element data: %v", r)
					errElem[np] = e
				}
			}()
			for _, e = range buckets[np] {
				vals, elemErr := basis.NewAssemblyValues(dim, bases[e], gbases[e])
				if errors.Is(elemErr, basis.ErrBasisShape) {
					elemErr = fmt.Errorf("%w: %w", ErrShapeMismatch, elemErr)
				}
				if elemErr == nil {
					elemErr = fn(e, vals)
				}
				if elemErr != nil {
					errs[np], errElem[np] = elemErr, e
					return
				}
			}
		}(np)
	}
	wg.Wait()
	first := -1
	for np, e := range errs {
		if e != nil && (first < 0 || errElem[np] < errElem[first]) {
			first = np
		}
	}
	if first >= 0 {
		err = fmt.Errorf("element %d: %w", errElem[first], errs[first])
	}
	return
}
