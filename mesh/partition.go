package mesh

import (
	"fmt"
	"log"
	"sort"

	metis "github.com/notargets/go-metis"
)

// PartitionConfig holds configuration for element partitioning
type PartitionConfig struct {
	NumPartitions   int32
	ImbalanceFactor float32 // e.g., 1.05 for 5% imbalance
	Objective       string  // "cut" or "vol"
	Verbose         bool
}

// DefaultPartitionConfig returns default partitioning configuration
func DefaultPartitionConfig(nparts int32) *PartitionConfig {
	return &PartitionConfig{
		NumPartitions:   nparts,
		ImbalanceFactor: 1.05,
		Objective:       "cut", // elements sharing a face share DOFs, minimize shared faces
	}
}

// ElementGraph builds the dual graph of a connectivity table in CSR form:
// two elements are adjacent when they share at least minShared nodes.
// Neighbor lists are sorted so the graph is reproducible.
func ElementGraph(conn [][]int, minShared int) (xadj, adjncy []int32) {
	var (
		ne          = len(conn)
		nodeToElems = make(map[int][]int)
	)
	if minShared < 1 {
		minShared = 1
	}
	for e, nodes := range conn {
		for _, n := range nodes {
			nodeToElems[n] = append(nodeToElems[n], e)
		}
	}
	xadj = make([]int32, ne+1)
	for e, nodes := range conn {
		shared := make(map[int]int)
		for _, n := range nodes {
			for _, other := range nodeToElems[n] {
				if other != e {
					shared[other]++
				}
			}
		}
		var nbrs []int
		for other, count := range shared {
			if count >= minShared {
				nbrs = append(nbrs, other)
			}
		}
		sort.Ints(nbrs)
		for _, other := range nbrs {
			adjncy = append(adjncy, int32(other))
		}
		xadj[e+1] = int32(len(adjncy))
	}
	return
}

// PartitionElements assigns each element of conn to one of
// config.NumPartitions parts with METIS k-way partitioning of the face
// adjacency graph, and returns the element ids of each part in ascending
// order.
func PartitionElements(conn [][]int, config *PartitionConfig) (parts [][]int, err error) {
	var (
		ne     = len(conn)
		nparts = int(config.NumPartitions)
	)
	if nparts < 1 {
		err = fmt.Errorf("number of partitions must be positive, have %d", nparts)
		return
	}
	parts = make([][]int, nparts)
	if nparts == 1 || ne <= nparts {
		for e := 0; e < ne; e++ {
			parts[e%nparts] = append(parts[e%nparts], e)
		}
		return
	}
	minShared := 1
	if ne > 0 && len(conn[0]) > 1 {
		minShared = len(conn[0]) - 1 // a simplex face has all but one node
	}
	xadj, adjncy := ElementGraph(conn, minShared)

	opts := make([]int32, metis.NoOptions)
	if err = metis.SetDefaultOptions(opts); err != nil {
		err = fmt.Errorf("failed to set METIS options: %w", err)
		return
	}
	if config.Objective == "vol" {
		opts[metis.OptionObjType] = metis.ObjTypeVol
	} else {
		opts[metis.OptionObjType] = metis.ObjTypeCut
	}
	ubvec := []float32{config.ImbalanceFactor}

	part, objval, err := metis.PartGraphKwayWeighted(
		xadj, adjncy, nil, nil,
		config.NumPartitions, nil, ubvec, opts,
	)
	if err != nil {
		err = fmt.Errorf("METIS partitioning failed: %w", err)
		return
	}
	for e := 0; e < ne; e++ {
		p := int(part[e])
		if p < 0 || p >= nparts {
			err = fmt.Errorf("METIS returned part %d for element %d, have %d parts", p, e, nparts)
			return
		}
		parts[p] = append(parts[p], e)
	}
	if config.Verbose {
		log.Printf("Partitioned %d elements into %d parts, objective = %d", ne, nparts, objval)
	}
	return
}
