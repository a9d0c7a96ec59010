package assembler

import (
	"fmt"
	"runtime"
)

// Element partitioners
const (
	PartitionContiguous = "contiguous"
	PartitionMETIS      = "metis"
)

// Options controls how the element loop is executed. Results do not depend
// on any of them.
type Options struct {
	ParallelDegree int
	Partitioner    string
	Verbose        bool
}

type Option func(*Options)

func defaultOptions() Options {
	return Options{
		ParallelDegree: runtime.NumCPU(),
		Partitioner:    PartitionContiguous,
	}
}

// WithParallelDegree sets the number of concurrent element buckets, values
// below 1 run serially
func WithParallelDegree(n int) Option {
	return func(o *Options) {
		if n < 1 {
			n = 1
		}
		o.ParallelDegree = n
	}
}

// WithPartitioner selects how elements are split into buckets: contiguous
// index ranges or METIS partitions of the element adjacency graph
func WithPartitioner(name string) Option {
	return func(o *Options) { o.Partitioner = name }
}

func WithVerbose(verbose bool) Option {
	return func(o *Options) { o.Verbose = verbose }
}

func (o Options) validate() error {
	switch o.Partitioner {
	case PartitionContiguous, PartitionMETIS:
		return nil
	default:
		return fmt.Errorf("unknown partitioner %q, valid partitioners are: %s, %s",
			o.Partitioner, PartitionContiguous, PartitionMETIS)
	}
}
