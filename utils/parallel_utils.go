package utils

// PartitionMap splits MaxIndex items (elements) into ParallelDegree
// contiguous buckets whose sizes differ by at most one.
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int // [begin, end) of each bucket
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for np := 0; np < ParallelDegree; np++ {
		pm.Partitions[np] = pm.Split1D(np)
	}
	return
}

// Split1D returns the range of bucket np; the remainder of the division is
// spread one item at a time over the leading buckets.
func (pm *PartitionMap) Split1D(np int) (bucket [2]int) {
	var (
		size      = pm.MaxIndex / pm.ParallelDegree
		remainder = pm.MaxIndex % pm.ParallelDegree
		shift     = np
	)
	if np >= remainder {
		shift = remainder
	}
	bucket[0] = np*size + shift
	bucket[1] = bucket[0] + size
	if np < remainder {
		bucket[1]++
	}
	return
}

func (pm *PartitionMap) GetBucketRange(bn int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bn][0], pm.Partitions[bn][1]
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) int {
	kMin, kMax := pm.GetBucketRange(bn)
	return kMax - kMin
}

// Buckets lists the items of every bucket, in ascending order
func (pm *PartitionMap) Buckets() (buckets [][]int) {
	buckets = make([][]int, pm.ParallelDegree)
	for bn := range buckets {
		kMin, kMax := pm.GetBucketRange(bn)
		buckets[bn] = make([]int, 0, kMax-kMin)
		for k := kMin; k < kMax; k++ {
			buckets[bn] = append(buckets[bn], k)
		}
	}
	return
}
