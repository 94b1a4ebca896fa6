package disttree

import (
	"golang.org/x/exp/slices"
)

// DefaultOversampling is the number of splitter candidates contributed per
// destination rank during a parallel sort.
const DefaultOversampling = 2

// SortKeys sorts keys in place in Morton order.
func SortKeys(keys []Key) {
	slices.SortFunc(keys, func(a, b Key) bool {
		return a.Less(b)
	})
}

// ParallelSortByKey globally sorts the ranks' points by Morton order using a
// sample sort: ranks contribute regular samples of their locally sorted
// points, rank 0 selects splitters, and points are exchanged so that rank r
// holds a contiguous globally sorted range which orders entirely before rank
// r+1's range.
//
// This is a collective operation. The returned slice replaces the caller's
// points.
func ParallelSortByKey(points []Point, comm Communicator) []Point {
	SortByKey(points)
	size := comm.Size()
	if size == 1 {
		return points
	}

	nsamples := DefaultOversampling * (size - 1)
	if nsamples > len(points) {
		nsamples = len(points)
	}
	samples := make([]Key, nsamples)
	for i := range samples {
		samples[i] = points[i*len(points)/nsamples].Key
	}

	gathered := comm.GatherKeys(samples, 0)
	var splitters []Key
	if comm.Rank() == 0 {
		var all []Key
		for _, s := range gathered {
			all = append(all, s...)
		}
		SortKeys(all)
		splitters = make([]Key, size-1)
		for i := range splitters {
			if len(all) > 0 {
				splitters[i] = all[(i+1)*len(all)/size]
			}
		}
	}
	splitters = comm.BroadcastKeys(splitters, 0)

	buckets := make([][]Point, size)
	bucket := 0
	for _, p := range points {
		for bucket < len(splitters) && !p.Key.Less(splitters[bucket]) {
			bucket++
		}
		buckets[bucket] = append(buckets[bucket], p)
	}

	merged := comm.AllToAllPoints(buckets)
	SortByKey(merged)
	return merged
}
