package disttree

import (
	"fmt"
	"time"
)

// Statistics summarizes one rank's part of a distributed tree.
type Statistics struct {
	NumPoints        int
	MaxLevel         int
	NumLeaves        int
	NumKeys          int
	CreationTime     time.Duration
	MinPointsPerLeaf int
	MaxPointsPerLeaf int
	AvgPointsPerLeaf float64
}

func computeStatistics(t *Tree, elapsed time.Duration) Statistics {
	stats := Statistics{
		NumPoints:    len(t.Points),
		NumLeaves:    len(t.Keys),
		NumKeys:      len(t.AllKeys()),
		CreationTime: elapsed,
	}
	for _, k := range t.Keys {
		if l := k.Level(); l > stats.MaxLevel {
			stats.MaxLevel = l
		}
	}
	// Occupancy is measured over non-empty leaves, matching the leaf map.
	counts := map[Key]int{}
	for _, p := range t.Points {
		counts[p.Key]++
	}
	occupied := 0
	for _, n := range counts {
		if occupied == 0 || n < stats.MinPointsPerLeaf {
			stats.MinPointsPerLeaf = n
		}
		if n > stats.MaxPointsPerLeaf {
			stats.MaxPointsPerLeaf = n
		}
		occupied++
	}
	if occupied > 0 {
		stats.AvgPointsPerLeaf = float64(len(t.Points)) / float64(occupied)
	}
	return stats
}

// String renders the statistics banner.
func (s Statistics) String() string {
	return fmt.Sprintf(
		"\nTree Statistics\n"+
			"==============================\n"+
			"Number of points: %d\n"+
			"Maximum level: %d\n"+
			"Number of leaf keys: %d\n"+
			"Number of keys in tree: %d\n"+
			"Creation time [s]: %.3f\n"+
			"Minimum number of points in leaf node: %d\n"+
			"Maximum number of points in leaf node: %d\n"+
			"Average number of points in leaf node: %.2f\n"+
			"==============================\n",
		s.NumPoints,
		s.MaxLevel,
		s.NumLeaves,
		s.NumKeys,
		s.CreationTime.Seconds(),
		s.MinPointsPerLeaf,
		s.MaxPointsPerLeaf,
		s.AvgPointsPerLeaf,
	)
}
