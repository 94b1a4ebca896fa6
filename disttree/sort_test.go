package disttree

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

func randomPoints(r *rand.Rand, n, globalOffset int, domain Domain) []Point {
	points := make([]Point, n)
	for i := range points {
		c := model3d.XYZ(r.Float64(), r.Float64(), r.Float64())
		points[i] = Point{
			Coord:     c,
			GlobalIdx: globalOffset + i,
			Key:       KeyFromPoint(c, domain, DeepestLevel),
		}
	}
	return points
}

func TestSortByKey(t *testing.T) {
	r := rand.New(rand.NewSource(8))
	domain := Domain{Origin: model3d.Origin, Diameter: model3d.XYZ(1, 1, 1)}
	points := randomPoints(r, 500, 0, domain)
	SortByKey(points)
	for i := 1; i < len(points); i++ {
		if comparePoints(points[i], points[i-1]) {
			t.Fatalf("points out of order at %d", i)
		}
	}
}

func TestParallelSortByKey(t *testing.T) {
	const ranks = 4
	const perRank = 300
	domain := Domain{Origin: model3d.Origin, Diameter: model3d.XYZ(1, 1, 1)}

	inputs := make([][]Point, ranks)
	for rank := range inputs {
		r := rand.New(rand.NewSource(int64(100 + rank)))
		inputs[rank] = randomPoints(r, perRank, rank*perRank, domain)
	}

	var mu sync.Mutex
	outputs := make([][]Point, ranks)
	runRanks(t, ranks, func(comm Communicator) error {
		sorted := ParallelSortByKey(inputs[comm.Rank()], comm)
		mu.Lock()
		outputs[comm.Rank()] = sorted
		mu.Unlock()
		return nil
	})

	var all []Point
	for rank, part := range outputs {
		for i := 1; i < len(part); i++ {
			if comparePoints(part[i], part[i-1]) {
				t.Fatalf("rank %d out of order at %d", rank, i)
			}
		}
		if rank > 0 && len(part) > 0 {
			prev := outputs[rank-1]
			if len(prev) > 0 && comparePoints(part[0], prev[len(prev)-1]) {
				t.Fatalf("rank %d starts before rank %d ends", rank, rank-1)
			}
		}
		all = append(all, part...)
	}

	if len(all) != ranks*perRank {
		t.Fatalf("sort dropped points: %d != %d", len(all), ranks*perRank)
	}
	seen := make(map[int]bool, len(all))
	for _, p := range all {
		if seen[p.GlobalIdx] {
			t.Fatalf("duplicate global index %d", p.GlobalIdx)
		}
		seen[p.GlobalIdx] = true
	}
}

func TestParallelSortSingleRank(t *testing.T) {
	domain := Domain{Origin: model3d.Origin, Diameter: model3d.XYZ(1, 1, 1)}
	points := randomPoints(rand.New(rand.NewSource(9)), 100, 0, domain)
	runRanks(t, 1, func(comm Communicator) error {
		sorted := ParallelSortByKey(points, comm)
		if len(sorted) != 100 {
			t.Errorf("got %d points", len(sorted))
		}
		return nil
	})
}

func TestParallelSortEmptyRank(t *testing.T) {
	domain := Domain{Origin: model3d.Origin, Diameter: model3d.XYZ(1, 1, 1)}
	runRanks(t, 3, func(comm Communicator) error {
		var points []Point
		if comm.Rank() == 1 {
			r := rand.New(rand.NewSource(10))
			points = randomPoints(r, 200, 0, domain)
		}
		sorted := ParallelSortByKey(points, comm)
		counts := comm.AllGatherUint64([]uint64{uint64(len(sorted))})
		var total uint64
		for _, c := range counts {
			total += c[0]
		}
		if total != 200 {
			t.Errorf("rank %d sees %d total points", comm.Rank(), total)
		}
		return nil
	})
}
