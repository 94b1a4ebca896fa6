package disttree

import (
	"reflect"
	"sync"
	"testing"

	"github.com/unixpickle/model3d/model3d"
)

// runRanks runs f once per rank of an in-process group and fails the test
// on the first error any rank returns.
func runRanks(t *testing.T, size int, f func(comm Communicator) error) {
	t.Helper()
	comms := LocalGroup(size)
	errs := make([]error, size)
	var wg sync.WaitGroup
	for rank, comm := range comms {
		wg.Add(1)
		go func(rank int, comm Communicator) {
			defer wg.Done()
			errs[rank] = f(comm)
		}(rank, comm)
	}
	wg.Wait()
	for rank, err := range errs {
		if err != nil {
			t.Fatalf("rank %d: %v", rank, err)
		}
	}
}

func TestLocalGroupRanks(t *testing.T) {
	comms := LocalGroup(3)
	for i, comm := range comms {
		if comm.Rank() != i {
			t.Errorf("communicator %d has rank %d", i, comm.Rank())
		}
		if comm.Size() != 3 {
			t.Errorf("communicator %d has size %d", i, comm.Size())
		}
	}
}

func TestAllGatherUint64(t *testing.T) {
	runRanks(t, 4, func(comm Communicator) error {
		gathered := comm.AllGatherUint64([]uint64{uint64(comm.Rank()), 7})
		for src, vals := range gathered {
			if vals[0] != uint64(src) || vals[1] != 7 {
				t.Errorf("rank %d: bad contribution %v from rank %d",
					comm.Rank(), vals, src)
			}
		}
		return nil
	})
}

func TestAllReduceFloat64(t *testing.T) {
	runRanks(t, 4, func(comm Communicator) error {
		r := float64(comm.Rank())
		if got := comm.AllReduceFloat64([]float64{r}, ReduceMin)[0]; got != 0 {
			t.Errorf("min: got %v", got)
		}
		if got := comm.AllReduceFloat64([]float64{r}, ReduceMax)[0]; got != 3 {
			t.Errorf("max: got %v", got)
		}
		if got := comm.AllReduceFloat64([]float64{r}, ReduceSum)[0]; got != 6 {
			t.Errorf("sum: got %v", got)
		}
		return nil
	})
}

func TestBroadcastAndGatherKeys(t *testing.T) {
	keys := []Key{Root, Root.FirstChild()}
	runRanks(t, 3, func(comm Communicator) error {
		var sent []Key
		if comm.Rank() == 1 {
			sent = keys
		}
		got := comm.BroadcastKeys(sent, 1)
		if !reflect.DeepEqual(got, keys) {
			t.Errorf("rank %d: broadcast got %v", comm.Rank(), got)
		}

		own := []Key{KeyFromAnchor([3]uint64{uint64(comm.Rank()) << (DeepestLevel - 2), 0, 0}, 2)}
		gathered := comm.GatherKeys(own, 0)
		if comm.Rank() == 0 {
			if len(gathered) != 3 {
				t.Errorf("gather: got %d contributions", len(gathered))
			}
		} else if gathered != nil {
			t.Errorf("rank %d: gather returned data on non-root", comm.Rank())
		}
		return nil
	})
}

func TestAllToAllPoints(t *testing.T) {
	runRanks(t, 3, func(comm Communicator) error {
		buckets := make([][]Point, 3)
		for dst := range buckets {
			buckets[dst] = []Point{{
				Coord:     model3d.XYZ(float64(comm.Rank()), float64(dst), 0),
				GlobalIdx: comm.Rank()*3 + dst,
			}}
		}
		merged := comm.AllToAllPoints(buckets)
		if len(merged) != 3 {
			t.Errorf("rank %d: got %d points", comm.Rank(), len(merged))
		}
		for src, p := range merged {
			want := model3d.XYZ(float64(src), float64(comm.Rank()), 0)
			if p.Coord != want {
				t.Errorf("rank %d: point %d is %v, want %v",
					comm.Rank(), src, p.Coord, want)
			}
		}
		return nil
	})
}

func TestBarrier(t *testing.T) {
	var mu sync.Mutex
	entered := 0
	runRanks(t, 4, func(comm Communicator) error {
		mu.Lock()
		entered++
		mu.Unlock()
		comm.Barrier()
		mu.Lock()
		defer mu.Unlock()
		if entered != 4 {
			t.Errorf("rank %d passed the barrier with %d ranks entered",
				comm.Rank(), entered)
		}
		return nil
	})
}
