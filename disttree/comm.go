package disttree

import (
	"fmt"
)

// A ReduceOp combines the element-wise contributions of every rank in an
// AllReduce.
type ReduceOp int

const (
	ReduceMin ReduceOp = iota
	ReduceMax
	ReduceSum
)

// A Communicator connects the cooperating ranks of a distributed tree
// build. It plays the role of the opaque communicator handle of
// message-passing runtimes: every method is collective, so all ranks of the
// group must call the same methods in the same order or the group will
// deadlock, exactly as with such runtimes.
//
// Slices passed to or returned from a Communicator may be shared between
// ranks and must not be mutated afterwards.
type Communicator interface {
	// Rank is the index of the caller within the group.
	Rank() int

	// Size is the number of ranks in the group.
	Size() int

	// Barrier blocks until every rank has entered it.
	Barrier()

	// BroadcastKeys distributes root's keys to every rank.
	BroadcastKeys(keys []Key, root int) []Key

	// GatherKeys collects each rank's keys on root, indexed by rank.
	// Other ranks receive nil.
	GatherKeys(keys []Key, root int) [][]Key

	// GatherPoints collects each rank's points on root, indexed by rank.
	// Other ranks receive nil.
	GatherPoints(points []Point, root int) [][]Point

	// AllGatherKeys collects each rank's keys on every rank, indexed by
	// rank.
	AllGatherKeys(keys []Key) [][]Key

	// AllGatherUint64 collects each rank's values on every rank, indexed
	// by rank.
	AllGatherUint64(vals []uint64) [][]uint64

	// AllReduceFloat64 combines the ranks' equally-sized value slices
	// element-wise and returns the combined slice on every rank.
	AllReduceFloat64(vals []float64, op ReduceOp) []float64

	// AllToAllPoints sends buckets[r] to rank r and returns the received
	// buckets concatenated in rank order. len(buckets) must equal Size.
	AllToAllPoints(buckets [][]Point) []Point
}

// LocalGroup creates an in-process communicator group of the given size.
// Each returned Communicator belongs to one rank and must be used from its
// own goroutine.
func LocalGroup(size int) []Communicator {
	if size < 1 {
		panic(fmt.Sprintf("invalid group size %d", size))
	}
	g := &localGroup{size: size, mail: make([][]chan interface{}, size)}
	for dst := range g.mail {
		g.mail[dst] = make([]chan interface{}, size)
		for src := range g.mail[dst] {
			g.mail[dst][src] = make(chan interface{}, 4)
		}
	}
	comms := make([]Communicator, size)
	for rank := range comms {
		comms[rank] = &localComm{rank: rank, group: g}
	}
	return comms
}

type localGroup struct {
	size int

	// mail[dst][src] carries messages from src to dst. Per-pair channels
	// keep messages from concurrent collectives in program order.
	mail [][]chan interface{}
}

type localComm struct {
	rank  int
	group *localGroup
}

func (l *localComm) Rank() int {
	return l.rank
}

func (l *localComm) Size() int {
	return l.group.size
}

func (l *localComm) send(dst int, v interface{}) {
	l.group.mail[dst][l.rank] <- v
}

func (l *localComm) recv(src int) interface{} {
	return <-l.group.mail[l.rank][src]
}

func (l *localComm) Barrier() {
	for dst := 0; dst < l.group.size; dst++ {
		l.send(dst, nil)
	}
	for src := 0; src < l.group.size; src++ {
		l.recv(src)
	}
}

func (l *localComm) BroadcastKeys(keys []Key, root int) []Key {
	if l.rank == root {
		for dst := 0; dst < l.group.size; dst++ {
			l.send(dst, keys)
		}
	}
	return l.recv(root).([]Key)
}

func (l *localComm) GatherKeys(keys []Key, root int) [][]Key {
	l.send(root, keys)
	if l.rank != root {
		return nil
	}
	gathered := make([][]Key, l.group.size)
	for src := 0; src < l.group.size; src++ {
		gathered[src] = l.recv(src).([]Key)
	}
	return gathered
}

func (l *localComm) GatherPoints(points []Point, root int) [][]Point {
	l.send(root, points)
	if l.rank != root {
		return nil
	}
	gathered := make([][]Point, l.group.size)
	for src := 0; src < l.group.size; src++ {
		gathered[src] = l.recv(src).([]Point)
	}
	return gathered
}

func (l *localComm) AllGatherKeys(keys []Key) [][]Key {
	for dst := 0; dst < l.group.size; dst++ {
		l.send(dst, keys)
	}
	gathered := make([][]Key, l.group.size)
	for src := 0; src < l.group.size; src++ {
		gathered[src] = l.recv(src).([]Key)
	}
	return gathered
}

func (l *localComm) AllGatherUint64(vals []uint64) [][]uint64 {
	for dst := 0; dst < l.group.size; dst++ {
		l.send(dst, vals)
	}
	gathered := make([][]uint64, l.group.size)
	for src := 0; src < l.group.size; src++ {
		gathered[src] = l.recv(src).([]uint64)
	}
	return gathered
}

func (l *localComm) AllReduceFloat64(vals []float64, op ReduceOp) []float64 {
	for dst := 0; dst < l.group.size; dst++ {
		l.send(dst, vals)
	}
	var combined []float64
	for src := 0; src < l.group.size; src++ {
		contrib := l.recv(src).([]float64)
		if combined == nil {
			combined = append([]float64{}, contrib...)
			continue
		}
		if len(contrib) != len(combined) {
			panic("AllReduceFloat64: mismatched lengths across ranks")
		}
		for i, v := range contrib {
			switch op {
			case ReduceMin:
				if v < combined[i] {
					combined[i] = v
				}
			case ReduceMax:
				if v > combined[i] {
					combined[i] = v
				}
			case ReduceSum:
				combined[i] += v
			}
		}
	}
	return combined
}

func (l *localComm) AllToAllPoints(buckets [][]Point) []Point {
	if len(buckets) != l.group.size {
		panic("AllToAllPoints: one bucket per rank required")
	}
	for dst, bucket := range buckets {
		l.send(dst, bucket)
	}
	var merged []Point
	for src := 0; src < l.group.size; src++ {
		merged = append(merged, l.recv(src).([]Point)...)
	}
	return merged
}
