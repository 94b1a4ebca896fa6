package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
	"github.com/voxtree/tree-dist/disttree"
)

func main() {
	var numPoints int
	var ranks int
	var seed int64
	flag.IntVar(&numPoints, "points", 10000, "number of random points to generate")
	flag.IntVar(&ranks, "ranks", 4, "number of in-process ranks")
	flag.Int64Var(&seed, "seed", 0, "random seed for point generation")
	flag.Parse()

	if numPoints < 1 || ranks < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sort_points [flags]")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}

	log.Printf("Generating %d random points...", numPoints)
	r := rand.New(rand.NewSource(seed))
	coords := make([]model3d.Coord3D, numPoints)
	for i := range coords {
		coords[i] = model3d.XYZ(r.Float64(), r.Float64(), r.Float64())
	}

	log.Printf("Sorting across %d ranks...", ranks)
	comms := disttree.LocalGroup(ranks)
	sorted := make([][]disttree.Point, ranks)
	var wg sync.WaitGroup
	for rank, comm := range comms {
		wg.Add(1)
		go func(rank int, comm disttree.Communicator) {
			defer wg.Done()
			share := coords[rank*numPoints/ranks : (rank+1)*numPoints/ranks]
			domain := disttree.DomainFromGlobalPoints(share, comm)
			points := make([]disttree.Point, len(share))
			for i, c := range share {
				points[i] = disttree.Point{
					Coord:     c,
					GlobalIdx: rank*numPoints/ranks + i,
					Key:       disttree.KeyFromPoint(c, domain, disttree.DeepestLevel),
				}
			}
			sorted[rank] = disttree.ParallelSortByKey(points, comm)
		}(rank, comm)
	}
	wg.Wait()

	for rank, points := range sorted {
		if len(points) == 0 {
			fmt.Printf("rank %d: no points\n", rank)
			continue
		}
		fmt.Printf("rank %d: %d points, keys %v .. %v\n",
			rank, len(points), points[0].Key, points[len(points)-1].Key)
	}
	total := 0
	for _, points := range sorted {
		total += len(points)
	}
	if total != numPoints {
		essentials.Die(fmt.Sprintf("lost points: %d != %d", total, numPoints))
	}
}
