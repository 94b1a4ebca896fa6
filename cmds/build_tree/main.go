package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
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
	var balanced bool
	var ncrit int
	var seed int64
	var outPath string
	var vtkPath string
	flag.IntVar(&numPoints, "points", 10000, "number of random points to generate")
	flag.IntVar(&ranks, "ranks", 4, "number of in-process ranks")
	flag.BoolVar(&balanced, "balanced", true, "enforce the 2:1 balance condition")
	flag.IntVar(&ncrit, "ncrit", disttree.DefaultNCrit, "maximum number of points per leaf")
	flag.Int64Var(&seed, "seed", 0, "random seed for point generation")
	flag.StringVar(&outPath, "out", "", "output path for the merged tree")
	flag.StringVar(&vtkPath, "vtk", "", "output path for a VTK export")
	flag.Parse()

	if numPoints < 1 || ranks < 1 {
		fmt.Fprintln(os.Stderr, "Usage: build_tree [flags]")
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

	log.Printf("Building tree across %d ranks...", ranks)
	comms := disttree.LocalGroup(ranks)
	errs := make([]error, ranks)
	var merged *disttree.Tree
	var wg sync.WaitGroup
	for rank, comm := range comms {
		wg.Add(1)
		go func(rank int, comm disttree.Communicator) {
			defer wg.Done()
			share := coords[rank*numPoints/ranks : (rank+1)*numPoints/ranks]
			tree, err := disttree.BuildTree(share, balanced, comm, ncrit)
			if err != nil {
				errs[rank] = err
				return
			}
			if vtkPath != "" {
				if err := tree.WriteVTK(vtkPath, comm); err != nil {
					errs[rank] = err
					return
				}
			}
			if m := disttree.GatherTree(tree, comm); m != nil {
				merged = m
			}
		}(rank, comm)
	}
	wg.Wait()
	for _, err := range errs {
		essentials.Must(err)
	}

	fmt.Println(merged.Stats)
	firstKey, err := json.Marshal(merged.Keys[:1])
	essentials.Must(err)
	fmt.Println("keys[:1] =", string(firstKey))
	p := merged.Points[0:1][0]
	fmt.Printf("points[0:1] = [{coord: %v, global_idx: %d, key: %v}]\n",
		p.Coord, p.GlobalIdx, p.Key)

	if outPath != "" {
		log.Printf("Saving tree to %s...", outPath)
		essentials.Must(disttree.Save(outPath, merged, func(w io.Writer, t *disttree.Tree) error {
			return disttree.WriteTree(w, t)
		}))
	}
	if vtkPath != "" {
		log.Printf("Wrote VTK export to %s.", vtkPath)
	}
}
