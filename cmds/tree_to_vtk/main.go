package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
	"github.com/voxtree/tree-dist/disttree"
)

func main() {
	var boxesOnly bool
	flag.BoolVar(&boxesOnly, "boxes-only", false, "omit the point cloud from the export")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: tree_to_vtk [flags] <input.bin> <output.vtk>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}
	inputPath, outputPath := args[0], args[1]

	log.Println("Loading tree...")
	tree, err := disttree.Load(inputPath, disttree.ReadTree)
	essentials.Must(err)

	var coords []model3d.Coord3D
	if !boxesOnly {
		coords = make([]model3d.Coord3D, len(tree.Points))
		for i, p := range tree.Points {
			coords[i] = p.Coord
		}
	}

	log.Printf("Writing %d boxes and %d points...", len(tree.Keys), len(coords))
	essentials.Must(disttree.Save(outputPath, tree, func(w io.Writer, t *disttree.Tree) error {
		return disttree.WriteVTK(w, t.Domain, t.Keys, coords)
	}))
}
