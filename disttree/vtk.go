package disttree

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

const (
	vtkVoxel      = 11
	vtkPolyVertex = 2
)

// WriteVTK writes the boxes of the given keys and a point cloud as a legacy
// ASCII VTK unstructured grid: one voxel cell per key and one poly-vertex
// cell holding the coordinates, with a "colors" cell scalar separating the
// two.
func WriteVTK(w io.Writer, domain Domain, keys []Key, coords []model3d.Coord3D) error {
	// A buffered writer keeps the first write error and turns the
	// remaining writes into no-ops, so checking Flush suffices.
	bw := bufio.NewWriter(w)

	numCells := len(keys)
	if len(coords) > 0 {
		numCells++
	}
	numPoints := 8*len(keys) + len(coords)

	fmt.Fprintf(bw, "# vtk DataFile Version 3.0\n")
	fmt.Fprintf(bw, "tree-dist\n")
	fmt.Fprintf(bw, "ASCII\n")
	fmt.Fprintf(bw, "DATASET UNSTRUCTURED_GRID\n")

	fmt.Fprintf(bw, "POINTS %d double\n", numPoints)
	for _, k := range keys {
		min, max := k.Box(domain)
		for _, z := range []float64{min.Z, max.Z} {
			for _, y := range []float64{min.Y, max.Y} {
				for _, x := range []float64{min.X, max.X} {
					fmt.Fprintf(bw, "%v %v %v\n", x, y, z)
				}
			}
		}
	}
	for _, c := range coords {
		fmt.Fprintf(bw, "%v %v %v\n", c.X, c.Y, c.Z)
	}

	cellInts := 9 * len(keys)
	if len(coords) > 0 {
		cellInts += 1 + len(coords)
	}
	fmt.Fprintf(bw, "CELLS %d %d\n", numCells, cellInts)
	for i := range keys {
		base := 8 * i
		fmt.Fprintf(bw, "8")
		for corner := 0; corner < 8; corner++ {
			fmt.Fprintf(bw, " %d", base+corner)
		}
		fmt.Fprintf(bw, "\n")
	}
	if len(coords) > 0 {
		fmt.Fprintf(bw, "%d", len(coords))
		for i := range coords {
			fmt.Fprintf(bw, " %d", 8*len(keys)+i)
		}
		fmt.Fprintf(bw, "\n")
	}

	fmt.Fprintf(bw, "CELL_TYPES %d\n", numCells)
	for range keys {
		fmt.Fprintf(bw, "%d\n", vtkVoxel)
	}
	if len(coords) > 0 {
		fmt.Fprintf(bw, "%d\n", vtkPolyVertex)
	}

	fmt.Fprintf(bw, "CELL_DATA %d\n", numCells)
	fmt.Fprintf(bw, "SCALARS colors int 1\n")
	fmt.Fprintf(bw, "LOOKUP_TABLE default\n")
	for range keys {
		fmt.Fprintf(bw, "0\n")
	}
	if len(coords) > 0 {
		fmt.Fprintf(bw, "1\n")
	}

	return errors.Wrap(bw.Flush(), "write vtk")
}

// WriteVTK gathers the whole distributed tree on rank 0, which writes it to
// the given path. Collective: every rank must call it, and only rank 0
// touches the filesystem.
func (t *Tree) WriteVTK(path string, comm Communicator) error {
	gatheredKeys := comm.GatherKeys(t.Keys, 0)
	gatheredPoints := comm.GatherPoints(t.Points, 0)
	if comm.Rank() != 0 {
		return nil
	}
	var keys []Key
	for _, part := range gatheredKeys {
		keys = append(keys, part...)
	}
	var coords []model3d.Coord3D
	for _, part := range gatheredPoints {
		for _, p := range part {
			coords = append(coords, p.Coord)
		}
	}
	SortKeys(keys)
	return Save(path, t, func(w io.Writer, _ *Tree) error {
		return WriteVTK(w, t.Domain, keys, coords)
	})
}
