package disttree

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
)

// domainPadding inflates the bounding box slightly so that points on the
// upper boundary still encode strictly inside the deepest grid.
const domainPadding = 1e-10

// A Domain is the axis-aligned bounding box that the octree subdivides.
// All cooperating ranks must agree on the domain for keys to be comparable.
type Domain struct {
	Origin   model3d.Coord3D
	Diameter model3d.Coord3D
}

// DomainFromLocalPoints computes the bounding box of a point slice held on
// a single rank.
func DomainFromLocalPoints(coords []model3d.Coord3D) Domain {
	min, max := pointBounds(coords)
	return domainFromBounds(min, max)
}

// DomainFromGlobalPoints computes the bounding box of the union of every
// rank's points. It is a collective operation: all ranks of the communicator
// must call it, and all receive the identical domain. Ranks with no points
// contribute infinite bounds, which lose every reduction.
func DomainFromGlobalPoints(coords []model3d.Coord3D, comm Communicator) Domain {
	min, max := pointBounds(coords)
	mins := comm.AllReduceFloat64([]float64{min.X, min.Y, min.Z}, ReduceMin)
	maxes := comm.AllReduceFloat64([]float64{max.X, max.Y, max.Z}, ReduceMax)
	return domainFromBounds(
		model3d.XYZ(mins[0], mins[1], mins[2]),
		model3d.XYZ(maxes[0], maxes[1], maxes[2]),
	)
}

func pointBounds(coords []model3d.Coord3D) (min, max model3d.Coord3D) {
	min = model3d.XYZ(math.Inf(1), math.Inf(1), math.Inf(1))
	max = min.Scale(-1)
	for _, c := range coords {
		min = min.Min(c)
		max = max.Max(c)
	}
	return
}

func domainFromBounds(min, max model3d.Coord3D) Domain {
	if min.X > max.X {
		// No points at all.
		return Domain{Origin: model3d.Origin, Diameter: model3d.XYZ(1, 1, 1)}
	}
	diameter := max.Sub(min)
	// Degenerate axes still need a non-zero extent to be encodable.
	scale := diameter.X
	if diameter.Y > scale {
		scale = diameter.Y
	}
	if diameter.Z > scale {
		scale = diameter.Z
	}
	if scale == 0 {
		scale = 1
	}
	floor := model3d.XYZ(scale, scale, scale).Scale(domainPadding)
	diameter = diameter.Max(floor).Add(floor)
	return Domain{Origin: min, Diameter: diameter}
}

// Contains reports whether the coordinate lies inside the domain box.
func (d Domain) Contains(c model3d.Coord3D) bool {
	rel := c.Sub(d.Origin)
	return rel.X >= 0 && rel.Y >= 0 && rel.Z >= 0 &&
		rel.X < d.Diameter.X && rel.Y < d.Diameter.Y && rel.Z < d.Diameter.Z
}
