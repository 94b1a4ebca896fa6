package disttree

import (
	"github.com/unixpickle/model3d/model3d"
	"golang.org/x/exp/slices"
)

// A Point is one input coordinate together with its position in the global
// input and the key of the tree box that owns it.
type Point struct {
	Coord model3d.Coord3D

	// GlobalIdx is the index of the point in the global input ordering,
	// unique across ranks.
	GlobalIdx int

	// Key is initially the box containing the point at DeepestLevel and is
	// re-anchored to the owning leaf once the tree is built.
	Key Key
}

// comparePoints orders points by key along the Morton curve, breaking ties
// by global index so that the order is total.
func comparePoints(a, b Point) bool {
	if a.Key != b.Key {
		return a.Key.Less(b.Key)
	}
	return a.GlobalIdx < b.GlobalIdx
}

// SortByKey sorts a rank's points in place by Morton order.
func SortByKey(points []Point) {
	slices.SortFunc(points, comparePoints)
}
